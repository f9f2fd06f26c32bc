package bus

import (
	"errors"
	"sync"
)

// Write is a recorded write on a FakeBus.
type Write struct {
	Addr uint16
	Data []byte
}

// FakeBus records writes and answers reads from scripted responses.
type FakeBus struct {
	mu sync.Mutex

	// Responses maps a device address to queued read responses.
	// Each read consumes the next response; the last one repeats.
	Responses map[uint16][][]byte

	// Writes records every non-empty write in order.
	Writes []Write

	// TxError, if set, will be returned by Tx().
	TxError error

	// Closed tracks if Close was called.
	Closed bool

	index map[uint16]int
}

// NewFakeBus creates an empty FakeBus.
func NewFakeBus() *FakeBus {
	return &FakeBus{
		Responses: make(map[uint16][][]byte),
		index:     make(map[uint16]int),
	}
}

// Respond queues a read response for addr.
func (f *FakeBus) Respond(addr uint16, data ...byte) {
	f.mu.Lock()
	f.Responses[addr] = append(f.Responses[addr], data)
	f.mu.Unlock()
}

// Tx records w and copies the next scripted response into r.
func (f *FakeBus) Tx(addr uint16, w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.TxError != nil {
		return f.TxError
	}
	if len(w) > 0 {
		f.Writes = append(f.Writes, Write{Addr: addr, Data: append([]byte(nil), w...)})
	}
	if len(r) == 0 {
		return nil
	}
	queue := f.Responses[addr]
	if len(queue) == 0 {
		return errors.New("no response configured")
	}
	i := f.index[addr]
	copy(r, queue[i])
	if i < len(queue)-1 {
		f.index[addr] = i + 1
	}
	return nil
}

// Close marks the bus as closed.
func (f *FakeBus) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}

// WritesTo returns the recorded writes for one device.
func (f *FakeBus) WritesTo(addr uint16) [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out [][]byte
	for _, w := range f.Writes {
		if w.Addr == addr {
			out = append(out, w.Data)
		}
	}
	return out
}
