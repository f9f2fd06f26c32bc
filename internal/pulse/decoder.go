package pulse

import "time"

// Decoder reconstructs a Frame from line levels by run-length classification.
type Decoder struct {
	// LongPulse is the number of high samples a bit must exceed to decode as 1.
	LongPulse int
}

// NewDecoder returns a Decoder using DefaultLongPulse.
func NewDecoder() Decoder {
	return Decoder{LongPulse: DefaultLongPulse}
}

// LongPulseFor derives the classification threshold for a sampling period.
// The threshold sits halfway between the short (0) and long (1) pulse widths,
// so the decoder keeps working as long as the cadence preserves their ratio.
func LongPulseFor(period time.Duration) int {
	if period <= 0 {
		return DefaultLongPulse
	}
	mid := (shortPulse + longPulse) / 2
	n := int(mid / period)
	if n < 1 {
		n = 1
	}
	return n
}

// Decode turns one acquisition pass into a Reading.
// It never returns a best-guess value: every ambiguity is a *DecodeError.
func (d Decoder) Decode(samples SampleBuffer) (Reading, error) {
	frame, err := d.DecodeFrame(samples.Levels)
	if err != nil {
		return Reading{}, err
	}
	if !frame.Valid() {
		return Reading{}, ErrChecksumMismatch
	}
	return Reading{
		Temperature: int(frame.TempInt),
		Humidity:    int(frame.HumidityInt),
		Valid:       true,
		Timestamp:   samples.CapturedAt,
	}, nil
}

// DecodeFrame classifies the 40 data bits without validating the checksum.
func (d Decoder) DecodeFrame(levels []byte) (Frame, error) {
	threshold := d.LongPulse
	if threshold <= 0 {
		threshold = DefaultLongPulse
	}

	s := scanner{levels: levels}

	// Handshake: idle high from the pull-up, then the sensor's response low and high.
	s.skip(1)
	if !s.skip(0) || !s.skip(1) {
		return Frame{}, ErrNoResponse
	}

	var raw [DataBits / 8]byte
	for bit := 0; bit < DataBits; bit++ {
		if !s.skip(0) {
			return Frame{}, &DecodeError{Kind: KindTruncated, Bit: bit}
		}
		n, ok := s.run(1)
		if !ok {
			return Frame{}, &DecodeError{Kind: KindTruncated, Bit: bit}
		}
		raw[bit/8] <<= 1
		if n > threshold {
			raw[bit/8] |= 1
		}
	}

	return Frame{
		HumidityInt:  raw[0],
		HumidityFrac: raw[1],
		TempInt:      raw[2],
		TempFrac:     raw[3],
		Checksum:     raw[4],
	}, nil
}

// scanner walks a level buffer run by run. Every method is bounded by len(levels).
type scanner struct {
	levels []byte
	pos    int
}

// run counts consecutive samples equal to level starting at pos.
// ok is false when the run reaches the end of the buffer, i.e. it never ended.
func (s *scanner) run(level byte) (n int, ok bool) {
	for s.pos < len(s.levels) && s.levels[s.pos] == level {
		s.pos++
		n++
	}
	return n, s.pos < len(s.levels)
}

// skip consumes a run of level. It reports false when the buffer ends inside the run.
func (s *scanner) skip(level byte) bool {
	_, ok := s.run(level)
	return ok
}
