package pulse

// Waveform describes run lengths, in samples, for synthesizing a transmission.
// It is used by tests and by the fake line to stand in for a real sensor.
type Waveform struct {
	Idle     int // pull-up high before the sensor answers
	Response int // length of each handshake run (low then high)
	Gap      int // low gap before every data bit
	Zero     int // high run for a 0 bit
	One      int // high run for a 1 bit
	Tail     int // low after the last bit, before the line is released
}

// DefaultWaveform decodes cleanly with DefaultLongPulse.
var DefaultWaveform = Waveform{Idle: 2, Response: 4, Gap: 3, Zero: 1, One: 4, Tail: 3}

// NewFrame builds a frame with a correct checksum for integer readings.
func NewFrame(temperature, humidity byte) Frame {
	f := Frame{HumidityInt: humidity, TempInt: temperature}
	f.Checksum = f.Sum()
	return f
}

// Bytes returns the frame in transmission order.
func (f Frame) Bytes() [5]byte {
	return [5]byte{f.HumidityInt, f.HumidityFrac, f.TempInt, f.TempFrac, f.Checksum}
}

// Synthesize renders a frame as line levels, padded with idle highs to at least MinSamples.
func (w Waveform) Synthesize(f Frame) []byte {
	var out []byte
	out = appendRun(out, 1, w.Idle)
	out = appendRun(out, 0, w.Response)
	out = appendRun(out, 1, w.Response)
	for _, b := range f.Bytes() {
		for i := 7; i >= 0; i-- {
			out = appendRun(out, 0, w.Gap)
			if b&(1<<uint(i)) != 0 {
				out = appendRun(out, 1, w.One)
			} else {
				out = appendRun(out, 1, w.Zero)
			}
		}
	}
	out = appendRun(out, 0, w.Tail)
	if pad := MinSamples - len(out); pad > 0 {
		out = appendRun(out, 1, pad)
	}
	return out
}

func appendRun(out []byte, level byte, n int) []byte {
	for i := 0; i < n; i++ {
		out = append(out, level)
	}
	return out
}
