// Package readinglog records every successful reading to a time-series store.
package readinglog

import (
	"context"
	"errors"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sweeney/irrigation-guard/internal/sensor"
)

// Measurement is the InfluxDB measurement readings are written to.
const Measurement = "reading"

// Log records readings.
type Log interface {
	Record(ctx context.Context, monitor string, r sensor.Reading) error
}

// Func adapts a function to Log.
type Func func(ctx context.Context, monitor string, r sensor.Reading) error

// Record calls f.
func (f Func) Record(ctx context.Context, monitor string, r sensor.Reading) error {
	return f(ctx, monitor, r)
}

// Multi records to every log, attempting all and joining failures.
type Multi []Log

// Record writes r to each log in turn.
func (m Multi) Record(ctx context.Context, monitor string, r sensor.Reading) error {
	var errs []error
	for _, l := range m {
		if err := l.Record(ctx, monitor, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PointWriter is the blocking write half of the InfluxDB client.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// InfluxLog writes one point per reading: tag monitor, one field per quantity.
type InfluxLog struct {
	client influxdb2.Client
	writer PointWriter
}

// NewInfluxLog connects a blocking writer to the given bucket.
func NewInfluxLog(url, token, org, bucket string) *InfluxLog {
	client := influxdb2.NewClient(url, token)
	return &InfluxLog{client: client, writer: client.WriteAPIBlocking(org, bucket)}
}

// NewInfluxLogWriter wraps an existing writer.
func NewInfluxLogWriter(w PointWriter) *InfluxLog {
	return &InfluxLog{writer: w}
}

// Record writes the reading as a point.
func (l *InfluxLog) Record(ctx context.Context, monitor string, r sensor.Reading) error {
	if len(r.Values) == 0 {
		return nil
	}
	fields := make(map[string]interface{}, len(r.Values))
	for q, v := range r.Values {
		fields[q] = v
	}
	p := influxdb2.NewPoint(Measurement, map[string]string{"monitor": monitor}, fields, r.Timestamp)
	if err := l.writer.WritePoint(ctx, p); err != nil {
		return fmt.Errorf("write point: %w", err)
	}
	return nil
}

// Close releases the client, if this log owns one.
func (l *InfluxLog) Close() {
	if l.client != nil {
		l.client.Close()
	}
}
