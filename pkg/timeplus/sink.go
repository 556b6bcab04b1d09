package timeplus

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aegisvault/aegis-monitor/pkg/services"
)

const (
	defaultBufferSize    = 256
	defaultFlushInterval = time.Second
	flushTimeout         = 5 * time.Second
)

// Sink mirrors view events into Timeplus streams. Publish never blocks: when
// the buffer is full the event is dropped and counted.
type Sink struct {
	client        TimeplusClient
	prefix        string
	events        chan services.Event
	flushInterval time.Duration
	dropped       atomic.Int64
	written       atomic.Int64
}

var _ services.EventSink = (*Sink)(nil)

// NewSink creates a sink writing to the streams named with prefix
func NewSink(client TimeplusClient, prefix string, bufferSize int) *Sink {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Sink{
		client:        client,
		prefix:        prefix,
		events:        make(chan services.Event, bufferSize),
		flushInterval: defaultFlushInterval,
	}
}

// Publish queues evt for the next batch
func (s *Sink) Publish(evt services.Event) {
	select {
	case s.events <- evt:
	default:
		if n := s.dropped.Add(1); n == 1 || n%100 == 0 {
			logrus.Warnf("Timeplus sink buffer full, %d events dropped so far", n)
		}
	}
}

// Dropped returns the number of events discarded because the buffer was full
func (s *Sink) Dropped() int64 {
	return s.dropped.Load()
}

// Written returns the number of events flushed to Timeplus
func (s *Sink) Written() int64 {
	return s.written.Load()
}

// Run batches queued events and inserts them every flush interval until ctx
// is cancelled, then flushes whatever is left.
func (s *Sink) Run(ctx context.Context) {
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	capacity := cap(s.events)
	batch := make([]services.Event, 0, capacity)
	for {
		select {
		case <-ctx.Done():
			// Drain without blocking and do a last write on a fresh context
		drain:
			for {
				select {
				case evt := <-s.events:
					batch = append(batch, evt)
				default:
					break drain
				}
			}
			flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
			s.flush(flushCtx, batch)
			cancel()
			return
		case evt := <-s.events:
			batch = append(batch, evt)
			if len(batch) >= capacity {
				s.flush(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

// flush writes a batch of events, grouped by stream
func (s *Sink) flush(ctx context.Context, batch []services.Event) {
	if len(batch) == 0 {
		return
	}

	schemas := Schemas()
	rows := make(map[string][][]interface{})
	for _, evt := range batch {
		row, err := eventRow(evt)
		if err != nil {
			logrus.Errorf("Skipping event: %v", err)
			continue
		}
		rows[EventsStream] = append(rows[EventsStream], row)

		if evt.Kind != services.EventInsert && evt.Kind != services.EventUpdate && evt.Kind != services.EventScan {
			continue
		}
		if suffix, rec := recordRow(evt.Record); suffix != "" {
			rows[suffix] = append(rows[suffix], rec)
		}
	}

	for suffix, streamRows := range rows {
		table := Table{Name: SanitizeName(s.prefix + suffix), Columns: schemas[suffix]}
		if err := s.client.InsertRows(ctx, table.Name, table.ColumnNames(), streamRows); err != nil {
			logrus.Errorf("Failed to write %d rows to %s: %v", len(streamRows), table.Name, err)
			continue
		}
		if suffix == EventsStream {
			s.written.Add(int64(len(streamRows)))
		}
	}
}
