// Package queue decouples audit persistence from the auth path: session
// lifecycle events are recorded asynchronously so a slow audit store can
// never delay a login, logout, or forced logout.
package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/urbaninsight/insight-edge/internal/core/domain"
	"github.com/urbaninsight/insight-edge/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// AuditDispatcher fans audit events out to a fixed set of workers using
// consistent hashing on the session ID, so the events of one session are
// always persisted in the order they happened.
//
// It implements ports.AuditRecorder itself, wrapping the synchronous
// recorder that does the actual write.
type AuditDispatcher struct {
	workers []chan domain.AuditEvent
	sink    ports.AuditRecorder
	log     zerolog.Logger
}

// NewAuditDispatcher creates a dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewAuditDispatcher(numWorkers int, sink ports.AuditRecorder, log zerolog.Logger) *AuditDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &AuditDispatcher{
		workers: make([]chan domain.AuditEvent, numWorkers),
		sink:    sink,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuditEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *AuditDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Record enqueues one event for its session's worker. The call is
// non-blocking up to channelBuffer capacity and never returns an error;
// persistence failures are logged by the worker.
func (d *AuditDispatcher) Record(_ context.Context, event domain.AuditEvent) error {
	d.workers[d.shardIndex(event.SessionID)] <- event
	return nil
}

// shardIndex maps a session ID deterministically to a worker index.
func (d *AuditDispatcher) shardIndex(sessionID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return int(h.Sum32()) % len(d.workers)
}

func (d *AuditDispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuditEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := d.sink.Record(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("session_id", event.SessionID).
					Str("event", event.Event).
					Int("worker_id", id).
					Msg("audit persistence failed")
			}
		}
	}
}
