package application

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/duelist/domain/journal"
	"github.com/felixgeelhaar/duelist/infrastructure/logging"
)

const (
	defaultRecorderBuffer = 64
	recorderBatchSize     = 16
	recorderMaxWait       = 250 * time.Millisecond
	recorderWriteTimeout  = 2 * time.Second
)

// recorder writes journal entries off the tick goroutine. Entries are
// batched and flushed when the batch fills or MaxWait elapses. A full
// buffer drops the entry rather than block the frame.
type recorder struct {
	store   journal.Store
	entries chan journal.Entry
	done    chan struct{}
	dropped atomic.Uint64

	closeOnce sync.Once
}

func newRecorder(store journal.Store, buffer int) *recorder {
	if buffer <= 0 {
		buffer = defaultRecorderBuffer
	}
	r := &recorder{
		store:   store,
		entries: make(chan journal.Entry, buffer),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// Record queues an entry. It reports false when the entry was dropped.
func (r *recorder) Record(e journal.Entry) bool {
	select {
	case r.entries <- e:
		return true
	default:
		r.dropped.Add(1)
		logging.Warn().
			Add(logging.SessionID(e.SessionID)).
			Add(logging.Cycle(e.Cycle)).
			Msg("journal buffer full, entry dropped")
		return false
	}
}

// Dropped returns how many entries were dropped.
func (r *recorder) Dropped() uint64 {
	return r.dropped.Load()
}

func (r *recorder) run() {
	defer close(r.done)

	batch := make([]journal.Entry, 0, recorderBatchSize)
	timer := time.NewTimer(recorderMaxWait)
	defer timer.Stop()

	for {
		select {
		case e, ok := <-r.entries:
			if !ok {
				r.flush(batch)
				return
			}
			batch = append(batch, e)
			if len(batch) >= recorderBatchSize {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-timer.C:
			r.flush(batch)
			batch = batch[:0]
			timer.Reset(recorderMaxWait)
		}
	}
}

func (r *recorder) flush(batch []journal.Entry) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), recorderWriteTimeout)
	defer cancel()

	for _, e := range batch {
		if err := r.store.Append(ctx, e); err != nil {
			logging.Warn().
				Add(logging.SessionID(e.SessionID)).
				Add(logging.Cycle(e.Cycle)).
				Add(logging.ErrorField(err)).
				Msg("journal append failed")
		}
	}
}

// Close flushes pending entries and stops the worker. The store stays
// open; its owner closes it.
func (r *recorder) Close() error {
	r.closeOnce.Do(func() {
		close(r.entries)
	})
	<-r.done
	return nil
}
