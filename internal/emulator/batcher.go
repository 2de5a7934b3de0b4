package emulator

import (
	"context"
	"fmt"
	"github.com/litetable/litetable-io/internal/litetable"
	"github.com/litetable/litetable-io/internal/transport"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"sync"
	"time"
)

type queued struct {
	entry  *litetable.MutationEntry
	result chan error
}

// Batcher applies queued entries to a table when it is flushed, when it holds maxEntries of
// them, or on its timer.
type Batcher struct {
	mu         sync.Mutex
	table      *table
	tableID    string
	queue      []queued
	maxEntries int
	closed     bool
	failed     int
	sent       int

	stop chan struct{}
	done chan struct{}
}

func (e *Emulator) NewBatcher(id string) (transport.Batcher, error) {
	t, err := e.table(id)
	if err != nil {
		return nil, err
	}

	b := &Batcher{
		table:      t,
		tableID:    id,
		maxEntries: e.maxBatchEntries,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	if e.flushInterval > 0 {
		go b.run(e.flushInterval)
	} else {
		close(b.done)
	}
	return b, nil
}

func (b *Batcher) run(interval time.Duration) {
	defer close(b.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.mu.Lock()
			b.send()
			b.mu.Unlock()
		}
	}
}

func (b *Batcher) Add(entry *litetable.MutationEntry) transport.BatchResult {
	result := make(chan error, 1)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		result <- status.Errorf(codes.FailedPrecondition, "batcher for table %s is closed", b.tableID)
		return result
	}
	b.queue = append(b.queue, queued{entry: entry, result: result})
	if len(b.queue) >= b.maxEntries {
		b.send()
	}
	return result
}

// send applies the queue. It must be called with mu held.
func (b *Batcher) send() {
	if len(b.queue) == 0 {
		return
	}
	for _, q := range b.queue {
		err := b.table.apply(q.entry)
		if err != nil {
			b.failed++
		}
		b.sent++
		q.result <- err
	}
	log.Debug().Str("table", b.tableID).Int("entries", len(b.queue)).Msg("batch applied")
	b.queue = nil
}

func (b *Batcher) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.send()
	return nil
}

// Close flushes what is queued and stops the timer. It reports how many entries failed over
// the life of the batcher.
func (b *Batcher) Close(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.send()
	failed, sent := b.failed, b.sent
	b.mu.Unlock()

	close(b.stop)
	<-b.done

	if failed > 0 {
		return fmt.Errorf("%d of %d entries failed on table %s", failed, sent, b.tableID)
	}
	return nil
}
