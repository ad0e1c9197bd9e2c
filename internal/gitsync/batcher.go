package gitsync

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shrimpsizemoose/trekker/logger"
)

const DefaultBatchInterval = 5 * time.Second

// Batcher collects sync requests and runs them as one sync per interval.
type Batcher struct {
	syncer    *Syncer
	scheduler *gocron.Scheduler

	mu       sync.Mutex
	messages []string
}

func NewBatcher(syncer *Syncer, interval time.Duration) (*Batcher, error) {
	if interval <= 0 {
		interval = DefaultBatchInterval
	}
	b := &Batcher{
		syncer:    syncer,
		scheduler: gocron.NewScheduler(time.UTC),
	}

	_, err := b.scheduler.Every(interval).SingletonMode().Do(b.Flush)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule sync batcher: %w", err)
	}
	return b, nil
}

func (b *Batcher) Start() {
	b.scheduler.StartAsync()
}

// Stop halts the schedule and flushes whatever is still queued.
func (b *Batcher) Stop() {
	b.scheduler.Stop()
	b.Flush()
}

func (b *Batcher) RequestSync(message string) {
	if !b.syncer.Enabled() {
		return
	}
	b.mu.Lock()
	b.messages = append(b.messages, message)
	b.mu.Unlock()
}

func (b *Batcher) Queued() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

// Flush runs one sync for all queued requests.
func (b *Batcher) Flush() {
	b.mu.Lock()
	messages := b.messages
	b.messages = nil
	b.mu.Unlock()

	if len(messages) == 0 {
		return
	}

	message := messages[0]
	if len(messages) > 1 {
		message = fmt.Sprintf("Batch sync (%d changes)\n\n%s", len(messages), strings.Join(messages, "\n"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.syncer.timeoutOrDefault())
	defer cancel()
	if err := b.syncer.Sync(ctx, message); err != nil {
		logger.Error.Printf("Batched sync of %d changes failed: %v", len(messages), err)
	}
}
