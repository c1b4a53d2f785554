// Package events carries interpretation lifecycle notifications from the
// background workers to whoever is listening, primarily WebSocket
// connections waiting to tell a client their reading is ready.
package events

import (
	"log/slog"
	"sync"

	"github.com/dhbtk/webtarot/internal/domain"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind starts losing notifications; clients recover by
// re-subscribing, which re-checks the stored state.
const subscriberBuffer = 16

// Publisher is the side of the broadcaster the workers see.
type Publisher interface {
	// Publish delivers the interpretation, by value, to every current
	// subscriber. It never blocks on slow subscribers.
	Publish(interp domain.Interpretation)
}

// Broadcaster fans interpretation updates out to subscribers. Each
// subscriber gets its own buffered channel; published values are copies, so
// subscribers cannot race on shared state.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[int]chan domain.Interpretation
	nextID int
	closed bool
	logger *slog.Logger
}

// NewBroadcaster creates an empty broadcaster. If log is nil, a default
// logger will be used.
func NewBroadcaster(log *slog.Logger) *Broadcaster {
	if log == nil {
		log = slog.Default()
	}
	return &Broadcaster{
		subs:   make(map[int]chan domain.Interpretation),
		logger: log.With(slog.String("component", "broadcaster")),
	}
}

// Ensure Broadcaster implements Publisher
var _ Publisher = (*Broadcaster)(nil)

// Subscribe registers a new subscriber and returns its channel together with
// a cancel function. Cancel is idempotent and closes the channel.
func (b *Broadcaster) Subscribe() (<-chan domain.Interpretation, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan domain.Interpretation, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.logger.Debug("subscriber added", slog.Int("subscriber_count", len(b.subs)))

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if ch, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Publish implements Publisher.
func (b *Broadcaster) Publish(interp domain.Interpretation) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	for _, ch := range b.subs {
		select {
		case ch <- interp:
		default:
			b.logger.Warn("dropping notification for slow subscriber",
				slog.String("reading_id", interp.Reading.ID.String()))
		}
	}
}

// Close shuts the broadcaster down. All subscriber channels are closed and
// later Publish calls become no-ops.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
