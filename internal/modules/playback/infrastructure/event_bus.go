package infrastructure

import (
	"context"
	"log/slog"
	"sync"

	"github.com/plexbeat/plexbeat/internal/modules/playback/domain"
	"github.com/plexbeat/plexbeat/internal/modules/playback/ports"
)

// DefaultEventBufferSize is the default buffer size for event channels.
const DefaultEventBufferSize = 100

// Compile-time checks that ChannelEventBus implements the ports interfaces.
var (
	_ ports.EventPublisher  = (*ChannelEventBus)(nil)
	_ ports.EventSubscriber = (*ChannelEventBus)(nil)
)

// ChannelEventBus delivers playback lifecycle events asynchronously over
// buffered channels. Each inbound control event and engine callback is handled
// on its own dispatcher goroutine turn, so a slow card render never blocks the
// session that raised the event.
type ChannelEventBus struct {
	trackStarted       chan domain.TrackStartedEvent
	playerStateChanged chan domain.PlayerStateChangedEvent
	trackEnded         chan domain.TrackEndedEvent
	sessionExpired     chan domain.SessionExpiredEvent

	trackStartedHandlers       []func(context.Context, domain.TrackStartedEvent)
	playerStateChangedHandlers []func(context.Context, domain.PlayerStateChangedEvent)
	trackEndedHandlers         []func(context.Context, domain.TrackEndedEvent)
	sessionExpiredHandlers     []func(context.Context, domain.SessionExpiredEvent)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewChannelEventBus creates a new ChannelEventBus with the given buffer size.
func NewChannelEventBus(bufferSize int) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	bus := &ChannelEventBus{
		trackStarted:       make(chan domain.TrackStartedEvent, bufferSize),
		playerStateChanged: make(chan domain.PlayerStateChangedEvent, bufferSize),
		trackEnded:         make(chan domain.TrackEndedEvent, bufferSize),
		sessionExpired:     make(chan domain.SessionExpiredEvent, bufferSize),
		ctx:                ctx,
		cancel:             cancel,
	}

	bus.wg.Add(4)
	go bus.dispatchTrackStarted()
	go bus.dispatchPlayerStateChanged()
	go bus.dispatchTrackEnded()
	go bus.dispatchSessionExpired()

	return bus
}

func (b *ChannelEventBus) dispatchTrackStarted() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.trackStarted:
			if !ok {
				return
			}
			b.mu.RLock()
			handlers := b.trackStartedHandlers
			b.mu.RUnlock()
			for _, handler := range handlers {
				handler(b.ctx, event)
			}
		}
	}
}

func (b *ChannelEventBus) dispatchPlayerStateChanged() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.playerStateChanged:
			if !ok {
				return
			}
			b.mu.RLock()
			handlers := b.playerStateChangedHandlers
			b.mu.RUnlock()
			for _, handler := range handlers {
				handler(b.ctx, event)
			}
		}
	}
}

func (b *ChannelEventBus) dispatchTrackEnded() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.trackEnded:
			if !ok {
				return
			}
			b.mu.RLock()
			handlers := b.trackEndedHandlers
			b.mu.RUnlock()
			for _, handler := range handlers {
				handler(b.ctx, event)
			}
		}
	}
}

func (b *ChannelEventBus) dispatchSessionExpired() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.sessionExpired:
			if !ok {
				return
			}
			b.mu.RLock()
			handlers := b.sessionExpiredHandlers
			b.mu.RUnlock()
			for _, handler := range handlers {
				handler(b.ctx, event)
			}
		}
	}
}

// --- EventPublisher interface ---

// PublishTrackStarted publishes a TrackStartedEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *ChannelEventBus) PublishTrackStarted(event domain.TrackStartedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "TrackStarted")
		return
	}

	select {
	case b.trackStarted <- event:
	default:
		slog.Warn("event buffer full, dropping event", "type", "TrackStarted")
	}
}

// PublishPlayerStateChanged publishes a PlayerStateChangedEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *ChannelEventBus) PublishPlayerStateChanged(event domain.PlayerStateChangedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "PlayerStateChanged")
		return
	}

	select {
	case b.playerStateChanged <- event:
	default:
		slog.Warn("event buffer full, dropping event", "type", "PlayerStateChanged")
	}
}

// PublishTrackEnded publishes a TrackEndedEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *ChannelEventBus) PublishTrackEnded(event domain.TrackEndedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "TrackEnded")
		return
	}

	select {
	case b.trackEnded <- event:
	default:
		slog.Warn("event buffer full, dropping event", "type", "TrackEnded")
	}
}

// PublishSessionExpired publishes a SessionExpiredEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *ChannelEventBus) PublishSessionExpired(event domain.SessionExpiredEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "SessionExpired")
		return
	}

	select {
	case b.sessionExpired <- event:
	default:
		slog.Warn("event buffer full, dropping event", "type", "SessionExpired")
	}
}

// --- EventSubscriber interface ---

// OnTrackStarted registers a handler for TrackStartedEvent.
func (b *ChannelEventBus) OnTrackStarted(handler func(context.Context, domain.TrackStartedEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trackStartedHandlers = append(b.trackStartedHandlers, handler)
}

// OnPlayerStateChanged registers a handler for PlayerStateChangedEvent.
func (b *ChannelEventBus) OnPlayerStateChanged(
	handler func(context.Context, domain.PlayerStateChangedEvent),
) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playerStateChangedHandlers = append(b.playerStateChangedHandlers, handler)
}

// OnTrackEnded registers a handler for TrackEndedEvent.
func (b *ChannelEventBus) OnTrackEnded(handler func(context.Context, domain.TrackEndedEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trackEndedHandlers = append(b.trackEndedHandlers, handler)
}

// OnSessionExpired registers a handler for SessionExpiredEvent.
func (b *ChannelEventBus) OnSessionExpired(
	handler func(context.Context, domain.SessionExpiredEvent),
) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessionExpiredHandlers = append(b.sessionExpiredHandlers, handler)
}

// Close closes all event channels and stops dispatchers.
// After calling Close, publishing will no longer send events.
func (b *ChannelEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()

	close(b.trackStarted)
	close(b.playerStateChanged)
	close(b.trackEnded)
	close(b.sessionExpired)

	b.wg.Wait()

	slog.Debug("channel event bus closed")
}
