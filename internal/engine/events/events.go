package events

import (
	"sync"
)

// Channel names under which download lifecycle records are published.
const (
	ChannelStarted   = "download_started"
	ChannelProgress  = "download_progress"
	ChannelCompleted = "download_completed"
	ChannelFailed    = "download_failed"
	ChannelCanceled  = "download_canceled"
)

// StartedPayload is published once per download, before any progress.
type StartedPayload struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	FileName string `json:"file_name"`
	DestDir  string `json:"dest_dir"`
	Total    *int64 `json:"total,omitempty"`
}

// ProgressPayload is a periodic throughput snapshot. Total is 0 when the
// server did not advertise a length. Speed is bytes per second.
type ProgressPayload struct {
	ID       string `json:"id"`
	Received int64  `json:"received"`
	Total    int64  `json:"total"`
	Speed    int64  `json:"speed"`
}

// CompletedPayload is the terminal record of a successful transfer.
type CompletedPayload struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// FailedPayload is the terminal record of a failed transfer.
type FailedPayload struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// CanceledPayload is the terminal record of a user-canceled transfer.
type CanceledPayload struct {
	ID string `json:"id"`
}

// Event pairs a channel name with its payload record.
type Event struct {
	Channel string
	Payload any
}

// Emitter publishes a payload under a channel name. Publishing is
// fire-and-forget: delivery failures never surface to the caller.
type Emitter interface {
	Emit(channel string, payload any)
}

// Nop is an Emitter that discards everything.
type Nop struct{}

func (Nop) Emit(string, any) {}

// Bus fans events out to subscribers. A subscriber that stops draining its
// channel loses events rather than blocking publishers.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a buffered subscriber channel. The returned cancel
// function removes the subscription and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Emit delivers the event to every subscriber whose buffer has room.
func (b *Bus) Emit(channel string, payload any) {
	ev := Event{Channel: channel, Payload: payload}
	b.mu.Lock()
	for _, sub := range b.subs {
		select {
		case sub <- ev:
		default:
			// Subscriber is behind; drop rather than stall the
			// transfer path.
		}
	}
	b.mu.Unlock()
}
