// Package hub is an in-process pub/sub for project updates. The storage
// service publishes every fresh project snapshot; sync sessions and the
// websocket watch endpoint subscribe per project.
package hub

import (
	"context"
	"sync"

	"github.com/voltio/voltio-backend/internal/model"
)

// subscriber channels are buffered; a full one is skipped rather than
// blocking the publisher.
const subscriberBuffer = 8

// Hub fans project updates out to per-project subscribers. A Hub is an
// injected value, constructed once in main; there is no package-level
// singleton.
type Hub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan *model.Project
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{subs: make(map[string]map[int]chan *model.Project)}
}

// Subscribe registers a listener for one project. The returned cancel
// function is idempotent and closes the channel.
func (h *Hub) Subscribe(projectID string) (<-chan *model.Project, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan *model.Project, subscriberBuffer)
	id := h.nextID
	h.nextID++
	if h.subs[projectID] == nil {
		h.subs[projectID] = make(map[int]chan *model.Project)
	}
	h.subs[projectID][id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if m := h.subs[projectID]; m != nil {
				delete(m, id)
				if len(m) == 0 {
					delete(h.subs, projectID)
				}
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers p to every subscriber of its project without blocking.
// Slow subscribers miss the update; they will catch up on the next one.
func (h *Hub) Publish(p *model.Project) {
	if p == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs[p.ProjectID] {
		select {
		case ch <- p:
		default:
			droppedTotal.Inc()
		}
	}
}

// Watch subscribes for ctx's lifetime, satisfying sync.Watcher. The
// subscription is torn down when ctx is done.
func (h *Hub) Watch(ctx context.Context, projectID string) (<-chan *model.Project, error) {
	ch, cancel := h.Subscribe(projectID)
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return ch, nil
}

// SubscriberCount reports the number of active listeners for a project.
func (h *Hub) SubscriberCount(projectID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[projectID])
}
