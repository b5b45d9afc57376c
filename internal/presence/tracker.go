// Package presence tracks which identities are actively viewing a project.
// Records are in-memory only and expire when not refreshed: MarkActive
// doubles as the heartbeat, and a background sweeper drops stale entries so
// a crashed client does not stay "online" forever.
package presence

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/voltio/voltio-backend/internal/model"
)

const (
	// DefaultTTL is how long a record survives without a heartbeat.
	DefaultTTL = 60 * time.Second

	// sweepInterval is how often expired records are collected.
	sweepInterval = 15 * time.Second
)

// Tracker is the process-wide active-user set, keyed by project and user.
type Tracker struct {
	mu  sync.Mutex
	ttl time.Duration
	now func() time.Time

	// byProject preserves join order per project for display.
	byProject map[string][]*model.Presence

	log zerolog.Logger
}

// NewTracker returns a Tracker with the given TTL (DefaultTTL when <= 0).
func NewTracker(ttl time.Duration, log zerolog.Logger) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{
		ttl:       ttl,
		now:       time.Now,
		byProject: make(map[string][]*model.Presence),
		log:       log,
	}
}

// MarkActive inserts or refreshes a record. Insertion is idempotent: a
// second call for the same user only refreshes lastSeen and metadata.
func (t *Tracker) MarkActive(rec model.Presence) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for _, existing := range t.byProject[rec.ProjectID] {
		if existing.UserID == rec.UserID {
			existing.LastSeen = now
			existing.Status = "online"
			if rec.DisplayName != "" {
				existing.DisplayName = rec.DisplayName
			}
			if rec.Email != "" {
				existing.Email = rec.Email
			}
			return
		}
	}

	rec.Status = "online"
	rec.JoinedAt = now
	rec.LastSeen = now
	t.byProject[rec.ProjectID] = append(t.byProject[rec.ProjectID], &rec)
	t.log.Debug().Str("projectId", rec.ProjectID).Str("userId", rec.UserID).Msg("user joined")
}

// MarkInactive removes a record; absent records are a no-op.
func (t *Tracker) MarkInactive(projectID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.remove(projectID, userID)
}

// ListActive returns the active set for a project in join order.
func (t *Tracker) ListActive(projectID string) []model.Presence {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-t.ttl)
	out := make([]model.Presence, 0, len(t.byProject[projectID]))
	for _, rec := range t.byProject[projectID] {
		if rec.LastSeen.Before(cutoff) {
			continue
		}
		out = append(out, *rec)
	}
	return out
}

// Run sweeps expired records until ctx is done.
func (t *Tracker) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.sweep()
		}
	}
}

func (t *Tracker) sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-t.ttl)
	for projectID, recs := range t.byProject {
		kept := recs[:0]
		for _, rec := range recs {
			if rec.LastSeen.Before(cutoff) {
				t.log.Debug().Str("projectId", projectID).Str("userId", rec.UserID).Msg("presence expired")
				continue
			}
			kept = append(kept, rec)
		}
		if len(kept) == 0 {
			delete(t.byProject, projectID)
			continue
		}
		t.byProject[projectID] = kept
	}
}

// remove must be called with t.mu held.
func (t *Tracker) remove(projectID, userID string) {
	recs := t.byProject[projectID]
	for i, rec := range recs {
		if rec.UserID == userID {
			t.byProject[projectID] = append(recs[:i], recs[i+1:]...)
			if len(t.byProject[projectID]) == 0 {
				delete(t.byProject, projectID)
			}
			return
		}
	}
}
