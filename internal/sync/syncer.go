// Package sync keeps one remote project document eventually consistent with
// a local sheet.Store, and the local store consistent with foreign writes.
// Outbound pushes are debounced; inbound snapshots apply last-writer-wins
// with wholesale table replacement.
package sync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/voltio/voltio-backend/internal/model"
	"github.com/voltio/voltio-backend/internal/sheet"
)

// DefaultWindow is the quiescence window: edits closer together than this
// coalesce into one remote write.
const DefaultWindow = 2 * time.Second

// Remote persists a full table snapshot for a project.
type Remote interface {
	SaveData(ctx context.Context, projectID string, data model.TableSet, modifiedBy string) error
}

// RemoteFunc adapts a function to the Remote interface.
type RemoteFunc func(ctx context.Context, projectID string, data model.TableSet, modifiedBy string) error

func (f RemoteFunc) SaveData(ctx context.Context, projectID string, data model.TableSet, modifiedBy string) error {
	return f(ctx, projectID, data, modifiedBy)
}

// Watcher delivers remote project updates, including echoes of this
// session's own writes. The channel closes when ctx is done.
type Watcher interface {
	Watch(ctx context.Context, projectID string) (<-chan *model.Project, error)
}

// Config carries Syncer construction parameters. Zero values pick defaults.
type Config struct {
	ProjectID string
	SessionID string
	Window    time.Duration
	Logger    zerolog.Logger
}

// Syncer is the per-session sync adapter. It owns the debounce timer and
// the connectivity flag; the sheet.Store stays the single source of local
// truth.
type Syncer struct {
	store   *sheet.Store
	remote  Remote
	watcher Watcher
	cfg     Config

	mu    sync.Mutex
	timer *time.Timer

	connected  atomic.Bool
	lastUpdate atomic.Int64 // unix nanos of the last applied or pushed update

	log zerolog.Logger
}

// New wires a Syncer to its store and remote. Call Start to establish the
// inbound subscription; the Syncer registers itself as the store's change
// listener.
func New(store *sheet.Store, remote Remote, watcher Watcher, cfg Config) *Syncer {
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}
	s := &Syncer{
		store:   store,
		remote:  remote,
		watcher: watcher,
		cfg:     cfg,
		log: cfg.Logger.With().
			Str("projectId", cfg.ProjectID).
			Str("sessionId", cfg.SessionID).
			Logger(),
	}
	store.OnChange(s.NotifyChange)
	return s
}

// Start establishes the remote subscription and consumes updates until ctx
// is done. It returns once the subscription is up; inbound handling runs on
// its own goroutine. A pending debounced write in flight at teardown
// completes independently.
func (s *Syncer) Start(ctx context.Context) error {
	updates, err := s.watcher.Watch(ctx, s.cfg.ProjectID)
	if err != nil {
		s.connected.Store(false)
		return err
	}
	s.connected.Store(true)
	s.log.Info().Msg("sync session connected")

	go func() {
		defer s.connected.Store(false)
		for {
			select {
			case <-ctx.Done():
				s.cancelPending()
				s.log.Info().Msg("sync session closed")
				return
			case p, ok := <-updates:
				if !ok {
					s.log.Info().Msg("watch channel closed")
					return
				}
				s.Apply(p)
			}
		}
	}()
	return nil
}

// NotifyChange (re)arms the debounce timer. Successive calls within the
// quiescence window collapse into a single push carrying the final state.
func (s *Syncer) NotifyChange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Reset(s.cfg.Window)
		return
	}
	s.timer = time.AfterFunc(s.cfg.Window, func() {
		s.mu.Lock()
		s.timer = nil
		s.mu.Unlock()
		if err := s.push(context.Background()); err != nil {
			// Background failures are logged only; the next edit retries.
			s.log.Error().Err(err).Msg("debounced save failed")
		}
	})
}

// ForceSave bypasses the debounce window and pushes immediately.
func (s *Syncer) ForceSave(ctx context.Context) error {
	s.cancelPending()
	return s.push(ctx)
}

// Apply handles one inbound update. An echo of this session's own write is
// ignored so newer local edits are not discarded; a foreign write replaces
// every local table wholesale.
func (s *Syncer) Apply(p *model.Project) {
	if p == nil {
		return
	}
	s.lastUpdate.Store(time.Now().UnixNano())
	if p.LastModifiedBy == s.cfg.SessionID {
		echoesSuppressed.Inc()
		return
	}
	s.store.ReplaceAll(p.Data)
	foreignApplied.Inc()
	s.log.Debug().Str("lastModifiedBy", p.LastModifiedBy).Msg("applied foreign update")
}

// Connected reports sync health: false after a failed write until the next
// successful round-trip.
func (s *Syncer) Connected() bool { return s.connected.Load() }

// LastUpdate returns the time of the most recent push or inbound update,
// zero if none yet.
func (s *Syncer) LastUpdate() time.Time {
	n := s.lastUpdate.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

func (s *Syncer) cancelPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Syncer) push(ctx context.Context) error {
	snap := s.store.Snapshot()
	if err := s.remote.SaveData(ctx, s.cfg.ProjectID, snap, s.cfg.SessionID); err != nil {
		pushFailures.Inc()
		s.connected.Store(false)
		return err
	}
	pushesTotal.Inc()
	s.connected.Store(true)
	s.lastUpdate.Store(time.Now().UnixNano())
	return nil
}
