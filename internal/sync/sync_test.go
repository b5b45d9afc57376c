package sync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltio/voltio-backend/internal/model"
	"github.com/voltio/voltio-backend/internal/sheet"
)

// fakeRemote records every SaveData call.
type fakeRemote struct {
	mu    sync.Mutex
	calls []savedCall
	err   error
}

type savedCall struct {
	projectID  string
	data       model.TableSet
	modifiedBy string
}

func (f *fakeRemote) SaveData(_ context.Context, projectID string, data model.TableSet, modifiedBy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, savedCall{projectID, data, modifiedBy})
	return nil
}

func (f *fakeRemote) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeRemote) last() savedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func (f *fakeRemote) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

// fakeWatcher hands out one channel the test feeds directly.
type fakeWatcher struct {
	ch chan *model.Project
}

func (f *fakeWatcher) Watch(context.Context, string) (<-chan *model.Project, error) {
	return f.ch, nil
}

func newTestSyncer(t *testing.T, window time.Duration) (*Syncer, *sheet.Store, *fakeRemote, *fakeWatcher) {
	t.Helper()
	store := sheet.New()
	remote := &fakeRemote{}
	watcher := &fakeWatcher{ch: make(chan *model.Project, 4)}
	s := New(store, remote, watcher, Config{
		ProjectID: "p1",
		SessionID: "session-a",
		Window:    window,
		Logger:    zerolog.Nop(),
	})
	return s, store, remote, watcher
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestDebounceCoalescesBurst(t *testing.T) {
	_, store, remote, _ := newTestSyncer(t, 50*time.Millisecond)

	row, err := store.AddRow(sheet.ModuleDPMS)
	require.NoError(t, err)
	id := row["id"].(string)
	require.NoError(t, store.UpdateRow(sheet.ModuleDPMS, id, "dimensiones.x", 5.0))
	require.NoError(t, store.UpdateRow(sheet.ModuleDPMS, id, "dimensiones.y", 4.0))

	waitFor(t, func() bool { return remote.count() >= 1 }, "debounced push never fired")
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, remote.count(), "burst of edits must coalesce into one push")

	saved := remote.last()
	assert.Equal(t, "p1", saved.projectID)
	assert.Equal(t, "session-a", saved.modifiedBy)
	dims := saved.data[sheet.ModuleDPMS][0]["dimensiones"].(map[string]any)
	assert.Equal(t, 5.0, dims["x"])
	assert.Equal(t, 4.0, dims["y"], "push carries the final state, not the first")
}

func TestDebounceResetsOnEachEdit(t *testing.T) {
	_, store, remote, _ := newTestSyncer(t, 80*time.Millisecond)

	_, err := store.AddRow(sheet.ModuleThermal)
	require.NoError(t, err)
	// Keep editing inside the window; no push may happen while edits flow.
	for i := 0; i < 4; i++ {
		time.Sleep(30 * time.Millisecond)
		_, err = store.AddRow(sheet.ModuleThermal)
		require.NoError(t, err)
		assert.Equal(t, 0, remote.count(), "push fired before quiescence")
	}

	waitFor(t, func() bool { return remote.count() == 1 }, "push never fired after quiescence")
	assert.Len(t, remote.last().data[sheet.ModuleThermal], 5)
}

func TestForceSaveBypassesWindow(t *testing.T) {
	s, store, remote, _ := newTestSyncer(t, time.Hour)

	_, err := store.AddRow(sheet.ModuleDPMS)
	require.NoError(t, err)
	assert.Equal(t, 0, remote.count())

	require.NoError(t, s.ForceSave(context.Background()))
	assert.Equal(t, 1, remote.count())

	// The pending debounced push was cancelled; nothing else arrives.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, remote.count())
	assert.True(t, s.Connected())
}

func TestEchoSuppressed(t *testing.T) {
	s, store, _, _ := newTestSyncer(t, time.Hour)

	_, err := store.AddRow(sheet.ModuleDPMS)
	require.NoError(t, err)
	before := store.Snapshot()

	s.Apply(&model.Project{
		LastModifiedBy: "session-a",
		Data:           model.TableSet{},
	})

	assert.Equal(t, before, store.Snapshot(), "own echo must not clobber local state")
	assert.False(t, s.LastUpdate().IsZero())
}

func TestForeignUpdateReplacesWholesale(t *testing.T) {
	s, store, remote, _ := newTestSyncer(t, time.Hour)

	_, err := store.AddRow(sheet.ModuleDPMS)
	require.NoError(t, err)
	_, err = store.AddRow(sheet.ModuleThermal)
	require.NoError(t, err)

	s.Apply(&model.Project{
		LastModifiedBy: "session-b",
		Data: model.TableSet{
			sheet.ModuleDPMS: {{"id": "r1", "denominacionTablero": "TS-2"}},
		},
	})

	rows := store.Rows(sheet.ModuleDPMS)
	require.Len(t, rows, 1)
	assert.Equal(t, "r1", rows[0]["id"])
	assert.Equal(t, 0, store.Len(sheet.ModuleThermal), "tables absent from the update become empty")

	// Applying a remote snapshot never schedules an outbound push.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, remote.count())
}

func TestPushFailureMarksDisconnected(t *testing.T) {
	s, store, remote, _ := newTestSyncer(t, 20*time.Millisecond)

	_, err := store.AddRow(sheet.ModuleDPMS)
	require.NoError(t, err)
	waitFor(t, func() bool { return s.Connected() }, "first push never completed")

	remote.setErr(errors.New("network down"))
	assert.Error(t, s.ForceSave(context.Background()))
	assert.False(t, s.Connected())

	// Next edit retries and recovers.
	remote.setErr(nil)
	_, err = store.AddRow(sheet.ModuleDPMS)
	require.NoError(t, err)
	waitFor(t, func() bool { return remote.count() == 2 && s.Connected() }, "recovery push never fired")
}

func TestStartConsumesWatchChannel(t *testing.T) {
	s, store, _, watcher := newTestSyncer(t, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	assert.True(t, s.Connected())

	watcher.ch <- &model.Project{
		LastModifiedBy: "session-b",
		Data: model.TableSet{
			sheet.ModuleDPMS: {{"id": "remote-row"}},
		},
	}
	waitFor(t, func() bool { return store.Len(sheet.ModuleDPMS) == 1 }, "inbound update never applied")

	cancel()
	waitFor(t, func() bool { return !s.Connected() }, "teardown never observed")
}
