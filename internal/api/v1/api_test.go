// internal/api/v1/api_test.go
package v1

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/reelshelf/internal/catalogcache"
	"github.com/vmunix/reelshelf/internal/classifier"
	"github.com/vmunix/reelshelf/internal/events"
	"github.com/vmunix/reelshelf/internal/fsaccess"
	"github.com/vmunix/reelshelf/internal/fsaccess/mocks"
	"github.com/vmunix/reelshelf/internal/library"
	"github.com/vmunix/reelshelf/internal/localstore"
	"github.com/vmunix/reelshelf/internal/profile"
	"github.com/vmunix/reelshelf/internal/progress"
	"github.com/vmunix/reelshelf/internal/scanner"
)

const (
	heatID    = "Library/Movies/Heat (1995).mkv"
	friendsID = "Library/Serials/Friends"
	episodeID = "Library/Serials/Friends/Season 01/Friends.S01E01.mkv"
)

var testTree = map[string]string{
	"/Movies/Heat (1995).mkv":                        "0123456789",
	"/Movies/Inception (2010).mkv":                   "x",
	"/Serials/Friends/Season 01/Friends.S01E01.mkv": "x",
	"/Serials/Friends/Season 01/Friends.S01E02.mkv": "x",
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// idleTimer never fires; trailing writes are covered by the progress tests.
type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

type testEnv struct {
	mux      *http.ServeMux
	srv      *Server
	kv       *localstore.Store
	cache    *catalogcache.Cache
	progress *progress.Registry
	profiles *profile.Manager
	bus      *events.Bus
	eventLog *events.EventLog
	files    *fsaccess.AferoProvider
	clock    *testClock
}

func newTestEnv(t *testing.T, mutate ...func(*ServerDeps)) *testEnv {
	return newTestEnvWithBuild(t, nil, mutate...)
}

// newTestEnvWithBuild wires real components over an in-memory tree and
// database. A nil build scans the tree.
func newTestEnvWithBuild(t *testing.T, build catalogcache.BuildFunc, mutate ...func(*ServerDeps)) *testEnv {
	t.Helper()

	fsys := afero.NewMemMapFs()
	for name, content := range testTree {
		require.NoError(t, fsys.MkdirAll(path.Dir(name), 0o755))
		require.NoError(t, afero.WriteFile(fsys, name, []byte(content), 0o644))
	}
	files := fsaccess.NewAferoProvider(fsys, "Library")

	db, err := localstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	env := &testEnv{
		kv:       localstore.New(db),
		files:    files,
		eventLog: events.NewEventLog(db),
		clock:    &testClock{now: time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)},
	}
	env.bus = events.NewBus(env.eventLog, testLogger())
	t.Cleanup(func() { _ = env.bus.Close() })

	if build == nil {
		builder := library.NewBuilder(classifier.New(scanner.New(files, testLogger()), 3, testLogger()), testLogger())
		build = func(ctx context.Context) (*library.Catalog, error) {
			return builder.Build(ctx, files.Root(), "Library", nil)
		}
	}
	env.cache = catalogcache.New(build, catalogcache.Options{
		Now:    env.clock.Now,
		Bus:    env.bus,
		Root:   "Library",
		Logger: testLogger(),
	})
	env.progress = progress.NewRegistry(env.kv, progress.Options{
		Now:       env.clock.Now,
		AfterFunc: func(time.Duration, func()) progress.Timer { return idleTimer{} },
		ResolveType: func(id string) library.MediaType {
			if c := env.cache.Peek(); c != nil {
				return c.MediaTypeOf(id)
			}
			return library.MediaUnknown
		},
		Logger: testLogger(),
	})
	env.profiles = profile.NewManager(env.kv, testLogger()).WithPublisher(env.bus).WithClock(env.clock.Now)

	deps := ServerDeps{
		Catalog:  env.cache,
		Progress: env.progress,
		Profiles: env.profiles,
		Files:    files,
		Bus:      env.bus,
		EventLog: env.eventLog,
	}
	for _, m := range mutate {
		m(&deps)
	}

	srv, err := New(deps, testLogger())
	require.NoError(t, err)
	env.srv = srv.WithClock(env.clock.Now)
	env.mux = http.NewServeMux()
	env.srv.RegisterRoutes(env.mux)
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, r)
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

func (e *testEnv) useProfile(t *testing.T, name string) {
	t.Helper()
	_, err := e.profiles.Create(context.Background(), name)
	require.NoError(t, err)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorResponse](t, w).Code
}

func q(id string) string { return url.QueryEscape(id) }

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(ServerDeps{}, nil)
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestGetCatalog_WithoutProfile(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[catalogResponse](t, w)
	assert.Equal(t, library.LayoutOrganized, resp.Type)
	assert.Equal(t, "fresh", resp.State)
	require.Len(t, resp.Movies, 2)
	require.Len(t, resp.Series, 1)
	assert.Nil(t, resp.Movies[0].Progress)
	assert.Nil(t, resp.LastWatched)
}

func TestGetCatalog_AccessDenied(t *testing.T) {
	env := newTestEnvWithBuild(t, func(context.Context) (*library.Catalog, error) {
		return nil, fmt.Errorf("classify Library: %w", fsaccess.ErrPermissionDenied)
	})

	w := env.do(t, http.MethodGet, "/api/v1/catalog", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ACCESS_DENIED", errorCode(t, w))
}

func TestGetCatalog_NoContent(t *testing.T) {
	env := newTestEnvWithBuild(t, func(context.Context) (*library.Catalog, error) {
		return &library.Catalog{Type: library.LayoutUnknown, Failures: []string{"Library/Locked"}}, nil
	})

	w := env.do(t, http.MethodGet, "/api/v1/catalog", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NO_CONTENT", errorCode(t, w))
}

func TestCatalogInfoAndRefresh(t *testing.T) {
	env := newTestEnv(t, func(d *ServerDeps) {
		d.Permission = fsaccess.NewWatcher(d.Files, 0, nil, testLogger())
	})

	info := decode[catalogInfoResponse](t, env.do(t, http.MethodGet, "/api/v1/catalog/info", nil))
	assert.False(t, info.HasData)

	w := env.do(t, http.MethodPost, "/api/v1/catalog/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[catalogSummary](t, w)
	assert.Equal(t, "organized", summary.Layout)
	assert.Equal(t, 2, summary.Movies)
	assert.Equal(t, 1, summary.Series)

	env.clock.Advance(time.Minute)
	info = decode[catalogInfoResponse](t, env.do(t, http.MethodGet, "/api/v1/catalog/info", nil))
	assert.True(t, info.HasData)
	assert.True(t, info.Fresh)
	assert.Equal(t, int64(60), info.AgeSeconds)

	w = env.do(t, http.MethodPost, "/api/v1/catalog/refresh?invalidate=true", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/search?q=heat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[searchResponse](t, w)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "Heat (1995)", resp.Results[0].Title)
	assert.Equal(t, heatID, resp.Results[0].Identity)

	w = env.do(t, http.MethodGet, "/api/v1/search?q=", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSeries(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/series?id="+q(friendsID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	s := decode[library.Series](t, w)
	assert.Equal(t, "Friends", s.Title)
	assert.Equal(t, 2, s.Progress.TotalEpisodes)

	w = env.do(t, http.MethodGet, "/api/v1/series?id="+q("Library/Serials/Lost"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/series", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlayback_RequiresProfile(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/playback/timeupdate", playbackRequest{ID: heatID, Position: 10, Duration: 100})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NO_PROFILE", errorCode(t, w))
}

func TestPlayback_InvalidRequests(t *testing.T) {
	env := newTestEnv(t)
	env.useProfile(t, "alice")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/playback/timeupdate", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	env.mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_JSON", errorCode(t, w))

	w = env.do(t, http.MethodPost, "/api/v1/playback/timeupdate", playbackRequest{Position: 1, Duration: 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, w))
}

func TestPlayback_ProgressOverlaysCatalog(t *testing.T) {
	env := newTestEnv(t)
	env.useProfile(t, "alice")

	// Prime the cache so new records resolve their media type.
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/catalog", nil).Code)

	w := env.do(t, http.MethodPost, "/api/v1/playback/timeupdate", playbackRequest{ID: heatID, Position: 50, Duration: 120})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/progress?id="+q(heatID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[library.WatchProgress](t, w)
	assert.Equal(t, 50.0, p.Position)
	assert.False(t, p.Completed)
	assert.Equal(t, library.MediaMovie, p.MediaType)

	cat := decode[catalogResponse](t, env.do(t, http.MethodGet, "/api/v1/catalog", nil))
	require.NotNil(t, cat.Movies[0].Progress)
	assert.Equal(t, heatID, cat.Movies[0].Identity())
	assert.Equal(t, 50.0, cat.Movies[0].Progress.Position)
	require.NotNil(t, cat.LastWatched)
	assert.Equal(t, heatID, cat.LastWatched.MediaIdentity)

	// The cached catalog itself carries no progress.
	assert.Nil(t, env.cache.Peek().Movies[0].Progress)

	w = env.do(t, http.MethodGet, "/api/v1/progress?id="+q(episodeID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlayback_PauseWritesThroughThrottle(t *testing.T) {
	env := newTestEnv(t)
	env.useProfile(t, "alice")
	ctx := context.Background()

	env.do(t, http.MethodPost, "/api/v1/playback/timeupdate", playbackRequest{ID: heatID, Position: 10, Duration: 600})
	env.clock.Advance(time.Second)
	env.do(t, http.MethodPost, "/api/v1/playback/timeupdate", playbackRequest{ID: heatID, Position: 11, Duration: 600})

	var stored library.WatchProgress
	require.NoError(t, env.kv.Get(ctx, localstore.ProgressNamespace("alice"), heatID, &stored))
	assert.Equal(t, 10.0, stored.Position, "second tick is held by the throttle")

	env.clock.Advance(time.Second)
	w := env.do(t, http.MethodPost, "/api/v1/playback/pause", playbackRequest{ID: heatID, Position: 12, Duration: 600})
	require.Equal(t, http.StatusNoContent, w.Code)

	require.NoError(t, env.kv.Get(ctx, localstore.ProgressNamespace("alice"), heatID, &stored))
	assert.Equal(t, 12.0, stored.Position)
}

func TestPlayback_EndedMarksCompletedAndPublishes(t *testing.T) {
	env := newTestEnv(t)
	env.useProfile(t, "alice")
	completed := env.bus.Subscribe(events.EventPlaybackCompleted, 1)

	env.do(t, http.MethodPost, "/api/v1/playback/timeupdate", playbackRequest{ID: episodeID, Position: 600, Duration: 1320})
	w := env.do(t, http.MethodPost, "/api/v1/playback/ended", playbackRequest{ID: episodeID})
	require.Equal(t, http.StatusOK, w.Code)

	p := decode[library.WatchProgress](t, w)
	assert.True(t, p.Completed)
	assert.Equal(t, 600.0, p.Position, "ended keeps the last position")

	select {
	case e := <-completed:
		pc, ok := e.(*events.PlaybackCompleted)
		require.True(t, ok)
		assert.Equal(t, "alice", pc.Profile)
		assert.Equal(t, episodeID, pc.EntityID())
	case <-time.After(time.Second):
		t.Fatal("no playback.completed event")
	}

	w = env.do(t, http.MethodPost, "/api/v1/playback/ended", playbackRequest{ID: "Library/Movies/Unknown.mkv"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCompleteProgress(t *testing.T) {
	env := newTestEnv(t)
	env.useProfile(t, "alice")

	w := env.do(t, http.MethodPost, "/api/v1/progress/complete", playbackRequest{ID: heatID})
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.do(t, http.MethodPost, "/api/v1/playback/timeupdate", playbackRequest{ID: heatID, Position: 5, Duration: 120})
	w = env.do(t, http.MethodPost, "/api/v1/progress/complete", playbackRequest{ID: heatID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[library.WatchProgress](t, w).Completed)
}

func TestHistory_ListAndClear(t *testing.T) {
	env := newTestEnv(t)
	env.useProfile(t, "alice")

	env.do(t, http.MethodPost, "/api/v1/playback/timeupdate", playbackRequest{ID: heatID, Position: 5, Duration: 120})
	env.clock.Advance(time.Minute)
	env.do(t, http.MethodPost, "/api/v1/playback/timeupdate", playbackRequest{ID: episodeID, Position: 7, Duration: 1320})
	env.clock.Advance(time.Minute)
	env.do(t, http.MethodPost, "/api/v1/playback/timeupdate", playbackRequest{ID: "Library/Gone/old.mkv", Position: 1, Duration: 100})

	w := env.do(t, http.MethodGet, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[listHistoryResponse](t, w)
	assert.Equal(t, "alice", resp.Profile)
	require.Len(t, resp.Items, 3)
	assert.Equal(t, "Library/Gone/old.mkv", resp.Items[0].MediaIdentity)
	assert.False(t, resp.Items[0].Available)
	assert.Contains(t, resp.Items[1].Title, "Friends")
	assert.True(t, resp.Items[1].Available)
	assert.Equal(t, "Heat (1995)", resp.Items[2].Title)

	resp = decode[listHistoryResponse](t, env.do(t, http.MethodGet, "/api/v1/history?limit=1", nil))
	assert.Len(t, resp.Items, 1)

	w = env.do(t, http.MethodDelete, "/api/v1/history?prefix="+q(friendsID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[clearHistoryResponse](t, w).Removed)

	w = env.do(t, http.MethodDelete, "/api/v1/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[clearHistoryResponse](t, w).Removed)

	resp = decode[listHistoryResponse](t, env.do(t, http.MethodGet, "/api/v1/history", nil))
	assert.Empty(t, resp.Items)
}

func TestStream_RangeAndResumeOffset(t *testing.T) {
	env := newTestEnv(t)
	env.useProfile(t, "alice")
	env.do(t, http.MethodPost, "/api/v1/playback/timeupdate", playbackRequest{ID: heatID, Position: 42, Duration: 600})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stream?id="+q(heatID), nil)
	req.Header.Set("Range", "bytes=2-5")
	w := httptest.NewRecorder()
	env.mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusPartialContent, w.Code)
	assert.Equal(t, "2345", w.Body.String())
	assert.Equal(t, "42", w.Header().Get(ResumeOffsetHeader))
}

func TestStream_NoResumeWhenCompletedOrDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.useProfile(t, "alice")
	env.do(t, http.MethodPost, "/api/v1/playback/timeupdate", playbackRequest{ID: heatID, Position: 42, Duration: 600})

	off := false
	_, err := env.profiles.UpdateSettings(context.Background(), "alice", profile.SettingsUpdate{AutoResume: &off})
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/api/v1/stream?id="+q(heatID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get(ResumeOffsetHeader))
	assert.Equal(t, "0123456789", w.Body.String())
}

func TestStream_Errors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/stream?id="+q("Library/Movies/Nope.mkv"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/stream", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	noFiles := newTestEnv(t, func(d *ServerDeps) { d.Files = nil })
	w = noFiles.do(t, http.MethodGet, "/api/v1/stream?id="+q(heatID), nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestStream_AccessDenied(t *testing.T) {
	ctrl := gomock.NewController(t)
	denied := mocks.NewMockProvider(ctrl)
	denied.EXPECT().Open(gomock.Any(), fsaccess.Ref("/Movies/Heat (1995).mkv")).
		Return(nil, fmt.Errorf("open: %w", fsaccess.ErrPermissionDenied))

	env := newTestEnv(t, func(d *ServerDeps) { d.Files = denied })

	w := env.do(t, http.MethodGet, "/api/v1/stream?id="+q(heatID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ACCESS_DENIED", errorCode(t, w))
}

func TestProfiles(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/profiles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = env.do(t, http.MethodGet, "/api/v1/profiles/current", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/profiles", createProfileRequest{Name: "alice"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, profile.DefaultSettings(), decode[profile.Profile](t, w).Settings)

	w = env.do(t, http.MethodPost, "/api/v1/profiles", createProfileRequest{Name: "alice"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE", errorCode(t, w))

	w = env.do(t, http.MethodPost, "/api/v1/profiles", createProfileRequest{Name: "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.clock.Advance(time.Minute)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/v1/profiles", createProfileRequest{Name: "bob"}).Code)

	current := decode[profile.Profile](t, env.do(t, http.MethodGet, "/api/v1/profiles/current", nil))
	assert.Equal(t, "bob", current.Name)

	w = env.do(t, http.MethodPut, "/api/v1/profiles/current", createProfileRequest{Name: "nobody"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.clock.Advance(time.Minute)
	w = env.do(t, http.MethodPut, "/api/v1/profiles/current", createProfileRequest{Name: "alice"})
	require.Equal(t, http.StatusOK, w.Code)

	list := decode[[]profile.Profile](t, env.do(t, http.MethodGet, "/api/v1/profiles", nil))
	require.Len(t, list, 2)
	assert.Equal(t, "alice", list[0].Name, "most recently used first")

	w = env.do(t, http.MethodPatch, "/api/v1/profiles/alice/settings", map[string]any{"default_volume": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = env.do(t, http.MethodPatch, "/api/v1/profiles/alice/settings", map[string]any{"playback_speed": 1.5})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1.5, decode[profile.Profile](t, w).Settings.PlaybackSpeed)

	w = env.do(t, http.MethodDelete, "/api/v1/profiles/alice", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do(t, http.MethodDelete, "/api/v1/profiles/alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodGet, "/api/v1/profiles/current", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestProfileStats_IncludeThrottledUpdates(t *testing.T) {
	env := newTestEnv(t)
	env.useProfile(t, "alice")
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/api/v1/catalog", nil).Code)

	env.do(t, http.MethodPost, "/api/v1/playback/timeupdate", playbackRequest{ID: heatID, Position: 10, Duration: 120})
	env.clock.Advance(time.Second)
	env.do(t, http.MethodPost, "/api/v1/playback/timeupdate", playbackRequest{ID: heatID, Position: 100, Duration: 120})

	w := env.do(t, http.MethodGet, "/api/v1/profiles/alice/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[profile.Stats](t, w)
	assert.Equal(t, 1, stats.TotalWatched)
	assert.Equal(t, 1, stats.Movies)
	assert.Equal(t, 100.0, stats.TotalTime)

	w = env.do(t, http.MethodGet, "/api/v1/profiles/nobody/stats", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteProfile_DropsProgress(t *testing.T) {
	env := newTestEnv(t)
	env.useProfile(t, "alice")
	env.do(t, http.MethodPost, "/api/v1/playback/timeupdate", playbackRequest{ID: heatID, Position: 10, Duration: 120})

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/v1/profiles/alice", nil).Code)
	env.useProfile(t, "alice")

	w := env.do(t, http.MethodGet, "/api/v1/progress?id="+q(heatID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusAndVerify(t *testing.T) {
	env := newTestEnv(t)

	status := decode[statusResponse](t, env.do(t, http.MethodGet, "/api/v1/status", nil))
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "empty", status.Cache)
	assert.Empty(t, status.Profile)

	v := decode[VerifyResponse](t, env.do(t, http.MethodGet, "/api/v1/verify", nil))
	assert.Equal(t, 3, v.Checked)
	assert.Equal(t, 2, v.Passed)
	require.Len(t, v.Problems, 1)
	assert.Equal(t, "No profile selected", v.Problems[0].Issue)
	assert.Equal(t, "granted", v.Permission)

	env.useProfile(t, "alice")
	v = decode[VerifyResponse](t, env.do(t, http.MethodGet, "/api/v1/verify", nil))
	assert.Equal(t, 3, v.Passed)
	assert.Empty(t, v.Problems)

	status = decode[statusResponse](t, env.do(t, http.MethodGet, "/api/v1/status", nil))
	assert.Equal(t, "fresh", status.Cache)
	assert.Equal(t, "alice", status.Profile)
}

func TestVerify_ReportsUnreadableFolders(t *testing.T) {
	env := newTestEnvWithBuild(t, func(context.Context) (*library.Catalog, error) {
		return &library.Catalog{
			Type:     library.LayoutMovies,
			Movies:   []library.Movie{{Title: "Heat", OriginalName: "Heat.mkv", Path: "Library"}},
			Failures: []string{"Library/Locked"},
		}, nil
	})
	env.useProfile(t, "alice")

	v := decode[VerifyResponse](t, env.do(t, http.MethodGet, "/api/v1/verify", nil))
	require.Len(t, v.Problems, 1)
	assert.Equal(t, []string{"Unreadable: Library/Locked"}, v.Problems[0].Checks)
}

func TestEventStream(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.mux)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Not a live type; must not be delivered.
	require.NoError(t, env.bus.Publish(ctx, &events.PlaybackCompleted{
		BaseEvent: events.NewBaseEvent(events.EventPlaybackCompleted, events.EntityMedia, heatID),
	}))
	require.NoError(t, env.bus.Publish(ctx, &events.PermissionChanged{
		BaseEvent: events.NewBaseEvent(events.EventPermissionChanged, events.EntityLibrary, "Library"),
		OldState:  "granted",
		NewState:  "denied",
	}))

	sc := bufio.NewScanner(resp.Body)
	var lines []string
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			break
		}
		lines = append(lines, line)
	}
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "id: "), lines[0])
	assert.Equal(t, "event: permission.changed", lines[1])
	assert.Contains(t, lines[2], `"new_state":"denied"`)
}

func TestEventStream_EntityFilter(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.mux)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q := url.Values{"entity_type": {events.EntityMedia}, "entity_id": {heatID}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/events?"+q.Encode(), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	// Live type about another entity; filtered out.
	require.NoError(t, env.bus.Publish(ctx, &events.CatalogUpdated{
		BaseEvent: events.NewBaseEvent(events.EventCatalogUpdated, events.EntityCatalog, "Library"),
	}))
	require.NoError(t, env.bus.Publish(ctx, &events.PlaybackCompleted{
		BaseEvent: events.NewBaseEvent(events.EventPlaybackCompleted, events.EntityMedia, heatID),
		Profile:   "alice",
	}))

	sc := bufio.NewScanner(resp.Body)
	require.True(t, sc.Scan())
	assert.True(t, strings.HasPrefix(sc.Text(), "id: "), sc.Text())
	require.True(t, sc.Scan())
	assert.Equal(t, "event: playback.completed", sc.Text())
	require.True(t, sc.Scan())
	assert.Contains(t, sc.Text(), `"profile":"alice"`)
}

func TestEventStream_NoBus(t *testing.T) {
	env := newTestEnv(t, func(d *ServerDeps) { d.Bus = nil })

	w := env.do(t, http.MethodGet, "/api/v1/events", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestListEvents(t *testing.T) {
	env := newTestEnv(t)
	env.useProfile(t, "alice")
	env.useProfile(t, "bob")

	w := env.do(t, http.MethodGet, "/api/v1/events/log", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[listEventsResponse](t, w)
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, events.EventProfileSwitched, resp.Items[0].EventType)
	assert.Equal(t, "bob", resp.Items[0].EntityID)
	assert.Equal(t, "switched from alice to bob", resp.Items[0].Summary)
	assert.Contains(t, string(resp.Items[0].Payload), `"current":"bob"`)

	resp = decode[listEventsResponse](t, env.do(t, http.MethodGet, "/api/v1/events/log?entity_type=profile&entity_id=alice", nil))
	assert.Equal(t, 1, resp.Total)

	resp = decode[listEventsResponse](t, env.do(t, http.MethodGet, "/api/v1/events/log?limit=1&offset=1", nil))
	assert.Equal(t, 2, resp.Total)
	assert.Len(t, resp.Items, 1)

	w = env.do(t, http.MethodGet, "/api/v1/events/log?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	noLog := newTestEnv(t, func(d *ServerDeps) { d.EventLog = nil })
	w = noLog.do(t, http.MethodGet, "/api/v1/events/log", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "NO_EVENT_LOG", errorCode(t, w))
}

func TestListEvents_TypeFilter(t *testing.T) {
	env := newTestEnv(t)
	env.useProfile(t, "alice")
	require.NoError(t, env.bus.Publish(context.Background(), &events.CatalogUpdated{
		BaseEvent: events.NewBaseEvent(events.EventCatalogUpdated, events.EntityCatalog, "Library"),
		Layout:    "organized",
		Movies:    2,
	}))

	resp := decode[listEventsResponse](t, env.do(t, http.MethodGet, "/api/v1/events/log?event_type=catalog.updated", nil))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "organized catalog: 2 movies, 0 series", resp.Items[0].Summary)
}

func TestEventStream_ReplaysMissedEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switched := func(name string) *events.ProfileSwitched {
		return &events.ProfileSwitched{
			BaseEvent: events.NewBaseEvent(events.EventProfileSwitched, events.EntityProfile, name),
			Current:   name,
		}
	}
	first := switched("alice")
	require.NoError(t, env.bus.Publish(ctx, first))
	require.NoError(t, env.bus.Publish(ctx, switched("bob")))
	require.Positive(t, first.LogID())

	ts := httptest.NewServer(env.mux)
	defer ts.Close()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/v1/events", nil)
	require.NoError(t, err)
	req.Header.Set("Last-Event-ID", strconv.FormatInt(first.LogID(), 10))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	live := switched("carol")
	require.NoError(t, env.bus.Publish(ctx, live))

	sc := bufio.NewScanner(resp.Body)
	var got []string
	for len(got) < 6 && sc.Scan() {
		if line := sc.Text(); line != "" {
			got = append(got, line)
		}
	}
	require.Len(t, got, 6)
	assert.Equal(t, fmt.Sprintf("id: %d", first.LogID()+1), got[0])
	assert.Equal(t, "event: profile.switched", got[1])
	assert.Contains(t, got[2], `"current":"bob"`)
	assert.Equal(t, fmt.Sprintf("id: %d", live.LogID()), got[3])
	assert.Contains(t, got[5], `"current":"carol"`)
}
	assert.Equal(t, []int{2, 3}, page(items, 2, 1))
	assert.Equal(t, []int{3, 4}, page(items, 0, 2))
	assert.Empty(t, page(items, 2, 9))
}
