package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"geoconsole/backend"
	"geoconsole/cache"
	"geoconsole/config"
	"geoconsole/draft"
	"geoconsole/gate"
	"geoconsole/models"
	"geoconsole/presenter"
	"geoconsole/sessions"
	"geoconsole/store"

	"github.com/go-chi/chi"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeUpstream is an in-memory version of the REST backend.
type fakeUpstream struct {
	mu       sync.Mutex
	teams    []models.Team
	keys     map[string][]models.Key
	datasets map[string]models.Dataset
	puts     int
	failPut  bool

	// holdPut, when set, parks key PUTs until it is closed.
	holdPut    chan struct{}
	putStarted chan struct{}
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		teams: []models.Team{{TeamID: "t1", Name: "Acme", BillingEmail: "billing@acme.io"}},
		keys: map[string][]models.Key{"t1": {
			{KeyID: "k0", Name: "Old", CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		}},
		datasets: map[string]models.Dataset{
			"ds1": {ID: "ds1", Name: "Parks", IsPublic: true, Status: models.StatusPublished,
				UpdatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
			"ds2": {ID: "ds2", Name: "Drafts", Status: models.StatusDraft,
				UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
}

func (f *fakeUpstream) router() http.Handler {
	r := chi.NewRouter()
	r.Get("/teams", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeTestJSON(w, http.StatusOK, f.teams)
	})
	r.Delete("/teams/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := chi.URLParam(r, "id")
		for i, team := range f.teams {
			if team.TeamID == id {
				f.teams = append(f.teams[:i:i], f.teams[i+1:]...)
				writeTestJSON(w, http.StatusOK, map[string]string{})
				return
			}
		}
		writeTestJSON(w, http.StatusNotFound, models.ErrorResponse{Error: true, Code: "NotFound", Message: "Team not found."})
	})
	r.Get("/teams/{id}/keys", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeTestJSON(w, http.StatusOK, f.keys[chi.URLParam(r, "id")])
	})
	r.Post("/teams/{id}/keys", func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch req.Name {
		case "taken":
			writeTestJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: true, Code: "Duplicate", Message: "Name is taken."})
			return
		case "one too many":
			writeTestJSON(w, http.StatusOK, models.ErrorResponse{Error: true, Code: "LimitExceeded", Message: "Too many keys."})
			return
		}
		key := models.Key{KeyID: "k1", Name: req.Name, CreatedAt: time.Now().UTC()}
		f.mu.Lock()
		f.keys[chi.URLParam(r, "id")] = append(f.keys[chi.URLParam(r, "id")], key)
		f.mu.Unlock()
		writeTestJSON(w, http.StatusOK, map[string]interface{}{"error": false, "data": key})
	})
	r.Put("/teams/{id}/keys/{key}", func(w http.ResponseWriter, r *http.Request) {
		var req models.KeyUpdate
		_ = json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		hold, started := f.holdPut, f.putStarted
		f.mu.Unlock()
		if hold != nil {
			started <- struct{}{}
			<-hold
		}

		f.mu.Lock()
		defer f.mu.Unlock()
		f.puts++
		if f.failPut {
			writeTestJSON(w, http.StatusInternalServerError, map[string]string{})
			return
		}
		teamID := chi.URLParam(r, "id")
		for i, key := range f.keys[teamID] {
			if key.KeyID == chi.URLParam(r, "key") {
				key.Name = req.Name
				key.AllowedOrigins = req.AllowedOrigins
				f.keys[teamID][i] = key
				writeTestJSON(w, http.StatusOK, key)
				return
			}
		}
		writeTestJSON(w, http.StatusNotFound, map[string]string{})
	})
	r.Get("/teams/{id}/geosearch", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		list := make([]models.Dataset, 0, len(f.datasets))
		for _, id := range []string{"ds2", "ds1"} {
			if ds, ok := f.datasets[id]; ok {
				list = append(list, ds)
			}
		}
		writeTestJSON(w, http.StatusOK, list)
	})
	r.Get("/geojsons/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		writeTestJSON(w, http.StatusOK, f.datasets[chi.URLParam(r, "id")])
	})
	r.Put("/geojsons/{id}", func(w http.ResponseWriter, r *http.Request) {
		var req models.DatasetUpdate
		_ = json.NewDecoder(r.Body).Decode(&req)

		f.mu.Lock()
		defer f.mu.Unlock()
		f.puts++
		ds := f.datasets[chi.URLParam(r, "id")]
		ds.Name, ds.IsPublic, ds.Status, ds.AllowedOrigins = req.Name, req.IsPublic, req.Status, req.AllowedOrigins
		f.datasets[ds.ID] = ds
		writeTestJSON(w, http.StatusOK, ds)
	})
	r.Get("/geojsons/pub/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeTestJSON(w, http.StatusOK, map[string]interface{}{"type": "FeatureCollection", "features": []interface{}{}})
	})
	return r
}

func (f *fakeUpstream) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

func writeTestJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type testEnv struct {
	t        *testing.T
	console  *Console
	upstream *fakeUpstream
	srv      *httptest.Server
	sid      string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	upstream := newFakeUpstream()
	upSrv := httptest.NewServer(upstream.router())
	t.Cleanup(upSrv.Close)

	cfg := config.Cfg{
		Upstream: config.Upstream{URL: upSrv.URL, Timeout: 5 * time.Second},
		Editor:   config.EditorCfg{MessageDisplay: time.Minute, SaveTimeout: 5 * time.Second},
		Gate: config.GateCfg{
			Confirmation: "delete",
			SuccessDelay: 20 * time.Millisecond,
			FailureDelay: 20 * time.Millisecond,
			RedirectURL:  "/",
		},
	}

	sessionStorage, err := sessions.NewBoltDBStorage(config.BoltDBConfig{
		FilePath: filepath.Join(t.TempDir(), "sessions.db"),
		Timeout:  1,
	})
	require.NoError(t, err)
	cacheStorage, err := cache.NewStorage(config.CacheCfg{Disable: true})
	require.NoError(t, err)

	console := newConsole(zerolog.Nop(), cfg, sessions.NewManager(sessionStorage, 3600),
		cacheStorage, backend.NewClient(cfg.Upstream))
	t.Cleanup(func() {
		console.scheduler.Stop()
		console.Close()
	})

	srv := httptest.NewServer(getRouter(zerolog.Nop(), cfg, console))
	t.Cleanup(srv.Close)

	return &testEnv{t: t, console: console, upstream: upstream, srv: srv}
}

func testToken(t *testing.T) string {
	t.Helper()
	claims := sessions.Claims{
		Email: "ada@acme.io",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

// do sends a request with the session header and decodes a JSON reply into dest.
func (e *testEnv) do(method, path string, body, dest interface{}) (int, []byte) {
	e.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	require.NoError(e.t, err)
	req.Header.Set("Content-Type", "application/json")
	if e.sid != "" {
		req.Header.Set(models.SessionHeader, e.sid)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	raw, err := ioutil.ReadAll(resp.Body)
	require.NoError(e.t, err)
	if dest != nil && resp.StatusCode < http.StatusBadRequest {
		require.NoError(e.t, json.Unmarshal(raw, dest), string(raw))
	}
	return resp.StatusCode, raw
}

func (e *testEnv) signIn() {
	e.t.Helper()

	var resp struct {
		SessionID string `json:"sessionId"`
		State     struct {
			User  *store.UserView `json:"user"`
			Teams []models.Team   `json:"teams"`
		} `json:"state"`
	}
	status, raw := e.do(http.MethodPost, "/api/session", models.SignInRequest{Token: testToken(e.t)}, &resp)
	require.Equal(e.t, http.StatusOK, status, string(raw))
	require.NotEmpty(e.t, resp.SessionID)
	require.NotNil(e.t, resp.State.User)
	assert.Equal(e.t, "user-1", resp.State.User.UserID)
	require.Len(e.t, resp.State.Teams, 1)
	e.sid = resp.SessionID
}

func (e *testEnv) state() store.State {
	state, _ := e.console.store.State(e.sid)
	return state
}

func TestConsole_SignIn(t *testing.T) {
	env := newTestEnv(t)

	token := testToken(t)
	status, raw := env.do(http.MethodPost, "/api/session", models.SignInRequest{Token: token}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(raw), token, "identity token must not reach the browser")

	status, _ = env.do(http.MethodPost, "/api/session", models.SignInRequest{Token: "garbage"}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.do(http.MethodPost, "/api/session", models.SignInRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestConsole_RequiresSession(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(http.MethodGet, "/api/state", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	env.sid = "unknown"
	status, _ = env.do(http.MethodGet, "/api/keys", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestConsole_RestoresStateOfStoredSession(t *testing.T) {
	env := newTestEnv(t)
	env.signIn()

	env.console.store.Dispatch(env.sid, store.SessionCleared())
	_, ok := env.console.store.State(env.sid)
	require.False(t, ok)

	var teams teamsResponse
	status, _ := env.do(http.MethodGet, "/api/teams", nil, &teams)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, teams.Teams, 1)
}

func TestConsole_SelectTeam(t *testing.T) {
	env := newTestEnv(t)
	env.signIn()

	status, _ := env.do(http.MethodPut, "/api/teams/selected", selectTeamRequest{Index: 3}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var teams teamsResponse
	status, _ = env.do(http.MethodPut, "/api/teams/selected", selectTeamRequest{Index: 0}, &teams)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 0, teams.Selected)
}

func TestConsole_CreateKey(t *testing.T) {
	env := newTestEnv(t)
	env.signIn()

	var added []store.Action
	var mu sync.Mutex
	unsubscribe := env.console.store.Subscribe(func(sid string, action store.Action, _ store.State) {
		if sid == env.sid && action.Kind == store.KindKeyAdded {
			mu.Lock()
			added = append(added, action)
			mu.Unlock()
		}
	})
	defer unsubscribe()

	var outcome presenter.CreateOutcome
	status, _ := env.do(http.MethodPost, "/api/keys", models.CreateRequest{Name: "My API"}, &outcome)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "k1", outcome.ID)
	assert.Empty(t, outcome.Message)

	mu.Lock()
	require.Len(t, added, 1)
	assert.Equal(t, "k1", added[0].Key.KeyID)
	mu.Unlock()

	var view presenter.ListView
	status, _ = env.do(http.MethodGet, "/api/keys", nil, &view)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, "k1", view.Rows[0].ID, "newest key first")
	assert.Equal(t, "/maps/api-keys/k1", view.Rows[0].Permalink)
}

func TestConsole_CreateKey_InlineError(t *testing.T) {
	env := newTestEnv(t)
	env.signIn()

	var outcome presenter.CreateOutcome
	status, _ := env.do(http.MethodPost, "/api/keys", models.CreateRequest{Name: "taken"}, &outcome)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Duplicate", outcome.Code)
	assert.Equal(t, "Name is taken.", outcome.Message)

	status, _ = env.do(http.MethodPost, "/api/keys", models.CreateRequest{Name: "   "}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestConsole_CreateKey_ErrorEnvelopeWithOK(t *testing.T) {
	env := newTestEnv(t)
	env.signIn()

	var dispatched int32
	unsubscribe := env.console.store.Subscribe(func(sid string, _ store.Action, _ store.State) {
		if sid == env.sid {
			atomic.AddInt32(&dispatched, 1)
		}
	})
	defer unsubscribe()

	var outcome presenter.CreateOutcome
	status, _ := env.do(http.MethodPost, "/api/keys", models.CreateRequest{Name: "one too many"}, &outcome)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "LimitExceeded", outcome.Code)
	assert.Equal(t, "Too many keys.", outcome.Message)
	assert.Empty(t, outcome.ID)
	assert.Zero(t, atomic.LoadInt32(&dispatched))
}

func TestConsole_DatasetsAndDownload(t *testing.T) {
	env := newTestEnv(t)
	env.signIn()

	var view presenter.ListView
	status, _ := env.do(http.MethodGet, "/api/datasets", nil, &view)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, view.Rows, 2)
	assert.Equal(t, "ds1", view.Rows[0].ID, "2024-06-01 comes before 2024-01-01")
	assert.Equal(t, "GeoJSON API", view.Title)

	req, err := http.NewRequest(http.MethodGet, env.srv.URL+"/api/datasets/ds1/download", nil)
	require.NoError(t, err)
	req.Header.Set(models.SessionHeader, env.sid)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, geoJSONContentType, resp.Header.Get("Content-Type"))

	status, _ = env.do(http.MethodGet, "/api/datasets/ds2/download", nil, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, _ = env.do(http.MethodGet, "/api/datasets/nope/download", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestConsole_KeyEditor(t *testing.T) {
	env := newTestEnv(t)
	env.signIn()

	status, _ := env.do(http.MethodGet, "/api/keys", nil, nil)
	require.Equal(t, http.StatusOK, status)

	var snapshot draft.Snapshot[models.Key]
	status, _ = env.do(http.MethodPost, "/api/keys/k0/editor", nil, &snapshot)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Old", snapshot.Draft.Name)

	origins := "https://a.example.com/\n\nhttps://A.example.com\n"
	status, _ = env.do(http.MethodPatch, "/api/keys/k0/editor", map[string]string{"name": "Renamed", "allowedOrigins": origins}, &snapshot)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, snapshot.Dirty)
	assert.Equal(t, []string{"https://a.example.com"}, snapshot.Draft.AllowedOrigins)
	assert.Equal(t, 0, env.upstream.putCount(), "staged fields wait for save")

	status, _ = env.do(http.MethodPost, "/api/keys/k0/editor/save", nil, nil)
	require.Equal(t, http.StatusOK, status)

	require.Eventually(t, func() bool {
		key, ok := env.state().FindKey("t1", "k0")
		return ok && key.Name == "Renamed"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, env.upstream.putCount())

	status, _ = env.do(http.MethodDelete, "/api/keys/k0/editor", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.do(http.MethodGet, "/api/keys/k0/editor", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestConsole_SaveFinishingAfterSignOut(t *testing.T) {
	env := newTestEnv(t)
	env.signIn()
	env.do(http.MethodGet, "/api/keys", nil, nil)
	env.do(http.MethodPost, "/api/keys/k0/editor", nil, nil)
	env.do(http.MethodPatch, "/api/keys/k0/editor", map[string]string{"name": "Renamed"}, nil)

	hold, started := make(chan struct{}), make(chan struct{}, 1)
	env.upstream.mu.Lock()
	env.upstream.holdPut, env.upstream.putStarted = hold, started
	env.upstream.mu.Unlock()

	status, _ := env.do(http.MethodPost, "/api/keys/k0/editor/save", nil, nil)
	require.Equal(t, http.StatusOK, status)
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("save did not reach the upstream")
	}

	status, _ = env.do(http.MethodDelete, "/api/session", nil, nil)
	require.Equal(t, http.StatusOK, status)
	close(hold)

	require.Eventually(t, func() bool { return env.upstream.putCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Never(t, func() bool { return env.console.store.Len() != 0 }, 200*time.Millisecond, 10*time.Millisecond)
}

func TestConsole_KeyEditor_RollbackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	env.signIn()
	env.do(http.MethodGet, "/api/keys", nil, nil)

	env.upstream.mu.Lock()
	env.upstream.failPut = true
	env.upstream.mu.Unlock()

	env.do(http.MethodPost, "/api/keys/k0/editor", nil, nil)
	env.do(http.MethodPatch, "/api/keys/k0/editor", map[string]string{"name": "Broken"}, nil)
	env.do(http.MethodPost, "/api/keys/k0/editor/save", nil, nil)

	editor, ok := env.console.keyEditors.get(draft.KeyKey(env.sid, "k0"))
	require.True(t, ok)
	require.Eventually(t, func() bool {
		return editor.Status() == draft.StatusFailure
	}, 2*time.Second, 10*time.Millisecond)

	var snapshot draft.Snapshot[models.Key]
	status, _ := env.do(http.MethodGet, "/api/keys/k0/editor", nil, &snapshot)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Old", snapshot.Draft.Name)
	assert.Equal(t, "Unknown error.", snapshot.Message)
	assert.False(t, snapshot.Dirty)
}

func TestConsole_DatasetEditor_ToggleSavesAtOnce(t *testing.T) {
	env := newTestEnv(t)
	env.signIn()

	var view datasetEditorView
	status, _ := env.do(http.MethodPost, "/api/datasets/ds2/editor", nil, &view)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, view.DownloadAvailable)

	status, _ = env.do(http.MethodPatch, "/api/datasets/ds2/editor",
		map[string]interface{}{"isPublic": true, "status": "published"}, nil)
	require.Equal(t, http.StatusOK, status)

	editor, ok := env.console.datasetEditors.get(draft.DatasetKey(env.sid, "ds2"))
	require.True(t, ok)
	require.Eventually(t, func() bool {
		return editor.Status() == draft.StatusSuccess
	}, 2*time.Second, 10*time.Millisecond)

	status, _ = env.do(http.MethodGet, "/api/datasets/ds2/editor", nil, &view)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, view.DownloadAvailable)
	assert.Contains(t, view.DownloadURL, "/geojsons/pub/ds2")

	status, _ = env.do(http.MethodPatch, "/api/datasets/ds2/editor", map[string]interface{}{"status": "archived"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestConsole_TeamEditorValidation(t *testing.T) {
	env := newTestEnv(t)
	env.signIn()

	status, _ := env.do(http.MethodPatch, "/api/team/editor", map[string]string{"name": "x"}, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(http.MethodPost, "/api/team/editor", nil, nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = env.do(http.MethodPatch, "/api/team/editor", map[string]string{"billingEmail": "not-an-email"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var snapshot draft.Snapshot[models.Team]
	status, _ = env.do(http.MethodPatch, "/api/team/editor", map[string]string{"description": "Maps"}, &snapshot)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, snapshot.Dirty)
}

func TestConsole_DeleteTeam(t *testing.T) {
	env := newTestEnv(t)
	env.signIn()

	status, _ := env.do(http.MethodPost, "/api/team/delete", deleteRequest{Confirmation: "remove"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	var gateStatus gate.Status
	status, _ = env.do(http.MethodPost, "/api/team/delete", deleteRequest{Confirmation: "DeLeTe"}, &gateStatus)
	require.Equal(t, http.StatusAccepted, status)
	assert.False(t, gateStatus.CancelEnabled)

	require.Eventually(t, func() bool {
		return len(env.state().Teams) == 0
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := env.console.gates.get(env.sid, "t1")
		return !ok
	}, 2*time.Second, 10*time.Millisecond, "gate is dropped after the redirect")
}

func TestConsole_ApplyChange(t *testing.T) {
	env := newTestEnv(t)
	env.signIn()
	env.do(http.MethodGet, "/api/datasets", nil, nil)
	require.False(t, env.state().DatasetsOf("t1").Stale)

	env.console.ApplyChange(context.Background(), models.ChangeNotice{TeamID: "t1", Resource: models.ResourceDatasets})
	assert.True(t, env.state().DatasetsOf("t1").Stale)

	env.upstream.mu.Lock()
	env.upstream.keys["t1"] = append(env.upstream.keys["t1"], models.Key{KeyID: "k9", Name: "Fresh"})
	env.upstream.mu.Unlock()

	env.console.ApplyChange(context.Background(), models.ChangeNotice{TeamID: "t1", Resource: models.ResourceKeys})
	_, ok := env.state().FindKey("t1", "k9")
	assert.True(t, ok)

	env.console.ApplyChange(context.Background(), models.ChangeNotice{TeamID: "other", Resource: models.ResourceKeys})
	assert.Len(t, env.state().KeysOf("t1").Data, 2)
}

func TestConsole_SignOut(t *testing.T) {
	env := newTestEnv(t)
	env.signIn()
	env.do(http.MethodGet, "/api/keys", nil, nil)
	env.do(http.MethodPost, "/api/keys/k0/editor", nil, nil)

	status, _ := env.do(http.MethodDelete, "/api/session", nil, nil)
	require.Equal(t, http.StatusOK, status)

	_, ok := env.console.store.State(env.sid)
	assert.False(t, ok)
	_, ok = env.console.keyEditors.get(draft.KeyKey(env.sid, "k0"))
	assert.False(t, ok)

	status, _ = env.do(http.MethodGet, "/api/state", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}
