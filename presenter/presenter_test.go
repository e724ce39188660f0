package presenter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"geoconsole/backend"
	"geoconsole/config"
	"geoconsole/models"
	"geoconsole/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"syreclabs.com/go/faker"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestSortByRecency(t *testing.T) {
	rows := []Row{
		{ID: "old", Updated: day(2024, 1, 1)},
		{ID: "new", Updated: day(2024, 6, 1)},
	}

	sorted := SortByRecency(rows)
	assert.Equal(t, "new", sorted[0].ID)
	assert.Equal(t, "old", sorted[1].ID)
	assert.Equal(t, "old", rows[0].ID)
}

func TestSortByRecency_TiesKeepOrder(t *testing.T) {
	same := day(2024, 3, 3)
	rows := []Row{{ID: "a", Updated: same}, {ID: "b", Updated: same}, {ID: "c", Updated: day(2024, 4, 4)}}

	sorted := SortByRecency(rows)
	assert.Equal(t, []string{"c", "a", "b"}, []string{sorted[0].ID, sorted[1].ID, sorted[2].ID})
}

func TestPaginate(t *testing.T) {
	rows := make([]Row, 23)
	for i := range rows {
		rows[i] = Row{ID: faker.Lorem().Word()}
	}

	first := Paginate(rows, 0, RowsPerPage)
	assert.Len(t, first.Rows, 10)
	assert.Equal(t, 3, first.Pages)
	assert.Equal(t, 23, first.Total)

	last := Paginate(rows, 2, RowsPerPage)
	assert.Len(t, last.Rows, 3)

	past := Paginate(rows, 7, 0)
	assert.Empty(t, past.Rows)
	assert.Equal(t, RowsPerPage, past.PerPage)
}

func TestPaginate_HugePage(t *testing.T) {
	rows := make([]Row, 23)

	for _, page := range []int{3, 922337203685477581, int(^uint(0) >> 1)} {
		view := Paginate(rows, page, RowsPerPage)
		assert.Empty(t, view.Rows)
		assert.Equal(t, 3, view.Pages)
		assert.Equal(t, page, view.Page)
	}
}

func TestRows_Permalinks(t *testing.T) {
	keys := KeyRows([]models.Key{{KeyID: "k1", Name: "web"}})
	assert.Equal(t, "/maps/api-keys/k1", keys[0].Permalink)
	assert.Nil(t, keys[0].IsPublic)

	datasets := DatasetRows([]models.Dataset{{ID: "d1", IsPublic: true}})
	assert.Equal(t, "/data/geojson/d1", datasets[0].Permalink)
	require.NotNil(t, datasets[0].IsPublic)
	assert.True(t, *datasets[0].IsPublic)
}

func TestLabel(t *testing.T) {
	static := StaticLabel("API keys")
	assert.False(t, static.IsComputed())
	assert.Equal(t, "API keys", static.Render(Context{}))

	page := TeamPage.Render(Context{Team: models.Team{Name: "Acme"}, HasTeam: true})
	assert.Equal(t, "Acme settings", page.Title)
	assert.Equal(t, "Acme", page.Breadcrumbs[1].Title)
	assert.Equal(t, "Team settings", TeamPage.Render(Context{}).Title)

	keys := KeysPage.Render(Context{})
	require.Len(t, keys.Breadcrumbs, 3)
	assert.Equal(t, "#/maps", keys.Breadcrumbs[1].Href)
	assert.Empty(t, keys.Breadcrumbs[2].Href)
}

func TestDownloadAvailable(t *testing.T) {
	cases := []struct {
		isPublic bool
		status   models.DatasetStatus
		want     bool
	}{
		{true, models.StatusPublished, true},
		{true, models.StatusDraft, false},
		{false, models.StatusPublished, false},
		{false, models.StatusDraft, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DownloadAvailable(models.Dataset{IsPublic: tc.isPublic, Status: tc.status}))
	}
}

type recorder struct {
	mu      sync.Mutex
	actions []store.Action
}

func (r *recorder) record(_ string, action store.Action, _ store.State) {
	r.mu.Lock()
	r.actions = append(r.actions, action)
	r.mu.Unlock()
}

func newPresenter(t *testing.T, handler http.HandlerFunc) (*Presenter, *store.Store, *recorder) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	st := store.New()
	st.Dispatch("s1", store.SessionSet(models.Session{ID: "s1", Token: "tok", Username: "jdoe"}))
	st.Dispatch("s1", store.TeamsLoaded([]models.Team{{TeamID: "t1", Name: "Acme"}}))

	rec := &recorder{}
	st.Subscribe(rec.record)

	client := backend.NewClient(config.Upstream{URL: srv.URL, Timeout: time.Second})
	return New(client, st, zerolog.Nop()), st, rec
}

func TestCreateKey_MyAPI(t *testing.T) {
	p, st, rec := newPresenter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/teams/t1/keys", r.URL.Path)
		_, _ = w.Write([]byte(`{"error":false,"data":{"keyId":"k1","name":"My API","createAt":"..."}}`))
	})

	outcome, err := p.CreateKey(context.Background(), "s1", "My API")
	require.NoError(t, err)
	assert.False(t, outcome.Failed())
	assert.Empty(t, outcome.Message)
	assert.Equal(t, "k1", outcome.ID)

	require.Len(t, rec.actions, 1)
	assert.Equal(t, store.KindKeyAdded, rec.actions[0].Kind)
	assert.Equal(t, "k1", rec.actions[0].Key.KeyID)

	state, _ := st.State("s1")
	key, ok := state.FindKey("t1", "k1")
	require.True(t, ok)
	assert.Equal(t, "My API", key.Name)
}

func TestCreateKey_ServerMessage(t *testing.T) {
	p, _, rec := newPresenter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: true, Code: "LimitExceeded", Message: "Upgrade your plan."})
	})

	outcome, err := p.CreateKey(context.Background(), "s1", "one more")
	require.NoError(t, err)
	assert.True(t, outcome.Failed())
	assert.Equal(t, "LimitExceeded", outcome.Code)
	assert.Equal(t, "Upgrade your plan.", outcome.Message)
	assert.Empty(t, rec.actions)
}

func TestCreateKey_ErrorEnvelopeWithOK(t *testing.T) {
	p, st, rec := newPresenter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":true,"code":"LimitExceeded","message":"Too many keys."}`))
	})

	outcome, err := p.CreateKey(context.Background(), "s1", "My API")
	require.NoError(t, err)
	assert.True(t, outcome.Failed())
	assert.Equal(t, "LimitExceeded", outcome.Code)
	assert.Equal(t, "Too many keys.", outcome.Message)
	assert.Empty(t, outcome.ID)
	assert.Empty(t, rec.actions)

	state, _ := st.State("s1")
	assert.Empty(t, state.KeysOf("t1").Data)
}

func TestCreateKey_Unauthorized(t *testing.T) {
	p, _, _ := newPresenter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	outcome, err := p.CreateKey(context.Background(), "s1", "x")
	require.NoError(t, err)
	assert.Equal(t, "UnAuthorized", outcome.Code)
	assert.Equal(t, "You are not authorized to do this operation.", outcome.Message)
}

func TestCreateDataset_MarksStale(t *testing.T) {
	var lists int32
	p, st, _ := newPresenter(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			_, _ = w.Write([]byte(`{"error":false,"data":{"id":"d2","name":"rivers"}}`))
		default:
			atomic.AddInt32(&lists, 1)
			_ = json.NewEncoder(w).Encode([]models.Dataset{
				{ID: "d1", Name: "parks", UpdatedAt: day(2024, 1, 1)},
				{ID: "d2", Name: "rivers", UpdatedAt: day(2024, 6, 1)},
			})
		}
	})
	ctx := context.Background()

	_, err := p.Datasets(ctx, "s1", 0)
	require.NoError(t, err)
	_, err = p.Datasets(ctx, "s1", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&lists))

	outcome, err := p.CreateDataset(ctx, "s1", "rivers")
	require.NoError(t, err)
	assert.Equal(t, "d2", outcome.ID)

	state, _ := st.State("s1")
	assert.True(t, state.DatasetsOf("t1").Stale)

	view, err := p.Datasets(ctx, "s1", 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&lists))
	require.Len(t, view.Rows, 2)
	assert.Equal(t, "d2", view.Rows[0].ID)
	assert.Equal(t, "GeoJSON API", view.Title)
}

func TestKeys_NoTeamSelected(t *testing.T) {
	p, st, _ := newPresenter(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	st.Dispatch("s1", store.TeamSelected(3))

	_, err := p.Keys(context.Background(), "s1", 0)
	assert.Equal(t, ErrNoTeam, err)
}

func TestKeys_FailureMessage(t *testing.T) {
	p, _, _ := newPresenter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	view, err := p.Keys(context.Background(), "s1", 0)
	require.NoError(t, err)
	assert.Equal(t, "Unknown error.", view.Error)
	assert.Empty(t, view.Rows)
}

func TestDownload(t *testing.T) {
	p, st, _ := newPresenter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geojsons/pub/d1", r.URL.Path)
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	})

	st.Dispatch("s1", store.DatasetsLoaded("t1", []models.Dataset{
		{ID: "d1", IsPublic: true, Status: models.StatusPublished},
		{ID: "d2", IsPublic: true, Status: models.StatusDraft},
	}))

	raw, err := p.Download(context.Background(), "s1", "d1")
	require.NoError(t, err)
	assert.Contains(t, string(raw), "FeatureCollection")

	_, err = p.Download(context.Background(), "s1", "d2")
	assert.Equal(t, ErrDownloadUnavailable, err)

	_, err = p.Download(context.Background(), "s1", "d9")
	assert.Equal(t, ErrUnknownDataset, err)
}
