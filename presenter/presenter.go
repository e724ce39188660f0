package presenter

import (
	"context"

	"geoconsole/backend"
	"geoconsole/errs"
	"geoconsole/models"
	"geoconsole/store"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ErrNoTeam is returned when the selected team index is out of range.
var ErrNoTeam = errors.New("no team selected")

// Invalidator drops cached upstream lists.
type Invalidator interface {
	Invalidate(resource models.Resource, owner string)
}

// Presenter loads resource lists into the store and runs the create flows.
type Presenter struct {
	api    backend.API
	store  *store.Store
	logger zerolog.Logger
}

func New(api backend.API, st *store.Store, logger zerolog.Logger) *Presenter {
	return &Presenter{
		api:    api,
		store:  st,
		logger: logger.With().Str("sub_service", "presenter").Logger(),
	}
}

// ListView is a rendered resource table.
type ListView struct {
	RenderedPage
	Page
	Error string `json:"error,omitempty"`
}

// CreateOutcome is the result of a create dialog. Message is the inline
// error shown in the dialog and is empty on success.
type CreateOutcome struct {
	ID      string `json:"id,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func (o CreateOutcome) Failed() bool { return o.Message != "" || o.Code != "" }

func RenderContext(state store.State) Context {
	ctx := Context{}
	ctx.Team, ctx.HasTeam = state.SelectedTeam()
	if state.Session != nil {
		ctx.User = state.Session.Username
	}
	return ctx
}

// LoadTeams fetches the team list of the session into the store.
func (p *Presenter) LoadTeams(ctx context.Context, sid string, session models.Session) error {
	teams, err := p.api.ListTeams(ctx, session)
	if err != nil {
		return err
	}
	p.store.Dispatch(sid, store.TeamsLoaded(teams))
	return nil
}

// Keys returns the keys table of the selected team, fetching it once.
func (p *Presenter) Keys(ctx context.Context, sid string, page int) (ListView, error) {
	state, session, err := p.sessionState(sid)
	if err != nil {
		return ListView{}, err
	}

	team, ok := state.SelectedTeam()
	if !ok {
		return ListView{}, ErrNoTeam
	}

	if !state.KeysOf(team.TeamID).Loaded {
		keys, err := p.api.ListKeys(ctx, session, team.TeamID)
		if err != nil {
			state = p.store.Dispatch(sid, store.KeysFailed(team.TeamID, errs.Display(err)))
		} else {
			state = p.store.Dispatch(sid, store.KeysLoaded(team.TeamID, keys))
		}
	}

	list := state.KeysOf(team.TeamID)
	return ListView{
		RenderedPage: KeysPage.Render(RenderContext(state)),
		Page:         Paginate(SortByRecency(KeyRows(list.Data)), page, RowsPerPage),
		Error:        list.Error,
	}, nil
}

// Datasets returns the datasets table of the selected team, re-fetching
// when the list was never loaded or was marked stale.
func (p *Presenter) Datasets(ctx context.Context, sid string, page int) (ListView, error) {
	state, session, err := p.sessionState(sid)
	if err != nil {
		return ListView{}, err
	}

	team, ok := state.SelectedTeam()
	if !ok {
		return ListView{}, ErrNoTeam
	}

	if list := state.DatasetsOf(team.TeamID); list.NeedsFetch() {
		if inv, ok := p.api.(Invalidator); ok && list.Stale {
			inv.Invalidate(models.ResourceDatasets, team.TeamID)
		}

		datasets, err := p.api.ListDatasets(ctx, session, team.TeamID)
		if err != nil {
			state = p.store.Dispatch(sid, store.DatasetsFailed(team.TeamID, errs.Display(err)))
		} else {
			state = p.store.Dispatch(sid, store.DatasetsLoaded(team.TeamID, datasets))
		}
	}

	list := state.DatasetsOf(team.TeamID)
	return ListView{
		RenderedPage: DatasetsPage.Render(RenderContext(state)),
		Page:         Paginate(SortByRecency(DatasetRows(list.Data)), page, RowsPerPage),
		Error:        list.Error,
	}, nil
}

// CreateKey creates a key in the selected team and appends it to the store.
func (p *Presenter) CreateKey(ctx context.Context, sid, name string) (CreateOutcome, error) {
	state, session, err := p.sessionState(sid)
	if err != nil {
		return CreateOutcome{}, err
	}
	team, ok := state.SelectedTeam()
	if !ok {
		return CreateOutcome{}, ErrNoTeam
	}

	res, err := p.api.CreateKey(ctx, session, team.TeamID, name)
	if outcome, failed := createFailure(err, res.Error, res.Code, res.Message); failed {
		p.logger.Debug().Str("team", team.TeamID).Str("code", outcome.Code).Msg("key creation failed")
		return outcome, nil
	}

	p.store.Dispatch(sid, store.KeyAdded(team.TeamID, res.Data))
	return CreateOutcome{ID: res.Data.KeyID}, nil
}

// CreateDataset creates a dataset; the team's list is marked stale so the
// next read re-fetches it.
func (p *Presenter) CreateDataset(ctx context.Context, sid, name string) (CreateOutcome, error) {
	state, session, err := p.sessionState(sid)
	if err != nil {
		return CreateOutcome{}, err
	}
	team, ok := state.SelectedTeam()
	if !ok {
		return CreateOutcome{}, ErrNoTeam
	}

	res, err := p.api.CreateDataset(ctx, session, team.TeamID, name)
	if outcome, failed := createFailure(err, res.Error, res.Code, res.Message); failed {
		p.logger.Debug().Str("team", team.TeamID).Str("code", outcome.Code).Msg("dataset creation failed")
		return outcome, nil
	}

	p.store.Dispatch(sid, store.DatasetsStale(team.TeamID))
	return CreateOutcome{ID: res.Data.ID}, nil
}

// Download returns the public GeoJSON of a dataset of the selected team.
func (p *Presenter) Download(ctx context.Context, sid, id string) ([]byte, error) {
	state, _, err := p.sessionState(sid)
	if err != nil {
		return nil, err
	}
	team, ok := state.SelectedTeam()
	if !ok {
		return nil, ErrNoTeam
	}

	for _, ds := range state.DatasetsOf(team.TeamID).Data {
		if ds.ID != id {
			continue
		}
		if !DownloadAvailable(ds) {
			return nil, ErrDownloadUnavailable
		}
		return p.api.DownloadDataset(ctx, id)
	}
	return nil, ErrUnknownDataset
}

var (
	ErrDownloadUnavailable = errors.New("dataset is not public and published")
	ErrUnknownDataset      = errors.New("dataset is not in the selected team")
	ErrNoSession           = errors.New("session has no state")
)

// DownloadAvailable gates the download and copy-URL controls.
func DownloadAvailable(ds models.Dataset) bool {
	return ds.DownloadAvailable()
}

func (p *Presenter) DownloadURL(id string) string {
	return p.api.DownloadURL(id)
}

func (p *Presenter) sessionState(sid string) (store.State, models.Session, error) {
	state, ok := p.store.State(sid)
	if !ok || state.Session == nil {
		return store.State{}, models.Session{}, ErrNoSession
	}
	return state, *state.Session, nil
}

func createFailure(err error, failed bool, code, message string) (CreateOutcome, bool) {
	if err != nil {
		return CreateOutcome{Code: string(errs.Classify(err)), Message: errs.Display(err)}, true
	}
	if failed {
		if message == "" {
			message = errs.Message(errs.Code(code))
		}
		return CreateOutcome{Code: code, Message: message}, true
	}
	return CreateOutcome{}, false
}
