package app

import (
	"geoconsole/app/stream"
	"geoconsole/backend"
	"geoconsole/cache"
	"geoconsole/config"
	"geoconsole/draft"
	"geoconsole/models"
	"geoconsole/presenter"
	"geoconsole/sessions"
	"geoconsole/store"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Console wires together everything a request handler needs.
type Console struct {
	cfg config.Cfg
	log zerolog.Logger

	sessions  *sessions.Manager
	cache     cache.Storage
	api       backend.API
	lister    *backend.CachedLister
	store     *store.Store
	presenter *presenter.Presenter
	scheduler *draft.Scheduler
	hub       *stream.Hub

	datasetEditors *editorSet[models.Dataset]
	keyEditors     *editorSet[models.Key]
	teamEditors    *editorSet[models.Team]
	gates          *gateSet
}

// NewConsole opens the storages and builds the console services.
func NewConsole(logger zerolog.Logger, cfg config.Cfg) (*Console, error) {
	sessionStorage, err := sessions.NewStorage(cfg.Sessions)
	if err != nil {
		return nil, errors.Wrap(err, "unable to init session storage")
	}

	cacheStorage, err := cache.NewStorage(cfg.Cache)
	if err != nil {
		return nil, errors.Wrap(err, "unable to init list cache")
	}

	return newConsole(logger, cfg,
		sessions.NewManager(sessionStorage, cfg.Sessions.DefaultTTL()),
		cacheStorage,
		backend.NewClient(cfg.Upstream),
	), nil
}

func newConsole(logger zerolog.Logger, cfg config.Cfg, manager *sessions.Manager,
	cacheStorage cache.Storage, upstream backend.API) *Console {
	lister := backend.NewCachedLister(upstream, cacheStorage, cfg.Cache.ListTTL(), logger)
	st := store.New()

	c := &Console{
		cfg:            cfg,
		log:            logger,
		sessions:       manager,
		cache:          cacheStorage,
		api:            lister,
		lister:         lister,
		store:          st,
		presenter:      presenter.New(lister, st, logger),
		scheduler:      draft.NewScheduler(logger.With().Str("worker", WorkerReconciler).Logger(), cfg.Editor.SaveTimeout),
		datasetEditors: newEditorSet[models.Dataset](),
		keyEditors:     newEditorSet[models.Key](),
		teamEditors:    newEditorSet[models.Team](),
		gates:          newGateSet(),
	}

	c.hub = stream.NewHub(logger.With().Str("worker", WorkerStreamHub).Logger(), cfg.Stream, c.snapshot)
	st.Subscribe(c.publishAction)
	return c
}

func (c *Console) snapshot(sid string) (interface{}, bool) {
	state, ok := c.store.State(sid)
	if !ok {
		return nil, false
	}
	return state, true
}

// publishAction pushes every store change to the session's stream.
func (c *Console) publishAction(sid string, action store.Action, state store.State) {
	if action.Kind == store.KindSessionCleared {
		return
	}
	c.hub.Publish(sid, &models.Message{
		Channel: stream.ChannelState,
		Event:   string(action.Kind),
		Data:    state,
	})
}

// dropSession forgets everything the console holds for sid.
func (c *Console) dropSession(sid string) {
	n := c.datasetEditors.unmountSession(sid) +
		c.keyEditors.unmountSession(sid) +
		c.teamEditors.unmountSession(sid)
	c.gates.removeSession(sid)

	if _, ok := c.store.State(sid); ok {
		c.store.Dispatch(sid, store.SessionCleared())
	}
	c.hub.CloseSession(sid)

	c.log.Debug().Str("session", sid).Int("editors", n).Msg("session dropped")
}

// Close releases the storages.
func (c *Console) Close() {
	if err := c.cache.CloseConnection(); err != nil {
		c.log.Warn().Err(err).Msg("unable to close list cache")
	}
	if err := c.sessions.Storage().CloseConnection(); err != nil {
		c.log.Warn().Err(err).Msg("unable to close session storage")
	}
}
