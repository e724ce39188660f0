package app

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"

	"geoconsole/config"
	"geoconsole/errs"
	"geoconsole/log"
	"geoconsole/metrics"
	"geoconsole/models"
	"geoconsole/sessions"
	"geoconsole/store"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/lancer-kit/armory/api/render"
	"github.com/lancer-kit/uwe/v2/presets/api"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

func GetServer(logger zerolog.Logger, cfg config.Cfg, console *Console) *api.Server {
	return api.NewServer(cfg.API, getRouter(logger, cfg, console))
}

func getRouter(logger zerolog.Logger, cfg config.Cfg, console *Console) http.Handler {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(log.LoggerMiddleware(&logger))

	if cfg.API.EnableCORS {
		corsHandler := cors.New(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type",
				"X-CSRF-Token", models.SessionHeader},
			ExposedHeaders:   []string{"Link", "Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // Maximum value not ignored by any of major browsers
		})
		r.Use(corsHandler.Handler)
	}

	h := handler{Console: console, log: logger}

	r.Route("/_console", func(r chi.Router) {
		r.Get("/gc", func(http.ResponseWriter, *http.Request) { runtime.GC() })
		r.Get("/info", h.info)
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/session", h.signIn)

		r.Group(func(r chi.Router) {
			r.Use(h.withSession)

			r.Delete("/session", h.signOut)
			r.Get("/state", h.state)
			r.Get("/stream", h.stream)

			r.Get("/teams", h.teams)
			r.Put("/teams/selected", h.selectTeam)

			r.Route("/team", func(r chi.Router) {
				r.Route("/editor", func(r chi.Router) {
					r.Post("/", h.mountTeamEditor)
					r.Get("/", h.teamEditor)
					r.Patch("/", h.patchTeamEditor)
					r.Post("/save", h.saveTeamEditor)
					r.Delete("/", h.unmountTeamEditor)
				})
				r.Route("/delete", func(r chi.Router) {
					r.Get("/", h.deleteStatus)
					r.Post("/", h.deleteTeam)
					r.Delete("/", h.cancelDelete)
				})
			})

			r.Route("/keys", func(r chi.Router) {
				r.Get("/", h.listKeys)
				r.Post("/", h.createKey)
				r.Route("/{id}/editor", func(r chi.Router) {
					r.Post("/", h.mountKeyEditor)
					r.Get("/", h.keyEditor)
					r.Patch("/", h.patchKeyEditor)
					r.Post("/save", h.saveKeyEditor)
					r.Delete("/", h.unmountKeyEditor)
				})
			})

			r.Route("/datasets", func(r chi.Router) {
				r.Get("/", h.listDatasets)
				r.Post("/", h.createDataset)
				r.Get("/{id}/download", h.download)
				r.Route("/{id}/editor", func(r chi.Router) {
					r.Post("/", h.mountDatasetEditor)
					r.Get("/", h.datasetEditor)
					r.Patch("/", h.patchDatasetEditor)
					r.Post("/save", h.saveDatasetEditor)
					r.Delete("/", h.unmountDatasetEditor)
				})
			})
		})
	})

	r.Mount("/", metrics.GetMonitoringMux(cfg.Monitoring))
	return r
}

type handler struct {
	*Console
	log zerolog.Logger
}

type ctxKey int

const sessionCtxKey ctxKey = iota

func sessionID(r *http.Request) string {
	if sid := r.Header.Get(models.SessionHeader); sid != "" {
		return sid
	}
	if cookie, err := r.Cookie(models.SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func sessionFrom(r *http.Request) models.Session {
	session, _ := r.Context().Value(sessionCtxKey).(models.Session)
	return session
}

// withSession resolves the console session of the request. A session that
// survived a restart in the session storage gets its state rebuilt.
func (h handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := sessionID(r)
		session, err := h.sessions.Get(sid)
		switch {
		case err == nil:
		case errors.Is(err, sessions.ErrExpired):
			h.dropSession(sid)
			renderError(w, http.StatusUnauthorized, errs.UnAuthorized, "session expired")
			return
		case errors.Is(err, sessions.ErrNotFound):
			renderError(w, http.StatusUnauthorized, errs.UnAuthorized, errs.Message(errs.UnAuthorized))
			return
		default:
			reqLog := log.IncludeRequest(h.log, r)
			reqLog.Error().Err(err).Msg("unable to resolve session")
			render.ServerError(w)
			return
		}

		if _, ok := h.store.State(sid); !ok {
			h.store.Dispatch(sid, store.SessionSet(session))
			if err := h.presenter.LoadTeams(r.Context(), sid, session); err != nil {
				reqLog := log.IncludeRequest(h.log, r)
				reqLog.Warn().Err(err).Msg("unable to reload teams of restored session")
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionCtxKey, session)))
	})
}

func (h handler) info(w http.ResponseWriter, _ *http.Request) {
	render.Success(w, struct {
		config.AppInfo
		Sessions    int `json:"sessions"`
		Connections int `json:"connections"`
	}{
		AppInfo:     config.App,
		Sessions:    h.store.Len(),
		Connections: h.hub.Connections(),
	})
}

func (h handler) stream(w http.ResponseWriter, r *http.Request) {
	if err := h.hub.Serve(w, r, sessionFrom(r).ID); err != nil {
		reqLog := log.IncludeRequest(h.log, r)
		reqLog.Debug().Err(err).Msg("stream connection refused")
	}
}

func readJSON(r *http.Request, dest interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dest)
}

// renderError writes the error envelope the browser shows inline.
func renderError(w http.ResponseWriter, status int, code errs.Code, message string) {
	renderJSON(w, status, models.ErrorResponse{Error: true, Code: string(code), Message: message})
}

func renderJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// renderUpstreamError maps a failed upstream call onto the response.
func renderUpstreamError(w http.ResponseWriter, err error) {
	code := errs.Classify(err)
	status := http.StatusBadGateway
	if code == errs.UnAuthorized {
		status = http.StatusForbidden
	}
	renderError(w, status, code, errs.Display(err))
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		return 0
	}
	return page
}
