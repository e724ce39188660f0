package app

import (
	"net/http"

	"geoconsole/config"
	"geoconsole/errs"
	"geoconsole/log"
	"geoconsole/metrics"
	"geoconsole/models"
	"geoconsole/sessions"
	"geoconsole/store"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/lancer-kit/armory/api/render"
	"github.com/pkg/errors"
)

type signInResponse struct {
	SessionID string      `json:"sessionId"`
	State     store.State `json:"state"`
	Error     string      `json:"error,omitempty"`
}

func (h handler) signIn(w http.ResponseWriter, r *http.Request) {
	logger := log.IncludeRequest(h.log, r)

	req := models.SignInRequest{}
	if err := readJSON(r, &req); err != nil {
		render.BadRequest(w, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		render.BadRequest(w, err.Error())
		return
	}

	session, err := h.sessions.SignIn(req.Token)
	switch {
	case err == nil:
	case errors.Is(err, sessions.ErrInvalidToken), errors.Is(err, sessions.ErrTokenExpired):
		renderError(w, http.StatusUnauthorized, errs.UnAuthorized, err.Error())
		return
	default:
		logger.Error().Err(err).Msg("unable to sign in")
		render.ServerError(w)
		return
	}
	metrics.Inc(config.ActiveSessions)

	h.store.Dispatch(session.ID, store.SessionSet(session))

	resp := signInResponse{SessionID: session.ID}
	if err := h.presenter.LoadTeams(r.Context(), session.ID, session); err != nil {
		logger.Warn().Err(err).Str("user", session.UserID).Msg("unable to load teams")
		resp.Error = errs.Display(err)
	}
	resp.State, _ = h.store.State(session.ID)

	http.SetCookie(w, &http.Cookie{
		Name:     models.SessionCookie,
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	render.Success(w, resp)
}

func (h handler) signOut(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	h.dropSession(session.ID)
	if err := h.sessions.SignOut(session.ID); err != nil {
		reqLog := log.IncludeRequest(h.log, r)
		reqLog.Error().Err(err).Msg("unable to sign out")
		render.ServerError(w)
		return
	}
	metrics.Dec(config.ActiveSessions)

	http.SetCookie(w, &http.Cookie{
		Name:   models.SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	render.Success(w, "signed out")
}

func (h handler) state(w http.ResponseWriter, r *http.Request) {
	state, _ := h.store.State(sessionFrom(r).ID)
	render.Success(w, state)
}

type teamsResponse struct {
	Teams    []models.Team `json:"teams"`
	Selected int           `json:"selectedIndex"`
	Error    string        `json:"error,omitempty"`
}

// teams returns the team list; ?refresh=true re-fetches it first.
func (h handler) teams(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	resp := teamsResponse{}
	if r.URL.Query().Get("refresh") == "true" {
		h.lister.Invalidate(models.ResourceTeams, session.UserID)
		if err := h.presenter.LoadTeams(r.Context(), session.ID, session); err != nil {
			resp.Error = errs.Display(err)
		}
	}

	state, _ := h.store.State(session.ID)
	resp.Teams = state.Teams
	resp.Selected = state.Selected
	render.Success(w, resp)
}

type selectTeamRequest struct {
	Index int `json:"index"`
}

func (h handler) selectTeam(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	state, _ := h.store.State(session.ID)

	req := selectTeamRequest{}
	if err := readJSON(r, &req); err != nil {
		render.BadRequest(w, "invalid request body")
		return
	}
	err := validation.ValidateStruct(&req,
		validation.Field(&req.Index, validation.Min(0), validation.Max(len(state.Teams)-1)),
	)
	if err != nil || len(state.Teams) == 0 {
		render.BadRequest(w, "index: team does not exist")
		return
	}

	state = h.store.Dispatch(session.ID, store.TeamSelected(req.Index))
	render.Success(w, teamsResponse{Teams: state.Teams, Selected: state.Selected})
}
