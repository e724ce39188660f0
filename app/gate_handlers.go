package app

import (
	"context"
	"net/http"

	"geoconsole/app/stream"
	"geoconsole/errs"
	"geoconsole/gate"
	"geoconsole/models"
	"geoconsole/store"

	"github.com/lancer-kit/armory/api/render"
	"github.com/pkg/errors"
)

type deleteRequest struct {
	Confirmation string `json:"confirmation"`
}

// teamGate returns the delete dialog of the team for the session. The
// deletion removes the team from the store and reloads the team list.
func (c *Console) teamGate(session models.Session, teamID string) *gate.Gate {
	sid := session.ID
	return c.gates.getOrCreate(sid, teamID, func() *gate.Gate {
		action := func(ctx context.Context) error {
			if err := c.api.DeleteTeam(ctx, session, teamID); err != nil {
				return err
			}
			c.store.Dispatch(sid, store.TeamRemoved(teamID))
			if err := c.presenter.LoadTeams(ctx, sid, session); err != nil {
				c.log.Warn().Err(err).Str("session", sid).Msg("unable to reload teams after deletion")
			}
			return nil
		}

		return gate.New(c.cfg.Gate, action, gate.Options{
			OnChange: func(status gate.Status) {
				c.hub.Publish(sid, &models.Message{Channel: stream.ChannelGate, Event: string(status.State), Data: status})
			},
			OnRedirect: func(url string) {
				c.hub.Publish(sid, &models.Message{
					Channel: stream.ChannelGate,
					Event:   "redirect",
					Data:    map[string]string{"url": url},
				})
				c.gates.remove(sid, teamID)
			},
		})
	})
}

func (h handler) deleteStatus(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	state, _ := h.store.State(session.ID)
	team, ok := selectedTeam(w, state)
	if !ok {
		return
	}

	g, ok := h.gates.get(session.ID, team.TeamID)
	if !ok {
		render.Success(w, gate.Status{State: gate.StateIdle, CancelEnabled: true})
		return
	}
	render.Success(w, g.Status())
}

// deleteTeam opens the dialog, takes the typed confirmation and starts the
// deletion. The result is pushed over the stream.
func (h handler) deleteTeam(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	state, _ := h.store.State(session.ID)
	team, ok := selectedTeam(w, state)
	if !ok {
		return
	}

	req := deleteRequest{}
	if err := readJSON(r, &req); err != nil {
		render.BadRequest(w, "invalid request body")
		return
	}

	g := h.teamGate(session, team.TeamID)
	g.Open()
	g.Input(req.Confirmation)

	err := g.Submit(context.Background())
	switch {
	case err == nil:
		renderJSON(w, http.StatusAccepted, g.Status())
	case errors.Is(err, gate.ErrNotConfirmed):
		renderError(w, http.StatusBadRequest, errs.Unknown, `Type "`+h.cfg.Gate.Confirmation+`" to confirm.`)
	case errors.Is(err, gate.ErrBusy):
		renderJSON(w, http.StatusConflict, g.Status())
	default:
		renderError(w, http.StatusConflict, errs.Unknown, err.Error())
	}
}

func (h handler) cancelDelete(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	state, _ := h.store.State(session.ID)
	team, ok := selectedTeam(w, state)
	if !ok {
		return
	}

	g, ok := h.gates.get(session.ID, team.TeamID)
	if !ok {
		render.Success(w, gate.Status{State: gate.StateIdle, CancelEnabled: true})
		return
	}
	if !g.Cancel() {
		renderJSON(w, http.StatusConflict, g.Status())
		return
	}
	render.Success(w, g.Status())
}
