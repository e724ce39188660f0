package app

import (
	"context"

	"geoconsole/config"
	"geoconsole/errs"
	"geoconsole/metrics"
	"geoconsole/models"
	"geoconsole/store"
)

// ApplyChange brings every session that works with the team of notice up
// to date with an upstream change.
func (c *Console) ApplyChange(ctx context.Context, notice models.ChangeNotice) {
	metrics.Inc(config.IncomingChanges)
	logger := c.log.With().
		Str("team", notice.TeamID).
		Str("resource", string(notice.Resource)).
		Str("event", notice.Event).
		Logger()

	if notice.Resource != models.ResourceTeams {
		c.lister.Invalidate(notice.Resource, notice.TeamID)
	}

	c.store.ForEachSession(func(sid string, state store.State) {
		if state.Session == nil || !hasTeam(state, notice.TeamID) {
			return
		}
		session := *state.Session

		switch notice.Resource {
		case models.ResourceTeams:
			c.lister.Invalidate(models.ResourceTeams, session.UserID)
			if err := c.presenter.LoadTeams(ctx, sid, session); err != nil {
				logger.Warn().Err(err).Str("session", sid).Msg("unable to reload teams")
			}

		case models.ResourceDatasets:
			c.store.Dispatch(sid, store.DatasetsStale(notice.TeamID))

		case models.ResourceKeys:
			team, ok := state.SelectedTeam()
			if !ok || team.TeamID != notice.TeamID {
				return
			}
			keys, err := c.api.ListKeys(ctx, session, notice.TeamID)
			if err != nil {
				c.store.Dispatch(sid, store.KeysFailed(notice.TeamID, errs.Display(err)))
				return
			}
			c.store.Dispatch(sid, store.KeysLoaded(notice.TeamID, keys))
		}
	})

	logger.Debug().Msg("change notice applied")
}

func hasTeam(state store.State, teamID string) bool {
	for _, team := range state.Teams {
		if team.TeamID == teamID {
			return true
		}
	}
	return false
}
