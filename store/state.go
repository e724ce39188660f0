package store

import (
	"encoding/json"
	"time"

	"geoconsole/models"
)

type KeyList struct {
	Data   []models.Key `json:"data"`
	Loaded bool         `json:"loaded"`
	Error  string       `json:"error,omitempty"`
}

type DatasetList struct {
	Data   []models.Dataset `json:"data"`
	Loaded bool             `json:"loaded"`
	Error  string           `json:"error,omitempty"`
	// Stale asks the next read to re-fetch the list.
	Stale bool `json:"stale"`
}

// NeedsFetch reports whether the list has to be (re)loaded from upstream.
func (l DatasetList) NeedsFetch() bool {
	return !l.Loaded || l.Stale
}

// State is the application state of one browser session. Values are never
// mutated in place; Reduce returns a new State.
type State struct {
	Session  *models.Session
	Teams    []models.Team
	Selected int
	Keys     map[string]KeyList
	Datasets map[string]DatasetList
}

// SelectedTeam returns the selected team, false when the index is out of range.
func (s State) SelectedTeam() (models.Team, bool) {
	if s.Selected < 0 || s.Selected >= len(s.Teams) {
		return models.Team{}, false
	}
	return s.Teams[s.Selected], true
}

func (s State) KeysOf(teamID string) KeyList {
	return s.Keys[teamID]
}

func (s State) DatasetsOf(teamID string) DatasetList {
	return s.Datasets[teamID]
}

// FindKey looks the key up in the team list.
func (s State) FindKey(teamID, keyID string) (models.Key, bool) {
	for _, key := range s.Keys[teamID].Data {
		if key.KeyID == keyID {
			return key, true
		}
	}
	return models.Key{}, false
}

// UserView is the part of a session exposed to the browser.
type UserView struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type stateView struct {
	User     *UserView              `json:"user"`
	Teams    []models.Team          `json:"teams"`
	Selected int                    `json:"selectedIndex"`
	Keys     map[string]KeyList     `json:"keys"`
	Datasets map[string]DatasetList `json:"datasets"`
}

// MarshalJSON leaves the identity token out of every snapshot.
func (s State) MarshalJSON() ([]byte, error) {
	view := stateView{
		Teams:    s.Teams,
		Selected: s.Selected,
		Keys:     s.Keys,
		Datasets: s.Datasets,
	}
	if view.Teams == nil {
		view.Teams = []models.Team{}
	}
	if view.Keys == nil {
		view.Keys = map[string]KeyList{}
	}
	if view.Datasets == nil {
		view.Datasets = map[string]DatasetList{}
	}
	if s.Session != nil {
		view.User = &UserView{
			UserID:    s.Session.UserID,
			Username:  s.Session.Username,
			Email:     s.Session.Email,
			ExpiresAt: s.Session.ExpiresAt,
		}
	}
	return json.Marshal(view)
}
