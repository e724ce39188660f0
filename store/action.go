package store

import (
	"geoconsole/models"
)

type Kind string

const (
	KindSessionSet     Kind = "SessionSet"
	KindSessionCleared Kind = "SessionCleared"
	KindTeamsLoaded    Kind = "TeamsLoaded"
	KindTeamSelected   Kind = "TeamSelected"
	KindTeamUpdated    Kind = "TeamUpdated"
	KindTeamRemoved    Kind = "TeamRemoved"
	KindKeysLoaded     Kind = "KeysLoaded"
	KindKeyAdded       Kind = "KeyAdded"
	KindKeyUpdated     Kind = "KeyUpdated"
	KindKeyRemoved     Kind = "KeyRemoved"
	KindKeysFailed     Kind = "KeysFailed"
	KindDatasetsLoaded Kind = "DatasetsLoaded"
	KindDatasetUpdated Kind = "DatasetUpdated"
	KindDatasetsStale  Kind = "DatasetsStale"
	KindDatasetsFailed Kind = "DatasetsFailed"
)

// Action is a store mutation. Only the fields relevant to Kind are set.
type Action struct {
	Kind Kind `json:"kind"`

	TeamID string `json:"teamId,omitempty"`
	ID     string `json:"id,omitempty"`
	Index  int    `json:"index,omitempty"`
	Error  string `json:"error,omitempty"`

	Session  *models.Session  `json:"-"`
	Teams    []models.Team    `json:"-"`
	Team     *models.Team     `json:"-"`
	Keys     []models.Key     `json:"-"`
	Key      *models.Key      `json:"-"`
	Datasets []models.Dataset `json:"-"`
	Dataset  *models.Dataset  `json:"-"`
}

func SessionSet(session models.Session) Action {
	return Action{Kind: KindSessionSet, Session: &session}
}

func SessionCleared() Action {
	return Action{Kind: KindSessionCleared}
}

func TeamsLoaded(teams []models.Team) Action {
	return Action{Kind: KindTeamsLoaded, Teams: teams}
}

func TeamSelected(index int) Action {
	return Action{Kind: KindTeamSelected, Index: index}
}

func TeamUpdated(team models.Team) Action {
	return Action{Kind: KindTeamUpdated, TeamID: team.TeamID, Team: &team}
}

func TeamRemoved(teamID string) Action {
	return Action{Kind: KindTeamRemoved, TeamID: teamID}
}

func KeysLoaded(teamID string, keys []models.Key) Action {
	return Action{Kind: KindKeysLoaded, TeamID: teamID, Keys: keys}
}

func KeyAdded(teamID string, key models.Key) Action {
	return Action{Kind: KindKeyAdded, TeamID: teamID, ID: key.KeyID, Key: &key}
}

func KeyUpdated(teamID string, key models.Key) Action {
	return Action{Kind: KindKeyUpdated, TeamID: teamID, ID: key.KeyID, Key: &key}
}

func KeyRemoved(teamID, keyID string) Action {
	return Action{Kind: KindKeyRemoved, TeamID: teamID, ID: keyID}
}

func KeysFailed(teamID, message string) Action {
	return Action{Kind: KindKeysFailed, TeamID: teamID, Error: message}
}

func DatasetsLoaded(teamID string, datasets []models.Dataset) Action {
	return Action{Kind: KindDatasetsLoaded, TeamID: teamID, Datasets: datasets}
}

// DatasetUpdated replaces the dataset in every team list that holds it.
func DatasetUpdated(dataset models.Dataset) Action {
	return Action{Kind: KindDatasetUpdated, ID: dataset.ID, Dataset: &dataset}
}

func DatasetsStale(teamID string) Action {
	return Action{Kind: KindDatasetsStale, TeamID: teamID}
}

func DatasetsFailed(teamID, message string) Action {
	return Action{Kind: KindDatasetsFailed, TeamID: teamID, Error: message}
}
