package store

import (
	"geoconsole/models"
)

// Reduce applies action to state and returns the next state. It never
// mutates state: touched maps and slices are copied first.
func Reduce(state State, action Action) State {
	switch action.Kind {
	case KindSessionSet:
		if action.Session != nil {
			session := *action.Session
			state.Session = &session
		}

	case KindSessionCleared:
		return State{}

	case KindTeamsLoaded:
		state.Teams = append([]models.Team(nil), action.Teams...)

	case KindTeamSelected:
		state.Selected = action.Index

	case KindTeamUpdated:
		if action.Team == nil {
			break
		}
		teams := append([]models.Team(nil), state.Teams...)
		for i := range teams {
			if teams[i].TeamID == action.Team.TeamID {
				role := teams[i].Role
				teams[i] = *action.Team
				if teams[i].Role == "" {
					teams[i].Role = role
				}
			}
		}
		state.Teams = teams

	case KindTeamRemoved:
		teams := make([]models.Team, 0, len(state.Teams))
		for _, team := range state.Teams {
			if team.TeamID != action.TeamID {
				teams = append(teams, team)
			}
		}
		state.Teams = teams
		state.Selected = 0
		state.Keys = withoutKeys(state.Keys, action.TeamID)
		state.Datasets = withoutDatasets(state.Datasets, action.TeamID)

	case KindKeysLoaded:
		state.Keys = withKeys(state.Keys, action.TeamID, KeyList{
			Data:   cloneKeys(action.Keys),
			Loaded: true,
		})

	case KindKeyAdded:
		if action.Key == nil {
			break
		}
		list := state.Keys[action.TeamID]
		list.Data = append(cloneKeys(list.Data), action.Key.Clone())
		state.Keys = withKeys(state.Keys, action.TeamID, list)

	case KindKeyUpdated:
		if action.Key == nil {
			break
		}
		list := state.Keys[action.TeamID]
		list.Data = cloneKeys(list.Data)
		for i := range list.Data {
			if list.Data[i].KeyID == action.Key.KeyID {
				list.Data[i] = action.Key.Clone()
			}
		}
		state.Keys = withKeys(state.Keys, action.TeamID, list)

	case KindKeyRemoved:
		list := state.Keys[action.TeamID]
		data := make([]models.Key, 0, len(list.Data))
		for _, key := range list.Data {
			if key.KeyID != action.ID {
				data = append(data, key)
			}
		}
		list.Data = data
		state.Keys = withKeys(state.Keys, action.TeamID, list)

	case KindKeysFailed:
		list := state.Keys[action.TeamID]
		list.Error = action.Error
		list.Loaded = true
		state.Keys = withKeys(state.Keys, action.TeamID, list)

	case KindDatasetsLoaded:
		state.Datasets = withDatasets(state.Datasets, action.TeamID, DatasetList{
			Data:   cloneDatasets(action.Datasets),
			Loaded: true,
		})

	case KindDatasetUpdated:
		if action.Dataset == nil {
			break
		}
		for teamID, list := range state.Datasets {
			for i := range list.Data {
				if list.Data[i].ID != action.Dataset.ID {
					continue
				}
				list.Data = cloneDatasets(list.Data)
				list.Data[i] = action.Dataset.Clone()
				state.Datasets = withDatasets(state.Datasets, teamID, list)
				break
			}
		}

	case KindDatasetsStale:
		list := state.Datasets[action.TeamID]
		list.Stale = true
		state.Datasets = withDatasets(state.Datasets, action.TeamID, list)

	case KindDatasetsFailed:
		list := state.Datasets[action.TeamID]
		list.Error = action.Error
		list.Loaded = true
		list.Stale = false
		state.Datasets = withDatasets(state.Datasets, action.TeamID, list)
	}

	return state
}

func cloneKeys(src []models.Key) []models.Key {
	dst := make([]models.Key, len(src))
	for i := range src {
		dst[i] = src[i].Clone()
	}
	return dst
}

func cloneDatasets(src []models.Dataset) []models.Dataset {
	dst := make([]models.Dataset, len(src))
	for i := range src {
		dst[i] = src[i].Clone()
	}
	return dst
}

func withKeys(src map[string]KeyList, teamID string, list KeyList) map[string]KeyList {
	dst := make(map[string]KeyList, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	dst[teamID] = list
	return dst
}

func withoutKeys(src map[string]KeyList, teamID string) map[string]KeyList {
	dst := make(map[string]KeyList, len(src))
	for k, v := range src {
		if k != teamID {
			dst[k] = v
		}
	}
	return dst
}

func withDatasets(src map[string]DatasetList, teamID string, list DatasetList) map[string]DatasetList {
	dst := make(map[string]DatasetList, len(src)+1)
	for k, v := range src {
		dst[k] = v
	}
	dst[teamID] = list
	return dst
}

func withoutDatasets(src map[string]DatasetList, teamID string) map[string]DatasetList {
	dst := make(map[string]DatasetList, len(src))
	for k, v := range src {
		if k != teamID {
			dst[k] = v
		}
	}
	return dst
}
