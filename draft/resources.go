package draft

import (
	"context"

	"geoconsole/models"
)

// Scheduler keys are scoped by browser session so that two sessions editing
// the same record never replace each other's pending save.

func DatasetKey(sid, id string) string { return sid + "/dataset/" + id }

func KeyKey(sid, id string) string { return sid + "/key/" + id }

func TeamKey(sid, id string) string { return sid + "/team/" + id }

func DatasetResource(sid string, id string,
	save func(context.Context, models.Dataset) (models.Dataset, error),
	commit func(models.Dataset)) Resource[models.Dataset] {
	return Resource[models.Dataset]{
		Name:   "dataset",
		Key:    DatasetKey(sid, id),
		Equal:  models.Dataset.Equal,
		Clone:  models.Dataset.Clone,
		Save:   save,
		Commit: commit,
	}
}

func KeyResource(sid string, id string,
	save func(context.Context, models.Key) (models.Key, error),
	commit func(models.Key)) Resource[models.Key] {
	return Resource[models.Key]{
		Name:   "key",
		Key:    KeyKey(sid, id),
		Equal:  models.Key.Equal,
		Clone:  models.Key.Clone,
		Save:   save,
		Commit: commit,
	}
}

func TeamResource(sid string, id string,
	save func(context.Context, models.Team) (models.Team, error),
	commit func(models.Team)) Resource[models.Team] {
	return Resource[models.Team]{
		Name:   "team",
		Key:    TeamKey(sid, id),
		Equal:  models.Team.Equal,
		Clone:  func(t models.Team) models.Team { return t },
		Save:   save,
		Commit: commit,
	}
}
