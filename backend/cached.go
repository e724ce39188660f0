package backend

import (
	"context"
	"encoding/json"

	"geoconsole/cache"
	"geoconsole/models"

	"github.com/rs/zerolog"
)

// CachedLister serves list calls from the cache storage and drops the
// affected bucket on every mutation it forwards.
type CachedLister struct {
	API

	storage cache.Storage
	ttl     int64
	logger  zerolog.Logger
}

func NewCachedLister(api API, storage cache.Storage, ttl int64, logger zerolog.Logger) *CachedLister {
	return &CachedLister{
		API:     api,
		storage: storage,
		ttl:     ttl,
		logger:  logger.With().Str("sub_service", "list_cache").Logger(),
	}
}

// Invalidate drops the cached list of resource for owner: a team id for
// keys and datasets, a user id for teams.
func (l *CachedLister) Invalidate(resource models.Resource, owner string) {
	if err := l.storage.Delete(string(resource), owner); err != nil {
		l.logger.Warn().Err(err).
			Str("resource", string(resource)).
			Str("owner", owner).
			Msg("failed to invalidate cached list")
	}
}

func (l *CachedLister) ListTeams(ctx context.Context, session models.Session) ([]models.Team, error) {
	return cached(l, models.ResourceTeams, session.UserID, func() ([]models.Team, error) {
		return l.API.ListTeams(ctx, session)
	})
}

func (l *CachedLister) ListKeys(ctx context.Context, session models.Session, teamID string) ([]models.Key, error) {
	return cached(l, models.ResourceKeys, teamID, func() ([]models.Key, error) {
		return l.API.ListKeys(ctx, session, teamID)
	})
}

func (l *CachedLister) ListDatasets(ctx context.Context, session models.Session, teamID string) ([]models.Dataset, error) {
	return cached(l, models.ResourceDatasets, teamID, func() ([]models.Dataset, error) {
		return l.API.ListDatasets(ctx, session, teamID)
	})
}

func (l *CachedLister) UpdateTeam(ctx context.Context, session models.Session, team models.Team) (models.Team, error) {
	updated, err := l.API.UpdateTeam(ctx, session, team)
	if err == nil {
		l.Invalidate(models.ResourceTeams, session.UserID)
	}
	return updated, err
}

func (l *CachedLister) DeleteTeam(ctx context.Context, session models.Session, teamID string) error {
	err := l.API.DeleteTeam(ctx, session, teamID)
	if err == nil {
		l.Invalidate(models.ResourceTeams, session.UserID)
		l.Invalidate(models.ResourceKeys, teamID)
		l.Invalidate(models.ResourceDatasets, teamID)
	}
	return err
}

func (l *CachedLister) CreateKey(ctx context.Context, session models.Session, teamID, name string) (CreateResult[models.Key], error) {
	res, err := l.API.CreateKey(ctx, session, teamID, name)
	if err == nil && !res.Error {
		l.Invalidate(models.ResourceKeys, teamID)
	}
	return res, err
}

func (l *CachedLister) UpdateKey(ctx context.Context, session models.Session, teamID string, key models.Key) (models.Key, error) {
	updated, err := l.API.UpdateKey(ctx, session, teamID, key)
	if err == nil {
		l.Invalidate(models.ResourceKeys, teamID)
	}
	return updated, err
}

func (l *CachedLister) DeleteKey(ctx context.Context, session models.Session, teamID, keyID string) error {
	err := l.API.DeleteKey(ctx, session, teamID, keyID)
	if err == nil {
		l.Invalidate(models.ResourceKeys, teamID)
	}
	return err
}

func (l *CachedLister) CreateDataset(ctx context.Context, session models.Session, teamID, name string) (CreateResult[models.Dataset], error) {
	res, err := l.API.CreateDataset(ctx, session, teamID, name)
	if err == nil && !res.Error {
		l.Invalidate(models.ResourceDatasets, teamID)
	}
	return res, err
}

// UpdateDataset can not know the owning team, the dataset list is refreshed
// through the DatasetsStale flag instead.

func cached[T any](l *CachedLister, resource models.Resource, owner string, fetch func() ([]T, error)) ([]T, error) {
	if owner != "" {
		raw, err := l.storage.Get(string(resource), owner)
		if err == nil {
			var list []T
			if err = json.Unmarshal(raw, &list); err == nil {
				return list, nil
			}
			l.logger.Warn().Err(err).Str("resource", string(resource)).Msg("dropping malformed cached list")
		} else if err != cache.ErrNotFound {
			l.logger.Warn().Err(err).Str("resource", string(resource)).Msg("cache read failed")
		}
	}

	list, err := fetch()
	if err != nil || owner == "" {
		return list, err
	}

	raw, err := json.Marshal(list)
	if err == nil {
		err = l.storage.Save(string(resource), owner, raw, l.ttl)
	}
	if err != nil {
		l.logger.Warn().Err(err).Str("resource", string(resource)).Msg("cache write failed")
	}
	return list, nil
}
