package store

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/yourorg/yapits/pkg/types"
)

// ProjectFetcher loads project info from the document source.
type ProjectFetcher interface {
	Project(ctx context.Context, id int) (*types.ProjectInfo, error)
}

// ProjectCache serves project info from the store and falls back to the
// fetcher on a miss. Fetched projects are written back.
type ProjectCache struct {
	store   Store
	fetcher ProjectFetcher
	logger  *zap.Logger
}

func NewProjectCache(s Store, fetcher ProjectFetcher, logger *zap.Logger) *ProjectCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectCache{store: s, fetcher: fetcher, logger: logger}
}

func (c *ProjectCache) Project(ctx context.Context, id int) (*types.ProjectInfo, error) {
	raw, err := c.store.Get(ctx, BucketProjects, "id", id)
	if err != nil {
		return nil, err
	}
	if raw != nil {
		var p types.ProjectInfo
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, errors.Wrapf(err, "decode cached project %d", id)
		}
		return &p, nil
	}

	if c.fetcher == nil {
		return nil, errors.Newf("project %d is not cached", id)
	}
	p, err := c.fetcher.Project(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.Newf("project %d not found", id)
	}
	if _, err := c.store.SetIfAbsent(ctx, BucketProjects, p, "id"); err != nil {
		// The project is still usable without the cache.
		c.logger.Warn("cache project failed", zap.Int("project_id", id), zap.Error(err))
	}
	return p, nil
}
