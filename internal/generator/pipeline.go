package generator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yourorg/yapits/internal/filter"
	"github.com/yourorg/yapits/internal/store"
	"github.com/yourorg/yapits/pkg/types"
)

// Source supplies endpoint definitions.
type Source interface {
	Interface(ctx context.Context, id int) (*types.ApiDocument, error)
	AllCategoryInterfaces(ctx context.Context, catID int) ([]types.InterfaceSummary, error)
}

// Pipeline fetches documents, synthesizes them and caches the artifacts.
type Pipeline struct {
	source      Source
	gen         *Generator
	store       store.Store
	concurrency int
	filter      filter.FilterConfig
	logger      *zap.Logger
	now         func() time.Time
}

// NewPipeline wires a pipeline. store may be nil to disable caching.
func NewPipeline(source Source, gen *Generator, s store.Store, concurrency int, logger *zap.Logger) *Pipeline {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{source: source, gen: gen, store: s, concurrency: concurrency, logger: logger, now: time.Now}
}

// WithFilter sets the rules applied to category listings.
func (p *Pipeline) WithFilter(cfg filter.FilterConfig) *Pipeline {
	p.filter = cfg
	return p
}

// Interface returns the artifact for one endpoint, from the cache unless
// refresh is set.
func (p *Pipeline) Interface(ctx context.Context, id int, refresh bool) (*types.GeneratedArtifact, error) {
	if !refresh {
		if art, err := p.cached(ctx, id); err != nil || art != nil {
			return art, err
		}
	}
	if p.source == nil {
		return nil, errors.New("no document source configured")
	}
	doc, err := p.source.Interface(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.Document(ctx, *doc, refresh)
}

// Document synthesizes a document supplied by the caller and caches the
// result. replace drops any cached artifact with the same id first.
func (p *Pipeline) Document(ctx context.Context, doc types.ApiDocument, replace bool) (*types.GeneratedArtifact, error) {
	art, err := p.gen.Synthesize(ctx, doc)
	if err != nil {
		return nil, err
	}
	art.CreatedAt = p.now().UTC()
	if p.store == nil {
		return art, nil
	}
	if replace {
		if err := p.store.Clear(ctx, store.BucketInterfaces, "id", doc.ID); err != nil {
			return nil, err
		}
	}
	if _, err := p.store.SetIfAbsent(ctx, store.BucketInterfaces, art, "id"); err != nil {
		p.logger.Warn("cache artifact failed", zap.Int("interface_id", doc.ID), zap.Error(err))
	}
	return art, nil
}

// Category synthesizes every endpoint of a category. Artifacts keep the
// listing order; endpoints that fail are reported in Failures and do not
// stop the others.
func (p *Pipeline) Category(ctx context.Context, catID int, refresh bool) (*types.CategoryResult, error) {
	if p.source == nil {
		return nil, errors.New("no document source configured")
	}
	listed, err := p.source.AllCategoryInterfaces(ctx, catID)
	if err != nil {
		return nil, err
	}
	list := filter.Apply(listed, p.filter)
	if skipped := len(listed) - len(list); skipped > 0 {
		p.logger.Debug("category entries filtered", zap.Int("category_id", catID), zap.Int("skipped", skipped))
	}

	arts := make([]*types.GeneratedArtifact, len(list))
	errs := make([]error, len(list))
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, item := range list {
		i, item := i, item
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			arts[i], errs[i] = p.Interface(ctx, item.ID, refresh)
			return nil
		})
	}
	_ = g.Wait()

	res := &types.CategoryResult{CategoryID: catID, Artifacts: make([]types.GeneratedArtifact, 0, len(list))}
	for i, item := range list {
		if errs[i] != nil {
			p.logger.Warn("interface failed", zap.Int("category_id", catID), zap.Int("interface_id", item.ID), zap.Error(errs[i]))
			res.Failures = append(res.Failures, types.Failure{ID: item.ID, Error: errs[i].Error()})
			continue
		}
		res.Artifacts = append(res.Artifacts, *arts[i])
	}
	p.logger.Info("category synthesized",
		zap.Int("category_id", catID),
		zap.Int("artifacts", len(res.Artifacts)),
		zap.Int("failures", len(res.Failures)))
	return res, nil
}

// Artifacts lists cached artifacts in the order they were stored.
func (p *Pipeline) Artifacts(ctx context.Context) ([]types.GeneratedArtifact, error) {
	out := make([]types.GeneratedArtifact, 0)
	if p.store == nil {
		return out, nil
	}
	raws, err := p.store.GetAll(ctx, store.BucketInterfaces)
	if err != nil {
		return nil, err
	}
	for _, raw := range raws {
		var a types.GeneratedArtifact
		if err := json.Unmarshal(raw, &a); err != nil {
			return nil, errors.Wrap(err, "decode cached artifact")
		}
		out = append(out, a)
	}
	return out, nil
}

// Artifact returns one cached artifact, or nil when it is not cached.
func (p *Pipeline) Artifact(ctx context.Context, id int) (*types.GeneratedArtifact, error) {
	return p.cached(ctx, id)
}

// Forget drops one cached artifact, or all of them when id is zero.
func (p *Pipeline) Forget(ctx context.Context, id int) error {
	if p.store == nil {
		return nil
	}
	if id == 0 {
		return p.store.Clear(ctx, store.BucketInterfaces, "", nil)
	}
	return p.store.Clear(ctx, store.BucketInterfaces, "id", id)
}

func (p *Pipeline) cached(ctx context.Context, id int) (*types.GeneratedArtifact, error) {
	if p.store == nil {
		return nil, nil
	}
	raw, err := p.store.Get(ctx, store.BucketInterfaces, "id", id)
	if err != nil || raw == nil {
		return nil, err
	}
	var a types.GeneratedArtifact
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, errors.Wrapf(err, "decode cached artifact %d", id)
	}
	return &a, nil
}
