package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/yourorg/yapits/internal/config"
	"github.com/yourorg/yapits/internal/generator"
	"github.com/yourorg/yapits/internal/logger"
	"github.com/yourorg/yapits/internal/store"
	"github.com/yourorg/yapits/internal/yapi"
	"github.com/yourorg/yapits/pkg/types"
)

type globalFlags struct {
	cfgPath string
	debug   bool
	logJSON bool
}

// app holds the wired components for one command invocation.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	store    *store.SQLiteStore
	client   *yapi.Client
	pipeline *generator.Pipeline
}

func loadConfig(g *globalFlags) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(g.cfgPath)
	if err != nil {
		return nil, nil, err
	}
	if g.debug {
		cfg.Log.Level = "debug"
	}
	if g.logJSON {
		cfg.Log.JSON = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, errors.WithHint(err, "run `yapits init` or fix the config file")
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func generatorOptions(cfg *config.Config) generator.Options {
	opts := generator.DefaultOptions()
	opts.RequestSuffix = cfg.Output.RequestSuffix
	opts.ResponseSuffix = cfg.Output.ResponseSuffix
	opts.Render.Indent = strings.Repeat(" ", cfg.Output.Indent)
	return opts
}

// newApp wires the YApi client, the SQLite cache and the pipeline.
func newApp(g *globalFlags) (*app, error) {
	cfg, log, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create store dir")
	}
	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, errors.WithHint(err, "check store.path in the config file")
	}

	client := yapi.NewClient(cfg.YApi.BaseURL, cfg.YApi.Token, cfg.YApi.Cookie, cfg.YApi.RatePerSecond, log.Named("yapi"))
	client.MaxRetries = cfg.YApi.MaxRetries
	client.HTTPClient.Timeout = time.Duration(cfg.YApi.TimeoutSeconds) * time.Second
	client.Sanitize = cfg.Sanitize

	projects := store.NewProjectCache(st, client, log.Named("store"))
	gen, err := generator.New(projects, generatorOptions(cfg), log.Named("generator"))
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	return &app{
		cfg:      cfg,
		log:      log,
		store:    st,
		client:   client,
		pipeline: generator.NewPipeline(client, gen, st, cfg.Output.Concurrency, log.Named("pipeline")).WithFilter(cfg.Filter),
	}, nil
}

func (a *app) Close() {
	_ = a.log.Sync()
	_ = a.store.Close()
}

// artifactWriter writes one .ts file per artifact into dir. File names come
// from the URL; a name already used in this run gets the method appended,
// then the interface id, so no artifact overwrites another.
type artifactWriter struct {
	dir  string
	used map[string]bool
}

func newArtifactWriter(dir string) *artifactWriter {
	return &artifactWriter{dir: dir, used: make(map[string]bool)}
}

// write returns the written path, or "" when dir is empty and the caller
// prints to stdout instead.
func (w *artifactWriter) write(art *types.GeneratedArtifact) (string, error) {
	if w.dir == "" {
		return "", nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create output dir")
	}
	name, err := w.fileName(art)
	if err != nil {
		return "", err
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, []byte(art.Text()), 0o644); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	return path, nil
}

func (w *artifactWriter) fileName(art *types.GeneratedArtifact) (string, error) {
	base := generator.BaseName(art.URL)
	withMethod := base + generator.Capitalize(strings.ToLower(art.Method))
	candidates := []string{base, withMethod, fmt.Sprintf("%s_%d", withMethod, art.ID)}
	for _, c := range candidates {
		// compared case-insensitively
		key := strings.ToLower(c)
		if w.used[key] {
			continue
		}
		w.used[key] = true
		return c + ".ts", nil
	}
	return "", errors.Newf("%s.ts already written in this run for %s %s", base, art.Method, art.URL)
}
