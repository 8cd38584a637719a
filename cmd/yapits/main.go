package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/yourorg/yapits/internal/config"
	"github.com/yourorg/yapits/internal/generator"
	"github.com/yourorg/yapits/internal/openapi"
	"github.com/yourorg/yapits/internal/server"
	"github.com/yourorg/yapits/internal/store"
	"github.com/yourorg/yapits/pkg/types"
)

const defaultConfigContent = `yapi:
  base_url: "http://127.0.0.1:3000"
  token: ""
  cookie: ""
  timeout_seconds: 10
  max_retries: 3
  rate_per_second: 5

output:
  request_suffix: "DTO"
  response_suffix: "VO"
  indent: 2
  concurrency: 4
  dir: ""

store:
  path: "~/.yapits/yapits.db"

server:
  host: "127.0.0.1"
  port: 3100
  cors_extension_id: ""

log:
  level: "info"
  json: false

filter:
  ignore_paths: []
  ignore_methods: []

sanitize:
  query_params: ["token"]
  headers: ["Cookie", "Authorization"]
  replacement: "***REDACTED***"
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintln(os.Stderr, "hint:", hint)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "yapits",
		Short:         "Generate TypeScript request/response interfaces from YApi",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.cfgPath, "config", "", "config file path (.yaml or .toml)")
	root.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug output")
	root.PersistentFlags().BoolVar(&g.logJSON, "log-json", false, "log as JSON")

	root.AddCommand(newInitCmd(g))
	root.AddCommand(newInterfaceCmd(g))
	root.AddCommand(newCategoryCmd(g))
	root.AddCommand(newOpenAPICmd(g))
	root.AddCommand(newServeCmd(g))
	root.AddCommand(newCacheCmd(g))

	return root
}

func newInitCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create ~/.yapits with a default config and cache database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := g.cfgPath
			if cfgFile == "" {
				p, err := config.DefaultPath()
				if err != nil {
					return err
				}
				cfgFile = p
			}
			if err := os.MkdirAll(filepath.Dir(cfgFile), 0o755); err != nil {
				return err
			}
			if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
				if err := writeDefaultConfig(cfgFile); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "created", cfgFile)
			} else if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "exists", cfgFile)
			} else {
				return err
			}

			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
				return err
			}
			s, err := store.NewSQLiteStore(cfg.Store.Path)
			if err != nil {
				return err
			}
			defer s.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "database ready", cfg.Store.Path)
			fmt.Fprintln(cmd.OutOrStdout(), "please set yapi.base_url and yapi.token in", cfgFile)
			return nil
		},
	}
}

func newInterfaceCmd(g *globalFlags) *cobra.Command {
	var id int
	var refresh bool
	var outDir string
	cmd := &cobra.Command{
		Use:   "interface",
		Short: "Generate declarations for one interface",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.Close()
			art, err := a.pipeline.Interface(cmd.Context(), id, refresh)
			if err != nil {
				return errors.WithHint(err, "check the interface id and yapi.token")
			}
			return emit(cmd.OutOrStdout(), newArtifactWriter(pickDir(outDir, a.cfg)), art)
		},
	}
	cmd.Flags().IntVar(&id, "id", 0, "YApi interface id")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached artifact")
	cmd.Flags().StringVar(&outDir, "out", "", "write .ts files into this directory")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newCategoryCmd(g *globalFlags) *cobra.Command {
	var catID int
	var refresh bool
	var outDir string
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Generate declarations for every interface of a category",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.Close()
			res, err := a.pipeline.Category(cmd.Context(), catID, refresh)
			if err != nil {
				return err
			}
			return emitResult(cmd, pickDir(outDir, a.cfg), res)
		},
	}
	cmd.Flags().IntVar(&catID, "cat-id", 0, "YApi category id")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached artifacts")
	cmd.Flags().StringVar(&outDir, "out", "", "write .ts files into this directory")
	_ = cmd.MarkFlagRequired("cat-id")
	return cmd
}

func newOpenAPICmd(g *globalFlags) *cobra.Command {
	var input, tag, outDir string
	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Generate declarations from an OpenAPI 3 document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(g)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			src, err := openapi.Load(cmd.Context(), input)
			if err != nil {
				return errors.WithHint(err, "--input takes a file path or an http(s) URL")
			}
			catID := 0
			if tag != "" {
				for i, c := range src.Categories() {
					if c == tag {
						catID = i + 1
					}
				}
				if catID == 0 {
					return errors.Newf("tag %q not found in %s", tag, input)
				}
			}
			gen, err := generator.New(src, generatorOptions(cfg), log.Named("generator"))
			if err != nil {
				return err
			}
			p := generator.NewPipeline(src, gen, nil, cfg.Output.Concurrency, log.Named("pipeline")).WithFilter(cfg.Filter)
			res, err := p.Category(cmd.Context(), catID, true)
			if err != nil {
				return err
			}
			return emitResult(cmd, pickDir(outDir, cfg), res)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "OpenAPI document path or URL")
	cmd.Flags().StringVar(&tag, "tag", "", "only operations whose first tag matches")
	cmd.Flags().StringVar(&outDir, "out", "", "write .ts files into this directory")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newServeCmd(g *globalFlags) *cobra.Command {
	var host string
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP service for the browser extension",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.Close()
			if cmd.Flags().Changed("host") {
				a.cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			srv, err := server.New(a.cfg, a.pipeline, a.log.Named("server"))
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port)))
		},
	}
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "server host")
	cmd.Flags().IntVar(&port, "port", 3100, "server port")
	return cmd
}

func newCacheCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "cache", Short: "Inspect or clear cached artifacts"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List cached artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.Close()
			arts, err := a.pipeline.Artifacts(cmd.Context())
			if err != nil {
				return err
			}
			for _, art := range arts {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n", art.ID, art.Method, art.URL, art.Title)
			}
			return nil
		},
	}

	var id int
	var projects bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Drop cached artifacts (all, or one with --id)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.pipeline.Forget(cmd.Context(), id); err != nil {
				return err
			}
			if projects {
				if err := a.store.Clear(cmd.Context(), store.BucketProjects, "", nil); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cache cleared")
			return nil
		},
	}
	clearCmd.Flags().IntVar(&id, "id", 0, "interface id")
	clearCmd.Flags().BoolVar(&projects, "projects", false, "also drop cached project info")

	cmd.AddCommand(list, clearCmd)
	return cmd
}

// writeDefaultConfig writes the commented YAML template, or the encoded
// defaults for .toml paths.
func writeDefaultConfig(path string) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		cfg := &config.Config{}
		cfg.SetDefaults()
		return config.Save(path, cfg)
	}
	return os.WriteFile(path, []byte(defaultConfigContent), 0o600)
}

func pickDir(flag string, cfg *config.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.Output.Dir
}

func emit(w io.Writer, aw *artifactWriter, art *types.GeneratedArtifact) error {
	path, err := aw.write(art)
	if err != nil {
		return err
	}
	if path != "" {
		fmt.Fprintln(w, "wrote", path)
		return nil
	}
	_, err = fmt.Fprintln(w, art.Text())
	return err
}

func emitResult(cmd *cobra.Command, dir string, res *types.CategoryResult) error {
	aw := newArtifactWriter(dir)
	for i := range res.Artifacts {
		if err := emit(cmd.OutOrStdout(), aw, &res.Artifacts[i]); err != nil {
			return err
		}
	}
	if len(res.Failures) == 0 {
		return nil
	}
	b, _ := json.MarshalIndent(res.Failures, "", "  ")
	fmt.Fprintln(cmd.ErrOrStderr(), string(b))
	return errors.Newf("%d of %d interfaces failed", len(res.Failures), len(res.Failures)+len(res.Artifacts))
}
