// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/enricher"
	"github.com/poiesic/enricher/api"
	"github.com/poiesic/enricher/config"
	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/reembed"
	"github.com/poiesic/enricher/search"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "enricher",
		Usage: "Embeddings, translation and search indexing for application records",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML, TOML or JSON configuration file",
				EnvVars: []string{"ENRICHER_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Dotenv file loaded before the environment is read",
				Value: ".env",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API and process queued jobs",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides server.addr)",
					},
				},
			},
			{
				Name:      "translate",
				Usage:     "Translate the records of a model into other locales",
				ArgsUsage: "MODEL",
				Action:    translateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Translate only the record with this key"},
					&cli.StringSliceFlag{Name: "locale", Usage: "Target locale (repeatable)"},
					&cli.BoolFlag{Name: "all", Usage: "Translate to every available locale"},
					&cli.BoolFlag{Name: "force", Usage: "Retranslate current translations"},
					&cli.BoolFlag{Name: "sync", Usage: "Run inline instead of queued"},
				},
			},
			{
				Name:      "translate-missing",
				Usage:     "Find and translate records with missing translations",
				ArgsUsage: "MODEL",
				Action:    translateMissingCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "locale", Usage: "Only check this locale"},
					&cli.BoolFlag{Name: "sync", Usage: "Run inline instead of queued"},
					&cli.BoolFlag{Name: "dry-run", Usage: "Only list the records"},
				},
			},
			{
				Name:      "index",
				Usage:     "Rebuild the search documents of a model",
				ArgsUsage: "MODEL",
				Action:    indexCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Index only the record with this key"},
					&cli.BoolFlag{Name: "sync", Usage: "Run inline instead of queued"},
				},
			},
			{
				Name:      "reembed",
				Usage:     "Regenerate the embeddings of every record of a model",
				ArgsUsage: "MODEL",
				Action:    reembedCommand,
			},
			{
				Name:      "search",
				Usage:     "Run a hybrid search query",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "table", Usage: "Restrict results to a table (repeatable)"},
					&cli.StringFlag{Name: "locale", Usage: "Restrict results to a locale"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of results", Value: search.DefaultLimit},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	return config.Load(
		config.WithFile(c.String("config")),
		config.WithEnvFile(c.String("env-file")),
	)
}

func open(c *cli.Context) (*enricher.Enricher, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	e, err := enricher.Open(c.Context, cfg, enricher.WithLogger(slog.Default()))
	if err != nil {
		return nil, nil, err
	}
	return e, cfg, nil
}

// modelArg resolves the MODEL argument among the models accepted by keep.
func modelArg(c *cli.Context, e *enricher.Enricher, keep func(*core.ModelDef) bool) (*core.ModelDef, error) {
	if c.NArg() != 1 {
		return nil, fmt.Errorf("expected exactly one MODEL argument")
	}
	return e.Registry().Resolve(c.Args().First(), keep)
}

// recordRefs lists the records of def, or only key when it is set.
func recordRefs(c *cli.Context, e *enricher.Enricher, def *core.ModelDef, key string) ([]core.Ref, error) {
	if key != "" {
		ref := core.Ref{Table: def.Table, Key: key}
		if _, err := e.GetRecord(c.Context, ref); err != nil {
			return nil, err
		}
		return []core.Ref{ref}, nil
	}
	var refs []core.Ref
	err := e.ForEachRecord(c.Context, def.Table, func(r *core.Record) error {
		refs = append(refs, r.Ref())
		return nil
	})
	return refs, err
}

// each calls fn for every ref while drawing progress on w.
func each(w io.Writer, label string, refs []core.Ref, fn func(core.Ref) error) error {
	progress := reembed.NewProgressTracker(w, label, len(refs), 1)
	progress.Start()
	for _, ref := range refs {
		if err := fn(ref); err != nil {
			return fmt.Errorf("%s: %w", ref, err)
		}
		progress.Increment(1)
	}
	progress.Finish()
	return nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, cfg, err := open(c)
	if err != nil {
		return err
	}
	defer e.Close()

	gin.SetMode(cfg.Server.Mode)
	addr := cfg.Server.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}
	if cfg.Server.Token == "" {
		slog.Warn("no API token configured, the API is unauthenticated")
	}
	server := api.NewServer(e, api.WithToken(cfg.Server.Token), api.WithLogger(slog.Default()))
	return server.ListenAndServe(ctx, addr)
}

func translateCommand(c *cli.Context) error {
	e, _, err := open(c)
	if err != nil {
		return err
	}
	defer e.Close()

	def, err := modelArg(c, e, (*core.ModelDef).Translatable)
	if err != nil {
		return err
	}
	refs, err := recordRefs(c, e, def, c.String("id"))
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		slog.Warn("no records found to translate", "model", def.Name)
		return nil
	}

	locales := c.StringSlice("locale")
	if c.Bool("all") {
		locales = e.Locales().Available
	}
	fmt.Fprintf(c.App.Writer, "Found %d record(s) to translate\n", len(refs))
	err = each(c.App.ErrWriter, "Translating", refs, func(ref core.Ref) error {
		return e.RequestTranslation(c.Context, ref, locales, c.Bool("force"), c.Bool("sync"))
	})
	if err != nil {
		return err
	}
	e.Wait()
	fmt.Fprintf(c.App.Writer, "Translation finished for %d record(s)\n", len(refs))
	return nil
}

func translateMissingCommand(c *cli.Context) error {
	e, _, err := open(c)
	if err != nil {
		return err
	}
	defer e.Close()

	def, err := modelArg(c, e, (*core.ModelDef).Translatable)
	if err != nil {
		return err
	}
	var locales []string
	if locale := c.String("locale"); locale != "" {
		locales = []string{locale}
	}

	missing, err := e.FindMissingTranslations(c.Context, def, locales)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		fmt.Fprintln(c.App.Writer, "No records with missing translations found")
		return nil
	}
	fmt.Fprintf(c.App.Writer, "Found %d record(s) with missing translations\n", len(missing))
	if c.Bool("dry-run") {
		for _, m := range missing {
			fmt.Fprintf(c.App.Writer, "  %s: %s\n", m.Ref, strings.Join(m.Locales, ", "))
		}
		return nil
	}

	for _, m := range missing {
		if err := e.RequestTranslation(c.Context, m.Ref, m.Locales, false, c.Bool("sync")); err != nil {
			return fmt.Errorf("%s: %w", m.Ref, err)
		}
	}
	e.Wait()
	fmt.Fprintf(c.App.Writer, "Translation finished for %d record(s)\n", len(missing))
	return nil
}

func indexCommand(c *cli.Context) error {
	e, _, err := open(c)
	if err != nil {
		return err
	}
	defer e.Close()

	def, err := modelArg(c, e, func(d *core.ModelDef) bool { return d.Searchable })
	if err != nil {
		return err
	}
	refs, err := recordRefs(c, e, def, c.String("id"))
	if err != nil {
		return err
	}
	err = each(c.App.ErrWriter, "Indexing", refs, func(ref core.Ref) error {
		return e.RequestIndexing(c.Context, ref, c.Bool("sync"))
	})
	if err != nil {
		return err
	}
	e.Wait()
	fmt.Fprintf(c.App.Writer, "Indexed %d record(s)\n", len(refs))
	return nil
}

func reembedCommand(c *cli.Context) error {
	e, _, err := open(c)
	if err != nil {
		return err
	}
	defer e.Close()

	def, err := modelArg(c, e, (*core.ModelDef).SupportsEmbeddings)
	if err != nil {
		return err
	}
	count, err := e.NewReembedder(c.App.ErrWriter).Run(c.Context, def)
	if err != nil {
		return fmt.Errorf("reembedding failed: %w", err)
	}
	e.Wait()
	fmt.Fprintf(c.App.Writer, "Reembedded %d record(s)\n", count)
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("expected a QUERY argument")
	}
	e, _, err := open(c)
	if err != nil {
		return err
	}
	defer e.Close()

	results, err := e.Searcher().Search(c.Context, &search.Query{
		Text:   strings.Join(c.Args().Slice(), " "),
		Tables: c.StringSlice("table"),
		Locale: c.String("locale"),
		Limit:  c.Int("limit"),
	})
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(c.App.Writer, "No results")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(c.App.Writer, "%2d. %-30s %.3f\n", i+1, r.Document.ID, r.Score)
	}
	return nil
}
