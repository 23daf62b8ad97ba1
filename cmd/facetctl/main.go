package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/facetsearch/internal/compiler"
	"github.com/kailas-cloud/facetsearch/internal/coordinator"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/intent"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/settings"
	logpkg "github.com/kailas-cloud/facetsearch/internal/logger"
	"github.com/kailas-cloud/facetsearch/internal/transport/elastic"
	"github.com/kailas-cloud/facetsearch/internal/version"
)

func main() {
	if err := newApp(os.Stdin, os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "input",
			Aliases: []string{"i"},
			Usage:   "File with action envelopes (JSON lines or array), - for stdin",
			Value:   "-",
		},
		&cli.BoolFlag{
			Name:  "intent",
			Usage: "Treat the input as a single intent snapshot instead of actions",
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML file with widget setting overrides",
		},
	}
}

func newApp(stdin io.Reader, stdout io.Writer) *cli.App {
	return &cli.App{
		Name:      "facetctl",
		Usage:     "Inspect and run faceted search queries",
		Version:   version.String(),
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: os.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "sanitize",
				Usage:     "Print the sanitized form of a query",
				ArgsUsage: "<query>",
				Action:    sanitizeCommand,
			},
			{
				Name:   "compile",
				Usage:  "Compile an intent into a search document without sending it",
				Action: compileCommand,
				Flags: append(inputFlags(),
					&cli.BoolFlag{
						Name:  "compact",
						Usage: "Print the document on one line",
					},
				),
			},
			{
				Name:   "search",
				Usage:  "Compile an intent and run it against a search endpoint",
				Action: searchCommand,
				Flags: append(inputFlags(),
					&cli.StringFlag{
						Name:    "endpoint",
						Aliases: []string{"e"},
						Usage:   "Search endpoint URL (overrides the config file)",
						EnvVars: []string{"SEARCH_ENDPOINT"},
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Request timeout",
						Value: 10 * time.Second,
					},
				),
			},
		},
	}
}

func sanitizeCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("query is required")
	}
	_, err := fmt.Fprintln(c.App.Writer, compiler.Sanitize(strings.Join(c.Args().Slice(), " ")))
	return err
}

func compileCommand(c *cli.Context) error {
	s, err := loadSettings(c.String("config"))
	if err != nil {
		return err
	}
	state, err := readIntent(c, s)
	if err != nil {
		return err
	}

	doc := compiler.New(s).Compile(compiler.InputFrom(state))

	enc := json.NewEncoder(c.App.Writer)
	if !c.Bool("compact") {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(doc)
}

func searchCommand(c *cli.Context) error {
	s, err := loadSettings(c.String("config"))
	if err != nil {
		return err
	}
	if e := c.String("endpoint"); e != "" {
		s.SearchEndpoint = e
	}
	if s.SearchEndpoint == "" {
		return fmt.Errorf("search endpoint is required (--endpoint or search_endpoint in --config)")
	}
	state, err := readIntent(c, s)
	if err != nil {
		return err
	}

	logger, err := logpkg.NewLogger("local", c.String("log-level"))
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	client := elastic.NewClient(&elastic.Config{
		Endpoint: s.SearchEndpoint,
		Timeout:  c.Duration("timeout"),
		Logger:   logger,
	})

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	doc := compiler.New(s).Compile(compiler.InputFrom(state))
	logger.Debug("sending search", zap.String("endpoint", s.SearchEndpoint), zap.Int("page", state.Page))

	resp, err := client.Search(ctx, doc)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	state = intent.Reduce(state, intent.SetResults{Response: resp})
	return printResults(c.App.Writer, state)
}

func printResults(w io.Writer, s intent.Intent) error {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%d results (%d ms), page %d\n", s.TotalResults, s.SearchTime, s.Page)
	for i, h := range s.Results {
		score := "-"
		if h.Score != nil {
			score = fmt.Sprintf("%.3f", *h.Score)
		}
		fmt.Fprintf(&b, "%3d. %s  score=%s\n", i+1, h.ID, score)
	}
	for _, key := range sortedKeys(s.Aggregations) {
		buckets := s.Aggregations[key]
		parts := make([]string, 0, len(buckets))
		for _, bk := range buckets {
			parts = append(parts, fmt.Sprintf("%s(%d)", bk.Key, bk.DocCount))
		}
		fmt.Fprintf(&b, "%s: %s\n", key, strings.Join(parts, " "))
	}
	_, err := w.Write(b.Bytes())
	return err
}

// loadSettings merges the YAML overrides at path over the defaults.
func loadSettings(path string) (settings.Settings, error) {
	s := settings.Default()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return s, fmt.Errorf("read config %s: %w", path, err)
	}
	var o settings.Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return s, fmt.Errorf("parse config %s: %w", path, err)
	}
	s = settings.Merge(s, o)
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return s, nil
}

// readIntent reads the input as actions applied after mount, or as a
// complete intent when --intent is set.
func readIntent(c *cli.Context, s settings.Settings) (intent.Intent, error) {
	r := c.App.Reader
	if path := c.String("input"); path != "-" {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return intent.Intent{}, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}

	if c.Bool("intent") {
		state := intent.Initial()
		if err := json.NewDecoder(r).Decode(&state); err != nil {
			return intent.Intent{}, fmt.Errorf("decode intent: %w", err)
		}
		return state, nil
	}

	actions, err := intent.DecodeActions(r)
	if err != nil {
		return intent.Intent{}, err
	}
	mounted := intent.Reduce(intent.Initial(), coordinator.MountAction(s))
	return coordinator.Apply(s, mounted, actions...), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
