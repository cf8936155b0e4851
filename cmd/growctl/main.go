// Package main provides growctl, an offline tool that grows a world with a
// fixed seed and prints the result. It is used to tune world content.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/lilwins/internal/config"
	"github.com/cory-johannsen/lilwins/internal/dice"
	"github.com/cory-johannsen/lilwins/internal/observability"
	"github.com/cory-johannsen/lilwins/internal/scripting"
	"github.com/cory-johannsen/lilwins/internal/storage/sqlite"
	"github.com/cory-johannsen/lilwins/internal/world"
	"github.com/cory-johannsen/lilwins/internal/worldserver"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// options are the parsed command line flags.
type options struct {
	contentDir string
	scriptDir  string
	worldID    string
	seed       uint64
	steps      int
	habit      string
	profile    string
	dbPath     string
	logLevel   string
	showMap    bool
	lint       bool
}

func parseFlags(args []string, out io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("growctl", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&o.contentDir, "content", "content/worlds", "path to world theme YAML files")
	fs.StringVar(&o.scriptDir, "scripts", "content/scripts", "root directory for Lua zone scripts; empty = scripting disabled")
	fs.StringVar(&o.worldID, "world", "kingdom", "world to grow")
	fs.Uint64Var(&o.seed, "seed", 1, "random seed; 0 = crypto randomness")
	fs.IntVar(&o.steps, "steps", 50, "number of growth events")
	fs.StringVar(&o.habit, "habit", "", "habit tag recorded on every placed cell")
	fs.StringVar(&o.profile, "profile", "", "profile UUID; empty = a fresh random profile")
	fs.StringVar(&o.dbPath, "db", "", "sqlite file to load from and save to; empty = in memory")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	fs.BoolVar(&o.showMap, "map", true, "print an ASCII map")
	fs.BoolVar(&o.lint, "lint", false, "only report content references to unknown tiles or structures")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.steps < 0 {
		return options{}, fmt.Errorf("steps must be >= 0, got %d", o.steps)
	}
	return o, nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	o, err := parseFlags(args, out)
	if err != nil {
		return err
	}

	themes, err := world.LoadThemesFromDir(o.contentDir)
	if err != nil {
		return err
	}
	if o.lint {
		return lint(themes, out)
	}

	logger, err := observability.NewLogger(config.LoggingConfig{Level: o.logLevel, Format: "console"}, "growctl")
	if err != nil {
		return err
	}
	defer logger.Sync()

	profile := uuid.New()
	if o.profile != "" {
		if profile, err = uuid.Parse(o.profile); err != nil {
			return fmt.Errorf("parsing profile: %w", err)
		}
	}

	var store worldserver.SnapshotStore = worldserver.NewMemoryStore()
	if o.dbPath != "" {
		db, err := sqlite.Open(o.dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		store = db
	}

	var scripts *scripting.Manager
	if o.scriptDir != "" {
		scripts = scripting.NewManager(dice.NewLoggedRoller(dice.NewSeededSource(o.seed), logger), logger)
		defer scripts.Close()
		if _, err := worldserver.LoadWorldScripts(scripts, themes, o.scriptDir, logger); err != nil {
			return err
		}
	}

	mgr, err := worldserver.NewManager(themes, store, scripts, logger, worldserver.Options{Seed: o.seed})
	if err != nil {
		return err
	}

	start := time.Now()
	var grown int
	for i := 0; i < o.steps; i++ {
		res, err := mgr.Grow(ctx, profile, o.worldID, o.habit)
		if err != nil {
			return err
		}
		if res == nil {
			fmt.Fprintf(out, "world full after %d steps\n", i)
			break
		}
		if res.Kind == world.KindComplete {
			fmt.Fprintf(out, "%s\n", res.Name)
			break
		}
		grown++
	}

	var theme *world.Theme
	for _, th := range themes {
		if th.ID == o.worldID {
			theme = th
		}
	}
	cells, err := mgr.Cells(ctx, profile, o.worldID)
	if err != nil {
		return err
	}
	if o.showMap {
		fmt.Fprint(out, renderMap(theme, cells))
	}
	st, err := mgr.Stats(ctx, profile, o.worldID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "world=%s profile=%s grown=%d cells=%d structures=%d buildings=%d roads=%d [%s]\n",
		o.worldID, profile, grown, st.Cells, st.Structures, st.Buildings, st.Roads,
		time.Since(start).Round(time.Millisecond))
	if o.dbPath != "" {
		logger.Info("saved", zap.String("db", o.dbPath))
	}
	return nil
}

// lint prints unknown content references per world and fails when any exist.
func lint(themes []*world.Theme, out io.Writer) error {
	sort.Slice(themes, func(i, j int) bool { return themes[i].ID < themes[j].ID })
	var problems int
	for _, th := range themes {
		refs := th.UnknownReferences()
		for _, ref := range refs {
			fmt.Fprintf(out, "%s: unknown reference %s\n", th.ID, ref)
		}
		problems += len(refs)
	}
	if problems > 0 {
		return fmt.Errorf("%d unknown references", problems)
	}
	fmt.Fprintf(out, "%d worlds ok\n", len(themes))
	return nil
}
