// Package obligations implements the obligations command: it evaluates a
// snapshot against rule definitions and manages definitions and runs in the
// fiscal store.
package obligations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	entrypoint "github.com/louisbranch/cabinet/internal/platform/cmd"
	apperrors "github.com/louisbranch/cabinet/internal/platform/errors"
	"github.com/louisbranch/cabinet/internal/platform/errors/i18n"
	platformgrpc "github.com/louisbranch/cabinet/internal/platform/grpc"
	"github.com/louisbranch/cabinet/internal/services/fiscal/api"
	"github.com/louisbranch/cabinet/internal/services/fiscal/app"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/generator"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/legacy"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/obligation"
	"github.com/louisbranch/cabinet/internal/services/fiscal/domain/snapshot"
	"github.com/louisbranch/cabinet/internal/services/fiscal/rulefile"
	"github.com/louisbranch/cabinet/internal/services/fiscal/storage"
	fiscalsqlite "github.com/louisbranch/cabinet/internal/services/fiscal/storage/sqlite"
	"google.golang.org/grpc"
)

// Config holds obligations command configuration.
type Config struct {
	SnapshotPath string
	RulesPath    string
	GraphPath    string
	FiscalYear   int
	JSONOutput   bool
	Sorted       bool

	DBPath      string        `env:"CABINET_FISCAL_DB_PATH" envDefault:"data/fiscal.db"`
	Locale      string        `env:"CABINET_LOCALE" envDefault:"fr-FR"`
	Timeout     time.Duration `env:"CABINET_OBLIGATIONS_TIMEOUT" envDefault:"1m"`
	ImportRules string
	ImportGraph string
	PutEntity   bool
	ListEntity  bool
	Preview     bool
	MarkStale   bool
	EntityID    string
	EntityName  string
	CreateRun   bool
	RunID       string
	Regenerate  bool
	Filter      string

	ExportLegacy bool
	HealthAddr   string
	Addr         string
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.LoadFlags(&cfg, fs, args, bindFlags); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func bindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.SnapshotPath, "snapshot", "", "entity snapshot JSON file")
	fs.StringVar(&cfg.RulesPath, "rules", "", "HCL rule file evaluated instead of the legacy rules")
	fs.StringVar(&cfg.GraphPath, "graph", "", "decision graph JSON file; takes precedence over -rules")
	fs.IntVar(&cfg.FiscalYear, "year", 0, "fiscal year to generate")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output JSON")
	fs.BoolVar(&cfg.Sorted, "sort", false, "order obligations by due date")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "fiscal SQLite database path (default: CABINET_FISCAL_DB_PATH or data/fiscal.db)")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "locale for error messages")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	fs.StringVar(&cfg.ImportRules, "import-rules", "", "replace the stored rules with this HCL file")
	fs.StringVar(&cfg.ImportGraph, "import-graph", "", "replace the stored decision graph with this JSON file")
	fs.BoolVar(&cfg.PutEntity, "put-entity", false, "store -snapshot as an entity named -entity-name")
	fs.BoolVar(&cfg.ListEntity, "list-entities", false, "list stored entities")
	fs.BoolVar(&cfg.Preview, "preview", false, "evaluate -snapshot for -year against the stored definitions without saving a run")
	fs.BoolVar(&cfg.MarkStale, "mark-stale", false, "flag every stored run for regeneration")
	fs.StringVar(&cfg.EntityID, "entity-id", "", "entity id")
	fs.StringVar(&cfg.EntityName, "entity-name", "", "entity name for -put-entity")
	fs.BoolVar(&cfg.CreateRun, "create-run", false, "generate and store a run for -entity-id and -year")
	fs.StringVar(&cfg.RunID, "run-id", "", "list the tasks of a stored run")
	fs.BoolVar(&cfg.Regenerate, "regenerate", false, "regenerate -run-id from current definitions before listing")
	fs.StringVar(&cfg.Filter, "filter", "", `task filter, e.g. category = "TVA" AND due_date < timestamp("2025-01-01T00:00:00Z")`)
	fs.BoolVar(&cfg.ExportLegacy, "export-legacy", false, "print the built-in legacy rules as HCL")
	fs.StringVar(&cfg.HealthAddr, "health", "", "wait until the fiscal service at this address reports SERVING")
	fs.StringVar(&cfg.Addr, "addr", "", "fiscal service address; -create-run and -run-id go through it instead of the local store")
}

// Run executes the obligations command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	err := run(ctx, cfg, out, errOut)
	return localize(err, cfg.Locale)
}

func run(ctx context.Context, cfg Config, out, errOut io.Writer) error {
	storeMode := cfg.ImportRules != "" || cfg.ImportGraph != "" || cfg.PutEntity || cfg.ListEntity ||
		cfg.Preview || cfg.MarkStale || cfg.CreateRun || cfg.RunID != ""
	switch {
	case cfg.HealthAddr != "":
		if err := platformgrpc.CheckHealth(ctx, cfg.HealthAddr, app.HealthService, nil); err != nil {
			return err
		}
		fmt.Fprintln(out, "SERVING")
		return nil
	case cfg.ExportLegacy:
		if storeMode {
			return errors.New("-export-legacy cannot be combined with store flags")
		}
		return exportLegacy(out)
	case storeMode:
		if cfg.CreateRun && cfg.RunID != "" {
			return errors.New("-create-run cannot be combined with -run-id")
		}
		if cfg.Regenerate && cfg.RunID == "" {
			return errors.New("-regenerate requires -run-id")
		}
		if cfg.Addr != "" {
			if cfg.ImportRules != "" || cfg.ImportGraph != "" || cfg.PutEntity || cfg.ListEntity || cfg.Preview || cfg.MarkStale {
				return errors.New("-addr only supports -create-run and -run-id")
			}
			return runRemote(ctx, cfg, out, errOut)
		}
		return runStore(ctx, cfg, out, errOut)
	default:
		return evaluate(cfg, out)
	}
}

func exportLegacy(out io.Writer) error {
	data, err := rulefile.FormatRules(legacy.Rules())
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func evaluate(cfg Config, out io.Writer) error {
	if strings.TrimSpace(cfg.SnapshotPath) == "" {
		return errors.New("-snapshot is required")
	}
	if cfg.FiscalYear <= 0 {
		return errors.New("-year is required")
	}
	snap, err := loadSnapshot(cfg.SnapshotPath)
	if err != nil {
		return err
	}

	var src generator.Sources
	if cfg.RulesPath != "" {
		if src.Rules, err = rulefile.LoadRulesFile(cfg.RulesPath); err != nil {
			return err
		}
	}
	if cfg.GraphPath != "" {
		if src.Graph, err = rulefile.LoadGraphFile(cfg.GraphPath); err != nil {
			return err
		}
	}
	return writeResult(out, generator.Generate(src, snap, cfg.FiscalYear), cfg)
}

func runStore(ctx context.Context, cfg Config, out, errOut io.Writer) error {
	store, err := fiscalsqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open fiscal store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			fmt.Fprintf(errOut, "close fiscal store: %v\n", closeErr)
		}
	}()
	svc := app.NewService(store, app.Options{})

	if cfg.ImportRules != "" {
		data, err := os.ReadFile(cfg.ImportRules)
		if err != nil {
			return fmt.Errorf("read rules file: %w", err)
		}
		n, err := svc.ImportRules(ctx, cfg.ImportRules, data)
		if err != nil {
			return err
		}
		fmt.Fprintf(errOut, "imported %d rules; runs marked stale\n", n)
	}
	if cfg.ImportGraph != "" {
		data, err := os.ReadFile(cfg.ImportGraph)
		if err != nil {
			return fmt.Errorf("read graph file: %w", err)
		}
		n, err := svc.ImportGraph(ctx, data)
		if err != nil {
			return err
		}
		fmt.Fprintf(errOut, "imported graph with %d nodes; runs marked stale\n", n)
	}
	if cfg.PutEntity {
		if strings.TrimSpace(cfg.SnapshotPath) == "" {
			return errors.New("-put-entity requires -snapshot")
		}
		snap, err := loadSnapshot(cfg.SnapshotPath)
		if err != nil {
			return err
		}
		entity, err := svc.PutEntity(ctx, storage.EntityRecord{ID: cfg.EntityID, Name: cfg.EntityName, Snapshot: snap})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, entity.ID)
		cfg.EntityID = entity.ID
	}
	if cfg.MarkStale {
		n, err := svc.MarkAllStale(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(errOut, "marked %d runs stale\n", n)
	}
	if cfg.ListEntity {
		list, err := svc.ListEntities(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, entity := range list {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", entity.ID, entity.Name, dash(entity.Snapshot.CategorieFiscale))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	if cfg.Preview {
		if strings.TrimSpace(cfg.SnapshotPath) == "" {
			return errors.New("-preview requires -snapshot")
		}
		snap, err := loadSnapshot(cfg.SnapshotPath)
		if err != nil {
			return err
		}
		result, err := svc.Preview(ctx, snap, cfg.FiscalYear)
		if err != nil {
			return err
		}
		if err := writeResult(out, result, cfg); err != nil {
			return err
		}
	}

	runID := cfg.RunID
	if cfg.CreateRun {
		run, err := svc.CreateRun(ctx, cfg.EntityID, cfg.FiscalYear)
		if err != nil {
			return err
		}
		fmt.Fprintf(errOut, "created run %s (%s)\n", run.ID, run.Strategy)
		runID = run.ID
	}
	if runID == "" {
		return nil
	}

	var run storage.RunRecord
	if cfg.Regenerate {
		run, err = svc.RegenerateRun(ctx, runID)
	} else {
		run, err = svc.GetRun(ctx, runID)
	}
	if err != nil {
		return err
	}
	tasks, err := svc.ListRunTasks(ctx, runID, cfg.Filter)
	if err != nil {
		return err
	}
	list := make([]obligation.Obligation, len(tasks))
	for i, task := range tasks {
		list[i] = task.Obligation
	}
	if run.Stale() {
		fmt.Fprintf(errOut, "run %s is stale since %s\n", run.ID, run.StaleAt.Format(time.RFC3339))
	}
	return writeResult(out, generator.Result{Strategy: run.Strategy, Obligations: list}, cfg)
}

func runRemote(ctx context.Context, cfg Config, out, errOut io.Writer) error {
	conn, err := grpc.NewClient(cfg.Addr, platformgrpc.ClientOptions()...)
	if err != nil {
		return fmt.Errorf("connect fiscal service: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil {
			fmt.Fprintf(errOut, "close fiscal connection: %v\n", closeErr)
		}
	}()
	client := api.NewClient(conn, cfg.Locale)

	var run api.Run
	switch {
	case cfg.CreateRun:
		run, err = client.CreateRun(ctx, cfg.EntityID, cfg.FiscalYear)
		if err == nil {
			fmt.Fprintf(errOut, "created run %s (%s)\n", run.ID, run.Strategy)
		}
	case cfg.Regenerate:
		run, err = client.RegenerateRun(ctx, cfg.RunID)
	default:
		run, err = client.GetRun(ctx, cfg.RunID)
	}
	if err != nil {
		return err
	}
	tasks, err := client.ListRunTasks(ctx, run.ID, cfg.Filter)
	if err != nil {
		return err
	}
	list := make([]obligation.Obligation, len(tasks))
	for i, task := range tasks {
		list[i] = task.Obligation
	}
	if run.StaleAt != nil {
		fmt.Fprintf(errOut, "run %s is stale since %s\n", run.ID, run.StaleAt.Format(time.RFC3339))
	}
	return writeResult(out, generator.Result{Strategy: run.Strategy, Obligations: list}, cfg)
}

func loadSnapshot(path string) (snapshot.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var snap snapshot.Snapshot
	if err := dec.Decode(&snap); err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return snap, nil
}

type resultJSON struct {
	Strategy    string                  `json:"strategy"`
	Obligations []obligation.Obligation `json:"obligations"`
}

func writeResult(out io.Writer, result generator.Result, cfg Config) error {
	list := result.Obligations
	if cfg.Sorted {
		list = obligation.SortByDueDate(list)
	}
	if list == nil {
		list = []obligation.Obligation{}
	}
	if cfg.JSONOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(resultJSON{Strategy: result.Strategy, Obligations: list})
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "# strategy: %s\n", result.Strategy)
	for _, o := range list {
		due := "-"
		if at, ok := o.Due(); ok {
			due = at.Format("2006-01-02")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", due, dash(o.Category), dash(o.FormReference), o.Name)
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func localize(err error, locale string) error {
	if err == nil {
		return nil
	}
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		_, message := domainErr.LocalizedMessage(i18n.Match(locale))
		return fmt.Errorf("%s (%s)", message, domainErr.Code)
	}
	// Remote errors arrive already localized by the server.
	if code, message, ok := apperrors.FromStatus(err); ok {
		return fmt.Errorf("%s (%s)", message, code)
	}
	return err
}
