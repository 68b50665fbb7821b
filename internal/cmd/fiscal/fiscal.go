// Package fiscal parses fiscal service flags and launches its runtime.
package fiscal

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/louisbranch/cabinet/internal/platform/cmd"
	fiscalserver "github.com/louisbranch/cabinet/internal/services/fiscal/app"
)

// Config holds fiscal command configuration.
type Config struct {
	Port          int           `env:"CABINET_FISCAL_PORT" envDefault:"8095"`
	DBPath        string        `env:"CABINET_FISCAL_DB_PATH" envDefault:"data/fiscal.db"`
	PollInterval  time.Duration `env:"CABINET_FISCAL_POLL_INTERVAL" envDefault:"1m"`
	BatchSize     int           `env:"CABINET_FISCAL_BATCH_SIZE" envDefault:"50"`
	DisableLegacy bool          `env:"CABINET_FISCAL_DISABLE_LEGACY"`
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
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The fiscal gRPC server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The fiscal SQLite database path")
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Stale run regeneration poll interval")
	fs.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Maximum stale runs regenerated per poll")
	fs.BoolVar(&cfg.DisableLegacy, "disable-legacy", cfg.DisableLegacy, "Reject generation when no rules or graph are stored")
}

// Run starts the fiscal runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.Run(ctx, entrypoint.ServiceFiscal, entrypoint.Options{}, func(ctx context.Context) error {
		return fiscalserver.Run(ctx, fiscalserver.RuntimeConfig{
			Port:          cfg.Port,
			DBPath:        cfg.DBPath,
			PollInterval:  cfg.PollInterval,
			BatchSize:     cfg.BatchSize,
			DisableLegacy: cfg.DisableLegacy,
		})
	})
}
