// Package cmd holds the startup steps shared by cabinet commands.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/cabinet/internal/platform/config"
	"github.com/louisbranch/cabinet/internal/platform/otel"
	"github.com/louisbranch/cabinet/internal/platform/timeouts"
)

// Service identifiers used as the telemetry service name and log prefix.
const (
	ServiceFiscal      = "fiscal"
	ServiceObligations = "obligations"
)

// LoadFlags reads environment defaults into cfg, lets register bind flags to
// the loaded values, then parses args. Flags win over the environment.
func LoadFlags[T any](cfg *T, fs *flag.FlagSet, args []string, register func(*flag.FlagSet, *T)) error {
	if cfg == nil {
		return errors.New("config target is required")
	}
	if fs == nil {
		return errors.New("flag parser is required")
	}
	if err := config.ParseEnv(cfg); err != nil {
		return err
	}
	if register != nil {
		register(fs, cfg)
	}
	if args == nil {
		args = []string{}
	}
	return fs.Parse(args)
}

// Options tune Run.
type Options struct {
	// Timeout bounds the whole command. Zero leaves ctx as is.
	Timeout time.Duration
	// ShutdownTimeout bounds span flushing. Defaults to timeouts.Shutdown.
	ShutdownTimeout time.Duration
}

// Run prefixes the standard logger with the service name, configures tracing,
// runs the command and flushes spans on return.
func Run(ctx context.Context, service string, opts Options, run func(context.Context) error) error {
	service = strings.TrimSpace(service)
	if service == "" {
		return errors.New("service name is required")
	}
	if run == nil {
		return errors.New("run function is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	log.SetPrefix("[" + strings.ToUpper(service) + "] ")

	shutdown, err := otel.Setup(ctx, service)
	if err != nil {
		return fmt.Errorf("%s telemetry: %w", service, err)
	}
	defer func() {
		wait := opts.ShutdownTimeout
		if wait <= 0 {
			wait = timeouts.Shutdown
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), wait)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	return run(ctx)
}
