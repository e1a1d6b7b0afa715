package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	urfave "github.com/urfave/cli/v3"

	"it10bb/internal/amqp"
	"it10bb/internal/config"
	"it10bb/internal/core"
	"it10bb/internal/log"
	"it10bb/internal/prompt"
	"it10bb/internal/render"
	"it10bb/internal/services"
	"it10bb/internal/sheets"
)

const (
	flagDebug  = "debug"
	flagFormat = "format"
)

var version = "v0.0.1-default"

// Requester is the queue side of the submit command.
type Requester interface {
	Call(ctx context.Context, req *amqp.EstimateRequestMessage) (*amqp.EstimateResultMessage, error)
	PublishEstimateRequest(ctx context.Context, req *amqp.EstimateRequestMessage) error
	Close() error
}

// App wires the estimator commands to their inputs, outputs and backends.
type App struct {
	In     io.Reader
	Out    io.Writer
	Err    io.Writer
	Config *config.Config

	NewExporter  func(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.BreakdownWriter, error)
	NewRequester func(url, exchange, queue string, logger *log.Logger) (Requester, error)

	logger *log.Logger
}

// NewApp returns an App bound to the process streams and environment.
func NewApp() *App {
	return &App{
		In:           os.Stdin,
		Out:          os.Stdout,
		Err:          os.Stderr,
		Config:       config.Load(),
		NewExporter:  NewExporter,
		NewRequester: dialRequester,
	}
}

func dialRequester(url, exchange, queue string, logger *log.Logger) (Requester, error) {
	client, err := amqp.NewClient(url, exchange, queue, amqp.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Run parses args (args[0] is the program name) and runs the chosen command.
func (a *App) Run(ctx context.Context, args []string) error {
	return a.Command().Run(ctx, args)
}

// Command builds the command tree.
func (a *App) Command() *urfave.Command {
	return &urfave.Command{
		Name:      "estimator",
		Version:   version,
		Usage:     "Rough IT-10BB household expense breakdown",
		Reader:    a.In,
		Writer:    a.Out,
		ErrWriter: a.Err,
		Flags: []urfave.Flag{
			&urfave.BoolFlag{
				Name:  flagDebug,
				Usage: "Prints verbose logs (optional, default: false)",
			},
			&urfave.StringFlag{
				Name:  flagFormat,
				Usage: "Output format [table, json, yaml]",
				Value: render.FormatTable,
			},
		},
		Commands: []*urfave.Command{
			a.estimateCommand(),
			a.batchCommand(),
			a.categoriesCommand(),
			a.submitCommand(),
		},
		Before: a.before,
	}
}

func (a *App) before(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
	level := log.ParseLevel(a.config().LogLevel)
	if cmd.Bool(flagDebug) {
		level = log.ParseLevel("debug")
	}
	a.logger = log.New(log.Config{
		Handler:   log.NewCLIHandler(a.Err, level, false),
		Component: log.ComponentCLI,
	})

	if f := cmd.String(flagFormat); !render.ValidFormat(f) {
		return ctx, fmt.Errorf("%w: %q", render.ErrUnknownFormat, f)
	}
	return ctx, nil
}

func (a *App) config() *config.Config {
	if a.Config == nil {
		a.Config = config.Load()
	}
	return a.Config
}

func (a *App) getLogger() *log.Logger {
	if a.logger == nil {
		a.logger = log.New(log.Config{
			Handler:   log.NewCLIHandler(a.Err, log.ParseLevel("info"), false),
			Component: log.ComponentCLI,
		})
	}
	return a.logger
}

// service builds an estimate service, with an exporter only when export is
// requested so plain estimates never touch the export backend.
func (a *App) service(ctx context.Context, export bool) (*services.EstimateService, error) {
	cfg := a.config()
	opts := services.Options{
		CacheSize: cfg.CacheSize,
		CacheTTL:  cfg.CacheTTL,
		Logger:    a.getLogger(),
	}
	if export && a.NewExporter != nil {
		w, err := a.NewExporter(ctx, cfg, a.getLogger().WithComponent(log.ComponentSheets))
		if err != nil {
			return nil, err
		}
		opts.Exporter = w
	}
	return services.NewEstimateService(opts), nil
}

func (a *App) categoriesCommand() *urfave.Command {
	return &urfave.Command{
		Name:  "categories",
		Usage: "List the expense categories and their base weights",
		Action: func(ctx context.Context, cmd *urfave.Command) error {
			return render.Categories(a.Out, cmd.String(flagFormat))
		},
	}
}

// ExitCode maps a command error to a process exit status: 2 for bad input,
// 1 for everything else.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, prompt.ErrInvalidTotal), errors.Is(err, core.ErrInvalidInput):
		return 2
	default:
		return 1
	}
}
