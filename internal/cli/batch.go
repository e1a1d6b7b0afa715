package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	urfave "github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"it10bb/internal/intake"
	"it10bb/internal/render"
	"it10bb/internal/services"
)

const (
	flagFile        = "file"
	flagConcurrency = "concurrency"

	defaultBatchConcurrency = 4
)

var (
	// ErrEmptyBatch is returned for a batch file without profiles.
	ErrEmptyBatch = errors.New("batch file contains no profiles")
	// ErrBatchFailed is returned when at least one profile could not be estimated.
	ErrBatchFailed = errors.New("batch estimates failed")
)

// BatchEntry is one household in a batch file. YAML and JSON files share
// the same shape: a list of profiles, each with an optional reference.
type BatchEntry struct {
	Reference         string `yaml:"reference"`
	intake.RawProfile `yaml:",inline"`
}

// BatchResult pairs an entry's reference with its report or error.
type BatchResult struct {
	Reference string         `json:"reference" yaml:"reference"`
	Report    *render.Report `json:"report,omitempty" yaml:"report,omitempty"`
	Error     string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// ReadBatch decodes a batch file. JSON is accepted through the YAML decoder,
// which also lets numeric and boolean answers land in the string fields.
// Keys outside BatchEntry are rejected.
func ReadBatch(r io.Reader) ([]BatchEntry, error) {
	var entries []BatchEntry
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyBatch
		}
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrEmptyBatch
	}
	return entries, nil
}

func (a *App) batchCommand() *urfave.Command {
	return &urfave.Command{
		Name:    "batch",
		Aliases: []string{"b"},
		Usage:   "Estimate every household listed in a YAML or JSON file",
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:     flagFile,
				Aliases:  []string{"f"},
				Usage:    "Path to the profiles file",
				Required: true,
			},
			&urfave.IntFlag{
				Name:  flagConcurrency,
				Usage: "Maximum profiles estimated at once",
				Value: defaultBatchConcurrency,
			},
			&urfave.BoolFlag{
				Name:  flagExport,
				Usage: "Also write each breakdown to the configured export backend",
			},
		},
		Action: a.runBatch,
	}
}

func (a *App) runBatch(ctx context.Context, cmd *urfave.Command) error {
	f, err := os.Open(cmd.String(flagFile))
	if err != nil {
		return fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()

	entries, err := ReadBatch(f)
	if err != nil {
		return err
	}

	export := cmd.Bool(flagExport)
	svc, err := a.service(ctx, export)
	if err != nil {
		return err
	}

	results := EstimateBatch(ctx, svc, entries, cmd.Int(flagConcurrency), export)
	if err := a.writeBatch(cmd.String(flagFormat), results); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	a.getLogger().Debug("Batch finished", "profiles", len(results), "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrBatchFailed, failed, len(results))
	}
	return nil
}

// EstimateBatch estimates entries with at most concurrency in flight. Results
// keep the input order; a failing entry does not stop the others.
func EstimateBatch(ctx context.Context, svc *services.EstimateService, entries []BatchEntry, concurrency int, export bool) []BatchResult {
	results := make([]BatchResult, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for i, e := range entries {
		g.Go(func() error {
			results[i] = estimateEntry(gctx, svc, i, e, export)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func estimateEntry(ctx context.Context, svc *services.EstimateService, i int, e BatchEntry, export bool) BatchResult {
	res := BatchResult{Reference: e.Reference}
	if res.Reference == "" {
		res.Reference = fmt.Sprintf("row-%d", i+1)
	}

	p, err := e.Resolve()
	if err != nil {
		res.Error = err.Error()
		return res
	}

	out, err := svc.Run(ctx, p, res.Reference, export)
	if err != nil && !services.IsExportError(err) {
		res.Error = err.Error()
		return res
	}

	report := render.NewReport(out.Allocation)
	report.ExportedRef = out.ExportedRef
	res.Report = &report
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

func (a *App) writeBatch(format string, results []BatchResult) error {
	if format != render.FormatTable && format != "" {
		return render.Encode(a.Out, format, results)
	}
	for _, r := range results {
		fmt.Fprintf(a.Out, "\n# %s\n", r.Reference)
		if r.Report != nil {
			if err := render.Table(a.Out, *r.Report); err != nil {
				return err
			}
		}
		if r.Error != "" {
			fmt.Fprintf(a.Out, "error: %s\n", r.Error)
		}
	}
	return nil
}
