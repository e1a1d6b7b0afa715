package cli

import (
	"context"
	"strconv"

	urfave "github.com/urfave/cli/v3"

	"it10bb/internal/core"
	"it10bb/internal/intake"
	"it10bb/internal/prompt"
	"it10bb/internal/render"
	"it10bb/internal/services"
)

const (
	flagTotal      = "total"
	flagLocation   = "location"
	flagFamilySize = "family-size"
	flagKids       = "kids"
	flagOwnHome    = "own-home"
	flagStaff      = "staff"
	flagMode       = "mode"
	flagExport     = "export"
	flagReference  = "reference"
)

// profileFlags returns fresh household flags; every command gets its own set.
func profileFlags(totalRequired bool) []urfave.Flag {
	return []urfave.Flag{
		&urfave.StringFlag{
			Name:     flagTotal,
			Aliases:  []string{"t"},
			Usage:    "Total annual expenses in BDT (e.g. 600000 or \"Tk 6,00,000\")",
			Required: totalRequired,
		},
		&urfave.StringFlag{
			Name:  flagLocation,
			Usage: "Location (dhaka / other_area)",
			Value: intake.DefaultLocation,
		},
		&urfave.IntFlag{
			Name:  flagFamilySize,
			Usage: "Family size (number of people)",
			Value: intake.DefaultFamilySize,
		},
		&urfave.BoolFlag{
			Name:  flagKids,
			Usage: "Household has kids",
		},
		&urfave.BoolFlag{
			Name:  flagOwnHome,
			Usage: "Own home (no rent)",
		},
		&urfave.BoolFlag{
			Name:  flagStaff,
			Usage: "Has home-support staff (driver/housemaid)",
		},
		&urfave.StringFlag{
			Name:  flagMode,
			Usage: "Mode (balanced / conservative / comfortable)",
			Value: string(core.Balanced),
		},
		&urfave.BoolFlag{
			Name:  flagExport,
			Usage: "Also write the breakdown to the configured export backend",
		},
		&urfave.StringFlag{
			Name:  flagReference,
			Usage: "Reference recorded with exported breakdowns (optional, generated when empty)",
		},
	}
}

func profileFromFlags(cmd *urfave.Command) (core.Profile, error) {
	raw := intake.RawProfile{
		Total:            cmd.String(flagTotal),
		Location:         cmd.String(flagLocation),
		FamilySize:       strconv.Itoa(cmd.Int(flagFamilySize)),
		HasKids:          strconv.FormatBool(cmd.Bool(flagKids)),
		OwnHome:          strconv.FormatBool(cmd.Bool(flagOwnHome)),
		HomeSupportStaff: strconv.FormatBool(cmd.Bool(flagStaff)),
		Mode:             cmd.String(flagMode),
	}
	return raw.Resolve()
}

func (a *App) estimateCommand() *urfave.Command {
	return &urfave.Command{
		Name:    "estimate",
		Aliases: []string{"e"},
		Usage:   "Estimate the expense breakdown; asks interactively when --total is not given",
		Flags:   profileFlags(false),
		Action:  a.runEstimate,
	}
}

func (a *App) runEstimate(ctx context.Context, cmd *urfave.Command) error {
	var (
		p   core.Profile
		err error
	)
	if cmd.IsSet(flagTotal) {
		p, err = profileFromFlags(cmd)
	} else {
		p, err = prompt.New(a.In, a.Out).Profile()
	}
	if err != nil {
		return err
	}

	export := cmd.Bool(flagExport)
	svc, err := a.service(ctx, export)
	if err != nil {
		return err
	}

	res, err := svc.Run(ctx, p, cmd.String(flagReference), export)
	if err != nil && !services.IsExportError(err) {
		return err
	}

	report := render.NewReport(res.Allocation)
	report.ExportedRef = res.ExportedRef
	if werr := render.Write(a.Out, cmd.String(flagFormat), report); werr != nil {
		return werr
	}
	return err
}
