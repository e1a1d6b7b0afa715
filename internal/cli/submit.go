package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	urfave "github.com/urfave/cli/v3"

	"it10bb/internal/amqp"
	"it10bb/internal/core"
	"it10bb/internal/log"
	"it10bb/internal/render"
	"it10bb/internal/services"
)

const (
	flagAMQPURL  = "amqp-url"
	flagExchange = "exchange"
	flagQueue    = "queue"
	flagTimeout  = "timeout"
	flagAsync    = "async"

	defaultSubmitTimeout = 30 * time.Second
)

// ErrRemoteEstimate is returned when the worker replied with an error.
var ErrRemoteEstimate = errors.New("remote estimate failed")

func (a *App) submitCommand() *urfave.Command {
	cfg := a.config()
	flags := append(profileFlags(true),
		&urfave.StringFlag{
			Name:  flagAMQPURL,
			Usage: "RabbitMQ connection URL",
			Value: cfg.AMQPURL,
		},
		&urfave.StringFlag{
			Name:  flagExchange,
			Usage: "Exchange the estimate queue is bound to",
			Value: cfg.AMQPExchange,
		},
		&urfave.StringFlag{
			Name:  flagQueue,
			Usage: "Estimate request queue",
			Value: cfg.AMQPQueue,
		},
		&urfave.DurationFlag{
			Name:  flagTimeout,
			Usage: "How long to wait for the worker's reply",
			Value: defaultSubmitTimeout,
		},
		&urfave.BoolFlag{
			Name:  flagAsync,
			Usage: "Publish the request without waiting for a reply",
		},
	)

	return &urfave.Command{
		Name:   "submit",
		Usage:  "Send an estimate request to the worker queue",
		Flags:  flags,
		Action: a.runSubmit,
	}
}

func (a *App) runSubmit(ctx context.Context, cmd *urfave.Command) error {
	p, err := profileFromFlags(cmd)
	if err != nil {
		return err
	}

	reference := cmd.String(flagReference)
	if reference == "" {
		reference = services.NewReference()
	}
	req := amqp.NewEstimateRequestMessage(reference, p, cmd.Bool(flagExport))

	client, err := a.NewRequester(cmd.String(flagAMQPURL), cmd.String(flagExchange), cmd.String(flagQueue), a.getLogger().WithComponent(log.ComponentAMQP))
	if err != nil {
		return fmt.Errorf("connect to queue: %w", err)
	}
	defer client.Close()

	if cmd.Bool(flagAsync) {
		if err := client.PublishEstimateRequest(ctx, req); err != nil {
			return fmt.Errorf("publish estimate request: %w", err)
		}
		fmt.Fprintf(a.Out, "submitted %s\n", req.RequestID)
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, cmd.Duration(flagTimeout))
	defer cancel()

	res, err := client.Call(callCtx, req)
	if err != nil {
		return fmt.Errorf("estimate request %s: %w", req.RequestID, err)
	}
	if res.Failed() {
		return remoteError(res)
	}

	if err := render.Write(a.Out, cmd.String(flagFormat), *res.Report); err != nil {
		return err
	}
	if res.Error != "" {
		return remoteError(res)
	}
	return nil
}

// remoteError keeps invalid input recognizable so the exit code matches a
// local estimate.
func remoteError(res *amqp.EstimateResultMessage) error {
	if res.ErrorKind == amqp.ErrorKindInvalidInput {
		return fmt.Errorf("%w: %w: %s", ErrRemoteEstimate, core.ErrInvalidInput, res.Error)
	}
	return fmt.Errorf("%w: %s (%s)", ErrRemoteEstimate, res.Error, res.ErrorKind)
}
