package worker

import (
	"context"
	"errors"
	"time"

	"it10bb/internal/amqp"
	"it10bb/internal/core"
	"it10bb/internal/log"
	"it10bb/internal/render"
	"it10bb/internal/services"
)

// EstimateWorker answers estimate requests arriving over AMQP.
type EstimateWorker struct {
	svc    *services.EstimateService
	logger *log.Logger
}

func NewEstimateWorker(svc *services.EstimateService, logger *log.Logger) *EstimateWorker {
	if logger == nil {
		logger = log.Default(log.ComponentWorker)
	}
	return &EstimateWorker{svc: svc, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleEstimateRequest always produces a reply. Bad input yields an error
// reply rather than a redelivery, since the same request would fail again.
func (w *EstimateWorker) HandleEstimateRequest(ctx context.Context, req *amqp.EstimateRequestMessage) *amqp.EstimateResultMessage {
	res := &amqp.EstimateResultMessage{RequestID: req.RequestID}
	defer func() { res.Timestamp = time.Now() }()

	w.logger.InfoContext(ctx, "Processing estimate request",
		append([]any{log.FieldCorrelationID, req.RequestID}, log.NewFields().WithProfile(req.Profile).ToSlice()...)...)

	out, err := w.svc.Run(ctx, req.Profile, req.RequestID, req.Export)
	if err != nil && !services.IsExportError(err) {
		res.Error = err.Error()
		res.ErrorKind = ErrorKind(err)
		w.logger.WarnContext(ctx, "Estimate request failed",
			log.FieldCorrelationID, req.RequestID, log.FieldError, err, "kind", res.ErrorKind)
		return res
	}

	report := render.NewReport(out.Allocation)
	report.ExportedRef = out.ExportedRef
	res.Report = &report

	if err != nil {
		res.Error = err.Error()
		res.ErrorKind = amqp.ErrorKindExport
		w.logger.ErrorContext(ctx, "Estimate computed but export failed",
			log.FieldCorrelationID, req.RequestID, log.FieldError, err)
		return res
	}

	w.logger.InfoContext(ctx, "Estimate request completed",
		log.FieldCorrelationID, req.RequestID, log.FieldCacheHit, out.CacheHit, log.FieldSheetsRef, out.ExportedRef)
	return res
}

// ErrorKind classifies an estimate failure for the reply.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		return amqp.ErrorKindInvalidInput
	case errors.Is(err, core.ErrDegenerateWeights):
		return amqp.ErrorKindDegenerate
	default:
		return amqp.ErrorKindInternal
	}
}
