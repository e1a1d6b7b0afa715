package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"it10bb/internal/amqp"
	"it10bb/internal/core"
	"it10bb/internal/services"
	"it10bb/internal/sheets"
	"it10bb/internal/sheets/memory"
)

type brokenWriter struct{}

func (brokenWriter) AppendBreakdown(context.Context, sheets.Breakdown) (string, error) {
	return "", errors.New("sheet not found")
}

func request(p core.Profile, export bool) *amqp.EstimateRequestMessage {
	return amqp.NewEstimateRequestMessage("req_1", p, export)
}

var scenarioA = core.Profile{TotalExpense: 600000, Location: "other_area", FamilySize: 3, HasKids: true, Mode: core.Balanced}

func TestHandleEstimateRequest(t *testing.T) {
	w := NewEstimateWorker(services.NewEstimateService(services.Options{}), nil)

	res := w.HandleEstimateRequest(context.Background(), request(scenarioA, false))

	require.False(t, res.Failed())
	assert.Empty(t, res.Error)
	assert.Equal(t, "req_1", res.RequestID)
	assert.Equal(t, int64(600000), res.Report.Total)
	assert.Equal(t, 100, res.Report.PercentTotal)
	assert.Equal(t, 37, res.Report.Lines[0].Percent)
	assert.False(t, res.Timestamp.IsZero())
}

func TestHandleEstimateRequestInvalidInput(t *testing.T) {
	w := NewEstimateWorker(services.NewEstimateService(services.Options{}), nil)

	res := w.HandleEstimateRequest(context.Background(), request(core.Profile{TotalExpense: -5}, false))

	assert.True(t, res.Failed())
	assert.Equal(t, amqp.ErrorKindInvalidInput, res.ErrorKind)
	assert.Contains(t, res.Error, "invalid input")
}

func TestHandleEstimateRequestExport(t *testing.T) {
	store := memory.New()
	w := NewEstimateWorker(services.NewEstimateService(services.Options{Exporter: store}), nil)

	res := w.HandleEstimateRequest(context.Background(), request(scenarioA, true))

	require.False(t, res.Failed())
	assert.Equal(t, "mem:1-9", res.Report.ExportedRef)
	assert.Equal(t, []string{"req_1"}, store.References())
}

func TestHandleEstimateRequestExportFailure(t *testing.T) {
	w := NewEstimateWorker(services.NewEstimateService(services.Options{Exporter: brokenWriter{}}), nil)

	res := w.HandleEstimateRequest(context.Background(), request(scenarioA, true))

	require.False(t, res.Failed(), "allocation should still be returned")
	assert.Equal(t, amqp.ErrorKindExport, res.ErrorKind)
	assert.Contains(t, res.Error, "sheet not found")
}

func TestHandleEstimateRequestExportDisabled(t *testing.T) {
	w := NewEstimateWorker(services.NewEstimateService(services.Options{}), nil)

	res := w.HandleEstimateRequest(context.Background(), request(scenarioA, true))

	require.False(t, res.Failed())
	assert.Equal(t, amqp.ErrorKindExport, res.ErrorKind)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, amqp.ErrorKindInvalidInput, ErrorKind(fmt.Errorf("x: %w", core.ErrInvalidInput)))
	assert.Equal(t, amqp.ErrorKindDegenerate, ErrorKind(core.ErrDegenerateWeights))
	assert.Equal(t, amqp.ErrorKindInternal, ErrorKind(core.ErrInternalInconsistency))
	assert.Equal(t, amqp.ErrorKindInternal, ErrorKind(errors.New("other")))
}
