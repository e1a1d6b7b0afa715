package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"it10bb/internal/cache"
	"it10bb/internal/core"
	"it10bb/internal/log"
	"it10bb/internal/sheets"
)

var (
	// ErrExportDisabled is returned when an export is requested but no
	// breakdown writer is configured.
	ErrExportDisabled = errors.New("export backend not configured")
	ErrExportFailed   = errors.New("export breakdown failed")
)

// IsExportError reports whether err came from the export step, in which case
// the allocation itself succeeded.
func IsExportError(err error) bool {
	return errors.Is(err, ErrExportDisabled) || errors.Is(err, ErrExportFailed)
}

// Options configures an EstimateService.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
	Exporter  sheets.BreakdownWriter
	Logger    *log.Logger
}

// Result is an allocation plus, when exported, where it was written.
type Result struct {
	Allocation  core.Allocation
	Reference   string
	ExportedRef string
	CacheHit    bool
}

// EstimateService memoizes allocations and optionally exports them.
type EstimateService struct {
	cache    *cache.LRUCache[core.Allocation]
	exporter sheets.BreakdownWriter
	logger   *log.Logger
	now      func() time.Time
}

func NewEstimateService(opts Options) *EstimateService {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 10 * time.Minute
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default(log.ComponentEstimate)
	}
	return &EstimateService{
		cache:    cache.NewLRUCache[core.Allocation](opts.CacheSize, opts.CacheTTL),
		exporter: opts.Exporter,
		logger:   logger.WithComponent(log.ComponentEstimate),
		now:      time.Now,
	}
}

// Estimate allocates the profile's total, serving repeated profiles from cache.
func (s *EstimateService) Estimate(ctx context.Context, p core.Profile) (core.Allocation, error) {
	a, _, err := s.estimate(ctx, p)
	return a, err
}

func (s *EstimateService) estimate(ctx context.Context, p core.Profile) (core.Allocation, bool, error) {
	if err := ctx.Err(); err != nil {
		return core.Allocation{}, false, err
	}

	a, hit, err := s.cache.Load(CacheKey(p), func() (core.Allocation, error) {
		return core.Allocate(p)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Estimate rejected", log.NewFields().WithProfile(p).WithError(err).ToSlice()...)
		return core.Allocation{}, false, fmt.Errorf("allocate: %w", err)
	}
	if hit {
		s.logger.DebugContext(ctx, "Estimate served from cache", log.FieldCacheHit, true)
	} else {
		s.logger.DebugContext(ctx, "Estimate computed", log.NewFields().WithProfile(p).With(log.FieldCacheHit, false).ToSlice()...)
	}
	return a, hit, nil
}

// Run estimates the profile and, when export is set, writes the breakdown
// under reference. An empty reference gets a generated one.
func (s *EstimateService) Run(ctx context.Context, p core.Profile, reference string, export bool) (Result, error) {
	a, hit, err := s.estimate(ctx, p)
	if err != nil {
		return Result{}, err
	}

	res := Result{Allocation: a, Reference: reference, CacheHit: hit}
	if res.Reference == "" {
		res.Reference = NewReference()
	}
	if !export {
		return res, nil
	}

	ref, err := s.Export(ctx, res.Reference, a)
	if err != nil {
		return res, err
	}
	res.ExportedRef = ref
	return res, nil
}

// Export writes an allocation through the configured breakdown writer.
func (s *EstimateService) Export(ctx context.Context, reference string, a core.Allocation) (string, error) {
	if s.exporter == nil {
		return "", ErrExportDisabled
	}

	ref, err := s.exporter.AppendBreakdown(ctx, sheets.Breakdown{
		Reference:  reference,
		CreatedAt:  s.now(),
		Allocation: a,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Breakdown export failed", log.NewFields().WithOperation(log.OpExport).WithError(err).ToSlice()...)
		return "", fmt.Errorf("%w: %w", ErrExportFailed, err)
	}

	s.logger.InfoContext(ctx, "Breakdown exported", log.FieldSheetsRef, ref, "reference", reference)
	return ref, nil
}

// ExportEnabled reports whether a breakdown writer is configured.
func (s *EstimateService) ExportEnabled() bool {
	return s.exporter != nil
}

// CacheStats reports memoization effectiveness.
func (s *EstimateService) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// Cache exposes the allocation cache for lifecycle management.
func (s *EstimateService) Cache() cache.Cleaner {
	return s.cache
}

// CacheKey identifies profiles that always produce the same allocation.
func CacheKey(p core.Profile) string {
	return strings.Join([]string{
		strconv.FormatFloat(p.TotalExpense, 'g', -1, 64),
		strings.ToLower(strings.TrimSpace(p.Location)),
		strconv.Itoa(max(p.FamilySize, 2)),
		strconv.FormatBool(p.HasKids),
		strconv.FormatBool(p.OwnHome),
		strconv.FormatBool(p.HomeSupportStaff),
		string(p.Mode.Normalize()),
	}, "|")
}

// NewReference returns a random estimate reference.
func NewReference() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("est_%d", time.Now().UnixNano())
	}
	return "est_" + hex.EncodeToString(b)
}
