package core

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// MaxTotalExpense bounds the total so per-category shares keep sub-unit
// precision in float64.
const MaxTotalExpense = 1e12

const (
	Balanced     Mode = "balanced"
	Conservative Mode = "conservative"
	Comfortable  Mode = "comfortable"
)

type (
	// Mode tunes discretionary spending. Unknown values behave as Balanced.
	Mode string

	// Profile is the household description an allocation is derived from.
	Profile struct {
		TotalExpense     float64 `json:"total_expense" yaml:"total_expense"`
		Location         string  `json:"location" yaml:"location"`
		FamilySize       int     `json:"family_size" yaml:"family_size"`
		HasKids          bool    `json:"has_kids" yaml:"has_kids"`
		OwnHome          bool    `json:"own_home" yaml:"own_home"`
		HomeSupportStaff bool    `json:"home_support_staff" yaml:"home_support_staff"`
		Mode             Mode    `json:"mode" yaml:"mode"`
	}
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrDegenerateWeights     = errors.New("degenerate weights")
	ErrInternalInconsistency = errors.New("internal inconsistency")
)

var metroLocations = map[string]struct{}{
	"dhaka":      {},
	"dhaka_city": {},
	"city":       {},
	"big_city":   {},
	"metro":      {},
}

// IsMetro reports whether location names a metropolitan area.
func IsMetro(location string) bool {
	_, ok := metroLocations[strings.ToLower(strings.TrimSpace(location))]
	return ok
}

// Normalize lowercases the mode and maps anything unrecognized to Balanced.
func (m Mode) Normalize() Mode {
	switch Mode(strings.ToLower(strings.TrimSpace(string(m)))) {
	case Conservative:
		return Conservative
	case Comfortable:
		return Comfortable
	default:
		return Balanced
	}
}

// Validate rejects totals the allocator cannot apportion.
func (p Profile) Validate() error {
	if math.IsNaN(p.TotalExpense) || math.IsInf(p.TotalExpense, 0) {
		return fmt.Errorf("%w: total expense must be a finite number", ErrInvalidInput)
	}
	if p.TotalExpense < 0 {
		return fmt.Errorf("%w: total expense %.2f is negative", ErrInvalidInput, p.TotalExpense)
	}
	if p.TotalExpense > MaxTotalExpense {
		return fmt.Errorf("%w: total expense %g exceeds %g", ErrInvalidInput, p.TotalExpense, float64(MaxTotalExpense))
	}
	return nil
}

// RoundedTotal is the whole-unit total the amounts must sum to.
func (p Profile) RoundedTotal() int64 {
	return int64(math.Round(p.TotalExpense))
}

// ExtraMembers counts household members beyond a couple.
func (p Profile) ExtraMembers() int {
	return max(0, p.FamilySize-2)
}
