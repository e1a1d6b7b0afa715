// Package intake turns loosely typed answers (prompt lines, form fields,
// flags) into a core.Profile. Defaults follow the interactive estimator:
// unknown location, a family of three and balanced mode.
package intake

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"it10bb/internal/core"
)

const (
	DefaultLocation   = "other_area"
	DefaultFamilySize = 3
)

// RawProfile holds answers exactly as the user typed them.
type RawProfile struct {
	Total            string `json:"total_expense" yaml:"total_expense"`
	Location         string `json:"location" yaml:"location"`
	FamilySize       string `json:"family_size" yaml:"family_size"`
	HasKids          string `json:"has_kids" yaml:"has_kids"`
	OwnHome          string `json:"own_home" yaml:"own_home"`
	HomeSupportStaff string `json:"home_support_staff" yaml:"home_support_staff"`
	Mode             string `json:"mode" yaml:"mode"`
}

// Resolve applies the fallback rules. Only the total is mandatory; every
// other field degrades to its default.
func (r RawProfile) Resolve() (core.Profile, error) {
	total, err := ParseAmount(r.Total)
	if err != nil {
		return core.Profile{}, err
	}
	return core.Profile{
		TotalExpense:     total,
		Location:         Location(r.Location),
		FamilySize:       FamilySize(r.FamilySize),
		HasKids:          YesNo(r.HasKids),
		OwnHome:          YesNo(r.OwnHome),
		HomeSupportStaff: YesNo(r.HomeSupportStaff),
		Mode:             Mode(r.Mode),
	}, nil
}

var currencyMarks = []string{"tk.", "tk", "bdt", "৳"}

// ParseAmount reads a non-negative money amount. Currency marks and
// thousands separators are accepted: "Tk 6,00,000" parses as 600000.
func ParseAmount(s string) (float64, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	for _, mark := range currencyMarks {
		if strings.HasPrefix(v, mark) {
			v = strings.TrimSpace(strings.TrimPrefix(v, mark))
			break
		}
	}
	v = strings.ReplaceAll(v, ",", "")
	v = strings.ReplaceAll(v, "_", "")
	if v == "" {
		return 0, fmt.Errorf("%w: total is empty", core.ErrInvalidInput)
	}
	if strings.ContainsAny(v, "+-") {
		return 0, fmt.Errorf("%w: total %q must be a plain non-negative number", core.ErrInvalidInput, s)
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: total %q is not a number", core.ErrInvalidInput, s)
	}
	return f, nil
}

// Location trims and lowercases the answer, falling back to DefaultLocation.
func Location(s string) string {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return DefaultLocation
	}
	return v
}

// FamilySize parses an integer, falling back to DefaultFamilySize on blank or
// malformed input. Values below two are kept; they simply add no extra members.
func FamilySize(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultFamilySize
	}
	return n
}

// YesNo is true only for an explicit yes. Anything else, blank included, is no.
func YesNo(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "1":
		return true
	default:
		return false
	}
}

// Mode lowercases the answer; blank becomes balanced. Unknown modes are kept
// as typed and treated as balanced by the allocator.
func Mode(s string) core.Mode {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return core.Balanced
	}
	return core.Mode(v)
}
