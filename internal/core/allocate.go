package core

import "fmt"

type (
	// Allocation is the result of one estimate. Percentages and amounts are
	// indexed by Category in declaration order.
	Allocation struct {
		Total       int64
		Percentages [NumCategories]int
		Amounts     [NumCategories]int64
	}

	// Line is one row of an allocation.
	Line struct {
		Category Category
		Percent  int
		Amount   int64
	}
)

// Allocate derives the category breakdown for a household.
//
// Percentages always sum to 100 and amounts always sum to the rounded total.
// Allocate is pure: identical profiles give identical allocations and it is
// safe to call from any number of goroutines.
func Allocate(p Profile) (Allocation, error) {
	if err := p.Validate(); err != nil {
		return Allocation{}, err
	}

	pct, err := Percentages(DeriveWeights(p))
	if err != nil {
		return Allocation{}, err
	}
	amounts, err := Amounts(p.TotalExpense, pct)
	if err != nil {
		return Allocation{}, err
	}

	a := Allocation{Total: p.RoundedTotal(), Percentages: pct, Amounts: amounts}
	if err := a.check(p); err != nil {
		return Allocation{}, err
	}
	return a, nil
}

// Percentages normalizes weights into whole percentages summing to 100.
func Percentages(w Weights) ([NumCategories]int, error) {
	var pct [NumCategories]int

	total := w.Total()
	if !(total > 0) {
		return pct, fmt.Errorf("%w: total weight %v", ErrDegenerateWeights, total)
	}

	raw := make([]float64, NumCategories)
	for i, v := range w {
		if v > 0 {
			raw[i] = 100 * v / total
		}
	}
	ints, err := Apportion(raw, 100)
	if err != nil {
		return pct, fmt.Errorf("apportion percentages: %w", err)
	}
	for i, v := range ints {
		pct[i] = int(v)
	}
	return pct, nil
}

// Amounts spreads total over the percentages in whole currency units,
// summing to the rounded total.
func Amounts(total float64, pct [NumCategories]int) ([NumCategories]int64, error) {
	var amounts [NumCategories]int64

	raw := make([]float64, NumCategories)
	for i, p := range pct {
		raw[i] = total * float64(p) / 100
	}
	ints, err := Apportion(raw, Profile{TotalExpense: total}.RoundedTotal())
	if err != nil {
		return amounts, fmt.Errorf("apportion amounts: %w", err)
	}
	copy(amounts[:], ints)
	return amounts, nil
}

func (a Allocation) check(p Profile) error {
	var pctSum int
	var amountSum int64
	for i := range a.Percentages {
		if a.Percentages[i] < 0 || a.Amounts[i] < 0 {
			return fmt.Errorf("%w: negative value for %s", ErrInternalInconsistency, Category(i))
		}
		pctSum += a.Percentages[i]
		amountSum += a.Amounts[i]
	}
	if pctSum != 100 {
		return fmt.Errorf("%w: percentages sum to %d", ErrInternalInconsistency, pctSum)
	}
	if amountSum != a.Total {
		return fmt.Errorf("%w: amounts sum to %d, want %d", ErrInternalInconsistency, amountSum, a.Total)
	}
	if !p.HasKids && (a.Percentages[Education] != 0 || a.Amounts[Education] != 0) {
		return fmt.Errorf("%w: education allocated without kids", ErrInternalInconsistency)
	}
	return nil
}

// Percent returns the whole percentage assigned to c.
func (a Allocation) Percent(c Category) int {
	if !c.Valid() {
		return 0
	}
	return a.Percentages[c]
}

// Amount returns the whole-unit amount assigned to c.
func (a Allocation) Amount(c Category) int64 {
	if !c.Valid() {
		return 0
	}
	return a.Amounts[c]
}

// Lines returns the allocation as rows in declaration order.
func (a Allocation) Lines() []Line {
	lines := make([]Line, NumCategories)
	for i := range lines {
		lines[i] = Line{Category: Category(i), Percent: a.Percentages[i], Amount: a.Amounts[i]}
	}
	return lines
}

// PercentTotal sums the percentages. It is 100 for any allocation returned
// by Allocate.
func (a Allocation) PercentTotal() int {
	var sum int
	for _, p := range a.Percentages {
		sum += p
	}
	return sum
}
