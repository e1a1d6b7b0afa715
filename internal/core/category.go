package core

import "strings"

// Category identifies one IT-10BB expense section.
type Category int

const (
	Food Category = iota
	Accommodation
	Electricity
	Utilities
	Telecom
	HomeSupport
	Education
	Festival
)

// NumCategories is the size of the fixed category set.
const NumCategories = int(Festival) + 1

type categoryInfo struct {
	key   string
	label string
	base  float64
}

// Declaration order is significant: it is the display order and the
// tie-break order for apportionment.
var categoryTable = [NumCategories]categoryInfo{
	Food:          {key: "food", label: "Food, Clothing and Other Essentials", base: 30.0},
	Accommodation: {key: "accommodation", label: "Accommodation Expense", base: 28.0},
	Electricity:   {key: "electricity", label: "Electricity", base: 2.5},
	Utilities:     {key: "utilities", label: "Gas, Water, Sewer and Garbage", base: 3.0},
	Telecom:       {key: "telecom", label: "Phone, Internet, TV channels & Subscriptions", base: 3.5},
	HomeSupport:   {key: "home_support", label: "Home-Support Staff and Other Expenses", base: 7.0},
	Education:     {key: "education", label: "Education Expenses (for kids)", base: 10.0},
	Festival:      {key: "festival", label: "Festival, Party, Events", base: 6.0},
}

// Categories returns the categories in declaration order. The slice is a
// fresh copy on every call.
func Categories() []Category {
	out := make([]Category, NumCategories)
	for i := range out {
		out[i] = Category(i)
	}
	return out
}

// Valid reports whether c is one of the declared categories.
func (c Category) Valid() bool {
	return c >= 0 && int(c) < NumCategories
}

// Key returns the stable machine identifier, e.g. "home_support".
func (c Category) Key() string {
	if !c.Valid() {
		return ""
	}
	return categoryTable[c].key
}

// Label returns the section title as printed on the return form.
func (c Category) Label() string {
	if !c.Valid() {
		return ""
	}
	return categoryTable[c].label
}

// BaseWeight returns the starting heuristic weight before any adjustment.
func (c Category) BaseWeight() float64 {
	if !c.Valid() {
		return 0
	}
	return categoryTable[c].base
}

func (c Category) String() string {
	return c.Key()
}

// ParseCategory resolves a category key, case-insensitively.
func ParseCategory(key string) (Category, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for i, info := range categoryTable {
		if info.key == key {
			return Category(i), true
		}
	}
	return 0, false
}
