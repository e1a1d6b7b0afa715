package core

import (
	"math"
	"testing"
)

const weightEpsilon = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < weightEpsilon
}

func TestBaseWeights(t *testing.T) {
	want := Weights{30.0, 28.0, 2.5, 3.0, 3.5, 7.0, 10.0, 6.0}
	if got := BaseWeights(); got != want {
		t.Fatalf("BaseWeights() = %v, want %v", got, want)
	}
}

func TestDeriveWeights(t *testing.T) {
	tests := []struct {
		name    string
		profile Profile
		want    map[Category]float64
	}{
		{
			name:    "no kids zeroes education even for large families",
			profile: Profile{Location: "other_area", FamilySize: 6, HasKids: false, HomeSupportStaff: true},
			want:    map[Category]float64{Education: 0, Food: 30 * 1.2},
		},
		{
			name:    "other location trims accommodation",
			profile: Profile{Location: "other_area", FamilySize: 2, HasKids: true, HomeSupportStaff: true},
			want: map[Category]float64{
				Accommodation: 28 * 0.9, Food: 30, Telecom: 3.5, HomeSupport: 7, Education: 10,
			},
		},
		{
			name:    "metro uplift",
			profile: Profile{Location: "Dhaka", FamilySize: 2, HasKids: true, HomeSupportStaff: true},
			want: map[Category]float64{
				Accommodation: 28 * 1.2, Food: 30 * 1.05, Telecom: 3.5 * 1.05, HomeSupport: 7 * 1.1,
			},
		},
		{
			name:    "metro then own home compounds to 0.72",
			profile: Profile{Location: "dhaka", FamilySize: 3, HasKids: true, OwnHome: true, HomeSupportStaff: true},
			want:    map[Category]float64{Accommodation: 28 * 0.72},
		},
		{
			name:    "family size scales food and education",
			profile: Profile{Location: "other_area", FamilySize: 5, HasKids: true, HomeSupportStaff: true},
			want:    map[Category]float64{Food: 30 * 1.15, Education: 10 * 1.12},
		},
		{
			name:    "family size of one or two is neutral",
			profile: Profile{Location: "other_area", FamilySize: 1, HasKids: true, HomeSupportStaff: true},
			want:    map[Category]float64{Food: 30, Education: 10},
		},
		{
			name:    "no staff penalty",
			profile: Profile{Location: "other_area", FamilySize: 3, HasKids: true},
			want:    map[Category]float64{HomeSupport: 7 * 0.4},
		},
		{
			name:    "conservative mode",
			profile: Profile{Location: "other_area", FamilySize: 2, HasKids: true, HomeSupportStaff: true, Mode: Conservative},
			want:    map[Category]float64{Festival: 6 * 0.6, HomeSupport: 7 * 0.7, Food: 30 * 1.08},
		},
		{
			name:    "comfortable mode",
			profile: Profile{Location: "other_area", FamilySize: 2, HasKids: true, HomeSupportStaff: true, Mode: Comfortable},
			want:    map[Category]float64{Festival: 6 * 1.3, HomeSupport: 7 * 1.2, Food: 30 * 1.05},
		},
		{
			name:    "unknown mode is balanced",
			profile: Profile{Location: "other_area", FamilySize: 2, HasKids: true, HomeSupportStaff: true, Mode: "lavish"},
			want:    map[Category]float64{Festival: 6, HomeSupport: 7, Food: 30},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := DeriveWeights(tt.profile)
			for c, want := range tt.want {
				if got := w.Get(c); !approx(got, want) {
					t.Errorf("%s weight = %v, want %v", c, got, want)
				}
			}
			for _, c := range Categories() {
				if w.Get(c) < 0 {
					t.Errorf("%s weight is negative: %v", c, w.Get(c))
				}
			}
		})
	}
}

func TestDeriveWeightsDoesNotShareState(t *testing.T) {
	p := Profile{Location: "dhaka", FamilySize: 4, HasKids: true, OwnHome: true, Mode: Comfortable}
	first := DeriveWeights(p)
	_ = DeriveWeights(Profile{Location: "other_area"})
	if again := DeriveWeights(p); again != first {
		t.Fatalf("DeriveWeights not repeatable: %v vs %v", first, again)
	}
	if BaseWeights() != (Weights{30.0, 28.0, 2.5, 3.0, 3.5, 7.0, 10.0, 6.0}) {
		t.Fatalf("base table was modified")
	}
}

func TestWeightsTotalIgnoresNonPositive(t *testing.T) {
	w := Weights{10, -5, 0, 2.5}
	if got := w.Total(); got != 12.5 {
		t.Fatalf("Total() = %v, want 12.5", got)
	}
}
