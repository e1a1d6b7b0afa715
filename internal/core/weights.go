package core

// Weights holds one weight per category in declaration order. It is a value
// type, so each adjustment step hands back a new set and never touches the
// caller's copy.
type Weights [NumCategories]float64

// BaseWeights returns the unadjusted weight table.
func BaseWeights() Weights {
	var w Weights
	for i := range w {
		w[i] = Category(i).BaseWeight()
	}
	return w
}

// Get returns the weight of c.
func (w Weights) Get(c Category) float64 {
	if !c.Valid() {
		return 0
	}
	return w[c]
}

// Total sums the positive weights.
func (w Weights) Total() float64 {
	var total float64
	for _, v := range w {
		if v > 0 {
			total += v
		}
	}
	return total
}

func (w Weights) scale(c Category, factor float64) Weights {
	w[c] *= factor
	return w
}

func (w Weights) set(c Category, v float64) Weights {
	w[c] = v
	return w
}

type adjustment func(Weights, Profile) Weights

// Applied in order. The order matters: the own-home cut compounds the
// location uplift, and the missing-kids override must come first so that
// the family-size step never resurrects education.
var adjustments = []adjustment{
	dropEducation,
	adjustLocation,
	adjustFamilySize,
	adjustOwnHome,
	adjustHomeSupport,
	adjustMode,
}

// DeriveWeights folds the household adjustments over the base table.
func DeriveWeights(p Profile) Weights {
	w := BaseWeights()
	for _, adjust := range adjustments {
		w = adjust(w, p)
	}
	return w
}

func dropEducation(w Weights, p Profile) Weights {
	if p.HasKids {
		return w
	}
	return w.set(Education, 0)
}

func adjustLocation(w Weights, p Profile) Weights {
	if !IsMetro(p.Location) {
		return w.scale(Accommodation, 0.90)
	}
	return w.scale(Accommodation, 1.20).
		scale(Food, 1.05).
		scale(Telecom, 1.05).
		scale(HomeSupport, 1.10)
}

func adjustFamilySize(w Weights, p Profile) Weights {
	extra := p.ExtraMembers()
	if extra == 0 {
		return w
	}
	w = w.scale(Food, 1+0.05*float64(extra))
	if p.HasKids {
		w = w.scale(Education, 1+0.04*float64(extra))
	}
	return w
}

func adjustOwnHome(w Weights, p Profile) Weights {
	if !p.OwnHome {
		return w
	}
	return w.scale(Accommodation, 0.60).scale(HomeSupport, 1.05)
}

func adjustHomeSupport(w Weights, p Profile) Weights {
	if p.HomeSupportStaff {
		return w
	}
	return w.scale(HomeSupport, 0.4)
}

func adjustMode(w Weights, p Profile) Weights {
	switch p.Mode.Normalize() {
	case Conservative:
		return w.scale(Festival, 0.6).scale(HomeSupport, 0.7).scale(Food, 1.08)
	case Comfortable:
		return w.scale(Festival, 1.3).scale(HomeSupport, 1.2).scale(Food, 1.05)
	default:
		return w
	}
}
