package score

// Measure names a derived accuracy figure.
type Measure int

const (
	F1 Measure = iota
	Sensitivity
	Specificity
	NumMeasures
)

// Measures lists all measures in report order.
var Measures = [NumMeasures]Measure{F1, Sensitivity, Specificity}

var measureNames = [NumMeasures]string{"F1", "Sn", "Sp"}

// String returns the short name of m: "F1", "Sn" or "Sp".
func (m Measure) String() string { return measureNames[m] }

// Summary is the accuracy of one method at one granularity, derived from
// counts summed over all segments.
type Summary struct {
	Counts
	Sensitivity float64
	Specificity float64
	F1          float64
}

// ratio returns num/den, or 0 if den is 0.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Summarize derives the ratios of c.
//
//   Sensitivity = tp / (tp + fn)
//   Specificity = tp / (tp + fp)
//   F1          = tp / (tp + (fn + fp)/2)
//
// A ratio with a zero denominator is 0.
func Summarize(c Counts) Summary {
	tp := float64(c.TP)
	return Summary{
		Counts:      c,
		Sensitivity: ratio(tp, tp+float64(c.FN)),
		Specificity: ratio(tp, tp+float64(c.FP)),
		F1:          ratio(tp, tp+0.5*float64(c.FN+c.FP)),
	}
}

// Aggregate sums counts and then derives the ratios from the totals. Ratios
// of the individual elements are never averaged, so Aggregate is independent
// of how the genome was split.
func Aggregate(counts []Counts) Summary {
	var total Counts
	for _, c := range counts {
		total.Add(c)
	}
	return Summarize(total)
}

// Get returns the value of m.
func (s Summary) Get(m Measure) float64 {
	switch m {
	case F1:
		return s.F1
	case Sensitivity:
		return s.Sensitivity
	case Specificity:
		return s.Specificity
	}
	panic(m)
}
