// Package score compares gene predictions with a reference annotation, one
// genome segment at a time, and folds the per-segment counts into
// method-level accuracy figures.
package score

import (
	"fmt"
	"strings"
)

// Granularity is the structural level at which predictions are scored.
type Granularity int

const (
	// CDS scores individual coding segments.
	CDS Granularity = iota
	// Transcript scores complete transcripts.
	Transcript
	// Gene scores genes.
	Gene
	// NumGranularities is the number of granularities.
	NumGranularities
)

// Granularities lists all granularities in report order.
var Granularities = [NumGranularities]Granularity{CDS, Transcript, Gene}

var granularityNames = [NumGranularities]string{"cds", "trans", "gene"}

// String returns the comparator's name of g: "cds", "trans" or "gene".
func (g Granularity) String() string {
	if g < 0 || g >= NumGranularities {
		return fmt.Sprintf("Granularity(%d)", int(g))
	}
	return granularityNames[g]
}

// ParseGranularity is the inverse of Granularity.String.
func ParseGranularity(s string) (Granularity, error) {
	for g, name := range granularityNames {
		if strings.EqualFold(s, name) {
			return Granularity(g), nil
		}
	}
	return 0, fmt.Errorf("score: unknown granularity %q", s)
}

// Counts are the true-positive, false-negative and false-positive counts of
// one comparison.
type Counts struct {
	TP, FN, FP int
}

// Add accumulates o into c.
func (c *Counts) Add(o Counts) {
	c.TP += o.TP
	c.FN += o.FN
	c.FP += o.FP
}

func (c Counts) String() string {
	return fmt.Sprintf("tp=%d fn=%d fp=%d", c.TP, c.FN, c.FP)
}

// Scores holds the counts of one (method, segment) pair at every
// granularity.
type Scores [NumGranularities]Counts
