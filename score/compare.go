package score

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/LarsGab/TSEBRA-experiments/external"
	"github.com/grailbio/base/errors"
)

// Comparison names the files of one comparator run.
type Comparison struct {
	Reference   string
	Prediction  string
	Pseudo      string
	Granularity Granularity
}

// Comparator counts matching features between a reference and a prediction.
type Comparator interface {
	Compare(ctx context.Context, c Comparison) (Counts, error)
}

// ExactComparator runs compare_intervals_exact.pl from the GeneMark/BRAKER
// evaluation scripts.
type ExactComparator struct {
	// Path is the script. Empty means compare_intervals_exact.pl in PATH.
	Path  string
	Tools external.Tools
}

// Compare implements Comparator. Any stderr output fails the comparison.
func (x ExactComparator) Compare(ctx context.Context, c Comparison) (Counts, error) {
	path := x.Path
	if path == "" {
		var err error
		if path, err = x.Tools.Look(external.CompareIntervals); err != nil {
			return Counts{}, err
		}
	}
	out, err := external.Run(ctx, external.Cmd{
		Path: path,
		Args: []string{
			"--f1", c.Reference,
			"--f2", c.Prediction,
			"--pseudo", c.Pseudo,
			"--" + c.Granularity.String(),
		},
	})
	if err != nil {
		return Counts{}, err
	}
	counts, err := ParseComparison(out)
	if err != nil {
		return Counts{}, errors.E(err, c.Prediction, c.Granularity.String())
	}
	return counts, nil
}

// ParseComparison parses the comparator report. The first line is
// "<label> tp fn", the second "<label> tp fp"; both tp values must agree.
func ParseComparison(out []byte) (Counts, error) {
	var rows [][]string
	for _, line := range bytes.Split(out, []byte("\n")) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		rows = append(rows, strings.Split(string(line), "\t"))
	}
	if len(rows) < 2 {
		return Counts{}, errors.E(errors.Invalid, "comparator report has", strconv.Itoa(len(rows)), "lines, want 2")
	}
	field := func(row, col int) (int, error) {
		if len(rows[row]) <= col {
			return 0, errors.E(errors.Invalid, "comparator report line", strconv.Itoa(row+1), "is too short")
		}
		n, err := strconv.Atoi(strings.TrimSpace(rows[row][col]))
		if err != nil {
			return 0, errors.E(errors.Invalid, "comparator report line", strconv.Itoa(row+1), err)
		}
		return n, nil
	}
	var (
		c   Counts
		tp2 int
		err error
	)
	if c.TP, err = field(0, 1); err != nil {
		return Counts{}, err
	}
	if c.FN, err = field(0, 2); err != nil {
		return Counts{}, err
	}
	if tp2, err = field(1, 1); err != nil {
		return Counts{}, err
	}
	if c.FP, err = field(1, 2); err != nil {
		return Counts{}, err
	}
	if tp2 != c.TP {
		return Counts{}, errors.E(errors.Integrity, "comparator reports tp", strconv.Itoa(c.TP), "and", strconv.Itoa(tp2))
	}
	return c, nil
}
