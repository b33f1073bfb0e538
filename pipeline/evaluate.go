package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/LarsGab/TSEBRA-experiments/partition"
	"github.com/LarsGab/TSEBRA-experiments/score"
	"github.com/antzucaro/matchr"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
)

// Evaluation is the accuracy of every evaluated method, in Methods order.
type Evaluation struct {
	Methods []Method
	Results []score.Result
}

func selectMethods(names []string) ([]Method, error) {
	if len(names) == 0 {
		return Methods, nil
	}
	var sel []Method
	for _, name := range names {
		found := false
		for _, m := range Methods {
			if m.Name == name {
				sel = append(sel, m)
				found = true
			}
		}
		if !found {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("unknown method %s; did you mean %s?", name, closestMethod(name)))
		}
	}
	return sel, nil
}

// closestMethod returns the method name with the smallest edit distance to
// name.
func closestMethod(name string) string {
	best, bestDist := "", -1
	for _, m := range Methods {
		if d := matchr.Levenshtein(strings.ToUpper(name), strings.ToUpper(m.Name)); bestDist < 0 || d < bestDist {
			best, bestDist = m.Name, d
		}
	}
	return best
}

// Evaluate scores every method on the test segments with cmp and writes the
// evaluation tables. Every method is attempted; if any fails, no table is
// written and the first error is returned.
func Evaluate(ctx context.Context, opts Opts, cmp score.Comparator) (Evaluation, error) {
	p := NewPaths(opts)
	methods, err := selectMethods(opts.Methods)
	if err != nil {
		return Evaluation{}, err
	}
	if err := CheckInputs(ctx, p.TestListing()); err != nil {
		return Evaluation{}, err
	}
	segs, err := partition.ReadListing(ctx, p.TestListing())
	if err != nil {
		return Evaluation{}, err
	}

	ev := Evaluation{Methods: methods, Results: make([]score.Result, len(methods))}
	var reporter errors.Once
	for i, m := range methods {
		res, err := score.ScoreMethod(ctx, cmp, segs, m.File, opts.Parallelism)
		if err != nil {
			log.Error.Printf("pipeline: evaluating %s: %v", m.Name, err)
			reporter.Set(errors.E(err, m.Name))
			continue
		}
		ev.Results[i] = res
	}
	if err := reporter.Err(); err != nil {
		return Evaluation{}, err
	}

	if err := os.MkdirAll(p.Evaluation(), 0755); err != nil {
		return Evaluation{}, err
	}
	if err := writeTable(ctx, filepath.Join(p.Evaluation(), "full.eval.out"), ev.writeFull); err != nil {
		return Evaluation{}, err
	}
	if err := ev.writeMeasures(ctx, p.Evaluation()); err != nil {
		return Evaluation{}, err
	}
	log.Printf("pipeline: evaluation of %d methods over %d segments written to %s", len(methods), len(segs), p.Evaluation())
	return ev, nil
}

// percent formats v as a percentage with two decimals.
func percent(v float64) string {
	return strconv.FormatFloat(math.Round(v*10000)/100, 'f', 2, 64)
}

// writeFull writes one row per method and one column per (granularity,
// measure) pair.
func (ev Evaluation) writeFull(w *tsv.Writer) error {
	w.WriteString("# method")
	for _, g := range score.Granularities {
		for _, mea := range score.Measures {
			w.WriteString(g.String() + "_" + mea.String())
		}
	}
	if err := w.EndLine(); err != nil {
		return err
	}
	for i, m := range ev.Methods {
		w.WriteString(m.Name)
		for _, g := range score.Granularities {
			for _, mea := range score.Measures {
				w.WriteString(percent(ev.Results[i][g].Get(mea)))
			}
		}
		if err := w.EndLine(); err != nil {
			return err
		}
	}
	return nil
}

// writeMeasure writes a single measure: a granularity banner, the method
// names, and one row of values, grouped by granularity.
func (ev Evaluation) writeMeasure(w *tsv.Writer, mea score.Measure) error {
	center := len(ev.Methods) / 2
	for _, g := range score.Granularities {
		for i := range ev.Methods {
			if i == center {
				w.WriteString(g.String())
			} else {
				w.WriteString(" ")
			}
		}
	}
	if err := w.EndLine(); err != nil {
		return err
	}
	for range score.Granularities {
		for _, m := range ev.Methods {
			w.WriteString(m.Name)
		}
	}
	if err := w.EndLine(); err != nil {
		return err
	}
	for _, g := range score.Granularities {
		for i := range ev.Methods {
			w.WriteString(percent(ev.Results[i][g].Get(mea)))
		}
	}
	return w.EndLine()
}

// writeMeasures writes <dir>/<measure>.eval.tab for every measure.
func (ev Evaluation) writeMeasures(ctx context.Context, dir string) error {
	for _, mea := range score.Measures {
		mea := mea
		path := filepath.Join(dir, mea.String()+".eval.tab")
		if err := writeTable(ctx, path, func(w *tsv.Writer) error { return ev.writeMeasure(w, mea) }); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(ctx context.Context, path string, fn func(w *tsv.Writer) error) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "evaluation table")
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := tsv.NewWriter(out.Writer(ctx))
	if err := fn(w); err != nil {
		return errors.E(err, path)
	}
	return w.Flush()
}
