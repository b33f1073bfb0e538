package pipeline

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/LarsGab/TSEBRA-experiments/score"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// GenomeMethods lists the genome-wide gene sets that exist before any
// partitioning, with File holding the full path.
func (p Paths) GenomeMethods() []Method {
	return []Method{
		{"BRAKER1", p.species("braker1", "braker.gtf")},
		{"BRAKER2", p.species("braker2", p.opts.TestLevel, "braker.gtf")},
		{"TSEBRA_default", p.TSEBRADefault()},
	}
}

// GenomeEvaluation is the output directory of EvaluateGenome.
func (p Paths) GenomeEvaluation() string { return p.species("tsebra_default", p.opts.TestLevel) }

// EvaluateGenome scores the genome-wide gene sets of BRAKER1, BRAKER2 and
// TSEBRA with its default configuration against the complete reference
// annotation, the whole genome being a single scoring unit. It writes
// <F1|Sn|Sp>.eval.tab to GenomeEvaluation, next to sorted copies of the
// predictions. As with Evaluate, a failing method leaves no table behind.
func EvaluateGenome(ctx context.Context, opts Opts, cmp score.Comparator) (Evaluation, error) {
	p := NewPaths(opts)
	methods := p.GenomeMethods()
	inputs := []string{p.Annotation(), p.Pseudo()}
	for _, m := range methods {
		inputs = append(inputs, m.File)
	}
	if err := CheckInputs(ctx, inputs...); err != nil {
		return Evaluation{}, err
	}

	out := p.GenomeEvaluation()
	ev := Evaluation{Methods: methods, Results: make([]score.Result, len(methods))}
	var reporter errors.Once
	for i, m := range methods {
		s, err := score.ScoreFiles(ctx, cmp, score.Files{
			Reference:  p.Annotation(),
			Pseudo:     p.Pseudo(),
			Prediction: m.File,
			Sorted:     filepath.Join(out, strings.ToLower(m.Name)+".sorted.gtf"),
		})
		if err != nil {
			log.Error.Printf("pipeline: evaluating %s genome-wide: %v", m.Name, err)
			reporter.Set(errors.E(err, m.Name))
			continue
		}
		for _, g := range score.Granularities {
			ev.Results[i][g] = score.Summarize(s[g])
		}
	}
	if err := reporter.Err(); err != nil {
		return Evaluation{}, err
	}
	if err := ev.writeMeasures(ctx, out); err != nil {
		return Evaluation{}, err
	}
	log.Printf("pipeline: genome-wide evaluation of %d methods written to %s", len(methods), out)
	return ev, nil
}
