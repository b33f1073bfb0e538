package score

import (
	"context"
	"os"
	"path/filepath"

	"github.com/LarsGab/TSEBRA-experiments/encoding/gtf"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// Files of a prepared segment directory that every method is scored against.
const (
	ReferenceFile = "annot.gtf"
	PseudoFile    = "pseudo.gff3"
)

// readOptional reads a gene set; a missing file is an empty gene set.
func readOptional(ctx context.Context, path string) ([]gtf.Record, error) {
	if _, err := file.Stat(ctx, path); err != nil {
		if errors.Is(errors.NotExist, err) || os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return gtf.ReadFile(ctx, path)
}

// ScoreSegment scores the prediction file pred of the segment in dir against
// the segment's reference annotation. The prediction is sorted in place.
func ScoreSegment(ctx context.Context, cmp Comparator, dir, pred string) (Scores, error) {
	predPath := filepath.Join(dir, pred)
	return ScoreFiles(ctx, cmp, Files{
		Reference:  filepath.Join(dir, ReferenceFile),
		Pseudo:     filepath.Join(dir, PseudoFile),
		Prediction: predPath,
		Sorted:     predPath,
	})
}

// Files names the inputs of one scoring unit.
type Files struct {
	Reference, Pseudo, Prediction string
	// Sorted receives the prediction sorted by position before it is
	// compared. It may equal Prediction.
	Sorted string
}

// ScoreFiles scores f.Prediction against f.Reference.
//
// An empty (or missing) prediction scores every reference feature as a false
// negative; an empty reference scores every predicted feature as a false
// positive. Otherwise the prediction is written sorted by position to
// f.Sorted and cmp runs once per granularity.
func ScoreFiles(ctx context.Context, cmp Comparator, f Files) (Scores, error) {
	refRecs, err := gtf.ReadFile(ctx, f.Reference)
	if err != nil {
		return Scores{}, errors.E("read", f.Reference, err)
	}
	predRecs, err := readOptional(ctx, f.Prediction)
	if err != nil {
		return Scores{}, errors.E("read", f.Prediction, err)
	}

	if len(predRecs) == 0 {
		n, err := CountFeatures(refRecs)
		if err != nil {
			return Scores{}, errors.E(f.Reference, err)
		}
		log.Debug.Printf("score: %s: no predictions, %v reference features", f.Prediction, n)
		return Missed(n), nil
	}
	if len(refRecs) == 0 {
		n, err := CountFeatures(predRecs)
		if err != nil {
			return Scores{}, errors.E(f.Prediction, err)
		}
		log.Debug.Printf("score: %s: no reference, %v predicted features", f.Prediction, n)
		return Spurious(n), nil
	}

	gtf.SortByPosition(predRecs)
	if err := gtf.WriteFile(ctx, f.Sorted, predRecs); err != nil {
		return Scores{}, err
	}
	var s Scores
	for _, g := range Granularities {
		c, err := cmp.Compare(ctx, Comparison{
			Reference:   f.Reference,
			Prediction:  f.Sorted,
			Pseudo:      f.Pseudo,
			Granularity: g,
		})
		if err != nil {
			return Scores{}, err
		}
		s[g] = c
	}
	return s, nil
}
