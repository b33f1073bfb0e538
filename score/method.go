package score

import (
	"context"

	"github.com/LarsGab/TSEBRA-experiments/partition"
	"github.com/grailbio/base/log"
)

// Result is the accuracy of one method at every granularity.
type Result [NumGranularities]Summary

// ScoreMethod scores the prediction file pred in every segment, using at most
// parallelism concurrent segments, and aggregates the counts per
// granularity. If any segment fails, the whole method fails.
func ScoreMethod(ctx context.Context, cmp Comparator, segs []partition.Segment, pred string, parallelism int) (Result, error) {
	perSeg := make([]Scores, len(segs))
	err := partition.ForEach(segs, parallelism, func(i int, seg partition.Segment) error {
		s, err := ScoreSegment(ctx, cmp, seg.Dir, pred)
		if err != nil {
			return err
		}
		perSeg[i] = s
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	var res Result
	counts := make([]Counts, len(perSeg))
	for _, g := range Granularities {
		for i := range perSeg {
			counts[i] = perSeg[i][g]
		}
		res[g] = Aggregate(counts)
	}
	log.Printf("score: %s over %d segments: cds %v, trans %v, gene %v",
		pred, len(segs), res[CDS].Counts, res[Transcript].Counts, res[Gene].Counts)
	return res, nil
}
