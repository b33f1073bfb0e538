package score

import (
	"github.com/LarsGab/TSEBRA-experiments/encoding/gtf"
	"github.com/grailbio/base/errors"
)

// Features is the size of a gene set at every granularity: the number of CDS
// records, of distinct transcripts and of distinct genes.
type Features [NumGranularities]int

// CountFeatures sizes a GTF gene set. Only CDS and exon records are
// considered; one of them without a transcript_id or gene_id is a parse
// error.
func CountFeatures(recs []gtf.Record) (Features, error) {
	var (
		n     Features
		txs   = make(map[string]struct{})
		genes = make(map[string]struct{})
	)
	for _, r := range recs {
		isCDS := r.Is("CDS")
		if !isCDS && !r.Is("exon") {
			continue
		}
		tx, err := r.MustAttr("transcript_id")
		if err != nil {
			return Features{}, errors.E(errors.Invalid, err)
		}
		g, err := r.MustAttr("gene_id")
		if err != nil {
			return Features{}, errors.E(errors.Invalid, err)
		}
		txs[tx] = struct{}{}
		genes[g] = struct{}{}
		if isCDS {
			n[CDS]++
		}
	}
	n[Transcript] = len(txs)
	n[Gene] = len(genes)
	return n, nil
}

// Missed scores a segment without predictions: every reference feature is a
// false negative.
func Missed(ref Features) Scores {
	var s Scores
	for _, g := range Granularities {
		s[g].FN = ref[g]
	}
	return s
}

// Spurious scores a segment without reference features: every predicted
// feature is a false positive.
func Spurious(pred Features) Scores {
	var s Scores
	for _, g := range Granularities {
		s[g].FP = pred[g]
	}
	return s
}
