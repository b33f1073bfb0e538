// Package gtf reads and writes the 9-column gene-structure records used
// throughout the pipeline. Two attribute dialects share the same columns:
//
//   GTF:  transcript_id "g1.t1"; gene_id "g1";
//   GFF3: ID=g1.t1.cds1;Parent=g1.t1;
//
// Attribute lookups understand both.
package gtf

import (
	"sort"
	"strings"

	"github.com/LarsGab/TSEBRA-experiments/interval"
	"github.com/pkg/errors"
)

// Record is one line of a GTF or GFF3 file. Field order matches the column
// order; grailbio/base/tsv relies on it.
type Record struct {
	Chrom      string
	Source     string
	Feature    string
	Start      int
	End        int
	Score      string // unused floating point value, usually "."
	Strand     string
	Frame      string
	Attributes string
}

// Interval returns the record's [Start, End].
func (r Record) Interval() interval.Interval {
	return interval.Interval{Start: r.Start, End: r.End}
}

// StrandOf returns the parsed strand column.
func (r Record) StrandOf() interval.Strand { return interval.ParseStrand(r.Strand) }

// Is reports whether the feature column equals kind, ignoring case.
func (r Record) Is(kind string) bool { return strings.EqualFold(r.Feature, kind) }

// Attr looks up key in the attribute column. GFF3 "key=value" pairs and GTF
// `key "value"` pairs are both recognized.
func (r Record) Attr(key string) (string, bool) {
	return lookupAttr(r.Attributes, key)
}

// MustAttr is like Attr but reports a missing key as an error naming the
// record.
func (r Record) MustAttr(key string) (string, error) {
	if v, ok := r.Attr(key); ok {
		return v, nil
	}
	return "", errors.Errorf("gtf: %s:%d-%d %s: missing attribute %q in %q",
		r.Chrom, r.Start, r.End, r.Feature, key, r.Attributes)
}

func lookupAttr(attrs, key string) (string, bool) {
	for _, field := range strings.Split(attrs, ";") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		if eq := strings.IndexByte(field, '='); eq > 0 {
			if strings.TrimSpace(field[:eq]) == key {
				return strings.TrimSpace(field[eq+1:]), true
			}
			continue
		}
		sp := strings.IndexAny(field, " \t")
		if sp <= 0 || field[:sp] != key {
			continue
		}
		v := strings.Trim(strings.TrimSpace(field[sp+1:]), "\"")
		if v == "" {
			return "", false
		}
		return v, true
	}
	return "", false
}

// SortByPosition sorts records by (Chrom, Start, End), the order produced by
// `sort -k1,1 -k4,4n -k5,5n`. Ties keep their input order.
func SortByPosition(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := &recs[i], &recs[j]
		if a.Chrom != b.Chrom {
			return a.Chrom < b.Chrom
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End < b.End
	})
}

// ToGTF rewrites a GFF3 CDS or exon record produced by EVM_to_GFF3.pl into the
// GTF dialect: the Parent becomes the transcript_id and "<Parent>_g" the
// gene_id. Records of other features are reported as not converted.
func ToGTF(r Record) (Record, bool, error) {
	if !r.Is("CDS") && !r.Is("exon") {
		return r, false, nil
	}
	parent, err := r.MustAttr("Parent")
	if err != nil {
		return r, false, err
	}
	r.Attributes = `transcript_id "` + parent + `"; gene_id "` + parent + `_g";`
	return r, true, nil
}
