package interval

import (
	"fmt"
	"sort"
)

// MinGap is the smallest separation kept between two intervals of one
// alignment. Intervals closer than this are treated as a single aligned block
// interrupted by an alignment artifact rather than an intron.
const MinGap = 3

// Interval is a 1-based closed range [Start, End].
type Interval struct {
	Start, End int
}

// New returns [start, end]. It returns an error if start > end.
func New(start, end int) (Interval, error) {
	if start > end {
		return Interval{}, fmt.Errorf("interval.New: start %d is after end %d", start, end)
	}
	return Interval{Start: start, End: end}, nil
}

// Len returns the number of positions covered by iv.
func (iv Interval) Len() int { return iv.End - iv.Start + 1 }

// Contains checks whether other lies entirely inside iv.
func (iv Interval) Contains(other Interval) bool {
	return iv.Start <= other.Start && other.End <= iv.End
}

// String returns "start-end".
func (iv Interval) String() string { return fmt.Sprintf("%d-%d", iv.Start, iv.End) }

// Strand is the orientation of a feature.
type Strand byte

const (
	// Unknown is used for '.' and any other unrecognized strand column.
	Unknown Strand = '.'
	// Forward is the '+' strand.
	Forward Strand = '+'
	// Reverse is the '-' strand.
	Reverse Strand = '-'
)

// ParseStrand converts a GTF strand column.
func ParseStrand(s string) Strand {
	switch s {
	case "+":
		return Forward
	case "-":
		return Reverse
	}
	return Unknown
}

func (s Strand) String() string { return string(s) }

// sortByStart sorts ivs in place by (Start, End).
func sortByStart(ivs []Interval) {
	sort.SliceStable(ivs, func(i, j int) bool {
		if ivs[i].Start != ivs[j].Start {
			return ivs[i].Start < ivs[j].Start
		}
		return ivs[i].End < ivs[j].End
	})
}

// MergeSmallGaps returns the intervals sorted by start, with every adjacent
// pair separated by less than minGap positions (next.Start - cur.End < minGap)
// folded into one interval spanning both. The input slice is not modified.
//
// The result is a fixed point: MergeSmallGaps(MergeSmallGaps(x)) equals
// MergeSmallGaps(x).
func MergeSmallGaps(ivs []Interval, minGap int) []Interval {
	if len(ivs) == 0 {
		return nil
	}
	sorted := make([]Interval, len(ivs))
	copy(sorted, ivs)
	sortByStart(sorted)

	merged := sorted[:1]
	for _, iv := range sorted[1:] {
		last := &merged[len(merged)-1]
		if iv.Start-last.End < minGap {
			if iv.End > last.End {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// DeriveIntrons returns the gaps between consecutive intervals of ivs, which
// must be sorted by start. Intron i spans [ivs[i-1].End+1, ivs[i].Start-1].
// Fewer than two intervals carry no intron and yield nil.
func DeriveIntrons(ivs []Interval) ([]Interval, error) {
	if len(ivs) < 2 {
		return nil, nil
	}
	introns := make([]Interval, 0, len(ivs)-1)
	for i := 1; i < len(ivs); i++ {
		intron, err := New(ivs[i-1].End+1, ivs[i].Start-1)
		if err != nil {
			return nil, fmt.Errorf("interval.DeriveIntrons: intervals %v and %v overlap or are unsorted", ivs[i-1], ivs[i])
		}
		introns = append(introns, intron)
	}
	return introns, nil
}

// Record is one alignment (a transcript assembly or a protein alignment)
// reduced to its aligned blocks on a single chromosome and strand.
//
// A Record is only built through NewRecord, so its intervals are always
// sorted by start and gap-merged with MinGap.
type Record struct {
	ID     string
	Chrom  string
	Strand Strand

	intervals []Interval
}

// NewRecord builds a Record from blocks given in any order.
func NewRecord(id, chrom string, strand Strand, blocks []Interval) Record {
	return Record{
		ID:        id,
		Chrom:     chrom,
		Strand:    strand,
		intervals: MergeSmallGaps(blocks, MinGap),
	}
}

// Intervals returns the blocks in ascending genomic order. The caller must not
// modify the returned slice.
func (r Record) Intervals() []Interval { return r.intervals }

// Ordered returns the blocks in reported order: ascending on the forward or
// unknown strand, descending on the reverse strand, so that the first element
// is the biologically first block.
func (r Record) Ordered() []Interval {
	out := make([]Interval, len(r.intervals))
	copy(out, r.intervals)
	if r.Strand == Reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// Introns returns the gaps between the record's blocks.
func (r Record) Introns() ([]Interval, error) {
	return DeriveIntrons(r.intervals)
}
