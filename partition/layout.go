package partition

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/LarsGab/TSEBRA-experiments/interval"
	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/biogo/store/step"
	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// Segmenter produces the segment listing of a genome.
type Segmenter interface {
	Segments(ctx context.Context) ([]Segment, error)
}

// Layout splits [1, length] of chrom into windows of size positions. Window
// starts advance by size-overlap, so adjacent windows share overlap
// positions; the last window is truncated at length.
func Layout(chrom string, length, size, overlap int) ([]interval.Region, error) {
	if length < 1 {
		return nil, fmt.Errorf("partition.Layout: %s has length %d", chrom, length)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("partition.Layout: overlap %d must be in [0, %d)", overlap, size)
	}
	var regs []interval.Region
	for start := 1; ; start += size - overlap {
		end := start + size - 1
		if end >= length {
			regs = append(regs, interval.Region{Chrom: chrom, Interval: interval.Interval{Start: start, End: length}})
			return regs, nil
		}
		regs = append(regs, interval.Region{Chrom: chrom, Interval: interval.Interval{Start: start, End: end}})
	}
}

// stepBool is a bool type satisfying the step.Equaler interface.
type stepBool bool

// Equal returns whether b equals e. Equal assumes the underlying type of e is a stepBool.
func (b stepBool) Equal(e step.Equaler) bool {
	return b == e.(stepBool)
}

// CheckCoverage verifies that regs cover every position of every sequence in
// lengths. The first gap found is reported.
func CheckCoverage(regs []interval.Region, lengths map[string]int) error {
	vecs := make(map[string]*step.Vector, len(lengths))
	for chrom, n := range lengths {
		// step vectors are half-open.
		vec, err := step.New(1, n+1, stepBool(false))
		if err != nil {
			return err
		}
		vecs[chrom] = vec
	}
	for _, r := range regs {
		vec, ok := vecs[r.Chrom]
		if !ok {
			return fmt.Errorf("partition: region %v on unknown sequence", r)
		}
		if r.Start < 1 || r.End > vec.Len() {
			return fmt.Errorf("partition: region %v exceeds %s:1-%d", r, r.Chrom, vec.Len())
		}
		vec.SetRange(r.Start, r.End+1, stepBool(true))
	}
	for chrom, vec := range vecs {
		var gap error
		vec.Do(func(start, end int, e step.Equaler) {
			if gap == nil && !bool(e.(stepBool)) {
				gap = fmt.Errorf("partition: %s:%d-%d is not covered", chrom, start, end-1)
			}
		})
		if gap != nil {
			return gap
		}
	}
	return nil
}

// SequenceLengths returns the length of every sequence in a FASTA file, in
// file order.
func SequenceLengths(ctx context.Context, path string) (names []string, lengths map[string]int, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, errors.E(err, "genome")
	}
	defer file.CloseAndReport(ctx, in, &err)
	var r io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(r, path); u != nil {
		r = u
	}
	lengths = make(map[string]int)
	sc := seqio.NewScanner(fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNAredundant)))
	for sc.Next() {
		s := sc.Seq()
		if _, dup := lengths[s.Name()]; dup {
			return nil, nil, errors.E(errors.Invalid, path, "duplicate sequence", s.Name())
		}
		names = append(names, s.Name())
		lengths[s.Name()] = s.Len()
	}
	if err := sc.Error(); err != nil {
		return nil, nil, errors.E(errors.Invalid, path, err)
	}
	return names, lengths, nil
}

// FastaSegmenter lays out every sequence of a FASTA genome natively. Segment
// directories follow the EVM convention <Root>/<chrom>/<chrom>_<start>-<end>.
type FastaSegmenter struct {
	Genome string
	Root   string
	// Size and Overlap default to SegmentSize and OverlapSize.
	Size, Overlap int
}

// Segments implements Segmenter.
func (f FastaSegmenter) Segments(ctx context.Context) ([]Segment, error) {
	size, overlap := f.Size, f.Overlap
	if size == 0 {
		size, overlap = SegmentSize, OverlapSize
	}
	names, lengths, err := SequenceLengths(ctx, f.Genome)
	if err != nil {
		return nil, err
	}
	var (
		segs []Segment
		all  []interval.Region
	)
	for _, chrom := range names {
		regs, err := Layout(chrom, lengths[chrom], size, overlap)
		if err != nil {
			return nil, err
		}
		for _, r := range regs {
			segs = append(segs, Segment{
				Chrom: r.Chrom,
				Start: r.Start,
				End:   r.End,
				Dir:   filepath.Join(f.Root, chrom, r.String()),
			})
		}
		all = append(all, regs...)
	}
	if err := CheckCoverage(all, lengths); err != nil {
		return nil, errors.E(errors.Integrity, err)
	}
	log.Printf("partition: %d sequences, %d segments", len(names), len(segs))
	return segs, nil
}
