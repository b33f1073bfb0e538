// Package partition splits a genome into overlapping segments and prepares,
// for every segment, an isolated working directory holding each input gene
// set restricted to the segment window.
package partition

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/LarsGab/TSEBRA-experiments/interval"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/base/tsv"
)

const (
	// SegmentSize is the target width of a segment.
	SegmentSize = 400000
	// OverlapSize is the number of positions shared by adjacent segments.
	OverlapSize = 50000
)

// Segment is one partition unit. Files in Dir use coordinates relative to
// Start (Start is renumbered to 1).
type Segment struct {
	Chrom      string
	Start, End int
	Dir        string
}

// Region returns the genomic window of s.
func (s Segment) Region() interval.Region {
	return interval.Region{Chrom: s.Chrom, Interval: interval.Interval{Start: s.Start, End: s.End}}
}

func (s Segment) String() string { return s.Region().String() }

// A segment listing has one of two row shapes. WriteListing writes
//
//   chrom  start  end  segment_dir
//
// and partition_EVM_inputs.pl writes
//
//   chrom  contig_dir  Y  segment_dir   (contig split, window in segment_dir)
//   chrom  contig_dir  N                (contig not split)
//
// An N row stands for the whole contig, with contig_dir as its directory. Its
// window needs the contig length, which the listing does not carry.

// ReadListing reads the segment listing at path. N rows are rejected; use
// ReadEVMListing for listings written by partition_EVM_inputs.pl.
func ReadListing(ctx context.Context, path string) ([]Segment, error) {
	return ReadEVMListing(ctx, path, nil)
}

// ReadEVMListing reads the segment listing at path, taking the windows of
// unsplit contigs from lengths.
func ReadEVMListing(ctx context.Context, path string, lengths map[string]int) (segs []Segment, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "segment listing")
	}
	defer file.CloseAndReport(ctx, in, &err)
	segs, err = readListing(in.Reader(ctx), lengths)
	if err != nil {
		return nil, errors.E(err, path)
	}
	return segs, nil
}

func readListing(r io.Reader, lengths map[string]int) ([]Segment, error) {
	tr := tsv.NewReader(bufio.NewReader(r))
	tr.Comment = '#'
	tr.FieldsPerRecord = -1
	var segs []Segment
	for n := 1; ; n++ {
		row, err := tr.Reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(errors.Invalid, err)
		}
		seg, err := parseListingRow(row, lengths)
		if err != nil {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("listing row %d", n), err)
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

func parseListingRow(row []string, lengths map[string]int) (Segment, error) {
	if len(row) < 3 {
		return Segment{}, fmt.Errorf("%d columns, want at least 3", len(row))
	}
	seg := Segment{Chrom: row[0]}
	if len(row) >= 4 {
		seg.Dir = row[3]
		start, err1 := strconv.Atoi(row[1])
		end, err2 := strconv.Atoi(row[2])
		if err1 == nil && err2 == nil {
			seg.Start, seg.End = start, end
			return seg, checkWindow(seg)
		}
	}
	switch row[2] {
	case "Y":
		if len(row) < 4 {
			return Segment{}, fmt.Errorf("split contig %s has no segment directory", seg.Chrom)
		}
		reg, err := interval.ParseRegion(filepath.Base(filepath.Clean(seg.Dir)))
		if err != nil {
			return Segment{}, err
		}
		if reg.Chrom != seg.Chrom {
			return Segment{}, fmt.Errorf("segment %s does not belong to %s", seg.Dir, seg.Chrom)
		}
		seg.Start, seg.End = reg.Start, reg.End
	case "N":
		n, ok := lengths[seg.Chrom]
		if !ok {
			return Segment{}, fmt.Errorf("length of unsplit contig %s is unknown", seg.Chrom)
		}
		seg.Start, seg.End, seg.Dir = 1, n, row[1]
	default:
		return Segment{}, fmt.Errorf("bad partition flag %q for %s", row[2], seg.Chrom)
	}
	return seg, checkWindow(seg)
}

func checkWindow(seg Segment) error {
	if seg.Start < 1 || seg.End < seg.Start {
		return fmt.Errorf("segment %s has an empty window", seg.Dir)
	}
	return nil
}

// WriteListing writes segs to path, one "chrom start end dir" row per
// segment.
func WriteListing(ctx context.Context, path string, segs []Segment) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "segment listing")
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := tsv.NewWriter(out.Writer(ctx))
	for _, s := range segs {
		w.WriteString(s.Chrom)
		w.WriteUint32(uint32(s.Start))
		w.WriteUint32(uint32(s.End))
		w.WriteString(s.Dir)
		if err := w.EndLine(); err != nil {
			return errors.E(err, path)
		}
	}
	return w.Flush()
}

// ForEach calls fn for every segment, running at most parallelism calls at a
// time (0 means one per CPU). Segments are dealt to workers in contiguous
// runs. ForEach returns after every call has finished; the error is one of
// the errors returned by fn.
func ForEach(segs []Segment, parallelism int, fn func(i int, seg Segment) error) error {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > len(segs) {
		parallelism = len(segs)
	}
	return traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * len(segs)) / parallelism
		endIdx := ((jobIdx + 1) * len(segs)) / parallelism
		for i := startIdx; i < endIdx; i++ {
			if err := fn(i, segs[i]); err != nil {
				return errors.E(err, "segment", segs[i].String())
			}
		}
		return nil
	})
}
