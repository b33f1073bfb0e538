package partition

import (
	"context"
	"os"
	"path/filepath"

	"github.com/LarsGab/TSEBRA-experiments/encoding/gtf"
	"github.com/LarsGab/TSEBRA-experiments/hints"
	"github.com/LarsGab/TSEBRA-experiments/interval"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// Source is a genome-wide record file copied into every segment under Name.
type Source struct {
	Name string
	Path string
}

// Per-segment evidence written by partition_EVM_inputs.pl, and the hint
// files synthesized from it.
const (
	TranscriptEvidence = "sample_mydb_pasa.sqlite.pasa_assemblies.gff3"
	ProteinEvidence    = "topProteins.gff"

	TranscriptHints   = "braker_pasa.gff"
	TranscriptMatches = "evm_pasa.gff"
	ProteinHints      = "braker_protein.gff"
	ProteinMatches    = "evm_protein.gff"
)

// Extractor prepares segment directories.
type Extractor struct {
	Sources []Source
	// Parallelism bounds the number of segments prepared at once. 0 means
	// one per CPU.
	Parallelism int
	// Hints enables synthesis of the segment hint files from the segment's
	// evidence files, when present.
	Hints bool
}

// source is a loaded Source with its range index.
type source struct {
	Source
	recs []gtf.Record
	idx  *interval.Index
}

func loadSource(ctx context.Context, s Source) (*source, error) {
	recs, err := gtf.ReadFile(ctx, s.Path)
	if err != nil {
		return nil, errors.E("read", s.Path, err)
	}
	items := make([]interval.Item, len(recs))
	for i, r := range recs {
		items[i] = interval.Item{Chrom: r.Chrom, Interval: r.Interval()}
	}
	idx, err := interval.NewIndex(items)
	if err != nil {
		return nil, errors.E(s.Path, err)
	}
	return &source{Source: s, recs: recs, idx: idx}, nil
}

// retrieve returns the records fully contained in the window of seg,
// renumbered so that seg.Start becomes 1, sorted by (chrom, start, end).
func (s *source) retrieve(seg Segment) []gtf.Record {
	reg := seg.Region()
	hits := s.idx.Contained(seg.Chrom, reg.Interval)
	out := make([]gtf.Record, len(hits))
	for i, j := range hits {
		r := s.recs[j]
		r.Start, r.End = reg.Shift(r.Start), reg.Shift(r.End)
		out[i] = r
	}
	gtf.SortByPosition(out)
	return out
}

// Prepare writes, into every segment directory, each source restricted to
// the segment window. Segments without any record of a source still get an
// empty file. Prepare overwrites earlier results and may be rerun.
func (e *Extractor) Prepare(ctx context.Context, segs []Segment) error {
	srcs := make([]*source, len(e.Sources))
	for i, s := range e.Sources {
		var err error
		if srcs[i], err = loadSource(ctx, s); err != nil {
			return err
		}
		log.Debug.Printf("partition: loaded %d records from %s", len(srcs[i].recs), s.Path)
	}
	err := ForEach(segs, e.Parallelism, func(_ int, seg Segment) error {
		if err := os.MkdirAll(seg.Dir, 0755); err != nil {
			return err
		}
		for _, s := range srcs {
			if err := gtf.WriteFile(ctx, filepath.Join(seg.Dir, s.Name), s.retrieve(seg)); err != nil {
				return err
			}
		}
		if e.Hints {
			return segmentHints(ctx, seg.Dir)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("partition: prepared %d segments from %d sources", len(segs), len(srcs))
	return nil
}

// segmentHints converts the evidence files found in dir into hint files.
func segmentHints(ctx context.Context, dir string) error {
	if exists(ctx, filepath.Join(dir, TranscriptEvidence)) {
		if err := hints.TranscriptFile(ctx,
			filepath.Join(dir, TranscriptEvidence),
			filepath.Join(dir, TranscriptHints),
			filepath.Join(dir, TranscriptMatches)); err != nil {
			return err
		}
	}
	if exists(ctx, filepath.Join(dir, ProteinEvidence)) {
		return hints.ProteinFile(ctx,
			filepath.Join(dir, ProteinEvidence),
			filepath.Join(dir, ProteinHints),
			filepath.Join(dir, ProteinMatches))
	}
	return nil
}

func exists(ctx context.Context, path string) bool {
	_, err := file.Stat(ctx, path)
	return err == nil
}
