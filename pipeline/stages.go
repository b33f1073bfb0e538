package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/LarsGab/TSEBRA-experiments/encoding/gtf"
	"github.com/LarsGab/TSEBRA-experiments/external"
	"github.com/LarsGab/TSEBRA-experiments/hints"
	"github.com/LarsGab/TSEBRA-experiments/partition"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// Partition builds the combined gene set and the top-protein alignments,
// splits the genome into segments, prepares every segment directory and
// samples the train/test listings.
func Partition(ctx context.Context, opts Opts) error {
	opts, err := opts.absolute()
	if err != nil {
		return err
	}
	p := NewPaths(opts)
	if err := CheckInputs(ctx, p.Braker1(), p.Braker2(), p.Annotation(), p.Pseudo(),
		p.Spaln(), p.PASA(), p.Genome(), p.TSEBRADefault()); err != nil {
		return err
	}
	if err := os.MkdirAll(p.Partitions(), 0755); err != nil {
		return err
	}

	spaln, err := gtf.ReadFile(ctx, p.Spaln())
	if err != nil {
		return errors.E("read", p.Spaln(), err)
	}
	if err := gtf.WriteFile(ctx, p.TopProteins(), hints.TopProteins(spaln)); err != nil {
		return err
	}

	sources := []partition.Source{
		{Name: "braker1.gtf", Path: p.Braker1()},
		{Name: "braker2.gtf", Path: p.Braker2()},
		{Name: "annot.gtf", Path: p.Annotation()},
		{Name: "pseudo.gff3", Path: p.Pseudo()},
		{Name: "tsebra_default.gtf", Path: p.TSEBRADefault()},
	}
	var seg partition.Segmenter
	if opts.Native {
		seg = partition.FastaSegmenter{Genome: p.Genome(), Root: p.Partitions()}
		sources = append(sources,
			partition.Source{Name: partition.TranscriptEvidence, Path: p.PASA()},
			partition.Source{Name: partition.ProteinEvidence, Path: p.TopProteins()})
	} else {
		if err := BuildGeneSet(ctx, opts.tools(), p.Braker1(), p.Braker2(), p.GeneSet()); err != nil {
			return err
		}
		seg = partition.EVMPartitioner{
			Tools:       opts.tools(),
			Genome:      p.Genome(),
			GeneSet:     p.GeneSet(),
			Transcripts: p.PASA(),
			Proteins:    p.TopProteins(),
			Dir:         p.Partitions(),
		}
	}
	segs, err := seg.Segments(ctx)
	if err != nil {
		return err
	}
	if err := partition.WriteListing(ctx, filepath.Join(p.Partitions(), "part.lst"), segs); err != nil {
		return err
	}
	x := partition.Extractor{Sources: sources, Parallelism: opts.Parallelism, Hints: true}
	if err := x.Prepare(ctx, segs); err != nil {
		return err
	}
	_, err = partition.SampleListing(ctx, p.Partitions(), partition.SampleOpts{SeedFile: opts.SeedFile})
	return err
}

// Predict runs EVM and TSEBRA on every test segment.
func Predict(ctx context.Context, opts Opts) error {
	opts, err := opts.absolute()
	if err != nil {
		return err
	}
	p := NewPaths(opts)
	if err := CheckInputs(ctx, p.TestListing(), p.Weights(), p.TSEBRAConfig()); err != nil {
		return err
	}
	segs, err := partition.ReadListing(ctx, p.TestListing())
	if err != nil {
		return err
	}
	predictors := []struct {
		name string
		external.Predictor
	}{
		{"EVM", external.EVM{Tools: opts.tools(), Weights: p.Weights()}},
		{"TSEBRA_EVM", external.TSEBRA{Tools: opts.tools(), Config: p.TSEBRAConfig()}},
	}
	for _, pr := range predictors {
		log.Printf("pipeline: running %s on %d segments", pr.name, len(segs))
		err := partition.ForEach(segs, opts.Parallelism, func(_ int, seg partition.Segment) error {
			return pr.Predict(ctx, seg.Dir, seg.Chrom)
		})
		if err != nil {
			return errors.E(err, pr.name)
		}
	}
	return nil
}
