package partition

import (
	"context"
	"path/filepath"
	"strconv"

	"github.com/LarsGab/TSEBRA-experiments/external"
	"github.com/grailbio/base/log"
)

// EVMListing is the listing written by partition_EVM_inputs.pl inside the
// partitions directory.
const EVMListing = "part.evm.lst"

// EVMPartitioner delegates segmentation to EVidenceModeler's
// partition_EVM_inputs.pl, which also writes the per-segment copies of its
// own inputs (genome, gene set, transcript and protein alignments).
type EVMPartitioner struct {
	Tools external.Tools
	// Genome, GeneSet, Transcripts and Proteins are the genome-wide inputs.
	Genome, GeneSet, Transcripts, Proteins string
	// Dir is the partitions directory. The tool's listing is written to
	// Dir/part.evm.lst.
	Dir string
}

// Segments implements Segmenter.
func (p EVMPartitioner) Segments(ctx context.Context) ([]Segment, error) {
	script, err := p.Tools.EVM(ctx, external.PartitionInputs)
	if err != nil {
		return nil, err
	}
	// Unsplit contigs are listed without a window; it spans the whole contig.
	_, lengths, err := SequenceLengths(ctx, p.Genome)
	if err != nil {
		return nil, err
	}
	listing := filepath.Join(p.Dir, EVMListing)
	if _, err := external.Run(ctx, external.Cmd{
		Path: script,
		Args: []string{
			"--genome", p.Genome,
			"--gene_predictions", p.GeneSet,
			"--transcript_alignments", p.Transcripts,
			"--protein_alignments", p.Proteins,
			"--segmentSize", strconv.Itoa(SegmentSize),
			"--overlapSize", strconv.Itoa(OverlapSize),
			"--partition_listing", listing,
		},
		Dir:    p.Dir,
		Stderr: "partition_EVM_inputs.log",
	}); err != nil {
		return nil, err
	}
	segs, err := ReadEVMListing(ctx, listing, lengths)
	if err != nil {
		return nil, err
	}
	log.Printf("partition: EVM listed %d segments in %s", len(segs), listing)
	return segs, nil
}
