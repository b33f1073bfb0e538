package external

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/LarsGab/TSEBRA-experiments/encoding/gtf"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// Files written into a segment directory by the predictors.
const (
	EVMGTF    = "evm.gtf"
	TSEBRAGTF = "tsebra_EVM.gtf"
)

// Predictor produces one method's gene set inside a segment directory.
type Predictor interface {
	// Predict runs in dir, which holds the files of a segment of chrom.
	Predict(ctx context.Context, dir, chrom string) error
}

// EVM runs EVidenceModeler on a prepared segment and converts its output to
// GTF.
type EVM struct {
	Tools Tools
	// Weights is the EVM.weights.tab path.
	Weights string
}

// Predict implements Predictor. An empty EVM result yields an empty evm.gtf.
func (e EVM) Predict(ctx context.Context, dir, chrom string) error {
	modeler, err := e.Tools.EVM(ctx, EvidenceModeler)
	if err != nil {
		return err
	}
	toGFF3, err := e.Tools.EVM(ctx, EVMToGFF3)
	if err != nil {
		return err
	}
	_, err = Run(ctx, Cmd{
		Path: modeler,
		Args: []string{
			"-G", "genome.fasta.masked",
			"-g", "gene_set.gff",
			"-w", e.Weights,
			"-e", "evm_pasa.gff",
			"-p", "evm_protein.gff",
			"--exec_dir", dir,
		},
		Dir:    dir,
		Stdout: "evm.out",
		Stderr: "evm.out.log",
	})
	if err != nil {
		return err
	}
	info, err := file.Stat(ctx, filepath.Join(dir, "evm.out"))
	if err != nil {
		return errors.E(err, "evm output", dir)
	}
	out := filepath.Join(dir, EVMGTF)
	if info.Size() == 0 {
		log.Debug.Printf("evm: no genes predicted in %s", dir)
		return gtf.WriteFile(ctx, out, nil)
	}
	if _, err = Run(ctx, Cmd{
		Path:   toGFF3,
		Args:   []string{"evm.out", chrom},
		Dir:    dir,
		Stdout: "evm.gff",
	}); err != nil {
		return err
	}
	return GFF3ToGTF(ctx, filepath.Join(dir, "evm.gff"), out)
}

// GFF3ToGTF keeps the CDS and exon records of a GFF3 gene set and rewrites
// them to GTF.
func GFF3ToGTF(ctx context.Context, in, out string) error {
	recs, err := gtf.ReadFile(ctx, in)
	if err != nil {
		return errors.E(err, "read", in)
	}
	conv := recs[:0]
	for _, r := range recs {
		c, ok, err := gtf.ToGTF(r)
		if err != nil {
			return errors.E(errors.Invalid, in, err)
		}
		if ok {
			conv = append(conv, c)
		}
	}
	return gtf.WriteFile(ctx, out, conv)
}

// TSEBRA combines the BRAKER1 and BRAKER2 gene sets of a segment using the
// segment's transcript and protein hints.
type TSEBRA struct {
	Tools Tools
	// Config is the tsebra.cfg path.
	Config string
}

// Predict implements Predictor.
func (t TSEBRA) Predict(ctx context.Context, dir, _ string) error {
	tsebra, err := t.Tools.Look(TSEBRAScript)
	if err != nil {
		return err
	}
	in := func(names ...string) string {
		for i := range names {
			names[i] = filepath.Join(dir, names[i])
		}
		return strings.Join(names, ",")
	}
	_, err = Run(ctx, Cmd{
		Path: tsebra,
		Args: []string{
			"-g", in("braker1.gtf", "braker2.gtf"),
			"-e", in("braker_pasa.gff", "braker_protein.gff"),
			"-c", t.Config,
			"-o", filepath.Join(dir, TSEBRAGTF),
			"-q",
		},
		Dir: dir,
		// TSEBRA reports transcripts it drops on stderr.
		Ignore: func(line string) bool { return strings.HasPrefix(line, "Skipping") },
	})
	return err
}
