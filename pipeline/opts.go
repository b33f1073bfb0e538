// Package pipeline runs the comparison of TSEBRA and EVidenceModeler on one
// species: it partitions the genome, runs the combiners on every test
// segment, and scores all methods against the reference annotation.
package pipeline

import (
	"path/filepath"

	"github.com/LarsGab/TSEBRA-experiments/external"
	"github.com/LarsGab/TSEBRA-experiments/partition"
)

// Opts configures a pipeline run.
type Opts struct {
	// SpeciesDir holds the inputs of one species.
	SpeciesDir string
	// TestLevel selects the BRAKER2 protein database exclusion level, one of
	// species_excluded, family_excluded or order_excluded.
	TestLevel string
	// EVMPath is the EVidenceModeler installation directory.
	EVMPath string
	// Out is the working directory. Empty means <SpeciesDir>/EVM/<TestLevel>.
	Out string
	// Parallelism bounds the number of segments processed at once. 0 means
	// one per CPU.
	Parallelism int
	// SeedFile reuses a train/test split seed. Empty draws a new seed.
	SeedFile string
	// Native lays the segments out in-process instead of running
	// partition_EVM_inputs.pl. The segments then lack the inputs EVM needs.
	Native bool
	// Methods restricts evaluation to the named methods. Empty means all.
	Methods []string
}

// DefaultOpts are the options used by the command line tool.
var DefaultOpts = Opts{
	TestLevel:   "species_excluded",
	Parallelism: 0,
}

// Method is one gene-prediction method under comparison.
type Method struct {
	Name string
	// File is the method's prediction in every segment directory.
	File string
}

// Methods lists the compared methods in report order.
var Methods = []Method{
	{"BRAKER1", "braker1.gtf"},
	{"BRAKER2", "braker2.gtf"},
	{"EVM", external.EVMGTF},
	{"TSEBRA_EVM", external.TSEBRAGTF},
	{"TSEBRA_default", "tsebra_default.gtf"},
}

// Paths locates the inputs and outputs of a run.
type Paths struct {
	opts Opts
}

// NewPaths returns the paths of opts.
func NewPaths(opts Opts) Paths { return Paths{opts} }

func (p Paths) species(elem ...string) string {
	return filepath.Join(append([]string{p.opts.SpeciesDir}, elem...)...)
}

// Braker1 is the BRAKER1 gene set.
func (p Paths) Braker1() string { return p.species("braker1", "braker_fixed.gtf") }

// Braker2 is the BRAKER2 gene set of the test level.
func (p Paths) Braker2() string { return p.species("braker2", p.opts.TestLevel, "braker_fixed.gtf") }

// Spaln holds the protein alignments of the test level.
func (p Paths) Spaln() string { return p.species("braker2", p.opts.TestLevel, "Spaln", "spaln.gff") }

// Annotation is the reference annotation.
func (p Paths) Annotation() string { return p.species("annot", "annot.gtf") }

// Pseudo is the pseudogene annotation.
func (p Paths) Pseudo() string { return p.species("annot", "pseudo.gff3") }

// PASA holds the transcript assembly alignments.
func (p Paths) PASA() string {
	return p.species("pasa", "sample_mydb_pasa.sqlite.pasa_assemblies.gff3")
}

// Genome is the soft-masked genome.
func (p Paths) Genome() string { return p.species("data", "genome.fasta.masked") }

// TSEBRADefault is the output of TSEBRA with its default configuration.
func (p Paths) TSEBRADefault() string {
	return p.species("tsebra_default", p.opts.TestLevel, "tsebra_default.gtf")
}

// Work is the working directory.
func (p Paths) Work() string {
	if p.opts.Out != "" {
		return p.opts.Out
	}
	return p.species("EVM", p.opts.TestLevel)
}

// Partitions is the directory holding the segment directories and listings.
func (p Paths) Partitions() string { return filepath.Join(p.Work(), "partitions") }

// TestListing lists the segments that are predicted and scored.
func (p Paths) TestListing() string { return filepath.Join(p.Partitions(), "part_test.lst") }

// Evaluation is the output directory of Evaluate.
func (p Paths) Evaluation() string { return filepath.Join(p.Work(), "evaluation") }

// Weights is the EVM weights table.
func (p Paths) Weights() string { return filepath.Join(p.Work(), "EVM.weights.tab") }

// TSEBRAConfig is the TSEBRA configuration.
func (p Paths) TSEBRAConfig() string { return filepath.Join(p.Work(), "tsebra.cfg") }

// GeneSet is the combined BRAKER gene set in EVM's GFF3 dialect.
func (p Paths) GeneSet() string { return filepath.Join(p.Work(), "gene_set.gff") }

// TopProteins holds the best protein alignments.
func (p Paths) TopProteins() string { return filepath.Join(p.Work(), partition.ProteinEvidence) }

func (o Opts) tools() external.Tools { return external.Tools{EVMDir: o.EVMPath} }

// absolute makes the directories of o absolute. The external tools run
// inside segment directories and would misread relative paths.
func (o Opts) absolute() (Opts, error) {
	for _, dir := range []*string{&o.SpeciesDir, &o.Out, &o.EVMPath, &o.SeedFile} {
		if *dir == "" {
			continue
		}
		abs, err := filepath.Abs(*dir)
		if err != nil {
			return o, err
		}
		*dir = abs
	}
	return o, nil
}
