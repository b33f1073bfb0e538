package main

/*
tsebra-exp compares the gene sets of BRAKER1, BRAKER2, EVidenceModeler and
TSEBRA on one species. The stages run in order:

  tsebra-exp partition -species_dir DIR -test_level LEVEL -evm_path EVM
  tsebra-exp predict   -species_dir DIR -test_level LEVEL -evm_path EVM
  tsebra-exp evaluate  -species_dir DIR -test_level LEVEL

Results are written to DIR/EVM/LEVEL/evaluation. evaluate-genome scores the
unpartitioned BRAKER and default TSEBRA gene sets of the same species.
*/

import (
	"fmt"
	"os"
	"strings"

	"github.com/LarsGab/TSEBRA-experiments/external"
	"github.com/LarsGab/TSEBRA-experiments/hints"
	"github.com/LarsGab/TSEBRA-experiments/partition"
	"github.com/LarsGab/TSEBRA-experiments/pipeline"
	"github.com/LarsGab/TSEBRA-experiments/score"
	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"
)

// runFlags binds the flags shared by the stage commands.
func runFlags(cmd *cmdline.Command) *pipeline.Opts {
	opts := pipeline.DefaultOpts
	cmd.Flags.StringVar(&opts.SpeciesDir, "species_dir", opts.SpeciesDir, "Directory holding the inputs of one species")
	cmd.Flags.StringVar(&opts.TestLevel, "test_level", opts.TestLevel, `One of "species_excluded", "family_excluded" or "order_excluded"`)
	cmd.Flags.StringVar(&opts.Out, "out", opts.Out, "Working directory. Defaults to <species_dir>/EVM/<test_level>")
	cmd.Flags.IntVar(&opts.Parallelism, "parallelism", opts.Parallelism, "Number of segments processed at once. 0 means one per CPU")
	return &opts
}

func checkSpecies(opts *pipeline.Opts, argv []string) error {
	if len(argv) != 0 {
		return fmt.Errorf("unexpected arguments %v", argv)
	}
	if opts.SpeciesDir == "" {
		return fmt.Errorf("-species_dir is required")
	}
	return nil
}

func newCmdPartition() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "partition",
		Short: "Split the genome into segments and prepare every segment directory",
	}
	opts := runFlags(cmd)
	cmd.Flags.StringVar(&opts.EVMPath, "evm_path", opts.EVMPath, "EVidenceModeler installation directory")
	cmd.Flags.StringVar(&opts.SeedFile, "seed", opts.SeedFile, "File holding the seed of the train/test split. By default a new seed is drawn")
	cmd.Flags.BoolVar(&opts.Native, "native", opts.Native, "Lay out segments without partition_EVM_inputs.pl. EVM cannot run on such segments")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if err := checkSpecies(opts, argv); err != nil {
			return err
		}
		return pipeline.Partition(vcontext.Background(), *opts)
	})
	return cmd
}

func newCmdPredict() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "predict",
		Short: "Run EVM and TSEBRA on every test segment",
	}
	opts := runFlags(cmd)
	cmd.Flags.StringVar(&opts.EVMPath, "evm_path", opts.EVMPath, "EVidenceModeler installation directory")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if err := checkSpecies(opts, argv); err != nil {
			return err
		}
		return pipeline.Predict(vcontext.Background(), *opts)
	})
	return cmd
}

func newCmdEvaluate() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "evaluate",
		Short: "Score every method on the test segments",
	}
	opts := runFlags(cmd)
	methods := cmd.Flags.String("methods", "", "Comma-separated methods to evaluate. By default all of BRAKER1, BRAKER2, EVM, TSEBRA_EVM and TSEBRA_default")
	comparator := cmd.Flags.String("comparator", "", "Path of compare_intervals_exact.pl. By default it is searched in PATH")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if err := checkSpecies(opts, argv); err != nil {
			return err
		}
		if *methods != "" {
			opts.Methods = strings.Split(*methods, ",")
		}
		_, err := pipeline.Evaluate(vcontext.Background(), *opts, score.ExactComparator{Path: *comparator})
		return err
	})
	return cmd
}

func newCmdEvaluateGenome() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "evaluate-genome",
		Short: "Score the genome-wide BRAKER1, BRAKER2 and default TSEBRA gene sets",
		Long: `
The gene sets are braker1/braker.gtf, braker2/LEVEL/braker.gtf and
tsebra_default/LEVEL/tsebra_default.gtf. The tables are written to
tsebra_default/LEVEL.`,
	}
	opts := runFlags(cmd)
	comparator := cmd.Flags.String("comparator", "", "Path of compare_intervals_exact.pl. By default it is searched in PATH")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if err := checkSpecies(opts, argv); err != nil {
			return err
		}
		_, err := pipeline.EvaluateGenome(vcontext.Background(), *opts, score.ExactComparator{Path: *comparator})
		return err
	})
	return cmd
}

func newCmdSample() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "sample",
		Short:    "Split a segment listing into train and test listings",
		ArgsName: "partition_dir",
	}
	seed := cmd.Flags.String("seed", "", "File holding the seed. By default a new seed is drawn and written to <partition_dir>/seed_value.out")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("sample takes one partition directory, but got %v", argv)
		}
		s, err := partition.SampleListing(vcontext.Background(), argv[0], partition.SampleOpts{SeedFile: *seed})
		if err != nil {
			return err
		}
		fmt.Fprintln(env.Stdout, s)
		return nil
	})
	return cmd
}

func newCmdHints() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "hints",
		Short: "Convert PASA or Spaln alignments into TSEBRA hints and EVM evidence",
		Long: `
The first argument selects the input kind: "pasa" for PASA assembly alignments
in GFF3, "protein" for Spaln alignments (only topProt=TRUE lines are used).`,
		ArgsName: "pasa|protein input hint_out evm_out",
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 4 {
			return fmt.Errorf("hints takes a kind and three paths, but got %v", argv)
		}
		ctx := vcontext.Background()
		switch argv[0] {
		case "pasa":
			return hints.TranscriptFile(ctx, argv[1], argv[2], argv[3])
		case "protein":
			return hints.ProteinFile(ctx, argv[1], argv[2], argv[3])
		}
		return fmt.Errorf("unknown input kind %q", argv[0])
	})
	return cmd
}

func newCmdGeneSet() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "geneset",
		Short:    "Combine BRAKER1 and BRAKER2 gene sets into EVM's gene prediction format",
		ArgsName: "braker1.gtf braker2.gtf out.gff",
	}
	evmPath := cmd.Flags.String("evm_path", "", "EVidenceModeler installation directory")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 3 {
			return fmt.Errorf("geneset takes three paths, but got %v", argv)
		}
		return pipeline.BuildGeneSet(vcontext.Background(), external.Tools{EVMDir: *evmPath}, argv[0], argv[1], argv[2])
	})
	return cmd
}

func newCmdRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "tsebra-exp",
		Short:    "Compare TSEBRA with EVidenceModeler on partitioned genomes",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdPartition(),
			newCmdPredict(),
			newCmdEvaluate(),
			newCmdEvaluateGenome(),
			newCmdSample(),
			newCmdHints(),
			newCmdGeneSet(),
		},
	}
}

func main() {
	shutdown := grail.Init()
	cmdline.HideGlobalFlagsExcept()
	env := cmdline.EnvFromOS()
	err := cmdline.ParseAndRun(newCmdRoot(), env, os.Args[1:])
	shutdown()
	os.Exit(cmdline.ExitCode(err, env.Stderr))
}
