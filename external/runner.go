// Package external runs the third-party tools the pipeline delegates to:
// EVidenceModeler, TSEBRA and the exact interval comparator. Every tool runs
// as a synchronous child process; a non-empty error stream is treated as
// failure, independently of the exit status.
package external

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"v.io/x/lib/envvar"
	"v.io/x/lib/lookpath"
	"v.io/x/lib/vlog"
)

// Cmd describes one child process.
type Cmd struct {
	// Path is the executable. Args exclude the executable itself.
	Path string
	Args []string
	// Dir is the working directory. Empty means the current directory.
	Dir string
	// Stdout, if nonempty, names the file that receives the standard output.
	// Otherwise the output is returned by Run.
	Stdout string
	// Stderr, if nonempty, names a log file that receives the standard error.
	// The stream is then not inspected and only the exit status signals
	// failure.
	Stderr string
	// Ignore reports stderr lines that are informational. They do not count
	// as failure.
	Ignore func(line string) bool
}

// String returns the command line, for logging and error messages.
func (c Cmd) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Run executes c and waits for it. The returned error has kind errors.Other
// and carries the command line and the offending stderr text. Failing to
// write a redirect file is an error too.
func Run(ctx context.Context, c Cmd) (_ []byte, err error) {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	vlog.VI(1).Infof("exec (dir %q): %s", c.Dir, c)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if c.Stdout != "" {
		var out file.File
		if out, err = file.Create(ctx, c.resolve(c.Stdout)); err != nil {
			return nil, errors.E(err, c.String())
		}
		defer file.CloseAndReport(ctx, out, &err)
		cmd.Stdout = out.Writer(ctx)
	}
	if c.Stderr != "" {
		var errLog file.File
		if errLog, err = file.Create(ctx, c.resolve(c.Stderr)); err != nil {
			return nil, errors.E(err, c.String())
		}
		defer file.CloseAndReport(ctx, errLog, &err)
		cmd.Stderr = errLog.Writer(ctx)
	}
	runErr := cmd.Run()
	if msg := c.filter(&stderr); msg != "" {
		return nil, errors.E(errors.Other, c.String(), "stderr:\n"+msg)
	}
	if runErr != nil {
		return nil, errors.E(errors.Other, c.String(), runErr)
	}
	return stdout.Bytes(), nil
}

func (c Cmd) resolve(path string) string {
	if filepath.IsAbs(path) || c.Dir == "" {
		return path
	}
	return filepath.Join(c.Dir, path)
}

// filter returns the stderr text that is not ignorable.
func (c Cmd) filter(r io.Reader) string {
	var buf strings.Builder
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" || (c.Ignore != nil && c.Ignore(line)) {
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.String()
}

// Tools locates the external executables.
type Tools struct {
	// EVMDir is the EVidenceModeler installation directory. Its utility
	// scripts live in EVMDir/EvmUtils.
	EVMDir string
	// Env is the environment used to search PATH for tools outside EVMDir.
	// Nil means the process environment.
	Env map[string]string
}

// Tool names.
const (
	EvidenceModeler  = "evidence_modeler.pl"
	PartitionInputs  = "partition_EVM_inputs.pl"
	EVMToGFF3        = "EVM_to_GFF3.pl"
	AugustusToGFF3   = "misc/augustus_GTF_to_EVM_GFF3.pl"
	TSEBRAScript     = "tsebra.py"
	CompareIntervals = "compare_intervals_exact.pl"
)

// EVM returns the path of an EVidenceModeler script. evidence_modeler.pl sits
// at the top of the installation, the other scripts in EvmUtils. Without
// EVMDir, the script is searched in PATH.
func (t Tools) EVM(ctx context.Context, name string) (string, error) {
	if t.EVMDir == "" {
		return t.Look(filepath.Base(name))
	}
	path := filepath.Join(t.EVMDir, "EvmUtils", name)
	if name == EvidenceModeler {
		path = filepath.Join(t.EVMDir, name)
	}
	if _, err := file.Stat(ctx, path); err != nil {
		return "", errors.E(errors.NotExist, "EVidenceModeler script", path, err)
	}
	return path, nil
}

// Look resolves name against PATH.
func (t Tools) Look(name string) (string, error) {
	env := t.Env
	if env == nil {
		env = envvar.SliceToMap(os.Environ())
	}
	path, err := lookpath.Look(env, name)
	if err != nil {
		return "", errors.E(errors.NotExist, name+" not found in PATH", err)
	}
	return path, nil
}
