package score

import (
	"context"
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/LarsGab/TSEBRA-experiments/encoding/gtf"
	"github.com/LarsGab/TSEBRA-experiments/external"
	"github.com/LarsGab/TSEBRA-experiments/partition"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
	"v.io/x/lib/gosh"
	"v.io/x/lib/lookpath"
)

func near(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(Counts{TP: 8, FN: 2, FP: 2})
	near(t, s.Sensitivity, 0.8)
	near(t, s.Specificity, 0.8)
	near(t, s.F1, 0.8)

	s = Summarize(Counts{TP: 6, FN: 4, FP: 0})
	near(t, s.Sensitivity, 0.6)
	near(t, s.Specificity, 1)
	near(t, s.F1, 0.75)
	near(t, s.Get(F1), s.F1)
	near(t, s.Get(Sensitivity), s.Sensitivity)
	near(t, s.Get(Specificity), s.Specificity)

	expect.EQ(t, Summarize(Counts{}), Summary{})
	s = Summarize(Counts{FN: 3})
	expect.EQ(t, s.Sensitivity, 0.0)
	expect.EQ(t, s.Specificity, 0.0)
	expect.EQ(t, s.F1, 0.0)
	s = Summarize(Counts{FP: 3})
	expect.EQ(t, s.Specificity, 0.0)
	expect.False(t, math.IsNaN(s.F1))
}

func TestAggregateSumsBeforeRatios(t *testing.T) {
	segs := []Counts{{TP: 1, FN: 0, FP: 0}, {TP: 9, FN: 10, FP: 0}}
	s := Aggregate(segs)
	expect.EQ(t, s.Counts, Counts{TP: 10, FN: 10})
	// The mean of the per-segment ratios would be (1 + 9/19)/2.
	near(t, s.Sensitivity, 0.5)

	// Splitting a segment's counts does not change the aggregate.
	whole := Aggregate([]Counts{{TP: 7, FN: 3, FP: 5}, {TP: 2, FN: 2, FP: 2}})
	split := Aggregate([]Counts{{TP: 4, FN: 1, FP: 5}, {TP: 2, FN: 2, FP: 2}, {TP: 3, FN: 2}})
	expect.EQ(t, split, whole)
	reversed := Aggregate([]Counts{{TP: 2, FN: 2, FP: 2}, {TP: 7, FN: 3, FP: 5}})
	expect.EQ(t, reversed, whole)

	expect.EQ(t, Aggregate(nil), Summary{})
}

func TestGranularity(t *testing.T) {
	for _, g := range Granularities {
		got, err := ParseGranularity(g.String())
		assert.NoError(t, err)
		expect.EQ(t, got, g)
	}
	expect.EQ(t, Transcript.String(), "trans")
	_, err := ParseGranularity("exon")
	expect.NotNil(t, err)
	expect.EQ(t, Sensitivity.String(), "Sn")
}

func TestParseComparison(t *testing.T) {
	c, err := ParseComparison([]byte("cds\t8\t2\ncds\t8\t2\n"))
	assert.NoError(t, err)
	expect.EQ(t, c, Counts{TP: 8, FN: 2, FP: 2})

	c, err = ParseComparison([]byte("\ntrans\t3\t17\ntrans\t3\t0\n\n"))
	assert.NoError(t, err)
	expect.EQ(t, c, Counts{TP: 3, FN: 17, FP: 0})

	_, err = ParseComparison([]byte("cds\t8\t2\ncds\t7\t2\n"))
	require.Error(t, err)
	expect.True(t, errors.Is(errors.Integrity, err))

	for _, bad := range []string{"", "cds\t8\t2\n", "cds\t8\ncds\t8\t2\n", "cds\tx\t2\ncds\t8\t2\n"} {
		_, err = ParseComparison([]byte(bad))
		expect.True(t, errors.Is(errors.Invalid, err), "%q: %v", bad, err)
	}
}

func records(t *testing.T, text string) []gtf.Record {
	recs, err := gtf.Read(strings.NewReader(strings.Replace(text, "|", "\t", -1)), t.Name())
	assert.NoError(t, err)
	return recs
}

// annot has 3 transcripts of 2 genes with 5 CDS records.
const annot = `chr1|ref|exon|100|300|.|+|.|transcript_id "t1"; gene_id "g1";
chr1|ref|CDS|150|300|.|+|0|transcript_id "t1"; gene_id "g1";
chr1|ref|CDS|500|700|.|+|0|transcript_id "t1"; gene_id "g1";
chr1|ref|CDS|150|300|.|+|0|transcript_id "t2"; gene_id "g1";
chr1|ref|start_codon|150|152|.|+|0|transcript_id "t2"; gene_id "g1";
chr1|ref|CDS|2000|2300|.|-|0|transcript_id "t3"; gene_id "g2";
chr1|ref|cds|2500|2600|.|-|0|transcript_id "t3"; gene_id "g2";
chr1|ref|gene|2000|2600|.|-|.|g2
`

func TestCountFeatures(t *testing.T) {
	n, err := CountFeatures(records(t, annot))
	assert.NoError(t, err)
	expect.EQ(t, n, Features{CDS: 5, Transcript: 3, Gene: 2})

	_, err = CountFeatures(records(t, `chr1|ref|CDS|1|9|.|+|0|gene_id "g1";`+"\n"))
	expect.True(t, errors.Is(errors.Invalid, err))
	n, err = CountFeatures(nil)
	assert.NoError(t, err)
	expect.EQ(t, n, Features{})
}

// fakeComparator returns canned counts and records the comparisons it saw.
type fakeComparator struct {
	mu     sync.Mutex
	counts map[string]Scores // by segment dir
	seen   []Comparison
	fail   string
}

func (f *fakeComparator) Compare(_ context.Context, c Comparison) (Counts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, c)
	dir := filepath.Dir(c.Prediction)
	if dir == f.fail {
		return Counts{}, errors.E(errors.Other, "compare_intervals_exact.pl", "stderr:\nboom")
	}
	return f.counts[dir][c.Granularity], nil
}

func writeSegment(t *testing.T, dir string, files map[string]string) {
	require.NoError(t, os.MkdirAll(dir, 0755))
	for name, text := range files {
		require.NoError(t, gtf.WriteFile(context.Background(), filepath.Join(dir, name), records(t, text)))
	}
}

const pred = `chr1|AUGUSTUS|CDS|500|700|.|+|0|transcript_id "p1"; gene_id "pg1";
chr1|AUGUSTUS|CDS|150|300|.|+|0|transcript_id "p1"; gene_id "pg1";
`

func TestScoreSegment(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()

	empty := filepath.Join(tempDir, "empty")
	writeSegment(t, empty, map[string]string{"annot.gtf": annot, "pseudo.gff3": "", "braker1.gtf": ""})
	cmp := &fakeComparator{}
	s, err := ScoreSegment(ctx, cmp, empty, "braker1.gtf")
	assert.NoError(t, err)
	expect.EQ(t, s[Transcript], Counts{TP: 0, FN: 3, FP: 0})
	expect.EQ(t, s[CDS], Counts{TP: 0, FN: 5, FP: 0})
	expect.EQ(t, s[Gene], Counts{TP: 0, FN: 2, FP: 0})
	// A method that wrote nothing scores like an empty prediction.
	s2, err := ScoreSegment(ctx, cmp, empty, "evm.gtf")
	assert.NoError(t, err)
	expect.EQ(t, s2, s)

	noRef := filepath.Join(tempDir, "noref")
	writeSegment(t, noRef, map[string]string{"annot.gtf": "", "pseudo.gff3": "", "braker1.gtf": pred})
	s, err = ScoreSegment(ctx, cmp, noRef, "braker1.gtf")
	assert.NoError(t, err)
	expect.EQ(t, s, Scores{{FP: 2}, {FP: 1}, {FP: 1}})

	both := filepath.Join(tempDir, "both")
	writeSegment(t, both, map[string]string{"annot.gtf": "", "braker1.gtf": ""})
	s, err = ScoreSegment(ctx, cmp, both, "braker1.gtf")
	assert.NoError(t, err)
	expect.EQ(t, s, Scores{})
	expect.EQ(t, len(cmp.seen), 0)

	full := filepath.Join(tempDir, "full")
	writeSegment(t, full, map[string]string{"annot.gtf": annot, "pseudo.gff3": "", "braker1.gtf": pred})
	cmp.counts = map[string]Scores{full: {{TP: 2, FN: 3}, {FN: 3, FP: 1}, {FN: 2, FP: 1}}}
	s, err = ScoreSegment(ctx, cmp, full, "braker1.gtf")
	assert.NoError(t, err)
	expect.EQ(t, s, cmp.counts[full])
	assert.EQ(t, len(cmp.seen), 3)
	expect.EQ(t, cmp.seen[1], Comparison{
		Reference:   filepath.Join(full, "annot.gtf"),
		Prediction:  filepath.Join(full, "braker1.gtf"),
		Pseudo:      filepath.Join(full, "pseudo.gff3"),
		Granularity: Transcript,
	})
	// The prediction was rewritten in position order.
	recs, err := gtf.ReadFile(ctx, filepath.Join(full, "braker1.gtf"))
	assert.NoError(t, err)
	expect.EQ(t, recs[0].Start, 150)

	cmp.fail = full
	_, err = ScoreSegment(ctx, cmp, full, "braker1.gtf")
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")

	_, err = ScoreSegment(ctx, cmp, filepath.Join(tempDir, "nowhere"), "braker1.gtf")
	expect.NotNil(t, err)
}

func TestScoreFilesSortedCopy(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	in := filepath.Join(tempDir, "in")
	out := filepath.Join(tempDir, "out")
	writeSegment(t, in, map[string]string{"annot.gtf": annot, "pseudo.gff3": "", "braker.gtf": pred})
	require.NoError(t, os.MkdirAll(out, 0755))

	cmp := &fakeComparator{counts: map[string]Scores{out: {{TP: 1}, {TP: 2}, {TP: 3}}}}
	f := Files{
		Reference:  filepath.Join(in, "annot.gtf"),
		Pseudo:     filepath.Join(in, "pseudo.gff3"),
		Prediction: filepath.Join(in, "braker.gtf"),
		Sorted:     filepath.Join(out, "braker.sorted.gtf"),
	}
	s, err := ScoreFiles(ctx, cmp, f)
	assert.NoError(t, err)
	expect.EQ(t, s, cmp.counts[out])
	for _, c := range cmp.seen {
		expect.EQ(t, c.Prediction, f.Sorted)
	}
	// The input keeps its order, the copy is sorted.
	recs, err := gtf.ReadFile(ctx, f.Prediction)
	assert.NoError(t, err)
	expect.EQ(t, recs[0].Start, 500)
	recs, err = gtf.ReadFile(ctx, f.Sorted)
	assert.NoError(t, err)
	expect.EQ(t, recs[0].Start, 150)
}

func TestScoreMethod(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()

	cmp := &fakeComparator{counts: make(map[string]Scores)}
	var segs []partition.Segment
	for i := 0; i < 10; i++ {
		dir := filepath.Join(tempDir, fmt.Sprintf("chr1_%d-%d", i*100+1, i*100+100))
		writeSegment(t, dir, map[string]string{"annot.gtf": annot, "pseudo.gff3": "", "braker2.gtf": pred})
		cmp.counts[dir] = Scores{{TP: 4, FN: 1, FP: 1}, {TP: 1, FN: 2, FP: 0}, {TP: 1, FN: 1}}
		segs = append(segs, partition.Segment{Chrom: "chr1", Start: i*100 + 1, End: i*100 + 100, Dir: dir})
	}
	// One segment without predictions.
	writeSegment(t, segs[9].Dir, map[string]string{"braker2.gtf": ""})

	res, err := ScoreMethod(ctx, cmp, segs, "braker2.gtf", 3)
	assert.NoError(t, err)
	expect.EQ(t, res[CDS].Counts, Counts{TP: 36, FN: 9 + 5, FP: 9})
	expect.EQ(t, res[Transcript].Counts, Counts{TP: 9, FN: 18 + 3})
	expect.EQ(t, res[Gene].Counts, Counts{TP: 9, FN: 9 + 2})
	near(t, res[CDS].Sensitivity, 36.0/50)

	cmp.fail = segs[4].Dir
	_, err = ScoreMethod(ctx, cmp, segs, "braker2.gtf", 3)
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestExactComparator(t *testing.T) {
	sh := gosh.NewShell(t)
	defer sh.Cleanup()
	if _, err := lookpath.Look(sh.Vars, "sh"); err != nil {
		t.Skipf("sh not found on the machine. Skipping the test")
	}
	bin := sh.MakeTempDir()
	script := filepath.Join(bin, external.CompareIntervals)
	require.NoError(t, ioutil.WriteFile(script, []byte(`#!/bin/sh
case "$7" in
  --cds) printf 'cds\t8\t2\ncds\t8\t2\n' ;;
  --trans) printf 'trans\t3\t1\ntrans\t4\t0\n' ;;
  *) echo "unknown mode $7" >&2 ;;
esac
`), 0755))

	x := ExactComparator{Tools: external.Tools{Env: map[string]string{"PATH": bin}}}
	ctx := context.Background()
	c, err := x.Compare(ctx, Comparison{"a.gtf", "b.gtf", "p.gff3", CDS})
	assert.NoError(t, err)
	expect.EQ(t, c, Counts{TP: 8, FN: 2, FP: 2})

	_, err = x.Compare(ctx, Comparison{"a.gtf", "b.gtf", "p.gff3", Transcript})
	expect.True(t, errors.Is(errors.Integrity, err))

	_, err = x.Compare(ctx, Comparison{"a.gtf", "b.gtf", "p.gff3", Gene})
	require.Error(t, err)
	expect.False(t, errors.Is(errors.Integrity, err))
	require.Contains(t, err.Error(), "unknown mode --gene")
}
