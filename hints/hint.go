// Package hints converts raw cDNA and protein alignments into the evidence
// consumed by the gene-prediction combiners: intron, start and stop hints with
// multiplicities for TSEBRA, and gap-merged alignment blocks for EVM.
package hints

import (
	"context"
	"fmt"

	"github.com/LarsGab/TSEBRA-experiments/encoding/gtf"
	"github.com/LarsGab/TSEBRA-experiments/interval"
)

// Kind is the feature type of a hint.
type Kind string

const (
	Intron       Kind = "intron"
	Start        Kind = "start"
	Stop         Kind = "stop"
	ProteinMatch Kind = "protein_match"
	CDNAMatch    Kind = "cDNA_match"
)

// Priority is attached to every hint.
const Priority = 4

// Source tags of the two evidence streams.
const (
	SourceTranscript = "E"
	SourceProtein    = "P"
)

// Hint is one consolidated piece of evidence. Multiplicity counts the raw
// alignment records that support exactly (Chrom, Start, End, Strand).
type Hint struct {
	Chrom string
	// Program is written to the second column, e.g. "PASA".
	Program      string
	Tag          string
	Kind         Kind
	Start, End   int
	Strand       interval.Strand
	Score, Frame string
	Multiplicity int
	Priority     int
}

// Record renders h as a 9-column line.
func (h Hint) Record() gtf.Record {
	return gtf.Record{
		Chrom:      h.Chrom,
		Source:     h.Program,
		Feature:    string(h.Kind),
		Start:      h.Start,
		End:        h.End,
		Score:      dot(h.Score),
		Strand:     h.Strand.String(),
		Frame:      dot(h.Frame),
		Attributes: h.attributes(),
	}
}

// attributes renders the hint attributes in the order each evidence stream
// has always used: src first for transcripts, mult first for proteins.
func (h Hint) attributes() string {
	if h.Tag == SourceProtein {
		return fmt.Sprintf("mult=%d;src=%s;pri=%d", h.Multiplicity, h.Tag, h.Priority)
	}
	return fmt.Sprintf("src=%s;mult=%d;pri=%d", h.Tag, h.Multiplicity, h.Priority)
}

func dot(s string) string {
	if s == "" {
		return "."
	}
	return s
}

// Result holds both views of one evidence stream.
type Result struct {
	// Hints are the deduplicated intron/start/stop signals, in first-seen order.
	Hints []Hint
	// Matches are the gap-merged alignment blocks, one alignment after another,
	// each in reported order.
	Matches []gtf.Record
}

// HintRecords renders r.Hints.
func (r Result) HintRecords() []gtf.Record {
	recs := make([]gtf.Record, len(r.Hints))
	for i, h := range r.Hints {
		recs[i] = h.Record()
	}
	return recs
}

// WriteFiles writes the hint view to hintPath and the match view to
// matchPath.
func (r Result) WriteFiles(ctx context.Context, hintPath, matchPath string) error {
	if err := gtf.WriteFile(ctx, hintPath, r.HintRecords()); err != nil {
		return err
	}
	return gtf.WriteFile(ctx, matchPath, r.Matches)
}

type key struct {
	chrom      string
	start, end int
	strand     interval.Strand
}

// counter accumulates hints by coordinate key, remembering the order in which
// keys were first seen.
type counter struct {
	order []key
	hints map[key]*Hint
}

func newCounter() *counter {
	return &counter{hints: make(map[key]*Hint)}
}

// add counts one occurrence of proto's coordinates. The first occurrence of a
// key decides the non-coordinate columns.
func (c *counter) add(proto Hint) {
	k := key{proto.Chrom, proto.Start, proto.End, proto.Strand}
	h, ok := c.hints[k]
	if !ok {
		h = &Hint{}
		*h = proto
		h.Multiplicity = 0
		c.hints[k] = h
		c.order = append(c.order, k)
	}
	h.Multiplicity++
}

func (c *counter) list() []Hint {
	out := make([]Hint, len(c.order))
	for i, k := range c.order {
		out[i] = *c.hints[k]
	}
	return out
}
