package hints

import (
	"context"

	"github.com/LarsGab/TSEBRA-experiments/encoding/gtf"
	"github.com/LarsGab/TSEBRA-experiments/interval"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

const transcriptProgram = "PASA"

// alignment collects the blocks of one alignment identity.
type alignment struct {
	id     string
	chrom  string
	strand interval.Strand
	blocks []interval.Interval
}

func (a *alignment) add(r gtf.Record) {
	if r.Chrom != a.chrom {
		log.Error.Printf("hints: alignment %s spans chromosomes %s and %s; keeping %s", a.id, a.chrom, r.Chrom, a.chrom)
	}
	if s := r.StrandOf(); s != a.strand {
		log.Error.Printf("hints: alignment %s spans strands %v and %v; keeping %v", a.id, a.strand, s, a.strand)
	}
	a.blocks = append(a.blocks, r.Interval())
}

// groups is an insertion-ordered set of alignments.
type groups struct {
	order []*alignment
	byID  map[string]*alignment
}

func newGroups() *groups { return &groups{byID: make(map[string]*alignment)} }

func (g *groups) add(id string, r gtf.Record) *alignment {
	a, ok := g.byID[id]
	if !ok {
		a = &alignment{id: id, chrom: r.Chrom, strand: r.StrandOf()}
		g.byID[id] = a
		g.order = append(g.order, a)
	}
	a.add(r)
	return a
}

// FromTranscripts synthesizes evidence from transcript assembly alignments
// (PASA GFF3). Lines are grouped by their ID attribute. Each alignment is
// gap-merged; its blocks become cDNA_match records and the gaps between them
// intron hints whose multiplicity counts the alignments sharing the intron.
//
// A record without an ID is an input format violation and aborts the job.
func FromTranscripts(recs []gtf.Record) (Result, error) {
	g := newGroups()
	for _, r := range recs {
		id, err := r.MustAttr("ID")
		if err != nil {
			return Result{}, errors.E(errors.Invalid, "hints: transcript alignment", err)
		}
		g.add(id, r)
	}

	var res Result
	introns := newCounter()
	for _, a := range g.order {
		rec := interval.NewRecord(a.id, a.chrom, a.strand, a.blocks)
		gaps, err := rec.Introns()
		if err != nil {
			return Result{}, errors.E(errors.Invalid, "hints: alignment "+a.id, err)
		}
		for _, iv := range rec.Ordered() {
			res.Matches = append(res.Matches, gtf.Record{
				Chrom:      rec.Chrom,
				Source:     transcriptProgram,
				Feature:    string(CDNAMatch),
				Start:      iv.Start,
				End:        iv.End,
				Score:      ".",
				Strand:     rec.Strand.String(),
				Frame:      ".",
				Attributes: "ID=" + rec.ID + ";",
			})
		}
		for _, iv := range gaps {
			introns.add(Hint{
				Chrom:    rec.Chrom,
				Program:  transcriptProgram,
				Tag:      SourceTranscript,
				Kind:     Intron,
				Start:    iv.Start,
				End:      iv.End,
				Strand:   rec.Strand,
				Priority: Priority,
			})
		}
	}
	res.Hints = introns.list()
	log.Printf("hints: %d transcript alignments, %d match blocks, %d distinct introns",
		len(g.order), len(res.Matches), len(res.Hints))
	return res, nil
}

// TranscriptFile reads PASA alignments from inPath and writes the intron hints
// to hintPath and the cDNA matches to matchPath.
func TranscriptFile(ctx context.Context, inPath, hintPath, matchPath string) error {
	recs, err := gtf.ReadFile(ctx, inPath)
	if err != nil {
		return errors.E("read", inPath, err)
	}
	res, err := FromTranscripts(recs)
	if err != nil {
		return errors.E(inPath, err)
	}
	return res.WriteFiles(ctx, hintPath, matchPath)
}
