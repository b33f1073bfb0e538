package hints

import (
	"context"
	"strings"

	"github.com/LarsGab/TSEBRA-experiments/encoding/gtf"
	"github.com/LarsGab/TSEBRA-experiments/interval"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// signalKinds maps the feature column of protein alignment signals
// (lowercased) to the hint kind.
var signalKinds = map[string]Kind{
	"intron":      Intron,
	"start_codon": Start,
	"stop_codon":  Stop,
}

// TopProteins keeps only the alignments flagged as the best hit of their
// protein (topProt=TRUE).
func TopProteins(recs []gtf.Record) []gtf.Record {
	var out []gtf.Record
	for _, r := range recs {
		if strings.Contains(r.Attributes, "topProt=TRUE") {
			out = append(out, r)
		}
	}
	return out
}

// proteinID returns "<prot>.<seed_gene_id>", the identity of one protein
// alignment.
func proteinID(r gtf.Record) (string, error) {
	prot, err := r.MustAttr("prot")
	if err != nil {
		return "", err
	}
	seed, err := r.MustAttr("seed_gene_id")
	if err != nil {
		return "", err
	}
	return prot + "." + seed, nil
}

// FromProteins synthesizes evidence from protein alignments (Spaln GFF).
//
// CDS lines are grouped per protein alignment and gap-merged; alignments
// that collapse to a single block carry no splice evidence and are dropped.
// The remaining blocks become protein_match records. Intron, start_codon and
// stop_codon lines are counted per coordinate key and emitted once each.
func FromProteins(recs []gtf.Record) (Result, error) {
	var (
		order  []string
		byID   = make(map[string][]gtf.Record)
		others = newCounter()
	)
	for _, r := range recs {
		if r.Is("CDS") {
			id, err := proteinID(r)
			if err != nil {
				return Result{}, errors.E(errors.Invalid, "hints: protein alignment", err)
			}
			if _, ok := byID[id]; !ok {
				order = append(order, id)
			}
			byID[id] = append(byID[id], r)
			continue
		}
		kind, ok := signalKinds[strings.ToLower(r.Feature)]
		if !ok {
			continue
		}
		others.add(Hint{
			Chrom:    r.Chrom,
			Program:  r.Source,
			Tag:      SourceProtein,
			Kind:     kind,
			Start:    r.Start,
			End:      r.End,
			Strand:   r.StrandOf(),
			Score:    r.Score,
			Frame:    r.Frame,
			Priority: Priority,
		})
	}

	var res Result
	dropped := 0
	for _, id := range order {
		matches := mergeProtein(id, byID[id])
		if len(matches) < 2 {
			dropped++
			continue
		}
		res.Matches = append(res.Matches, matches...)
	}
	res.Hints = others.list()
	log.Printf("hints: %d protein alignments (%d single-block dropped), %d match blocks, %d distinct signals",
		len(order), dropped, len(res.Matches), len(res.Hints))
	return res, nil
}

// mergeProtein gap-merges the CDS lines of one alignment. Each merged block
// keeps the columns of the leftmost line it absorbed.
func mergeProtein(id string, lines []gtf.Record) []gtf.Record {
	blocks := make([]interval.Interval, len(lines))
	for i, l := range lines {
		blocks[i] = l.Interval()
	}
	first := lines[0]
	rec := interval.NewRecord(id, first.Chrom, first.StrandOf(), blocks)

	templates := make(map[int]gtf.Record, len(lines))
	for _, l := range lines {
		if t, ok := templates[l.Start]; !ok || l.End < t.End {
			templates[l.Start] = l
		}
	}
	out := make([]gtf.Record, 0, len(rec.Intervals()))
	for _, iv := range rec.Ordered() {
		m := templates[iv.Start]
		m.Feature = string(ProteinMatch)
		m.End = iv.End
		m.Attributes = "ID=" + id + ";"
		out = append(out, m)
	}
	return out
}

// ProteinFile reads protein alignments from inPath, keeps the top-protein
// alignments, and writes the signal hints to hintPath and the protein matches
// to matchPath.
func ProteinFile(ctx context.Context, inPath, hintPath, matchPath string) error {
	recs, err := gtf.ReadFile(ctx, inPath)
	if err != nil {
		return errors.E("read", inPath, err)
	}
	res, err := FromProteins(TopProteins(recs))
	if err != nil {
		return errors.E(inPath, err)
	}
	return res.WriteFiles(ctx, hintPath, matchPath)
}
