package pipeline

import (
	"bytes"
	"context"
	"path/filepath"

	"github.com/LarsGab/TSEBRA-experiments/encoding/gtf"
	"github.com/LarsGab/TSEBRA-experiments/external"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// prefixIDs keeps the CDS and exon records of a BRAKER gene set and prefixes
// their transcript and gene ids with "<prefix>.".
func prefixIDs(recs []gtf.Record, prefix string) ([]gtf.Record, error) {
	var out []gtf.Record
	for _, r := range recs {
		if r.Feature != "CDS" && r.Feature != "exon" {
			continue
		}
		tx, err := r.MustAttr("transcript_id")
		if err != nil {
			return nil, errors.E(errors.Invalid, prefix, err)
		}
		g, err := r.MustAttr("gene_id")
		if err != nil {
			return nil, errors.E(errors.Invalid, prefix, err)
		}
		r.Attributes = `transcript_id "` + prefix + "." + tx + `"; gene_id "` + prefix + "." + g + `";`
		out = append(out, r)
	}
	return out, nil
}

// BuildGeneSet combines two BRAKER gene sets into one EVM gene prediction
// file at out. Each set gets distinct ids and source column (braker1,
// braker2) and is converted to GFF3 by augustus_GTF_to_EVM_GFF3.pl. The
// converted GTF inputs are left next to out as braker1.gtf and braker2.gtf.
func BuildGeneSet(ctx context.Context, tools external.Tools, braker1, braker2, out string) error {
	script, err := tools.EVM(ctx, external.AugustusToGFF3)
	if err != nil {
		return err
	}
	var all []gtf.Record
	for _, in := range []struct{ prefix, path string }{{"braker1", braker1}, {"braker2", braker2}} {
		recs, err := gtf.ReadFile(ctx, in.path)
		if err != nil {
			return errors.E("read", in.path, err)
		}
		if recs, err = prefixIDs(recs, in.prefix); err != nil {
			return errors.E(in.path, err)
		}
		tmp := filepath.Join(filepath.Dir(out), in.prefix+".gtf")
		if err := gtf.WriteFile(ctx, tmp, recs); err != nil {
			return err
		}
		stdout, err := external.Run(ctx, external.Cmd{Path: script, Args: []string{tmp}})
		if err != nil {
			return err
		}
		conv, err := gtf.Read(bytes.NewReader(stdout), script)
		if err != nil {
			return errors.E(errors.Invalid, script, err)
		}
		for i := range conv {
			conv[i].Source = in.prefix
		}
		log.Printf("pipeline: %s: %d records in, %d EVM records out", in.path, len(recs), len(conv))
		all = append(all, conv...)
	}
	return gtf.WriteFile(ctx, out, all)
}
