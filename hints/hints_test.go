package hints

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LarsGab/TSEBRA-experiments/encoding/gtf"
	"github.com/LarsGab/TSEBRA-experiments/interval"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, text string) []gtf.Record {
	recs, err := gtf.Read(strings.NewReader(strings.Replace(text, "|", "\t", -1)), t.Name())
	assert.NoError(t, err)
	return recs
}

// Three assemblies support the intron 1001-1199; asmbl_3 also has an
// alignment gap of two bases that must be merged away.
const pasa = `chr1|PASA|cDNA_match|800|1000|.|+|.|ID=asmbl_1;Target=asmbl_1 1 201 +
chr1|PASA|cDNA_match|1200|1500|.|+|.|ID=asmbl_1;Target=asmbl_1 202 502 +
chr1|PASA|cDNA_match|1200|1400|.|+|.|ID=asmbl_2;Target=asmbl_2 1 201 +
chr1|PASA|cDNA_match|900|1000|.|+|.|ID=asmbl_2;Target=asmbl_2 202 302 +
chr1|PASA|cDNA_match|950|1000|.|+|.|ID=asmbl_3;Target=asmbl_3 1 51 +
chr1|PASA|cDNA_match|1200|1300|.|+|.|ID=asmbl_3;Target=asmbl_3 52 152 +
chr1|PASA|cDNA_match|1302|1350|.|+|.|ID=asmbl_3;Target=asmbl_3 153 201 +
chr1|PASA|cDNA_match|5000|5100|.|-|.|ID=asmbl_4;Target=asmbl_4 1 101 +
chr1|PASA|cDNA_match|5300|5400|.|-|.|ID=asmbl_4;Target=asmbl_4 102 202 +
chr1|PASA|cDNA_match|7000|7100|.|+|.|ID=asmbl_5;Target=asmbl_5 1 101 +
`

func TestFromTranscripts(t *testing.T) {
	res, err := FromTranscripts(parse(t, pasa))
	assert.NoError(t, err)

	assert.EQ(t, len(res.Hints), 2)
	expect.EQ(t, res.Hints[0], Hint{
		Chrom: "chr1", Program: "PASA", Tag: "E", Kind: Intron,
		Start: 1001, End: 1199, Strand: interval.Forward,
		Multiplicity: 3, Priority: 4,
	})
	expect.EQ(t, res.Hints[1].Start, 5101)
	expect.EQ(t, res.Hints[1].End, 5299)
	expect.EQ(t, res.Hints[1].Strand, interval.Reverse)
	expect.EQ(t, res.Hints[1].Multiplicity, 1)
	expect.EQ(t, res.Hints[0].Record().Attributes, "src=E;mult=3;pri=4")

	var asmbl3, asmbl4 []string
	for _, m := range res.Matches {
		switch m.Attributes {
		case "ID=asmbl_3;":
			asmbl3 = append(asmbl3, m.Interval().String())
		case "ID=asmbl_4;":
			asmbl4 = append(asmbl4, m.Interval().String())
		}
		expect.EQ(t, m.Feature, "cDNA_match")
	}
	expect.EQ(t, asmbl3, []string{"950-1000", "1200-1350"})
	// Minus-strand blocks are reported last exon first.
	expect.EQ(t, asmbl4, []string{"5300-5400", "5000-5100"})
	// The single-block assembly still contributes its match.
	expect.EQ(t, len(res.Matches), 2+2+2+2+1)
}

func TestFromTranscriptsMissingID(t *testing.T) {
	_, err := FromTranscripts(parse(t, "chr1|PASA|cDNA_match|800|1000|.|+|.|Target=asmbl_1 1 201 +\n"))
	require.Error(t, err)
	expect.True(t, errors.Is(errors.Invalid, err))
}

const spaln = `chr2|ALN|cds|100|200|.|+|0|prot=P1;seed_gene_id=g1;topProt=TRUE
chr2|ALN|cds|300|400|.|+|2|prot=P1;seed_gene_id=g1;topProt=TRUE
chr2|ALN|Intron|201|299|.|+|.|prot=P1;seed_gene_id=g1;topProt=TRUE
chr2|ALN|cds|100|200|.|+|0|prot=P1;seed_gene_id=g9;topProt=TRUE
chr2|ALN|cds|202|300|.|+|0|prot=P1;seed_gene_id=g9;topProt=TRUE
chr2|ALN|Intron|201|299|.|+|.|prot=P2;seed_gene_id=g2;topProt=TRUE
chr2|ALN|Intron|201|299|.|+|.|prot=P3;seed_gene_id=g3;topProt=TRUE
chr2|ALN|start_codon|100|102|.|+|0|prot=P1;seed_gene_id=g1;topProt=TRUE
chr2|ALN|stop_codon|398|400|.|+|0|prot=P1;seed_gene_id=g1;topProt=TRUE
chr2|ALN|CDS|900|1000|.|-|0|prot=P4;seed_gene_id=g4;topProt=TRUE
chr2|ALN|CDS|600|700|.|-|0|prot=P4;seed_gene_id=g4;topProt=TRUE
chr2|ALN|CDS|2000|2100|.|+|0|prot=P5;seed_gene_id=g5;topProt=FALSE
chr2|ALN|CDS|2500|2600|.|+|0|prot=P5;seed_gene_id=g5;topProt=FALSE
`

func TestFromProteins(t *testing.T) {
	top := TopProteins(parse(t, spaln))
	assert.EQ(t, len(top), 11)

	res, err := FromProteins(top)
	assert.NoError(t, err)

	var got []string
	for _, m := range res.Matches {
		expect.EQ(t, m.Feature, "protein_match")
		got = append(got, m.Attributes+m.Interval().String())
	}
	// P1.g9 merges into one block (gap of 2) and is dropped.
	expect.EQ(t, got, []string{
		"ID=P1.g1;100-200",
		"ID=P1.g1;300-400",
		"ID=P4.g4;900-1000",
		"ID=P4.g4;600-700",
	})
	expect.EQ(t, res.Matches[1].Frame, "2")

	assert.EQ(t, len(res.Hints), 3)
	expect.EQ(t, res.Hints[0].Kind, Intron)
	expect.EQ(t, res.Hints[0].Multiplicity, 3)
	expect.EQ(t, res.Hints[0].Record().Attributes, "mult=3;src=P;pri=4")
	expect.EQ(t, res.Hints[1].Kind, Start)
	expect.EQ(t, res.Hints[2].Kind, Stop)
	expect.EQ(t, res.Hints[2].Multiplicity, 1)
}

func TestFromProteinsSingleBlockExcluded(t *testing.T) {
	res, err := FromProteins(parse(t, `chr2|ALN|CDS|100|200|.|+|0|prot=P1;seed_gene_id=g1
chr2|ALN|CDS|201|300|.|+|0|prot=P1;seed_gene_id=g1
chr2|ALN|CDS|500|600|.|+|0|prot=P2;seed_gene_id=g2
`))
	assert.NoError(t, err)
	expect.EQ(t, len(res.Matches), 0)
	expect.EQ(t, len(res.Hints), 0)
}

func TestFromProteinsMissingSeed(t *testing.T) {
	_, err := FromProteins(parse(t, "chr2|ALN|CDS|100|200|.|+|0|prot=P1\n"))
	require.Error(t, err)
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestFiles(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()

	in := filepath.Join(tempDir, "topProteins.gff")
	assert.NoError(t, gtf.WriteFile(ctx, in, parse(t, spaln)))
	hintPath := filepath.Join(tempDir, "braker_protein.gff")
	matchPath := filepath.Join(tempDir, "evm_protein.gff")
	assert.NoError(t, ProteinFile(ctx, in, hintPath, matchPath))

	hs, err := gtf.ReadFile(ctx, hintPath)
	assert.NoError(t, err)
	expect.EQ(t, len(hs), 3)
	ms, err := gtf.ReadFile(ctx, matchPath)
	assert.NoError(t, err)
	expect.EQ(t, len(ms), 4)

	in = filepath.Join(tempDir, "pasa.gff3")
	assert.NoError(t, gtf.WriteFile(ctx, in, parse(t, pasa)))
	hintPath = filepath.Join(tempDir, "braker_pasa.gff")
	matchPath = filepath.Join(tempDir, "evm_pasa.gff")
	assert.NoError(t, TranscriptFile(ctx, in, hintPath, matchPath))
	hs, err = gtf.ReadFile(ctx, hintPath)
	assert.NoError(t, err)
	expect.EQ(t, hs[0].Attributes, "src=E;mult=3;pri=4")

	err = TranscriptFile(ctx, filepath.Join(tempDir, "missing.gff3"), hintPath, matchPath)
	require.Error(t, err)
}
