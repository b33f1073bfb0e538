package gtf

import (
	"bufio"
	"context"
	"io"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/tsv"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Read parses every record of r. Lines starting with '#' are skipped; any
// other line must have exactly nine tab-separated columns and a valid 1-based
// range. name is only used in error messages.
func Read(r io.Reader, name string) ([]Record, error) {
	scanner := tsv.NewReader(bufio.NewReaderSize(r, 64<<10))
	scanner.Comment = '#'
	scanner.LazyQuotes = true
	var recs []Record
	for {
		var rec Record
		if err := scanner.Read(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrapf(err, "gtf: %s", name)
		}
		if rec.Start < 1 || rec.End < rec.Start {
			return nil, errors.Errorf("gtf: %s: record %d: invalid range %d-%d", name, len(recs)+1, rec.Start, rec.End)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// ReadFile reads all records of the file at path. Compressed files are
// decompressed based on their suffix.
func ReadFile(ctx context.Context, path string) (recs []Record, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, in, &err)
	var inr io.Reader = in.Reader(ctx)
	if u := compress.NewReaderPath(inr, in.Name()); u != nil {
		inr = u
	}
	return Read(inr, path)
}

// Write writes recs as tab-separated lines.
func Write(w io.Writer, recs []Record) error {
	out := tsv.NewWriter(w)
	for i := range recs {
		r := &recs[i]
		out.WriteString(r.Chrom)
		out.WriteString(r.Source)
		out.WriteString(r.Feature)
		out.WriteUint32(uint32(r.Start))
		out.WriteUint32(uint32(r.End))
		out.WriteString(r.Score)
		out.WriteString(r.Strand)
		out.WriteString(r.Frame)
		out.WriteString(r.Attributes)
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	return out.Flush()
}

// WriteFile creates (or truncates) path and writes recs to it. An empty recs
// produces an empty file. A path ending in .gz is gzip-compressed.
func WriteFile(ctx context.Context, path string, recs []Record) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	if fileio.DetermineType(path) != fileio.Gzip {
		return errors.Wrapf(Write(out.Writer(ctx), recs), "gtf: write %s", path)
	}
	gz := gzip.NewWriter(out.Writer(ctx))
	if err := Write(gz, recs); err != nil {
		gz.Close() // nolint: errcheck
		return errors.Wrapf(err, "gtf: write %s", path)
	}
	return errors.Wrapf(gz.Close(), "gtf: write %s", path)
}
