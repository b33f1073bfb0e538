package interval

import (
	"fmt"
	"strconv"
	"strings"
)

// Region is a window on one chromosome.
type Region struct {
	Chrom string
	Interval
}

// String encodes the region the way EVidenceModeler names partition
// directories: "<chrom>_<start>-<end>".
func (r Region) String() string {
	return fmt.Sprintf("%s_%d-%d", r.Chrom, r.Start, r.End)
}

// ParseRegion parses a region string of the form
//   [contig ID]_[1-based first pos]-[last pos]
// The contig ID may itself contain underscores; the last underscore separates
// it from the range.
func ParseRegion(s string) (Region, error) {
	var r Region
	sep := strings.LastIndexByte(s, '_')
	if sep <= 0 {
		return r, fmt.Errorf("interval.ParseRegion: %q has no contig ID", s)
	}
	r.Chrom = s[:sep]
	rangeStr := s[sep+1:]
	dash := strings.IndexByte(rangeStr, '-')
	if dash == -1 {
		return r, fmt.Errorf("interval.ParseRegion: %q has no range", s)
	}
	start, err := strconv.Atoi(rangeStr[:dash])
	if err != nil {
		return r, fmt.Errorf("interval.ParseRegion: %q: %v", s, err)
	}
	end, err := strconv.Atoi(rangeStr[dash+1:])
	if err != nil {
		return r, fmt.Errorf("interval.ParseRegion: %q: %v", s, err)
	}
	if start <= 0 {
		return r, fmt.Errorf("interval.ParseRegion: position %d in %q out of range", start, s)
	}
	if r.Interval, err = New(start, end); err != nil {
		return r, err
	}
	return r, nil
}

// Shift renumbers pos relative to the region, so that r.Start becomes 1.
func (r Region) Shift(pos int) int { return pos - r.Start + 1 }
