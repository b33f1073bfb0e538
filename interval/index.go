package interval

import (
	"fmt"
	"sort"

	bstore "github.com/biogo/store/interval"
)

// Item is one entry of an Index.
type Item struct {
	Chrom string
	Interval
}

// node adapts an Item to biogo's half-open integer interval tree. Closed
// [start, end] becomes [start, end+1).
type node struct {
	iv  Interval
	idx int
}

func (n node) Overlap(b bstore.IntRange) bool { return n.iv.End+1 > b.Start && n.iv.Start < b.End }
func (n node) ID() uintptr                   { return uintptr(n.idx) }
func (n node) Range() bstore.IntRange        { return bstore.IntRange{Start: n.iv.Start, End: n.iv.End + 1} }

type query Interval

func (q query) Overlap(b bstore.IntRange) bool { return b.End > q.Start && b.Start < q.End+1 }

// Index answers window queries over a fixed set of items. It is immutable once
// built and safe for concurrent queries.
type Index struct {
	trees map[string]*bstore.IntTree
}

// NewIndex builds an index over items. The values returned by queries are
// positions in items.
func NewIndex(items []Item) (*Index, error) {
	x := &Index{trees: make(map[string]*bstore.IntTree)}
	for i, it := range items {
		if it.Start > it.End {
			return nil, fmt.Errorf("interval.NewIndex: item %d on %s has start %d after end %d", i, it.Chrom, it.Start, it.End)
		}
		t, ok := x.trees[it.Chrom]
		if !ok {
			t = &bstore.IntTree{}
			x.trees[it.Chrom] = t
		}
		if err := t.Insert(node{iv: it.Interval, idx: i}, true); err != nil {
			return nil, fmt.Errorf("interval.NewIndex: item %d: %v", i, err)
		}
	}
	for _, t := range x.trees {
		t.AdjustRanges()
	}
	return x, nil
}

// Contained returns, in ascending order, the positions of all items on chrom
// that lie entirely inside win.
func (x *Index) Contained(chrom string, win Interval) []int {
	t, ok := x.trees[chrom]
	if !ok {
		return nil
	}
	var hits []int
	t.DoMatching(func(e bstore.IntInterface) (done bool) {
		n := e.(node)
		if win.Contains(n.iv) {
			hits = append(hits, n.idx)
		}
		return
	}, query(win))
	sort.Ints(hits)
	return hits
}
