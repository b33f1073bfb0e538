package partition

import (
	"context"
	"math/rand"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// TrainFraction is the share of segments set aside for training the
// combiners.
const TrainFraction = 0.1

// Sample splits segs into a training set of int(frac*len(segs)) segments
// drawn with the given seed, and a test set holding the rest. Both keep the
// listing order.
func Sample(segs []Segment, seed int64, frac float64) (train, test []Segment) {
	n := int(frac * float64(len(segs)))
	picked := make([]bool, len(segs))
	for _, i := range rand.New(rand.NewSource(seed)).Perm(len(segs))[:n] {
		picked[i] = true
	}
	for i, s := range segs {
		if picked[i] {
			train = append(train, s)
		} else {
			test = append(test, s)
		}
	}
	return train, test
}

// SampleOpts configures SampleListing.
type SampleOpts struct {
	// SeedFile, if nonempty, holds the seed to reuse. Otherwise a fresh seed
	// is drawn and written to <dir>/seed_value.out.
	SeedFile string
	// Frac defaults to TrainFraction.
	Frac float64
}

// SampleListing reads <dir>/part.lst and writes the split to
// <dir>/part_train.lst and <dir>/part_test.lst. It returns the seed used.
func SampleListing(ctx context.Context, dir string, opts SampleOpts) (int64, error) {
	seed, err := loadSeed(ctx, dir, opts.SeedFile)
	if err != nil {
		return 0, err
	}
	frac := opts.Frac
	if frac == 0 {
		frac = TrainFraction
	}
	segs, err := ReadListing(ctx, filepath.Join(dir, "part.lst"))
	if err != nil {
		return 0, err
	}
	train, test := Sample(segs, seed, frac)
	if err := WriteListing(ctx, filepath.Join(dir, "part_train.lst"), train); err != nil {
		return 0, err
	}
	if err := WriteListing(ctx, filepath.Join(dir, "part_test.lst"), test); err != nil {
		return 0, err
	}
	log.Printf("partition: seed %d, %d train and %d test segments", seed, len(train), len(test))
	return seed, nil
}

func loadSeed(ctx context.Context, dir, path string) (int64, error) {
	if path == "" {
		seed := rand.New(rand.NewSource(time.Now().UnixNano())).Int63()
		return seed, file.WriteFile(ctx, filepath.Join(dir, "seed_value.out"), []byte(strconv.FormatInt(seed, 10)))
	}
	data, err := file.ReadFile(ctx, path)
	if err != nil {
		return 0, errors.E(err, "seed")
	}
	seed, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, errors.E(errors.Invalid, "seed", path, err)
	}
	return seed, nil
}
