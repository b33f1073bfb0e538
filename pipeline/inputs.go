package pipeline

import (
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// CheckInputs returns an errors.NotExist error naming the first of paths
// that does not exist.
func CheckInputs(ctx context.Context, paths ...string) error {
	for _, path := range paths {
		if _, err := file.Stat(ctx, path); err != nil {
			return errors.E(errors.NotExist, "missing input", path, err)
		}
	}
	return nil
}
