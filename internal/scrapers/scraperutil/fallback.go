package scraperutil

import (
	"context"
	"errors"
	"fmt"
)

// FirstValid tries each candidate in order and returns the first result that both fetches and
// validates, along with the candidate that produced it. Candidates after the winner are never
// contacted. If every candidate fails the errors of all attempts are joined.
func FirstValid[T any](
	ctx context.Context,
	candidates []string,
	fetch func(ctx context.Context, candidate string) (T, error),
	validate func(T) error,
) (T, string, error) {
	var zero T
	var errList []error

	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			errList = append(errList, err)
			break
		}

		result, err := fetch(ctx, candidate)
		if err != nil {
			errList = append(errList, fmt.Errorf("%s: %w", candidate, err))
			continue
		}
		if validate != nil {
			err = validate(result)
			if err != nil {
				errList = append(errList, fmt.Errorf("%s: invalid: %w", candidate, err))
				continue
			}
		}
		return result, candidate, nil
	}

	if len(errList) == 0 {
		return zero, "", errors.New("no candidates")
	}
	return zero, "", errors.Join(errList...)
}
