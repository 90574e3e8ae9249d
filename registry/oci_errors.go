package registry

import (
	"errors"
	"fmt"

	"github.com/meigma/jobcache/registry/oras"
)

// mapOCIError translates low-level ORAS errors to client-level sentinel errors.
func mapOCIError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidReference) {
		return err
	}
	if errors.Is(err, oras.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if errors.Is(err, oras.ErrInvalidReference) {
		return fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	return err
}
