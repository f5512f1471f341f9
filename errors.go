package parley

import (
	"errors"

	"github.com/parleyhq/parley-go/internal/apierror"
)

// APIError is returned for any non-2xx response from the Parley API.
type APIError = apierror.Error

var (
	ErrMissingUUIDParameter     = errors.New("missing required uuid parameter")
	ErrMissingTitleParameter    = errors.New("missing required title parameter")
	ErrMissingPeriodicParameter = errors.New("missing required periodic parameter")
)
