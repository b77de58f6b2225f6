package common

import (
	"errors"
	"fmt"
)

// Errors raised at the boundary between retrieval and rendering.
// None of them are fatal to the process.
var (
	// ErrRetrievalAborted means a pending retrieval was superseded or cancelled
	ErrRetrievalAborted = errors.New("retrieval aborted")

	// ErrRetrievalFailed means the data source answered with a non-success response
	ErrRetrievalFailed = errors.New("retrieval failed")

	// ErrDegenerateDataset means fewer than two bars survived validation
	ErrDegenerateDataset = errors.New("degenerate dataset: at least 2 bars are required")

	// ErrUnsortedBars means bar dates are not strictly increasing
	ErrUnsortedBars = errors.New("bars must be sorted by strictly increasing date")

	// ErrNearestLookupOutOfRange is logged when a pointer inverts outside the data domain
	ErrNearestLookupOutOfRange = errors.New("nearest lookup out of range")
)

// ProviderWarningError carries a message the data source returned in place of data
type ProviderWarningError struct {
	Message string
}

func (e *ProviderWarningError) Error() string {
	return fmt.Sprintf("provider warning: %s", e.Message)
}

// WarningMessage returns the provider message when err is a provider warning
// or a degenerate dataset, which callers present the same way.
func WarningMessage(err error) (string, bool) {
	var pw *ProviderWarningError
	if errors.As(err, &pw) {
		return pw.Message, true
	}
	if errors.Is(err, ErrDegenerateDataset) {
		return "Not enough data to draw a chart", true
	}
	return "", false
}
