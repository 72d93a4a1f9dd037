// Package classifier adapts the trained species model for the rest of
// the gateway. The model itself is an opaque artifact served by an
// inference process; this package owns the preprocessing pipeline and
// the wire contract against it.
package classifier

import (
	"context"
	"errors"
	"fmt"
)

// Prediction is the outcome of classifying one image. Confidence is
// Distribution[Label]; Distribution covers the closed label set the
// model was built with and sums to 1 within floating-point tolerance.
type Prediction struct {
	Label        string
	Confidence   float64
	Distribution map[string]float64
}

// Classifier is stateless and safe for concurrent use. The process
// constructs one instance at startup and shares it.
type Classifier interface {
	Classify(ctx context.Context, image []byte) (Prediction, error)
}

// ClassificationError marks a request as unservable: the image could
// not be decoded or the model is unavailable. There is no safe default
// species, so callers fail the request instead of falling back.
type ClassificationError struct {
	Reason string
	Err    error
}

func (e *ClassificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classification failed: %s: %v", e.Reason, e.Err)
	}
	return "classification failed: " + e.Reason
}

func (e *ClassificationError) Unwrap() error { return e.Err }

func NewClassificationError(reason string, err error) error {
	return &ClassificationError{Reason: reason, Err: err}
}

// IsClassificationError reports whether err is (or wraps) a
// ClassificationError.
func IsClassificationError(err error) bool {
	var ce *ClassificationError
	return errors.As(err, &ce)
}
