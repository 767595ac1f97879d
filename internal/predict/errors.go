package predict

import (
	"errors"
	"fmt"
)

var (
	// ErrNoModel means the bundle has no classifier.
	ErrNoModel = errors.New("model is not loaded")
	// ErrNoFeatures means the bundle has an empty feature list.
	ErrNoFeatures = errors.New("feature list is empty")
	// ErrShape means the input row does not match the model's width.
	ErrShape = errors.New("input shape does not match the model")
	// ErrDecode means the model returned output that could not be read.
	ErrDecode = errors.New("model output could not be interpreted")
	// ErrLogWrite means the outcome is valid but could not be logged.
	ErrLogWrite = errors.New("prediction could not be saved")
)

// Error is a prediction failure suitable for showing to the user.
type Error struct {
	Op  string // model, features, predict, log
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("prediction %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
