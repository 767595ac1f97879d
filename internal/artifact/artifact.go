// Package artifact locates and decodes the offline-trained artifacts the
// dashboard depends on: the classifier, the ordered feature list and the
// label encoder. Each is searched across an ordered list of candidate paths
// and degrades independently when absent or unreadable.
package artifact

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrMissing reports that no candidate path exists for a slot.
	ErrMissing = errors.New("artifact: not found")
	// ErrMalformed reports that a candidate exists but could not be decoded.
	ErrMalformed = errors.New("artifact: malformed")
	// ErrShape reports an input row whose width differs from the model's.
	ErrShape = errors.New("artifact: input shape mismatch")
	// ErrUnseenLabel reports a class id the label encoder does not know.
	ErrUnseenLabel = errors.New("artifact: unseen label")
)

// Slot names one of the three artifacts.
type Slot string

const (
	SlotModel    Slot = "model"
	SlotFeatures Slot = "features"
	SlotLabels   Slot = "label_encoder"
)

// Kind is the load state of a slot.
type Kind int

const (
	Missing Kind = iota
	Loaded
	Malformed
)

func (k Kind) String() string {
	switch k {
	case Loaded:
		return "loaded"
	case Malformed:
		return "malformed"
	default:
		return "missing"
	}
}

// SlotStatus records how a slot was resolved.
type SlotStatus struct {
	Kind Kind
	Path string // winning candidate, or the last malformed one
	Err  error  // nil when Loaded
}

// Bundle is the resolved artifact triple. Model and Labels are nil when
// absent; Features is empty (never nil) when absent.
type Bundle struct {
	Model    Classifier
	Features []string
	Labels   *LabelEncoder
	Status   map[Slot]SlotStatus

	mu      sync.Mutex
	pins    int
	retired bool
	closed  bool
}

// Ready reports whether the bundle can serve predictions.
func (b *Bundle) Ready() bool {
	return b != nil && b.Model != nil && len(b.Features) > 0
}

// NumClasses returns the label encoder's class count, or 0 without one.
func (b *Bundle) NumClasses() int {
	if b == nil || b.Labels == nil {
		return 0
	}
	return len(b.Labels.Classes())
}

// Close releases model resources immediately. Closing twice is a no-op.
func (b *Bundle) Close() error {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeLocked()
}

// pin marks the model in use. It fails once the model has been closed.
func (b *Bundle) pin() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.pins++
	return true
}

// unpin closes a retired bundle when its last user is done.
func (b *Bundle) unpin() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pins--
	if b.pins == 0 && b.retired {
		return b.closeLocked()
	}
	return nil
}

// retire closes the model now if nobody holds it, else on the last unpin.
func (b *Bundle) retire() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.retired = true
	if b.pins == 0 {
		return b.closeLocked()
	}
	return nil
}

func (b *Bundle) closeLocked() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.Model == nil {
		return nil
	}
	return b.Model.Close()
}

func malformed(path string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
}
