package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/Prabal729/disease-2/internal/logging"
	"github.com/Prabal729/disease-2/internal/memo"
)

// Resolver searches candidate paths for each artifact slot.
type Resolver struct {
	Candidates Candidates
	Loaders    map[string]ModelLoader
	log        *slog.Logger
}

// NewResolver creates a Resolver. A nil loaders map uses DefaultModelLoaders("").
func NewResolver(c Candidates, loaders map[string]ModelLoader) *Resolver {
	if loaders == nil {
		loaders = DefaultModelLoaders("")
	}
	return &Resolver{Candidates: c, Loaders: loaders, log: logging.New("artifact")}
}

// Resolve loads the three artifacts independently. A slot whose candidates
// are all absent or undecodable is left empty; resolution never fails as a
// whole and performs no writes.
func (r *Resolver) Resolve() *Bundle {
	b := &Bundle{Features: []string{}, Status: make(map[Slot]SlotStatus, 3)}

	var st SlotStatus
	b.Model, st = firstLoadable(r.Candidates.Model, func(p string) (Classifier, error) {
		l, err := loaderFor(r.Loaders, p)
		if err != nil {
			return nil, err
		}
		return l(p)
	})
	b.Status[SlotModel] = st
	r.report(SlotModel, st)

	var feats []string
	feats, st = firstLoadable(r.Candidates.Features, func(p string) ([]string, error) {
		return NewFeatureSource(p).Load()
	})
	if feats != nil {
		b.Features = feats
	}
	b.Status[SlotFeatures] = st
	r.report(SlotFeatures, st)

	b.Labels, st = firstLoadable(r.Candidates.Labels, LoadLabelEncoder)
	b.Status[SlotLabels] = st
	r.report(SlotLabels, st)

	return b
}

// firstLoadable returns the value decoded from the first candidate that
// exists and decodes. Candidates that exist but fail to decode are skipped;
// the last such failure is reported as Malformed when nothing loads.
func firstLoadable[T any](candidates []string, load func(string) (T, error)) (T, SlotStatus) {
	var zero T
	st := SlotStatus{Kind: Missing, Err: ErrMissing}
	for _, p := range candidates {
		info, err := os.Stat(p)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				st = SlotStatus{Kind: Malformed, Path: p, Err: malformed(p, err)}
			}
			continue
		}
		if info.IsDir() {
			continue
		}
		v, err := load(p)
		if err != nil {
			st = SlotStatus{Kind: Malformed, Path: p, Err: malformed(p, err)}
			continue
		}
		return v, SlotStatus{Kind: Loaded, Path: p}
	}
	return zero, st
}

func (r *Resolver) report(slot Slot, st SlotStatus) {
	switch st.Kind {
	case Loaded:
		r.log.Info("artifact loaded", "slot", slot, "path", st.Path)
	case Malformed:
		r.log.Warn("artifact unreadable", "slot", slot, "path", st.Path, "error", st.Err)
	default:
		r.log.Warn("artifact not found", "slot", slot)
	}
}

// Cache memoizes Resolve per candidate set for the life of the process.
type Cache struct {
	resolver *Resolver
	memo     memo.Cache[*Bundle]
}

// NewCache wraps r in a process-wide cache.
func NewCache(r *Resolver) *Cache {
	c := &Cache{resolver: r}
	c.memo.OnEvict = c.retire
	return c
}

// Get returns the resolved bundle, resolving at most once until Invalidate.
func (c *Cache) Get() *Bundle {
	b, err := c.memo.Get(c.resolver.Candidates.key(), func() (*Bundle, error) {
		return c.resolver.Resolve(), nil
	})
	if err != nil {
		// Resolve never fails; keep callers total anyway.
		return &Bundle{Features: []string{}, Status: map[Slot]SlotStatus{}}
	}
	return b
}

// Peek returns the cached bundle, or nil when nothing has been resolved.
func (c *Cache) Peek() *Bundle {
	b, _ := c.memo.Peek(c.resolver.Candidates.key())
	return b
}

// Acquire returns the current bundle with its model pinned. The model stays
// open until release is called, even across Invalidate. release is safe to
// call more than once.
func (c *Cache) Acquire() (b *Bundle, release func()) {
	for {
		b = c.Get()
		if b.pin() {
			var once sync.Once
			return b, func() {
				once.Do(func() {
					if err := b.unpin(); err != nil {
						c.resolver.log.Warn("closing retired model", "error", err)
					}
				})
			}
		}
		// Closed by a concurrent Invalidate; the next Get resolves afresh.
	}
}

// Invalidate drops the cached bundle so the next Get re-reads disk. The old
// bundle's model is closed once no Acquire holds it; bundles from Get keep
// their features and labels but must not run the model afterwards.
func (c *Cache) Invalidate() {
	c.memo.Invalidate()
}

// Close retires the current bundle. Its model closes when the last
// in-flight Acquire is released.
func (c *Cache) Close() {
	c.memo.Invalidate()
}

func (c *Cache) retire(b *Bundle) {
	if err := b.retire(); err != nil {
		c.resolver.log.Warn("closing retired model", "error", err)
	}
}

// Describe renders slot statuses for diagnostics.
func (b *Bundle) Describe() string {
	s := ""
	for _, slot := range []Slot{SlotModel, SlotFeatures, SlotLabels} {
		st := b.Status[slot]
		s += fmt.Sprintf("%-14s %-9s %s\n", slot, st.Kind, st.Path)
	}
	return s
}
