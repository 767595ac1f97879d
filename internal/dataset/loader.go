package dataset

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/Prabal729/disease-2/internal/logging"
	"github.com/Prabal729/disease-2/internal/memo"
)

// File names read from the data directory.
const (
	XTrainFile = "X_train.csv"
	YTrainFile = "y_train.csv"
	XValidFile = "X_valid.csv"
	YValidFile = "y_valid.csv"
)

// Dataset is the loaded training and validation data. Any field may be nil
// when its file is absent or unreadable. Consumers treat it as read-only.
type Dataset struct {
	XTrain *Table
	YTrain *Column
	XValid *Table
	YValid *Column
	XAll   *Table
}

// Empty reports whether no feature table was loaded.
func (d *Dataset) Empty() bool { return d == nil || d.XAll == nil }

// YAll concatenates the label series the same way XAll is built.
func (d *Dataset) YAll() *Column {
	return ConcatLabels(d.YTrain, d.YValid)
}

// Loader reads the four dataset CSVs from a filesystem rooted at the data
// directory.
type Loader struct {
	FS  fs.FS
	log *slog.Logger
}

// NewLoader creates a Loader over fsys.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{FS: fsys, log: logging.New("dataset")}
}

// Load reads every file and projects the feature tables onto expected when
// expected is non-empty. It never fails: absent or broken files leave their
// slot nil.
func (l *Loader) Load(expected []string) *Dataset {
	d := &Dataset{
		XTrain: l.table(XTrainFile),
		XValid: l.table(XValidFile),
		YTrain: l.labels(YTrainFile),
		YValid: l.labels(YValidFile),
	}
	if len(expected) > 0 {
		if d.XTrain != nil {
			d.XTrain = d.XTrain.Select(expected)
		}
		if d.XValid != nil {
			d.XValid = d.XValid.Select(expected)
		}
	}

	switch {
	case d.XTrain != nil && d.XValid != nil:
		d.XAll = Concat(d.XTrain, d.XValid)
		if len(expected) > 0 {
			d.XAll = d.XAll.Select(expected)
		}
	case d.XTrain != nil:
		d.XAll = d.XTrain
	case d.XValid != nil:
		d.XAll = d.XValid
	}
	return d
}

func (l *Loader) table(name string) *Table {
	f, err := l.FS.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.log.Warn("dataset file not found", "path", name)
		} else {
			l.log.Warn("dataset file unreadable", "path", name, "error", err)
		}
		return nil
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		l.log.Warn("dataset file malformed", "path", name, "error", err)
		return nil
	}
	l.log.Debug("dataset file loaded", "path", name, "rows", t.NumRows(), "cols", t.NumCols())
	return t
}

// labels keeps only the first column of a label file.
func (l *Loader) labels(name string) *Column {
	t := l.table(name)
	if t == nil {
		return nil
	}
	if t.NumCols() == 0 {
		l.log.Warn("label file has no columns", "path", name)
		return nil
	}
	return t.Columns[0]
}

// Cache memoizes Load by the expected feature list.
type Cache struct {
	loader *Loader
	memo   memo.Cache[*Dataset]
}

// NewCache wraps l in a cache.
func NewCache(l *Loader) *Cache {
	return &Cache{loader: l}
}

// Load returns the dataset for expected, reading disk at most once per
// distinct list until Invalidate.
func (c *Cache) Load(expected []string) *Dataset {
	d, err := c.memo.Get(featureKey(expected), func() (*Dataset, error) {
		return c.loader.Load(expected), nil
	})
	if err != nil {
		return &Dataset{}
	}
	return d
}

// Invalidate forces the next Load to re-read disk.
func (c *Cache) Invalidate() { c.memo.Invalidate() }

func featureKey(expected []string) string {
	// Names may contain commas; length-prefix each one.
	var b strings.Builder
	for _, f := range expected {
		fmt.Fprintf(&b, "%d:%s;", len(f), f)
	}
	return b.String()
}
