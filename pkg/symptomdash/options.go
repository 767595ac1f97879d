package symptomdash

import "path/filepath"

type options struct {
	root          string
	dataDir       string
	predictionLog string
	logSet        bool
	ortLib        string
	legacyRoots   []string
	model         string
	features      string
	labels        string
}

// Option configures a Dashboard.
type Option func(*options)

// WithRoot sets the project directory searched for models/ and data/.
// Default: the current directory.
func WithRoot(dir string) Option {
	return func(o *options) {
		o.root = dir
	}
}

// WithDataDir sets the directory holding X_train.csv, y_train.csv,
// X_valid.csv and y_valid.csv. Default: <root>/data/processed.
func WithDataDir(dir string) Option {
	return func(o *options) {
		o.dataDir = dir
	}
}

// WithPredictionLog sets the CSV file predictions are appended to.
// Default: <root>/predictions.csv. An empty path disables the log.
func WithPredictionLog(path string) Option {
	return func(o *options) {
		o.predictionLog = path
		o.logSet = true
	}
}

// WithLegacyRoots adds extra directories searched after root and the working
// directory.
func WithLegacyRoots(dirs ...string) Option {
	return func(o *options) {
		o.legacyRoots = append(o.legacyRoots, dirs...)
	}
}

// WithArtifactPaths pins explicit paths for the model, feature list and label
// encoder. Empty arguments keep the default search for that slot.
func WithArtifactPaths(model, features, labels string) Option {
	return func(o *options) {
		o.model = model
		o.features = features
		o.labels = labels
	}
}

// WithORTLibrary sets the onnxruntime shared library used for .onnx models.
func WithORTLibrary(path string) Option {
	return func(o *options) {
		o.ortLib = path
	}
}

func defaultOptions() options {
	return options{root: "."}
}

// resolvePaths fills the directory defaults that depend on root.
func resolvePaths(o options) (dataDir, predictionLog string) {
	dataDir = o.dataDir
	if dataDir == "" {
		dataDir = filepath.Join(o.root, "data", "processed")
	}
	predictionLog = o.predictionLog
	if !o.logSet {
		predictionLog = filepath.Join(o.root, "predictions.csv")
	}
	return dataDir, predictionLog
}

func single(path string) []string {
	if path == "" {
		return nil
	}
	return []string{path}
}
