package server

import (
	"bytes"
	"errors"
	"math"
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Prabal729/disease-2/internal/artifact"
	"github.com/Prabal729/disease-2/internal/dataset"
	"github.com/Prabal729/disease-2/internal/display"
	"github.com/Prabal729/disease-2/internal/model"
	"github.com/Prabal729/disease-2/internal/pipeline"
	"github.com/Prabal729/disease-2/internal/predict"
)

const noDataset = "No dataset available"

type slotJSON struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
	Error  string `json:"error,omitempty"`
}

func slots(b *artifact.Bundle) map[artifact.Slot]slotJSON {
	out := make(map[artifact.Slot]slotJSON, len(b.Status))
	for slot, st := range b.Status {
		j := slotJSON{Status: st.Kind.String(), Path: st.Path}
		if st.Err != nil {
			j.Error = st.Err.Error()
		}
		out[slot] = j
	}
	return out
}

func (s *Server) ready(c *gin.Context) {
	b := s.p.Bundle()
	status, code := "ok", http.StatusOK
	if !b.Ready() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "artifacts": slots(b)})
}

func (s *Server) overview(c *gin.Context) {
	b := s.p.Bundle()
	d := s.p.Dataset()
	resp := gin.H{
		"features":       len(b.Features),
		"disease_types":  b.NumClasses(),
		"model_loaded":   b.Model != nil,
		"dataset_loaded": !d.Empty(),
		"artifacts":      slots(b),
	}
	if !d.Empty() {
		resp["total_records"] = d.XAll.NumRows()
		resp["missing_percent"] = dataset.MissingPercent(d.XAll)
		resp["numeric_features"] = len(dataset.NumericColumns(d.XAll))
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) features(c *gin.Context) {
	all := s.p.Bundle().Features
	shown := predict.FilterFeatures(all, c.Query("q"))

	resp := gin.H{"total": len(all), "presets": predict.Presets()}
	if name := c.Query("preset"); name != "" && name != "None" {
		p, ok := predict.PresetByName(name)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown preset: " + name})
			return
		}
		resp["preset_matches"] = p.Match(all)
	}
	resp["features"] = shown
	resp["showing"] = len(shown)
	c.JSON(http.StatusOK, resp)
}

type predictRequest struct {
	Symptoms []string `json:"symptoms"`
}

type predictResponse struct {
	Outcome          model.Outcome `json:"outcome"`
	Level            predict.Level `json:"level"`
	Recommendations  []string      `json:"recommendations"`
	LiveRiskEstimate float64       `json:"live_risk_estimate"`
	Selected         []string      `json:"selected"`
	Warning          string        `json:"warning,omitempty"`
}

func (s *Server) predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	out, err := s.p.Predict(c.Request.Context(), req.Symptoms)
	var warning string
	switch {
	case err == nil:
	case errors.Is(err, predict.ErrLogWrite):
		warning = "Could not save prediction: " + err.Error()
	case errors.Is(err, pipeline.ErrUnknownSymptom):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, predict.ErrNoModel), errors.Is(err, predict.ErrNoFeatures):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Model or features are missing. Ensure artifacts exist in models/ and data/processed/ folders."})
		return
	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	features := s.p.Bundle().Features
	vec, _ := predict.BuildVector(features, req.Symptoms)
	selected := vec.Selected(features)
	level, recs := predict.Recommendations(out.ConfidencePercent)
	c.JSON(http.StatusOK, predictResponse{
		Outcome:          out,
		Level:            level,
		Recommendations:  recs,
		LiveRiskEstimate: predict.LiveRiskEstimate(len(selected), len(features)),
		Selected:         selected,
		Warning:          warning,
	})
}

func (s *Server) recent(c *gin.Context) {
	n := intQuery(c, "n", 5)
	recs, err := s.p.Recent(n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if recs == nil {
		recs = []model.PredictionRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"predictions": recs})
}

func (s *Server) reload(c *gin.Context) {
	s.p.Reload()
	c.JSON(http.StatusOK, gin.H{"status": "reloaded", "ready": s.p.Bundle().Ready()})
}

// loaded returns the combined feature table or writes a 404.
func (s *Server) loaded(c *gin.Context) (*dataset.Dataset, bool) {
	d := s.p.Dataset()
	if d.Empty() {
		c.JSON(http.StatusNotFound, gin.H{"error": noDataset})
		return nil, false
	}
	return d, true
}

func (s *Server) decoded(d *dataset.Dataset) *dataset.Column {
	return dataset.DecodeLabels(d.YAll(), s.p.Bundle().Labels)
}

// filtered applies the request's dataset query to t, writing a 400 on a bad
// query. Columns in always stay in a column selection.
func filtered(c *gin.Context, t *dataset.Table, maxRows int, always ...string) (*dataset.Table, bool) {
	q, err := datasetQuery(c)
	if err == nil {
		if len(q.Columns) > 0 {
			for _, name := range always {
				if !slices.Contains(q.Columns, name) {
					q.Columns = append(q.Columns, name)
				}
			}
		}
		q.MaxRows = maxRows
		t, err = q.Apply(t)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return t, true
}

func (s *Server) sample(c *gin.Context) {
	d, ok := s.loaded(c)
	if !ok {
		return
	}
	rows := intQuery(c, "rows", 10)
	t, ok := filtered(c, d.XAll, 0)
	if !ok {
		return
	}

	if c.DefaultQuery("format", "table") == "json" {
		recs := display.Sanitize(t.Head(rows)).Records()
		c.JSON(http.StatusOK, gin.H{"rows": recs, "total": t.NumRows()})
		return
	}

	var buf bytes.Buffer
	rendered, err := display.Display(&buf, t, "Dataset Sample", rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !rendered {
		c.Header("X-Display-Fallback", "records")
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

func (s *Server) labels(c *gin.Context) {
	d := s.p.Dataset()
	dist := dataset.LabelDistribution(s.decoded(d))
	if top := intQuery(c, "top", 20); top > 0 && top < len(dist) {
		dist = dist[:top]
	}
	if dist == nil {
		dist = []dataset.Count{}
	}
	c.JSON(http.StatusOK, gin.H{"labels": dist})
}

func (s *Server) symptoms(c *gin.Context) {
	d, ok := s.loaded(c)
	if !ok {
		return
	}
	top := intQuery(c, "top", 20)

	if disease := c.Query("disease"); disease != "" {
		threshold, err := strconv.ParseFloat(c.DefaultQuery("threshold", "0.3"), 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a number"})
			return
		}
		freq, err := dataset.DiseaseSymptoms(d.XAll, s.decoded(d), disease, threshold)
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"disease": disease, "threshold": threshold, "symptoms": finite(freq)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"symptoms": finite(dataset.SymptomFrequency(d.XAll, top))})
}

// finite drops entries JSON cannot encode.
func finite(freq []dataset.Frequency) []dataset.Frequency {
	out := make([]dataset.Frequency, 0, len(freq))
	for _, f := range freq {
		if !math.IsNaN(f.Value) && !math.IsInf(f.Value, 0) {
			out = append(out, f)
		}
	}
	return out
}

func attachment(c *gin.Context, name string) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
}

func (s *Server) exportSummary(c *gin.Context) {
	d := s.p.Dataset()
	sum := dataset.Summarize(d.XAll, d.YAll(), s.decoded(d), len(s.p.Bundle().Features))
	attachment(c, "analytics_summary.json")
	c.IndentedJSON(http.StatusOK, sum)
}

// labelColumn is the decoded disease column appended to dataset exports.
const labelColumn = "disease"

func (s *Server) exportDataset(c *gin.Context) {
	d, ok := s.loaded(c)
	if !ok {
		return
	}
	t := d.XAll
	var always []string
	if labels := s.decoded(d); labels != nil && labels.Len() == t.NumRows() && t.Column(labelColumn) == nil {
		withLabels, err := t.WithColumn(&dataset.Column{Name: labelColumn, Kind: labels.Kind, Values: labels.Values})
		if err == nil {
			t, always = withLabels, []string{labelColumn}
		}
	}

	t, ok = filtered(c, t, intQuery(c, "rows", 0), always...)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := dataset.WriteCSV(&buf, t, nil); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	attachment(c, "analytics_dataset.csv")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) exportInfo(c *gin.Context) {
	d, ok := s.loaded(c)
	if !ok {
		return
	}
	attachment(c, "data_info.json")
	c.IndentedJSON(http.StatusOK, dataset.DescribeInfo(d.XAll))
}

func (s *Server) exportStatistics(c *gin.Context) {
	d, ok := s.loaded(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := dataset.WriteCSV(&buf, dataset.Describe(d.XAll), nil); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	attachment(c, "data_statistics.csv")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func intQuery(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
