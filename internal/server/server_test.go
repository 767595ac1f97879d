package server

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"

	"github.com/Prabal729/disease-2/internal/config"
	"github.com/Prabal729/disease-2/internal/dataset"
	"github.com/Prabal729/disease-2/internal/pipeline"
	"github.com/Prabal729/disease-2/internal/testdata"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func fixtureRouter(t *testing.T, mutate func(root string)) *gin.Engine {
	t.Helper()
	root := t.TempDir()
	if err := testdata.WriteProject(root); err != nil {
		t.Fatalf("WriteProject error: %v", err)
	}
	if mutate != nil {
		mutate(root)
	}
	p, err := pipeline.New(pipeline.Options{
		Cwd: root,
		Paths: config.PathsConfig{
			Root:          root,
			DataDir:       filepath.Join(root, "data", "processed"),
			PredictionLog: filepath.Join(root, "predictions.csv"),
		},
	})
	if err != nil {
		t.Fatalf("pipeline.New error: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return New(p).Router()
}

func do(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON %q: %v", w.Body.String(), err)
	}
}

func TestHealthAndRequestID(t *testing.T) {
	r := fixtureRouter(t, nil)
	w := do(t, r, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestReadyz(t *testing.T) {
	r := fixtureRouter(t, nil)
	if w := do(t, r, http.MethodGet, "/readyz", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200: %s", w.Code, w.Body)
	}

	r = fixtureRouter(t, func(root string) { os.Remove(filepath.Join(root, testdata.ModelFile)) })
	w := do(t, r, http.MethodGet, "/readyz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	var body struct {
		Status    string
		Artifacts map[string]struct{ Status string }
	}
	decode(t, w, &body)
	if body.Artifacts["model"].Status != "missing" || body.Artifacts["features"].Status != "loaded" {
		t.Errorf("artifacts = %+v", body.Artifacts)
	}
}

func TestOverview(t *testing.T) {
	w := do(t, fixtureRouter(t, nil), http.MethodGet, "/api/overview", "")
	var body map[string]any
	decode(t, w, &body)
	if body["total_records"] != 9.0 || body["features"] != 6.0 || body["disease_types"] != 3.0 {
		t.Errorf("overview = %v", body)
	}
}

func TestFeaturesSearchAndPreset(t *testing.T) {
	r := fixtureRouter(t, nil)
	var body struct {
		Features      []string `json:"features"`
		PresetMatches []string `json:"preset_matches"`
		Total         int      `json:"total"`
	}
	decode(t, do(t, r, http.MethodGet, "/api/features?q=BREATH&preset=Cardio%20Risk", ""), &body)
	if diff := cmp.Diff([]string{"shortness_of_breath"}, body.Features); diff != "" {
		t.Errorf("features mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"chest_pain"}, body.PresetMatches); diff != "" {
		t.Errorf("preset mismatch (-want +got):\n%s", diff)
	}
	if body.Total != 6 {
		t.Errorf("total = %d, want 6", body.Total)
	}

	if w := do(t, r, http.MethodGet, "/api/features?preset=Nope", ""); w.Code != http.StatusBadRequest {
		t.Errorf("unknown preset status = %d, want 400", w.Code)
	}
}

func TestPredictAndRecent(t *testing.T) {
	r := fixtureRouter(t, nil)
	w := do(t, r, http.MethodPost, "/api/predict", `{"symptoms":["chest_pain","fatigue"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	var resp predictResponse
	decode(t, w, &resp)
	if resp.Outcome.Disease != "Heart Disease" {
		t.Errorf("disease = %q, want Heart Disease", resp.Outcome.Disease)
	}
	if resp.Level != "High" || len(resp.Recommendations) != 4 {
		t.Errorf("level = %s, recs = %v", resp.Level, resp.Recommendations)
	}
	if got := resp.LiveRiskEstimate; got < 33.3 || got > 33.4 {
		t.Errorf("live risk = %v, want 2/6", got)
	}

	var recent struct {
		Predictions []struct {
			PredictedDisease string `json:"predicted_disease"`
		} `json:"predictions"`
	}
	decode(t, do(t, r, http.MethodGet, "/api/predictions/recent?n=5", ""), &recent)
	if len(recent.Predictions) != 1 || recent.Predictions[0].PredictedDisease != "Heart Disease" {
		t.Errorf("recent = %+v", recent.Predictions)
	}
}

func TestPredictErrors(t *testing.T) {
	r := fixtureRouter(t, nil)
	if w := do(t, r, http.MethodPost, "/api/predict", `{"symptoms":["nope"]}`); w.Code != http.StatusBadRequest {
		t.Errorf("unknown symptom status = %d, want 400", w.Code)
	}
	if w := do(t, r, http.MethodPost, "/api/predict", `{`); w.Code != http.StatusBadRequest {
		t.Errorf("bad json status = %d, want 400", w.Code)
	}

	r = fixtureRouter(t, func(root string) { os.Remove(filepath.Join(root, testdata.ModelFile)) })
	if w := do(t, r, http.MethodPost, "/api/predict", `{"symptoms":["fever"]}`); w.Code != http.StatusServiceUnavailable {
		t.Errorf("missing model status = %d, want 503", w.Code)
	}
}

func TestDatasetSample(t *testing.T) {
	r := fixtureRouter(t, nil)
	w := do(t, r, http.MethodGet, "/api/dataset/sample?rows=2", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "shortness_of_breath") {
		t.Fatalf("table sample = %d %s", w.Code, w.Body)
	}

	var body struct {
		Rows []map[string]any `json:"rows"`
	}
	decode(t, do(t, r, http.MethodGet, "/api/dataset/sample?rows=3&format=json", ""), &body)
	if len(body.Rows) != 3 || body.Rows[0]["fever"] != 1.0 {
		t.Errorf("json sample = %v", body.Rows)
	}
}

func TestDatasetSampleFilters(t *testing.T) {
	r := fixtureRouter(t, nil)

	var body struct {
		Rows  []map[string]any `json:"rows"`
		Total int              `json:"total"`
	}
	decode(t, do(t, r, http.MethodGet, "/api/dataset/sample?format=json&columns=cough,fever&rows=3", ""), &body)
	if len(body.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(body.Rows))
	}
	for _, row := range body.Rows {
		if len(row) != 2 || row["cough"] == nil || row["fever"] == nil {
			t.Errorf("row = %v, want only cough and fever", row)
		}
	}

	decode(t, do(t, r, http.MethodGet, "/api/dataset/sample?format=json&rows=100&range=fever:1:1", ""), &body)
	if body.Total != 4 || len(body.Rows) != 4 {
		t.Fatalf("range filter = %d rows (total %d), want 4", len(body.Rows), body.Total)
	}
	for _, row := range body.Rows {
		if row["fever"] != 1.0 {
			t.Errorf("row = %v, want fever 1", row)
		}
	}

	decode(t, do(t, r, http.MethodGet, "/api/dataset/sample?format=json&rows=100&in=chest_pain:1", ""), &body)
	if body.Total != 3 {
		t.Errorf("in filter = %d rows, want 3", body.Total)
	}

	w := do(t, r, http.MethodGet, "/api/dataset/sample?columns=fatigue", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "fatigue") || strings.Contains(w.Body.String(), "headache") {
		t.Errorf("table sample with columns = %d %s", w.Code, w.Body)
	}
}

func TestDatasetFilterErrors(t *testing.T) {
	r := fixtureRouter(t, nil)
	for _, path := range []string{
		"/api/dataset/sample?columns=purple_spots",
		"/api/dataset/sample?range=fever:x:1",
		"/api/dataset/sample?range=fever:2:1",
		"/api/dataset/sample?range=fever",
		"/api/dataset/sample?in=fever",
		"/api/export/dataset.csv?range=disease:0:1",
		"/api/export/dataset.csv?in=nope:1",
	} {
		if w := do(t, r, http.MethodGet, path, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s = %d %s, want 400", path, w.Code, w.Body)
		}
	}
}

func readCSV(t *testing.T, w *httptest.ResponseRecorder) [][]string {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d %s", w.Code, w.Body)
	}
	rows, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	return rows
}

func TestExportDatasetFilters(t *testing.T) {
	r := fixtureRouter(t, nil)

	rows := readCSV(t, do(t, r, http.MethodGet, "/api/export/dataset.csv?in=disease:Flu", ""))
	if len(rows) != 5 {
		t.Fatalf("Flu export = %d lines, want header + 4", len(rows))
	}
	for _, row := range rows[1:] {
		if row[len(row)-1] != "Flu" {
			t.Errorf("row = %v, want disease Flu", row)
		}
	}

	rows = readCSV(t, do(t, r, http.MethodGet, "/api/export/dataset.csv?in=disease:Asthma&range=cough:1:1", ""))
	if len(rows) != 3 {
		t.Errorf("Asthma with cough = %d lines, want header + 2", len(rows))
	}

	rows = readCSV(t, do(t, r, http.MethodGet, "/api/export/dataset.csv?columns=fever", ""))
	if diff := cmp.Diff([]string{"fever", "disease"}, rows[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}

	rows = readCSV(t, do(t, r, http.MethodGet, "/api/export/dataset.csv?rows=2", ""))
	if len(rows) != 3 {
		t.Errorf("rows=2 export = %d lines, want 3", len(rows))
	}
}

func TestNoDataset(t *testing.T) {
	r := fixtureRouter(t, func(root string) {
		for _, f := range []string{dataset.XTrainFile, dataset.XValidFile} {
			os.Remove(filepath.Join(root, "data", "processed", f))
		}
	})
	for _, path := range []string{"/api/dataset/sample", "/api/export/dataset.csv", "/api/export/info.json", "/api/analytics/symptoms"} {
		w := do(t, r, http.MethodGet, path, "")
		if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), noDataset) {
			t.Errorf("%s = %d %s, want 404", path, w.Code, w.Body)
		}
	}
	w := do(t, r, http.MethodGet, "/api/export/summary.json", "")
	var sum dataset.Summary
	decode(t, w, &sum)
	if sum.TotalRecords != 0 || sum.MostCommonSymptom != "N/A" {
		t.Errorf("summary = %+v", sum)
	}
}

func TestExports(t *testing.T) {
	r := fixtureRouter(t, nil)

	var sum dataset.Summary
	w := do(t, r, http.MethodGet, "/api/export/summary.json", "")
	decode(t, w, &sum)
	if sum.TotalRecords != 9 || sum.MostCommonDisease != "Flu" || sum.MostCommonSymptom != "cough" {
		t.Errorf("summary = %+v", sum)
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "analytics_summary.json") {
		t.Errorf("Content-Disposition = %q", w.Header().Get("Content-Disposition"))
	}

	w = do(t, r, http.MethodGet, "/api/export/dataset.csv", "")
	rows, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("dataset.csv: %v", err)
	}
	if len(rows) != 10 || rows[0][len(rows[0])-1] != "disease" || rows[1][len(rows[1])-1] != "Flu" {
		t.Errorf("dataset.csv header=%v first=%v rows=%d", rows[0], rows[1], len(rows))
	}

	var info dataset.Info
	decode(t, do(t, r, http.MethodGet, "/api/export/info.json", ""), &info)
	if info.Shape != [2]int{9, 6} {
		t.Errorf("info shape = %v", info.Shape)
	}

	w = do(t, r, http.MethodGet, "/api/export/statistics.csv", "")
	if !strings.HasPrefix(w.Body.String(), "statistic,fever,") {
		t.Errorf("statistics.csv = %q", w.Body.String())
	}
}

func TestAnalytics(t *testing.T) {
	r := fixtureRouter(t, nil)

	var labels struct {
		Labels []dataset.Count `json:"labels"`
	}
	decode(t, do(t, r, http.MethodGet, "/api/analytics/labels?top=2", ""), &labels)
	want := []dataset.Count{{Name: "Flu", Count: 4}, {Name: "Heart Disease", Count: 3}}
	if diff := cmp.Diff(want, labels.Labels); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}

	var sym struct {
		Symptoms []dataset.Frequency `json:"symptoms"`
	}
	decode(t, do(t, r, http.MethodGet, "/api/analytics/symptoms?disease=Asthma&threshold=0.5", ""), &sym)
	names := make([]string, len(sym.Symptoms))
	for i, f := range sym.Symptoms {
		names[i] = f.Name
	}
	if diff := cmp.Diff([]string{"cough", "shortness_of_breath"}, names); diff != "" {
		t.Errorf("asthma symptoms mismatch (-want +got):\n%s", diff)
	}

	if w := do(t, r, http.MethodGet, "/api/analytics/symptoms?disease=Flu&threshold=x", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad threshold status = %d, want 400", w.Code)
	}
}

func TestReload(t *testing.T) {
	w := do(t, fixtureRouter(t, nil), http.MethodPost, "/api/reload", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ready":true`) {
		t.Errorf("reload = %d %s", w.Code, w.Body)
	}
}
