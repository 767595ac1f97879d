package postgres

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Prabal729/disease-2/internal/model"
)

type call struct {
	sql  string
	args []any
}

type fakeDB struct {
	calls []call
	err   error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, call{sql: sql, args: args})
	return pgconn.CommandTag{}, f.err
}

func TestAppendInsertsRow(t *testing.T) {
	db := &fakeDB{}
	m := &Mirror{db: db}

	conf := 82.5
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	err := m.Append(context.Background(), model.PredictionRecord{
		Timestamp:         ts,
		PredictedDisease:  "Heart Disease",
		ConfidencePercent: &conf,
		NumSymptoms:       2,
		SelectedSymptoms:  []string{"chest_pain", "fatigue"},
	})
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if len(db.calls) != 1 || !strings.HasPrefix(db.calls[0].sql, "INSERT INTO predictions") {
		t.Fatalf("calls = %+v, want one insert", db.calls)
	}
	want := []any{ts, "Heart Disease", &conf, 2, "chest_pain; fatigue"}
	if diff := cmp.Diff(want, db.calls[0].args); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestAppendWrapsError(t *testing.T) {
	boom := errors.New("connection reset")
	m := &Mirror{db: &fakeDB{err: boom}}
	if err := m.Append(context.Background(), model.PredictionRecord{}); !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped %v", err, boom)
	}
}

func TestMigrateCreatesTable(t *testing.T) {
	db := &fakeDB{}
	if err := (&Mirror{db: db}).migrate(context.Background()); err != nil {
		t.Fatalf("migrate error: %v", err)
	}
	if !strings.Contains(db.calls[0].sql, "CREATE TABLE IF NOT EXISTS predictions") {
		t.Errorf("sql = %q", db.calls[0].sql)
	}
}

func TestConnectLive(t *testing.T) {
	url := os.Getenv("SYMPTOMDASH_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("SYMPTOMDASH_TEST_DATABASE_URL not set")
	}
	m, err := Connect(context.Background(), url)
	if err != nil {
		t.Fatalf("Connect error: %v", err)
	}
	defer m.Close()
	if err := m.Append(context.Background(), model.PredictionRecord{Timestamp: time.Now(), PredictedDisease: "Flu"}); err != nil {
		t.Fatalf("Append error: %v", err)
	}
}

func TestConnectBadURL(t *testing.T) {
	if _, err := Connect(context.Background(), "://not a url"); err == nil {
		t.Error("expected parse error")
	}
}
