package multi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Prabal729/disease-2/internal/model"
)

type mockSink struct {
	recs   []model.PredictionRecord
	closed bool
	err    error
}

func (m *mockSink) Append(_ context.Context, rec model.PredictionRecord) error {
	m.recs = append(m.recs, rec)
	return m.err
}

func (m *mockSink) Close() error {
	m.closed = true
	return m.err
}

func testRecord() model.PredictionRecord {
	return model.PredictionRecord{Timestamp: time.Now(), PredictedDisease: "Flu", NumSymptoms: 1}
}

func TestFanOutDeliversToAll(t *testing.T) {
	a, b := &mockSink{}, &mockSink{}
	m := New(a, nil, b)

	if err := m.Append(context.Background(), testRecord()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, s := range []*mockSink{a, b} {
		if len(s.recs) != 1 || s.recs[0].PredictedDisease != "Flu" {
			t.Errorf("sink %d: got %v", i, s.recs)
		}
	}
}

func TestErrorDoesNotPreventDelivery(t *testing.T) {
	boom := errors.New("disk full")
	a := &mockSink{err: boom}
	b := &mockSink{}
	m := New(a, b)

	err := m.Append(context.Background(), testRecord())
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
	if len(b.recs) != 1 {
		t.Error("second sink should still receive the record")
	}
}

func TestCloseClosesAll(t *testing.T) {
	a, b := &mockSink{}, &mockSink{}
	if err := New(a, b).Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if !a.closed || !b.closed {
		t.Error("every sink should be closed")
	}
}
