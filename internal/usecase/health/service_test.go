package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockChecker struct {
	err error
}

func (m *mockChecker) HealthCheck(_ context.Context) error { return m.err }

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockPinger{}, &mockChecker{})

	report := svc.Check(context.Background())
	if report.Status != Healthy {
		t.Fatalf("status = %q, want ok", report.Status)
	}
	if report.Checks["database"] != CheckOK || report.Checks["embedding"] != CheckOK {
		t.Errorf("checks = %v", report.Checks)
	}
}

func TestCheck_DatabaseDown(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("refused")}, &mockChecker{})

	report := svc.Check(context.Background())
	if report.Status != Degraded {
		t.Fatalf("status = %q, want degraded", report.Status)
	}
	if report.Checks["database"] != CheckError {
		t.Errorf("database check = %q", report.Checks["database"])
	}
	if report.Checks["embedding"] != CheckOK {
		t.Errorf("embedding check = %q", report.Checks["embedding"])
	}
}

func TestCheck_EmbeddingDown(t *testing.T) {
	svc := New(&mockPinger{}, &mockChecker{err: errors.New("provider offline")})

	report := svc.Check(context.Background())
	if report.Status != Degraded {
		t.Fatalf("status = %q, want degraded", report.Status)
	}
	if report.Checks["embedding"] != CheckError {
		t.Errorf("embedding check = %q", report.Checks["embedding"])
	}
}

func TestCheck_NilEmbeddingSkipped(t *testing.T) {
	svc := New(&mockPinger{}, nil)

	report := svc.Check(context.Background())
	if report.Status != Healthy {
		t.Fatalf("status = %q, want ok", report.Status)
	}
	if _, ok := report.Checks["embedding"]; ok {
		t.Error("embedding check should be absent when no checker is configured")
	}
}
