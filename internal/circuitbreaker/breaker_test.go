package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testConfig() Config {
	return Config{
		Name:        "test",
		MaxFailures: 3,
		Timeout:     20 * time.Millisecond,
		MaxRequests: 2,
		Logger:      zerolog.Nop(),
	}
}

func TestExecuteSucceedsWhenClosed(t *testing.T) {
	t.Parallel()
	cb := New(testConfig())
	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("state = %v, want closed", cb.GetState())
	}
}

func TestExecuteOpensAfterMaxFailures(t *testing.T) {
	t.Parallel()
	cb := New(testConfig())
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		cb.Execute(func() error { return boom })
	}
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want open after 3 consecutive failures", cb.GetState())
	}

	err := cb.Execute(func() error { return nil })
	if err == nil {
		t.Fatal("Execute should reject calls while open")
	}
}

func TestExecuteTransitionsToHalfOpenAfterTimeout(t *testing.T) {
	t.Parallel()
	cb := New(testConfig())
	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		cb.Execute(func() error { return boom })
	}

	time.Sleep(30 * time.Millisecond)

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("Execute should allow a probe request once the timeout elapses: %v", err)
	}
	if cb.GetState() != StateHalfOpen {
		t.Fatalf("state = %v, want half-open after one successful probe", cb.GetState())
	}
}

func TestHalfOpenClosesAfterMaxRequestsSucceed(t *testing.T) {
	t.Parallel()
	cb := New(testConfig())
	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		cb.Execute(func() error { return boom })
	}
	time.Sleep(30 * time.Millisecond)

	for i := 0; i < 2; i++ {
		if err := cb.Execute(func() error { return nil }); err != nil {
			t.Fatalf("probe %d: %v", i, err)
		}
	}
	if cb.GetState() != StateClosed {
		t.Fatalf("state = %v, want closed after MaxRequests successful probes", cb.GetState())
	}
}

func TestHalfOpenReopensOnFailure(t *testing.T) {
	t.Parallel()
	cb := New(testConfig())
	boom := errors.New("boom")
	for i := 0; i < 3; i++ {
		cb.Execute(func() error { return boom })
	}
	time.Sleep(30 * time.Millisecond)

	cb.Execute(func() error { return boom })
	if cb.GetState() != StateOpen {
		t.Fatalf("state = %v, want open again after a half-open probe fails", cb.GetState())
	}
}

func TestGetMetricsReflectsFailureCount(t *testing.T) {
	t.Parallel()
	cb := New(testConfig())
	cb.Execute(func() error { return errors.New("boom") })

	m := cb.GetMetrics()
	if m.Name != "test" {
		t.Fatalf("name = %q, want test", m.Name)
	}
	if m.Failures != 1 {
		t.Fatalf("failures = %d, want 1", m.Failures)
	}
	if m.State != "closed" {
		t.Fatalf("state = %q, want closed", m.State)
	}
}

func TestNewAppliesDefaultsForZeroValues(t *testing.T) {
	t.Parallel()
	cb := New(Config{Name: "defaults"})
	if cb.config.MaxFailures != 5 || cb.config.Timeout != 30*time.Second || cb.config.MaxRequests != 3 {
		t.Fatalf("unexpected defaults applied: %+v", cb.config)
	}
}
