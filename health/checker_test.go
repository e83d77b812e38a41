package health

import (
	"context"
	"errors"
	"testing"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		s    Status
		want string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", int(tt.s), got, tt.want)
		}
	}
}

func TestResultConstructors(t *testing.T) {
	cause := errors.New("boom")
	r := Unhealthy("down", cause).WithDetails(map[string]any{"k": 1})
	if r.Status != StatusUnhealthy || r.Error != cause || r.Details["k"] != 1 || r.Timestamp.IsZero() {
		t.Errorf("Unhealthy = %+v", r)
	}
	if Healthy("ok").Status != StatusHealthy || Degraded("slow").Status != StatusDegraded {
		t.Error("constructor status mismatch")
	}
}

func TestCheckerFunc(t *testing.T) {
	c := NewCheckerFunc("static", func(context.Context) Result { return Degraded("meh") })
	if c.Name() != "static" || c.Check(context.Background()).Status != StatusDegraded {
		t.Errorf("CheckerFunc misbehaves")
	}
}
