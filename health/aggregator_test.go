package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func static(name string, r Result) Checker {
	return NewCheckerFunc(name, func(context.Context) Result { return r })
}

func TestAggregator_CheckAll(t *testing.T) {
	agg := NewAggregator()
	agg.Register(static("a", Healthy("ok")))
	agg.Register(static("b", Degraded("slow")))

	results := agg.CheckAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("results = %v", results)
	}
	if got := OverallStatus(results); got != StatusDegraded {
		t.Errorf("OverallStatus = %v, want degraded", got)
	}
	for name, r := range results {
		if r.Timestamp.IsZero() {
			t.Errorf("%s: timestamp not set", name)
		}
	}

	agg.Register(static("c", Unhealthy("down", errors.New("x"))))
	if got := OverallStatus(agg.CheckAll(context.Background())); got != StatusUnhealthy {
		t.Errorf("OverallStatus = %v, want unhealthy", got)
	}
}

func TestAggregator_RegisterReplacesByName(t *testing.T) {
	agg := NewAggregator()
	agg.Register(static("a", Unhealthy("down", nil)))
	agg.Register(static("b", Healthy("ok")))
	agg.Register(static("a", Healthy("ok")))

	names := agg.CheckerNames()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("names = %v", names)
	}
	if got := OverallStatus(agg.CheckAll(context.Background())); got != StatusHealthy {
		t.Errorf("OverallStatus = %v, want healthy", got)
	}
}

func TestAggregator_Timeout(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{Timeout: 10 * time.Millisecond})
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	agg.Register(NewCheckerFunc("stuck", func(context.Context) Result {
		<-block
		return Healthy("late")
	}))

	r, err := agg.Check(context.Background(), "stuck")
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != StatusUnhealthy || !errors.Is(r.Error, ErrCheckTimeout) {
		t.Errorf("result = %+v, want timeout", r)
	}
}

func TestAggregator_CheckUnknown(t *testing.T) {
	if _, err := NewAggregator().Check(context.Background(), "nope"); !errors.Is(err, ErrCheckerNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestAggregator_MaxConcurrency(t *testing.T) {
	agg := NewAggregator(AggregatorConfig{MaxConcurrency: 1})
	running := make(chan struct{}, 1)
	for _, name := range []string{"a", "b", "c"} {
		agg.Register(NewCheckerFunc(name, func(context.Context) Result {
			select {
			case running <- struct{}{}:
			default:
				return Unhealthy("concurrent run", nil)
			}
			time.Sleep(time.Millisecond)
			<-running
			return Healthy("ok")
		}))
	}
	if got := OverallStatus(agg.CheckAll(context.Background())); got != StatusHealthy {
		t.Errorf("OverallStatus = %v, want healthy", got)
	}
}

func TestOverallStatus_Empty(t *testing.T) {
	if got := OverallStatus(nil); got != StatusHealthy {
		t.Errorf("OverallStatus(nil) = %v", got)
	}
}
