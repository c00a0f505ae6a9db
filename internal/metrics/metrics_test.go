package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterExposesAllFamilies(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}

	m.OperationSettled("toggle_character", "confirmed", 80*time.Millisecond)
	m.OperationsPending(2)
	m.GenerationSettled("generate_script", "completed", 12*time.Second)
	m.GenerationsInFlight(1)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	want := map[string]bool{
		MetricOperationsTotal:     false,
		MetricOperationDuration:   false,
		MetricOperationsPending:   false,
		MetricGenerationsTotal:    false,
		MetricGenerationDuration:  false,
		MetricGenerationsInFlight: false,
	}
	for _, family := range families {
		if _, ok := want[family.GetName()]; ok {
			want[family.GetName()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("metric %s not gathered", name)
		}
	}
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := NewMetrics().Register(reg); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := NewMetrics().Register(reg); err == nil {
		t.Fatal("second Register should fail")
	}
}

func TestOutcomeCounters(t *testing.T) {
	m := NewMetrics()
	m.OperationSettled("reorder_scenes", "confirmed", time.Millisecond)
	m.OperationSettled("reorder_scenes", "failed", time.Millisecond)
	m.OperationSettled("reorder_scenes", "failed", time.Millisecond)
	m.OperationsPending(3)
	m.OperationsPending(0)

	if got := testutil.ToFloat64(m.operationsTotal.WithLabelValues("reorder_scenes", "failed")); got != 2 {
		t.Fatalf("failed count = %v", got)
	}
	if got := testutil.ToFloat64(m.operationsPending); got != 0 {
		t.Fatalf("pending gauge = %v", got)
	}
	if got := testutil.CollectAndCount(m.operationDuration); got != 1 {
		t.Fatalf("expected one duration series, got %d", got)
	}
}
