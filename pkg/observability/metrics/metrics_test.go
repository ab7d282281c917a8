package metrics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/matzehuels/nunet/pkg/design"
	"github.com/matzehuels/nunet/pkg/errors"
	"github.com/matzehuels/nunet/pkg/observability"
)

func TestMutationCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.OnMutation("add_neuron", nil)
	m.OnMutation("add_neuron", nil)
	m.OnMutation("add_neuron", errors.New(errors.ErrCodePositionOccupied, "taken"))
	m.OnMutation("move_neuron", fmt.Errorf("plain"))

	tests := []struct {
		op, code string
		want     float64
	}{
		{"add_neuron", "ok", 2},
		{"add_neuron", "position_occupied", 1},
		{"move_neuron", "unknown", 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(m.MutationsTotal.WithLabelValues(tt.op, tt.code))
		if got != tt.want {
			t.Errorf("mutations_total{op=%q,code=%q} = %v, want %v", tt.op, tt.code, got, tt.want)
		}
	}
}

func TestCacheAndStorage(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	ctx := context.Background()

	m.OnCacheHit(ctx, "plan")
	m.OnCacheMiss(ctx, "plan")
	m.OnCacheMiss(ctx, "plan")
	m.OnCacheSet(ctx, "render", 128)
	m.OnStorageOp(ctx, "sqlite", "put", time.Millisecond, nil)

	if got := testutil.ToFloat64(m.CacheRequestsTotal.WithLabelValues("plan", "miss")); got != 2 {
		t.Errorf("cache misses = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.CacheBytesTotal.WithLabelValues("render")); got != 128 {
		t.Errorf("cache bytes = %v, want 128", got)
	}
	if n := testutil.CollectAndCount(m.StorageDuration); n != 1 {
		t.Errorf("storage series = %d, want 1", n)
	}
}

func TestValidateGauge(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.OnValidateComplete(context.Background(), 3, time.Millisecond)
	if got := testutil.ToFloat64(m.Violations); got != 3 {
		t.Errorf("violations = %v, want 3", got)
	}
}

func TestInstallReceivesDesignEvents(t *testing.T) {
	defer observability.Reset()
	m := New(prometheus.NewRegistry())
	m.Install()

	d := design.New()
	if err := d.AddNeuron(design.Pos(0, 0), design.ActTanh, design.NoConst()); err != nil {
		t.Fatal(err)
	}
	_ = d.AddNeuron(design.Pos(0, 0), design.ActTanh, design.NoConst())
	d.Undo()

	if got := testutil.ToFloat64(m.MutationsTotal.WithLabelValues("add_neuron", "ok")); got != 1 {
		t.Errorf("accepted add_neuron = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.MutationsTotal.WithLabelValues("add_neuron", "position_occupied")); got != 1 {
		t.Errorf("rejected add_neuron = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.UndosTotal.WithLabelValues("add_neuron")); got != 1 {
		t.Errorf("undos = %v, want 1", got)
	}
}

func TestDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if recover() == nil {
			t.Error("second New on one registry should panic")
		}
	}()
	New(reg)
}
