package io

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/matzehuels/nunet/pkg/design"
	"github.com/matzehuels/nunet/pkg/errors"
)

func buildDesign(t *testing.T) *design.Designer {
	t.Helper()
	d := design.New()
	steps := []error{
		d.AddInput(design.Pos(0, 0), design.ActNone, design.NoConst(), design.Valid("x")),
		d.AddNeuron(design.Pos(1, 0), design.ActLeakyReLU, design.Const(0.01)),
		d.AddNeuron(design.Pos(1, 1), design.ActTanh, design.NoConst()),
		d.AddOutput(design.Pos(3, 0), design.LossHuber, design.Const(1.5), design.Valid("y")),
	}
	for _, err := range steps {
		if err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	for _, pair := range [][2]design.Position{
		{design.Pos(1, 0), design.Pos(0, 0)},
		{design.Pos(0, 0), design.Pos(1, 1)},
		{design.Pos(1, 1), design.Pos(3, 0)},
		{design.Pos(1, 0), design.Pos(3, 0)},
	} {
		if _, err := d.AddSynapse(pair[0], pair[1], design.Range(0.1, -1, 1), true); err != nil {
			t.Fatalf("setup synapse: %v", err)
		}
	}
	if err := d.EditSynapse(2, design.Range(0.2, -0.5, 0.5), false); err != nil {
		t.Fatalf("setup edit: %v", err)
	}
	return d
}

func TestRestoreReproducesDesign(t *testing.T) {
	d := buildDesign(t)
	snap := FromStore(d.Store(), uuid.New(), "demo")

	restored, err := snap.Restore()
	if err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if restored.CanUndo() {
		t.Error("restored designer has undo history")
	}
	if got := FromStore(restored.Store(), snap.ID, snap.Name); !reflect.DeepEqual(got, snap) {
		t.Errorf("re-captured snapshot differs:\n got  %+v\n want %+v", got, snap)
	}
	if !design.IsValid(restored.Store()) {
		t.Error("restored design is not valid")
	}
}

func TestRoundTripFormats(t *testing.T) {
	snap := FromStore(buildDesign(t).Store(), uuid.New(), "demo")

	for _, f := range []Format{FormatJSON, FormatTOML} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(snap, &buf, f); err != nil {
				t.Fatalf("Write() error: %v", err)
			}
			got, err := Read(&buf, f)
			if err != nil {
				t.Fatalf("Read() error: %v", err)
			}
			if !reflect.DeepEqual(got, snap) {
				t.Errorf("Read(Write(s)) =\n %+v\nwant\n %+v", got, snap)
			}
		})
	}
}

func TestRestoreRejectsBrokenSnapshots(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
	}{
		{
			name: "unknown type",
			snap: Snapshot{Neurons: []NeuronRecord{{Type: "Gate", Position: [2]int{0, 0}, Activation: "TANH"}}},
		},
		{
			name: "duplicate position",
			snap: Snapshot{Neurons: []NeuronRecord{
				{Type: "Neuron", Position: [2]int{0, 0}, Activation: "TANH"},
				{Type: "Neuron", Position: [2]int{0, 0}, Activation: "TANH"},
			}},
		},
		{
			name: "missing constant",
			snap: Snapshot{Neurons: []NeuronRecord{{Type: "Neuron", Position: [2]int{0, 0}, Activation: "LINEAR"}}},
		},
		{
			name: "duplicate name",
			snap: Snapshot{Neurons: []NeuronRecord{
				{Type: "Input", Position: [2]int{0, 0}, Activation: "NONE", Name: "x"},
				{Type: "Output", Position: [2]int{1, 0}, Activation: "MSE", Name: "x"},
			}},
		},
		{
			name: "synapse into input",
			snap: Snapshot{
				Neurons: []NeuronRecord{
					{Type: "Neuron", Position: [2]int{0, 0}, Activation: "TANH"},
					{Type: "Input", Position: [2]int{1, 0}, Activation: "NONE", Name: "x"},
				},
				Synapses: []SynapseRecord{{StartPosition: [2]int{0, 0}, EndPosition: [2]int{1, 0}, Interval: 0.1, Min: -1, Max: 1}},
			},
		},
		{
			name: "dangling synapse",
			snap: Snapshot{
				Neurons:  []NeuronRecord{{Type: "Neuron", Position: [2]int{0, 0}, Activation: "TANH"}},
				Synapses: []SynapseRecord{{StartPosition: [2]int{0, 0}, EndPosition: [2]int{4, 4}, Interval: 0.1, Min: -1, Max: 1}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tt.snap.Restore()
			if d != nil {
				t.Error("Restore() returned a designer for a broken snapshot")
			}
			if !errors.Is(err, errors.ErrCodePersistence) {
				t.Errorf("Restore() = %v, want %s", err, errors.ErrCodePersistence)
			}
		})
	}
}

func TestExportImport(t *testing.T) {
	snap := FromStore(buildDesign(t).Store(), uuid.New(), "demo")
	dir := t.TempDir()

	for _, name := range []string{"demo.nunet", "demo.toml"} {
		path := filepath.Join(dir, name)
		if err := Export(snap, path); err != nil {
			t.Fatalf("Export(%s) error: %v", name, err)
		}
		got, err := Import(path)
		if err != nil {
			t.Fatalf("Import(%s) error: %v", name, err)
		}
		if !reflect.DeepEqual(got, snap) {
			t.Errorf("Import(%s) differs from exported snapshot", name)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "demo.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[[neurons]]") {
		t.Errorf("TOML export missing [[neurons]] tables:\n%s", data)
	}
}

func TestExportFailureKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.nunet")
	good := FromStore(buildDesign(t).Store(), uuid.New(), "demo")
	if err := Export(good, path); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	bad := good
	bad.Neurons = append([]NeuronRecord(nil), good.Neurons...)
	nan := math.NaN()
	bad.Neurons[0].Constant = &nan
	if err := Export(bad, path); !errors.Is(err, errors.ErrCodePersistence) {
		t.Fatalf("Export(NaN constant) = %v, want %s", err, errors.ErrCodePersistence)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Errorf("failed export changed %s:\n%s", path, after)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("directory holds %v, want only demo.nunet", names)
	}
}

func TestImportFailures(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.nunet")
	if err := os.WriteFile(garbage, []byte("\x80\x04not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	unknown := filepath.Join(dir, "extra.json")
	if err := os.WriteFile(unknown, []byte(`{"neurons": [], "layout": {}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.nunet"), garbage, unknown} {
		if _, err := Import(path); !errors.Is(err, errors.ErrCodePersistence) {
			t.Errorf("Import(%s) = %v, want %s", filepath.Base(path), err, errors.ErrCodePersistence)
		}
	}
}

func TestNameFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"xor.nunet", "xor"},
		{"designs/mnist.v2.toml", "mnist"},
		{"/abs/path/net", "net"},
		{".hidden", ".hidden"},
	}
	for _, tt := range tests {
		if got := NameFromPath(tt.path); got != tt.want {
			t.Errorf("NameFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestFormatForPath(t *testing.T) {
	if FormatForPath("a.TOML") != FormatTOML {
		t.Error("FormatForPath(.TOML) should be TOML")
	}
	if FormatForPath("a.nunet") != FormatJSON {
		t.Error("FormatForPath(.nunet) should be JSON")
	}
}
