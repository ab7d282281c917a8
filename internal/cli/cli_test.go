package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/nunet/pkg/errors"
	"github.com/matzehuels/nunet/pkg/io"
)

// sandbox points every XDG directory into a temp dir, captures command
// output and returns the design path to pass with --design.
func sandbox(t *testing.T) (design string, out *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))

	out = &bytes.Buffer{}
	prev := output
	output = out
	t.Cleanup(func() { output = prev })
	return filepath.Join(dir, "xor.nunet"), out
}

// run executes the root command with args and returns its error.
func run(t *testing.T, designPath string, args ...string) error {
	t.Helper()
	c := New(&bytes.Buffer{}, log.InfoLevel)
	root := c.RootCommand()
	root.SetArgs(append([]string{"--design", designPath}, args...))
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root.Execute()
}

func mustRun(t *testing.T, designPath string, args ...string) {
	t.Helper()
	if err := run(t, designPath, args...); err != nil {
		t.Fatalf("nunet %s: %v", strings.Join(args, " "), err)
	}
}

// buildChain creates x(0,0) -> (1,0) -> y(2,0).
func buildChain(t *testing.T, path string) {
	t.Helper()
	mustRun(t, path, "init")
	mustRun(t, path, "add", "input", "0,0", "--name", "x")
	mustRun(t, path, "add", "neuron", "1,0", "--activation", "tanh")
	mustRun(t, path, "add", "output", "2,0", "--name", "y")
	mustRun(t, path, "add", "synapse", "0,0", "1,0")
	mustRun(t, path, "add", "synapse", "2,0", "1,0", "--interval", "0.5", "--bias=false")
}

func TestInitRefusesExisting(t *testing.T) {
	path, _ := sandbox(t)
	mustRun(t, path, "init")

	snap, err := io.Import(path)
	if err != nil {
		t.Fatalf("Import() error: %v", err)
	}
	if snap.Name != "xor" || len(snap.Neurons) != 0 {
		t.Errorf("init wrote %+v, want an empty design named xor", snap)
	}
	if err := run(t, path, "init"); !errors.Is(err, errors.ErrCodePersistence) {
		t.Errorf("second init = %v, want %s", err, errors.ErrCodePersistence)
	}
	mustRun(t, path, "init", "--force", "--name", "Other")
}

func TestBuildAndGenerate(t *testing.T) {
	path, out := sandbox(t)
	buildChain(t, path)

	snap, err := io.Import(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Neurons) != 3 || len(snap.Synapses) != 2 {
		t.Fatalf("design has %d neurons, %d synapses; want 3, 2", len(snap.Neurons), len(snap.Synapses))
	}
	second := snap.Synapses[1]
	if second.StartPosition != [2]int{1, 0} || second.Interval != 0.5 || second.Bias {
		t.Errorf("second synapse = %+v, want normalized (1,0)->(2,0) with interval 0.5, no bias", second)
	}
	if snap.Synapses[0].Interval != 0.1 || !snap.Synapses[0].Bias {
		t.Errorf("first synapse = %+v, want config defaults", snap.Synapses[0])
	}

	mustRun(t, path, "validate")

	out.Reset()
	mustRun(t, path, "generate", "-o", "-", "--name", "Xor", "--learning-rate", "0.5")
	if !strings.Contains(out.String(), "class Xor(Network):") {
		t.Errorf("generate output missing class:\n%s", out.String())
	}

	target := filepath.Join(filepath.Dir(path), "xor.py")
	mustRun(t, path, "generate", "-o", target)
	if err := run(t, path, "generate", "-o", target); !errors.Is(err, errors.ErrCodePersistence) {
		t.Errorf("generate over existing file = %v, want %s", err, errors.ErrCodePersistence)
	}
	mustRun(t, path, "generate", "-o", target, "--force", "-f", "json")
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("{")) {
		t.Errorf("forced json generate wrote %q", data)
	}
}

func TestRejectedEditLeavesFile(t *testing.T) {
	path, _ := sandbox(t)
	buildChain(t, path)
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		args []string
		want errors.Code
	}{
		{"occupied", []string{"add", "neuron", "1,0", "--activation", "relu"}, errors.ErrCodePositionOccupied},
		{"name taken", []string{"add", "input", "0,1", "--name", "x"}, errors.ErrCodeNameCollision},
		{"constant required", []string{"add", "neuron", "1,1", "--activation", "linear"}, errors.ErrCodeInvalidField},
		{"same layer", []string{"add", "synapse", "0,0", "0,0"}, errors.ErrCodeTopology},
		{"no synapse", []string{"remove", "synapse", "0,0", "2,0"}, errors.ErrCodeNotFound},
		{"move onto neuron", []string{"move", "1,0", "2,0"}, errors.ErrCodePositionOccupied},
		{"edit empty", []string{"edit", "neuron", "5,5", "--activation", "relu"}, errors.ErrCodePositionEmpty},
		{"bad position", []string{"remove", "neuron", "one,two"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(t, path, tt.args...)
			if got := errors.GetCode(err); got != tt.want {
				t.Errorf("%v: code = %q (%v), want %q", tt.args, got, err, tt.want)
			}
		})
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(before, after) {
		t.Error("rejected edits changed the design file")
	}
}

func TestEditKeepsUnsetFields(t *testing.T) {
	path, _ := sandbox(t)
	buildChain(t, path)

	mustRun(t, path, "edit", "neuron", "1,0", "--activation", "leaky relu", "--constant", "0.01")
	mustRun(t, path, "edit", "output", "2,0", "--name", "z")
	mustRun(t, path, "edit", "synapse", "1,0", "0,0", "--max", "2")

	snap, err := io.Import(path)
	if err != nil {
		t.Fatal(err)
	}
	hidden, out := snap.Neurons[1], snap.Neurons[2]
	if hidden.Activation != "LEAKY ReLU" || hidden.Constant == nil || *hidden.Constant != 0.01 {
		t.Errorf("hidden = %+v, want LEAKY ReLU with 0.01", hidden)
	}
	if out.Name != "z" || out.Activation != "MSE" {
		t.Errorf("output = %+v, want renamed z keeping MSE", out)
	}
	sy := snap.Synapses[0]
	if sy.Max != 2 || sy.Min != -1 || sy.Interval != 0.1 {
		t.Errorf("synapse = %+v, want only max changed", sy)
	}
}

func TestValidateInvalidDesign(t *testing.T) {
	path, out := sandbox(t)
	buildChain(t, path)
	mustRun(t, path, "remove", "neuron", "1,0")

	err := run(t, path, "validate")
	if !errors.Is(err, errors.ErrCodeDesignInvalid) {
		t.Errorf("validate = %v, want %s", err, errors.ErrCodeDesignInvalid)
	}
	if !strings.Contains(out.String(), "break connectivity rules") {
		t.Errorf("validate output = %q", out.String())
	}
	if err := run(t, path, "generate", "-o", "-"); !errors.Is(err, errors.ErrCodeDesignInvalid) {
		t.Errorf("generate = %v, want %s", err, errors.ErrCodeDesignInvalid)
	}
}

func TestApplyScript(t *testing.T) {
	path, _ := sandbox(t)
	mustRun(t, path, "init")

	script := filepath.Join(t.TempDir(), "steps.yaml")
	writeFile(t, script, `steps:
  - op: add_input
    at: [0, 0]
    activation: none
    name: x
  - op: add_neuron
    at: [1, 0]
    activation: relu
  - op: add_neuron
    at: [1, 0]
    activation: tanh
  - op: add_output
    at: [2, 0]
    activation: mse
    name: y
`)

	if err := run(t, path, "apply", script); !errors.Is(err, errors.ErrCodePositionOccupied) {
		t.Fatalf("apply = %v, want %s", err, errors.ErrCodePositionOccupied)
	}
	if snap, _ := io.Import(path); len(snap.Neurons) != 0 {
		t.Errorf("failed apply saved %d neurons", len(snap.Neurons))
	}

	if err := run(t, path, "apply", script, "--keep-going", "--dry-run"); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if snap, _ := io.Import(path); len(snap.Neurons) != 0 {
		t.Errorf("dry run saved %d neurons", len(snap.Neurons))
	}

	err := run(t, path, "apply", script, "--keep-going")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("keep-going apply = %v, want %s for the skipped step", err, errors.ErrCodeInvalidInput)
	}
	snap, err := io.Import(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Neurons) != 3 || snap.Neurons[1].Activation != "ReLU" {
		t.Errorf("neurons = %+v, want x, ReLU at (1,0), y", snap.Neurons)
	}
}

func TestRender(t *testing.T) {
	path, _ := sandbox(t)
	buildChain(t, path)

	target := filepath.Join(t.TempDir(), "net.dot")
	mustRun(t, path, "render", "-f", "dot", "-o", target)
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "digraph") {
		t.Errorf("render wrote %q, want a dot graph", data)
	}
	if err := run(t, path, "render", "-f", "gif"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("render gif = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path, out := sandbox(t)
	buildChain(t, path)

	mustRun(t, path, "store", "push")
	out.Reset()
	mustRun(t, path, "store", "list")
	if !strings.Contains(out.String(), "xor") {
		t.Errorf("store list = %q, want xor", out.String())
	}

	pulled := filepath.Join(t.TempDir(), "copy.toml")
	mustRun(t, path, "store", "pull", "xor", "-o", pulled)
	orig, _ := io.Import(path)
	copied, err := io.Import(pulled)
	if err != nil {
		t.Fatal(err)
	}
	if copied.ID != orig.ID || len(copied.Synapses) != len(orig.Synapses) {
		t.Errorf("pulled %+v, want copy of %+v", copied, orig)
	}
	if err := run(t, path, "store", "pull", "xor", "-o", pulled); !errors.Is(err, errors.ErrCodePersistence) {
		t.Errorf("pull over existing file = %v, want %s", err, errors.ErrCodePersistence)
	}

	mustRun(t, path, "store", "delete", "xor")
	if err := run(t, path, "store", "delete", "xor"); err == nil {
		t.Error("second delete succeeded")
	}
}

func TestConfigOverridesDefaults(t *testing.T) {
	path, out := sandbox(t)
	cfgDir := filepath.Join(os.Getenv("XDG_CONFIG_HOME"), "nunet")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(cfgDir, "config.toml"), `[network]
name = "Configured"

[synapse]
interval = 0.25
min = 0.0
max = 0.5
bias = false
`)
	buildChain(t, path)

	snap, _ := io.Import(path)
	if sy := snap.Synapses[0]; sy.Interval != 0.25 || sy.Max != 0.5 || sy.Bias {
		t.Errorf("synapse = %+v, want config defaults", sy)
	}
	out.Reset()
	mustRun(t, path, "generate", "-o", "-")
	if !strings.Contains(out.String(), "class Configured(Network):") {
		t.Errorf("generate ignored configured name:\n%s", out.String())
	}

	bad := filepath.Join(t.TempDir(), "bad.toml")
	writeFile(t, bad, "[network]\nlearning_rate = -1\n")
	if err := run(t, path, "--config", bad, "show"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("bad config = %v, want %s", err, errors.ErrCodeInvalidInput)
	}
}

func TestCachePath(t *testing.T) {
	path, out := sandbox(t)
	mustRun(t, path, "cache", "path")
	want := filepath.Join(os.Getenv("XDG_CACHE_HOME"), "nunet")
	if strings.TrimSpace(out.String()) != want {
		t.Errorf("cache path = %q, want %q", out.String(), want)
	}
	mustRun(t, path, "cache", "clear")
}

func TestShowListsNames(t *testing.T) {
	path, out := sandbox(t)
	buildChain(t, path)
	out.Reset()

	mustRun(t, path, "show")
	for _, want := range []string{"names", "x, y", "tanh"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("show output missing %q:\n%s", want, out.String())
		}
	}
}

func TestMissingDesignHint(t *testing.T) {
	path, _ := sandbox(t)
	err := run(t, path, "show")
	if !errors.Is(err, errors.ErrCodePersistence) {
		t.Fatalf("show = %v, want %s", err, errors.ErrCodePersistence)
	}
	if !strings.Contains(err.Error(), "nunet init") {
		t.Errorf("error %q should suggest init", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
