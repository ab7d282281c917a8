package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/matzehuels/nunet/pkg/design"
)

func chain(t *testing.T) *design.Designer {
	t.Helper()
	d := design.New()
	steps := []error{
		d.AddInput(design.Pos(0, 0), design.ActNone, design.NoConst(), design.Valid("x")),
		d.AddNeuron(design.Pos(1, 0), design.ActLeakyReLU, design.Const(0.01)),
		d.AddNeuron(design.Pos(1, 1), design.ActTanh, design.NoConst()),
		d.AddOutput(design.Pos(2, 0), design.LossMSE, design.NoConst(), design.Valid("y")),
	}
	for _, err := range steps {
		if err != nil {
			t.Fatal(err)
		}
	}
	for _, pair := range [][2]design.Position{
		{design.Pos(0, 0), design.Pos(1, 0)},
		{design.Pos(1, 0), design.Pos(2, 0)},
		{design.Pos(0, 0), design.Pos(1, 1)},
	} {
		if _, err := d.AddSynapse(pair[0], pair[1], design.Range(0.1, -1, 1), pair[1] != design.Pos(1, 1)); err != nil {
			t.Fatal(err)
		}
	}
	return d
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(chain(t).Store(), Options{})

	for _, want := range []string{
		"digraph G",
		"rankdir=LR",
		"subgraph layer_0",
		`"n0_0" [label="x\nNONE"`,
		`"n1_0" [label="LEAKY ReLU"`,
		`"n0_0" -> "n1_0";`,
		`"n0_0" -> "n1_1" [style=dashed];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "color=red") {
		t.Error("ToDOT() highlighted without Highlight")
	}
}

func TestToDOT_Highlight(t *testing.T) {
	// (1, 1) has no outgoing synapse.
	dot := ToDOT(chain(t).Store(), Options{Highlight: true})
	var red []string
	for _, line := range strings.Split(dot, "\n") {
		if strings.Contains(line, "color=red") {
			red = append(red, strings.TrimSpace(line))
		}
	}
	if len(red) != 1 || !strings.HasPrefix(red[0], `"n1_1"`) {
		t.Errorf("highlighted = %v, want only n1_1", red)
	}
}

func TestToDOT_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "chain_detailed", []byte(ToDOT(chain(t).Store(), Options{Detailed: true})))
}

func TestToDOT_Empty(t *testing.T) {
	dot := ToDOT(design.NewStore(), Options{})
	if dot != "digraph G {\n  rankdir=LR;\n  bgcolor=\"transparent\";\n  node [fontsize=14, margin=\"0.15,0.05\"];\n  ranksep=1.2;\n  nodesep=0.3;\n}\n" {
		t.Errorf("ToDOT(empty) = %q", dot)
	}
}

func TestNodeIDNegative(t *testing.T) {
	if got := nodeID(design.Pos(-1, 2)); got != "nm1_2" {
		t.Errorf("nodeID(-1, 2) = %q, want nm1_2", got)
	}
}

func TestRender(t *testing.T) {
	ctx := context.Background()
	dot := ToDOT(chain(t).Store(), Options{})

	data, err := Render(ctx, dot, FormatDOT)
	if err != nil || string(data) != dot {
		t.Errorf("Render(dot) = %q, %v", data, err)
	}

	svg, err := Render(ctx, dot, FormatSVG)
	if err != nil {
		t.Fatalf("Render(svg) error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("Render(svg) output is not SVG")
	}

	if _, err := Render(ctx, dot, "gif"); err == nil {
		t.Error("Render(gif) should fail")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.50 200.00" xmlns="x"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.50 200.00" width="100" height="200">`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Errorf("normalizeViewBox() without viewBox changed input: %s", got)
	}
}
