package nodelink_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/nunet/pkg/design"
	"github.com/matzehuels/nunet/pkg/render/nodelink"
)

func ExampleToDOT() {
	d := design.New()
	_ = d.AddInput(design.Pos(0, 0), design.ActNone, design.NoConst(), design.Valid("x"))
	_ = d.AddOutput(design.Pos(1, 0), design.LossMSE, design.NoConst(), design.Valid("y"))
	_, _ = d.AddSynapse(design.Pos(0, 0), design.Pos(1, 0), design.Range(0.1, -1, 1), true)

	dot := nodelink.ToDOT(d.Store(), nodelink.Options{})
	for _, line := range strings.Split(dot, "\n") {
		if strings.Contains(line, "->") {
			fmt.Println(strings.TrimSpace(line))
		}
	}
	// Output:
	// "n0_0" -> "n1_0";
}
