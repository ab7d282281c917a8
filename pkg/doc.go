// Package pkg provides the core libraries of nunet, an editor for layered
// neural-network designs.
//
// # Overview
//
// A design places neurons on an integer (layer, offset) grid and joins them
// with synapses that always run from a lower layer to a higher one. The pkg
// directory is organized into four areas:
//
//  1. Domain - [design] (the mutation API, undo and validation) and
//     [codegen] (turning a valid design into network code)
//  2. Persistence - [io] (snapshot files), [storage] (shared design
//     stores) and [session] (live editing sessions)
//  3. Orchestration - [pipeline] (validate → generate → render with
//     caching), [script] (batch edits) and [server] (the HTTP API)
//  4. Support - [cache], [config], [errors], [observability] and [render]
//
// # Architecture
//
// The typical data flow:
//
//	CLI flags / edit script / HTTP request
//	         ↓
//	    [design] Designer (mutations, undo log, notifications)
//	         ↓
//	    [pipeline] Runner (validate, then generate and render, cached)
//	         ↓
//	    Python class / JSON plan / DOT, SVG, PNG, PDF diagram
//
// # Quick Start
//
//	d := design.New()
//	_ = d.AddInput(design.Pos(0, 0), design.ActNone, design.NoConst(), design.Valid("x"))
//	_ = d.AddNeuron(design.Pos(1, 0), design.ActTanh, design.NoConst())
//	_ = d.AddOutput(design.Pos(2, 0), design.LossMSE, design.NoConst(), design.Valid("y"))
//	_, _ = d.AddSynapse(design.Pos(0, 0), design.Pos(1, 0), design.Range(0.1, -1, 1), true)
//	_, _ = d.AddSynapse(design.Pos(1, 0), design.Pos(2, 0), design.Range(0.1, -1, 1), true)
//
//	plan, err := codegen.Generate(d.Store(), codegen.Options{Name: "Xor", LearningRate: 0.05})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = codegen.WritePython(os.Stdout, plan)
//
// # Error Handling
//
// Every package reports failures as [errors.Error] values carrying a
// machine-readable code (POSITION_OCCUPIED, TOPOLOGY_VIOLATION,
// DESIGN_INVALID, ...). Callers branch on the code with [errors.Is].
//
// [design]: github.com/matzehuels/nunet/pkg/design
// [codegen]: github.com/matzehuels/nunet/pkg/codegen
// [io]: github.com/matzehuels/nunet/pkg/io
// [storage]: github.com/matzehuels/nunet/pkg/storage
// [session]: github.com/matzehuels/nunet/pkg/session
// [pipeline]: github.com/matzehuels/nunet/pkg/pipeline
// [script]: github.com/matzehuels/nunet/pkg/script
// [server]: github.com/matzehuels/nunet/pkg/server
// [cache]: github.com/matzehuels/nunet/pkg/cache
// [config]: github.com/matzehuels/nunet/pkg/config
// [errors]: github.com/matzehuels/nunet/pkg/errors
// [observability]: github.com/matzehuels/nunet/pkg/observability
// [render]: github.com/matzehuels/nunet/pkg/render
// [errors.Error]: github.com/matzehuels/nunet/pkg/errors#Error
// [errors.Is]: github.com/matzehuels/nunet/pkg/errors#Is
package pkg
