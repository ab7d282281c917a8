// Package io saves and loads network designs.
//
// # Overview
//
// A design is persisted as a [Snapshot]: a plain list of neuron field
// records followed by a plain list of synapse field records, tagged with a
// UUID and a display name. Snapshots carry no ids, incidence or undo state;
// loading re-creates the design through the ordinary add operations, so a
// tampered or corrupted file cannot smuggle in a design that breaks the
// placement rules.
//
// # Formats
//
// Two encodings are supported and chosen by file extension:
//
//   - JSON (".nunet", ".json"), the default
//   - TOML (".toml"), convenient for hand-written designs
//
// A JSON snapshot looks like:
//
//	{
//	  "id": "6f1c...",
//	  "name": "xor",
//	  "neurons": [
//	    {"Type": "Input", "Position": [0, 0], "Activation": "NONE", "Name": "a"},
//	    {"Type": "Neuron", "Position": [1, 0], "Activation": "LEAKY ReLU", "Constant": 0.01}
//	  ],
//	  "synapses": [
//	    {"Startposition": [0, 0], "Endposition": [1, 0], "Interval": 0.1, "Min": -1, "Max": 1, "Bias": true}
//	  ]
//	}
//
// # Usage
//
//	snap, err := io.Import("xor.nunet")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d, err := snap.Restore()
//	// ... edit d ...
//	err = io.Export(io.FromStore(d.Store(), snap.ID, snap.Name), "xor.nunet")
//
// All failures from [Import], [Export] and [Snapshot.Restore] carry the
// PERSISTENCE_FAILURE code.
package io
