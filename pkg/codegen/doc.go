// Package codegen turns a valid design into the ordered emission consumed by
// the numeric engine.
//
// [Generate] produces a [Plan]: neuron descriptors grouped by layer (layers
// in ascending numeric order, neurons by ascending offset), then synapse
// descriptors in store order, plus a learning rate. The Plan is then written
// out by an emitter:
//
//   - [WritePython]: a Python class deriving from the engine's Network
//   - [WriteJSON]: the Plan as JSON, for engines in other languages
//
// Generation refuses invalid designs with a DESIGN_INVALID error and does no
// I/O in that case. [WriteFile] refuses to replace an existing file unless
// told to.
package codegen
