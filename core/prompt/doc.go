// Package prompt compiles provider-agnostic extraction requests into the
// instruction text, few-shot example blocks and output-format constraints
// sent to the model. Compilation is a pure function of the request; all
// validation failures surface before any network call is made.
package prompt
