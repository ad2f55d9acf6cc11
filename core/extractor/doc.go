// Package extractor is the top-level coordinator of the extraction pipeline.
// It compiles the request into a prompt, selects the provider adapter, drives
// the streaming assembler, hands the accumulated text to the output parser
// and returns a terminal Outcome. It is the only place that branches on
// provider identity.
package extractor
