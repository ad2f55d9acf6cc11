// Package utils contains internal HTTP and string plumbing shared by the
// provider adapters: synchronous JSON POST helpers, a streaming POST variant
// that leaves the body open for SSE reading, a defensive SSE line scanner,
// and small string/pointer conveniences.
package utils
