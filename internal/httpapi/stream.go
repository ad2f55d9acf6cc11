package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/fieldlens/fieldlens/core/extractor"
	"github.com/fieldlens/fieldlens/providers/ai"
)

// handleExtractStream runs one extraction and relays model output as
// server-sent events while it arrives.
//
// Framing:
//
//	data: {"chunk": "<new text>"}        one frame per fragment
//	event: error / data: {"error": ...}  terminal failure
//	event: end / data: {"status": "complete"}
func (s *Server) handleExtractStream(w http.ResponseWriter, r *http.Request) {
	var wireRequest extractRequest
	if err := json.NewDecoder(r.Body).Decode(&wireRequest); err != nil {
		writeError(w, ai.InvalidRequestError("invalid request body: "+err.Error()))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, ai.NewProviderError("httpapi", ai.ErrUnknown, "streaming unsupported by connection"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	// Progress snapshots carry the whole accumulation; the wire carries only
	// what is new since the previous frame.
	sent := 0
	onProgress := func(p extractor.Progress) {
		if p.State != extractor.StateStreaming || len(p.RawText) <= sent {
			return
		}
		chunk := p.RawText[sent:]
		sent = len(p.RawText)
		writeSSEData(w, map[string]string{"chunk": chunk})
		flusher.Flush()
	}

	outcome, err := s.extractor.Submit(r.Context(), wireRequest.toRequest(), onProgress)
	if err != nil {
		writeSSEEvent(w, "error", map[string]string{"error": err.Error()})
		flusher.Flush()
		return
	}

	// One-shot providers produce no streaming frames; emit the full text so
	// every client sees the output through the same frames.
	if sent == 0 && outcome.RawText != "" {
		writeSSEData(w, map[string]string{"chunk": outcome.RawText})
	}

	writeSSEEvent(w, "end", map[string]string{"status": "complete"})
	flusher.Flush()
}

func writeSSEData(w http.ResponseWriter, payload any) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_, _ = w.Write([]byte("data: "))
	_, _ = w.Write(encoded)
	_, _ = w.Write([]byte("\n\n"))
}

func writeSSEEvent(w http.ResponseWriter, event string, payload any) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_, _ = w.Write([]byte("event: " + event + "\n"))
	_, _ = w.Write([]byte("data: "))
	_, _ = w.Write(encoded)
	_, _ = w.Write([]byte("\n\n"))
}
