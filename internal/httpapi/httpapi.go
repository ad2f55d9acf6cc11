// Package httpapi exposes the extraction pipeline over HTTP. It is a thin
// presentation collaborator: request decoding, status mapping and SSE framing
// live here, never pipeline logic.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/fieldlens/fieldlens/core/extractor"
	"github.com/fieldlens/fieldlens/core/model"
	"github.com/fieldlens/fieldlens/core/usage"
	"github.com/fieldlens/fieldlens/core/validate"
	"github.com/fieldlens/fieldlens/internal/config"
	"github.com/fieldlens/fieldlens/providers/ai"
)

// Server routes extraction requests to the pipeline.
type Server struct {
	extractor *extractor.Extractor
	cfg       config.Config
	tracker   *usage.Tracker
}

// NewServer builds the HTTP surface over the given extractor. tracker may be
// nil, in which case the usage endpoint reports empty totals.
func NewServer(ext *extractor.Extractor, cfg config.Config, tracker *usage.Tracker) *Server {
	if tracker == nil {
		tracker = usage.NewTracker()
	}
	return &Server{extractor: ext, cfg: cfg, tracker: tracker}
}

// Router assembles the chi router with CORS and the API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Duration(s.cfg.Server.TimeoutSecs) * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/api/providers", s.handleProviders)
	r.Get("/api/usage", s.handleUsage)
	r.Post("/api/extract", s.handleExtract)
	r.Post("/api/extract/stream", s.handleExtractStream)
	r.Post("/api/extract/batch", s.handleExtractBatch)

	return r
}

// extractRequest is the wire form of an extraction request. The credential
// travels in its own field because ExtractionRequest never serializes it.
type extractRequest struct {
	model.ExtractionRequest
	APIKey string `json:"api_key"`

	// Validate asks for a post-parse check of a schema-mode result against
	// the declared fields. Violations are advisory; the data is still
	// returned.
	Validate bool `json:"validate,omitempty"`
}

func (er *extractRequest) toRequest() *model.ExtractionRequest {
	request := er.ExtractionRequest
	request.Credential = er.APIKey
	return &request
}

// extractResponse is the terminal payload for one extraction.
type extractResponse struct {
	Success      bool   `json:"success"`
	ID           string `json:"id"`
	Data         any       `json:"data"`
	ParseFailure any       `json:"parse_failure,omitempty"`
	RawLLMOutput string    `json:"raw_llm_output,omitempty"`
	Usage        *ai.Usage `json:"usage,omitempty"`
	SchemaError  string    `json:"schema_error,omitempty"`
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	catalogue := make(map[string][]string, 4)
	for _, vendor := range model.Vendors() {
		catalogue[string(vendor)] = s.extractor.KnownModels(vendor)
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": catalogue})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Summary())
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var wireRequest extractRequest
	if err := json.NewDecoder(r.Body).Decode(&wireRequest); err != nil {
		writeError(w, ai.InvalidRequestError("invalid request body: "+err.Error()))
		return
	}

	request := wireRequest.toRequest()
	outcome, err := s.extractor.SubmitWithRetry(r.Context(), request, nil, s.cfg.Extract.RetryAttempts)
	if err != nil {
		writeError(w, err)
		return
	}

	response := outcomeToResponse(outcome)
	if wireRequest.Validate && request.Mode == model.ModeSchema && outcome.Result.OK() {
		if err := validate.Fields(outcome.Result.Value, request.SchemaFields); err != nil {
			response.SchemaError = err.Error()
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleExtractBatch(w http.ResponseWriter, r *http.Request) {
	var wireRequest struct {
		extractRequest
		Items []extractor.BatchItem `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&wireRequest); err != nil {
		writeError(w, ai.InvalidRequestError("invalid request body: "+err.Error()))
		return
	}
	if len(wireRequest.Items) == 0 {
		writeError(w, ai.InvalidRequestError("batch requires at least one item"))
		return
	}

	results := s.extractor.Batch(r.Context(), wireRequest.toRequest(), wireRequest.Items, s.cfg.Extract.BatchConcurrency)

	type batchItemResponse struct {
		ID      string `json:"id"`
		Success bool   `json:"success"`
		Data    any    `json:"data"`
		Error   string `json:"error,omitempty"`
	}

	response := make([]batchItemResponse, 0, len(results))
	for _, result := range results {
		item := batchItemResponse{ID: result.ID}
		switch {
		case result.Outcome == nil || result.Outcome.State == extractor.StateFailed:
			if result.Outcome != nil && result.Outcome.Err != nil {
				item.Error = result.Outcome.Err.Error()
			} else {
				item.Error = "extraction failed"
			}
		case result.Outcome.Result.OK():
			item.Success = true
			item.Data = result.Outcome.Result.Value
		default:
			item.Error = result.Outcome.Result.Failure.Reason
		}
		response = append(response, item)
	}

	writeJSON(w, http.StatusOK, map[string]any{"results": response})
}

func outcomeToResponse(outcome *extractor.Outcome) extractResponse {
	response := extractResponse{
		Success:      true,
		ID:           outcome.ID,
		RawLLMOutput: outcome.RawText,
		Usage:        outcome.Usage,
	}
	if outcome.Result.OK() {
		response.Data = outcome.Result.Value
	} else {
		response.ParseFailure = outcome.Result.Failure
	}
	return response
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps the error taxonomy onto HTTP status codes. Every failure
// carries a human-readable message.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	kind := ai.ErrUnknown
	if providerErr, ok := ai.AsProviderError(err); ok {
		kind = providerErr.Kind
		switch providerErr.Kind {
		case ai.ErrAuth:
			status = http.StatusUnauthorized
		case ai.ErrRateLimited:
			status = http.StatusTooManyRequests
		case ai.ErrInvalidRequest:
			status = http.StatusBadRequest
		case ai.ErrUnavailable:
			status = http.StatusServiceUnavailable
		case ai.ErrTimeout:
			status = http.StatusGatewayTimeout
		}
	}

	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   err.Error(),
		"kind":    string(kind),
	})
}
