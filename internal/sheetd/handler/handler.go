// Package handler serves the gridwerk REST API.
package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	mdwerror "github.com/msto63/gridwerk/foundation/core/error"
	"github.com/msto63/gridwerk/internal/sheet"
	"github.com/msto63/gridwerk/internal/sheetd/hub"
	"github.com/msto63/gridwerk/internal/sheetd/service"
	"github.com/msto63/gridwerk/pkg/core/health"
	"github.com/msto63/gridwerk/pkg/core/logging"
)

const maxBodyBytes = 1 << 20

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

// FunctionInfo describes one catalog function
type FunctionInfo struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Usage       string `json:"usage"`
	Description string `json:"description"`
	Example     string `json:"example"`
}

// FunctionsResponse lists the function catalog
type FunctionsResponse struct {
	Functions []FunctionInfo `json:"functions"`
	Total     int            `json:"total"`
}

// CreateSheetRequest creates a sheet
type CreateSheetRequest struct {
	Title   string      `json:"title"`
	Rows    int         `json:"rows,omitempty"`
	Columns int         `json:"columns,omitempty"`
	Data    *sheet.Data `json:"data,omitempty"`
}

// SheetsResponse lists stored sheets
type SheetsResponse struct {
	Sheets interface{} `json:"sheets"`
	Total  int         `json:"total"`
}

// ExecuteRequest runs a command string
type ExecuteRequest struct {
	Command string `json:"command"`
}

// ExecuteResponse is the outcome of a command string
type ExecuteResponse struct {
	*service.Execution
	Sheet *service.SheetView `json:"sheet,omitempty"`
	Error *ErrorResponse     `json:"error,omitempty"`
}

// RenameColumnRequest relabels a column
type RenameColumnRequest struct {
	Label string `json:"label"`
}

// AssistRequest asks the assistant to act on a sheet
type AssistRequest struct {
	Message string `json:"message"`
}

// AssistResponse is the assistant outcome
type AssistResponse struct {
	Message   string           `json:"message"`
	Functions []string         `json:"functions"`
	Execution *ExecuteResponse `json:"execution,omitempty"`
}

// Config configures the handler
type Config struct {
	Version        string
	AllowedOrigins []string
	AllowedMethods []string
}

// Handler handles HTTP requests for the sheet API
type Handler struct {
	sheets    *service.Service
	hub       *hub.Hub
	health    *health.Registry
	logger    *logging.Logger
	config    Config
	startTime time.Time
}

// New creates the API handler. hub and healthRegistry may be nil.
func New(cfg Config, sheets *service.Service, h *hub.Hub, healthRegistry *health.Registry, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.New("sheet-handler")
	}
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	return &Handler{
		sheets:    sheets,
		hub:       h,
		health:    healthRegistry,
		logger:    logger,
		config:    cfg,
		startTime: time.Now(),
	}
}

// ServeHTTP implements http.Handler
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.setCORS(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")

	switch {
	case path == "":
		h.handleRoot(w, r)
	case path == "health":
		h.handleHealth(w, r)
	case path == "functions":
		h.handleFunctions(w, r)
	case path == "sheets":
		h.handleSheets(w, r)
	case parts[0] == "sheets" && len(parts) == 2:
		h.handleSheet(w, r, parts[1])
	case parts[0] == "sheets" && len(parts) == 3 && parts[2] == "execute":
		h.handleExecute(w, r, parts[1])
	case parts[0] == "sheets" && len(parts) == 3 && parts[2] == "history":
		h.handleHistory(w, r, parts[1])
	case parts[0] == "sheets" && len(parts) == 3 && parts[2] == "assist":
		h.handleAssist(w, r, parts[1])
	case parts[0] == "sheets" && len(parts) == 3 && parts[2] == "ws":
		h.handleWebSocket(w, r, parts[1])
	case parts[0] == "sheets" && len(parts) == 4 && parts[2] == "columns":
		h.handleColumn(w, r, parts[1], parts[3])
	default:
		h.writeError(w, http.StatusNotFound, "not_found", "Endpoint not found", "")
	}
}

func (h *Handler) setCORS(w http.ResponseWriter, r *http.Request) {
	if len(h.config.AllowedOrigins) == 0 {
		return
	}
	origin := r.Header.Get("Origin")
	allow := ""
	for _, o := range h.config.AllowedOrigins {
		if o == "*" {
			allow = "*"
			break
		}
		if o == origin {
			allow = origin
		}
	}
	if allow == "" {
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", allow)
	w.Header().Set("Access-Control-Allow-Methods", strings.Join(h.config.AllowedMethods, ", "))
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
}

// handleRoot handles the root endpoint
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "gridwerk",
		"version": h.config.Version,
		"uptime":  time.Since(h.startTime).String(),
		"endpoints": []string{
			"GET /api/v1/health",
			"GET /api/v1/functions",
			"GET|POST /api/v1/sheets",
			"GET|DELETE /api/v1/sheets/{id}",
			"POST /api/v1/sheets/{id}/execute",
			"GET /api/v1/sheets/{id}/history",
			"PUT /api/v1/sheets/{id}/columns/{index}",
			"POST /api/v1/sheets/{id}/assist",
			"GET /api/v1/sheets/{id}/ws",
		},
	})
}

// handleHealth reports the health registry; unhealthy maps to 503
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}
	if h.health == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": string(health.StatusHealthy)})
		return
	}

	report := h.health.Check(r.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, report)
}

// handleFunctions lists the function catalog
func (h *Handler) handleFunctions(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}
	sigs := h.sheets.Engine().Registry().Signatures()
	resp := FunctionsResponse{Functions: make([]FunctionInfo, len(sigs)), Total: len(sigs)}
	for i, sig := range sigs {
		resp.Functions[i] = FunctionInfo{
			Name:        sig.Name,
			Category:    sig.Category,
			Usage:       sig.String(),
			Description: sig.Description,
			Example:     sig.Example,
		}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// Helper methods

func (h *Handler) allow(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	h.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Use "+strings.Join(methods, " or "), "")
	return false
}

func (h *Handler) readJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("Failed to encode response", "error", err.Error())
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message, details string) {
	h.writeJSON(w, status, ErrorResponse{Error: message, Code: code, Details: details})
}

// writeServiceError maps an error code to its HTTP status
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	resp := errorResponse(err)
	status := codeStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "code", resp.Code, "error", err.Error())
	}
	h.writeJSON(w, status, resp)
}

func codeStatus(err error) int {
	return mdwerror.GetCode(err).HTTPStatus()
}

func errorResponse(err error) *ErrorResponse {
	resp := &ErrorResponse{Error: err.Error(), Code: string(mdwerror.GetCode(err))}
	if e, ok := mdwerror.As(err); ok {
		if c, ok := e.Detail("coordinate"); ok {
			resp.Details = fmt.Sprintf("coordinate %v", c)
		}
	}
	return resp
}
