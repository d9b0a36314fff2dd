package handler

import (
	"net/http"
	"strconv"

	"github.com/msto63/gridwerk/internal/sheetd/service"
)

const defaultHistoryLimit = 50

// handleSheets lists or creates sheets
func (h *Handler) handleSheets(w http.ResponseWriter, r *http.Request) {
	if !h.allow(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	if r.Method == http.MethodGet {
		list, err := h.sheets.List(r.Context())
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, SheetsResponse{Sheets: list, Total: len(list)})
		return
	}

	var req CreateSheetRequest
	if err := h.readJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}
	sh, err := h.sheets.Create(r.Context(), service.CreateRequest{
		Title:   req.Title,
		Rows:    req.Rows,
		Columns: req.Columns,
		Data:    req.Data,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, service.View(sh))
}

// handleSheet returns or deletes one sheet
func (h *Handler) handleSheet(w http.ResponseWriter, r *http.Request, id string) {
	if !h.allow(w, r, http.MethodGet, http.MethodDelete) {
		return
	}

	if r.Method == http.MethodDelete {
		if err := h.sheets.Delete(r.Context(), id); err != nil {
			h.writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	sh, err := h.sheets.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, service.View(sh))
}

// handleExecute runs a command string. A command error still returns the
// lines that ran and the stored sheet, with the status of the error code.
func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request, id string) {
	if !h.allow(w, r, http.MethodPost) {
		return
	}

	var req ExecuteRequest
	if err := h.readJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	ex, err := h.sheets.Execute(r.Context(), id, req.Command, service.SourceHTTP)
	if ex == nil {
		h.writeServiceError(w, err)
		return
	}

	resp, status := executeResponse(ex)
	h.writeJSON(w, status, resp)
}

func executeResponse(ex *service.Execution) (*ExecuteResponse, int) {
	resp := &ExecuteResponse{Execution: ex}
	if ex.Sheet != nil {
		view := service.View(ex.Sheet)
		resp.Sheet = &view
	}
	status := http.StatusOK
	if ex.Err != nil {
		resp.Error = errorResponse(ex.Err)
		status = codeStatus(ex.Err)
	}
	return resp, status
}

// handleHistory returns recent runs, newest first
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request, id string) {
	if !h.allow(w, r, http.MethodGet) {
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer", v)
			return
		}
		limit = n
	}

	entries, err := h.sheets.History(r.Context(), id, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"history": entries, "total": len(entries)})
}

// handleColumn relabels the column at a 0-based index
func (h *Handler) handleColumn(w http.ResponseWriter, r *http.Request, id, index string) {
	if !h.allow(w, r, http.MethodPut) {
		return
	}

	i, err := strconv.Atoi(index)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "column index must be an integer", index)
		return
	}

	var req RenameColumnRequest
	if err := h.readJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	sh, err := h.sheets.RenameColumn(r.Context(), id, i, req.Label)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, service.View(sh))
}

// handleAssist forwards a natural-language request to the assistant
func (h *Handler) handleAssist(w http.ResponseWriter, r *http.Request, id string) {
	if !h.allow(w, r, http.MethodPost) {
		return
	}

	var req AssistRequest
	if err := h.readJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body", err.Error())
		return
	}

	res, err := h.sheets.Assist(r.Context(), id, req.Message)
	if res == nil {
		h.writeServiceError(w, err)
		return
	}

	resp := AssistResponse{Message: res.Message, Functions: res.Functions}
	status := http.StatusOK
	if res.Execution != nil {
		resp.Execution, status = executeResponse(res.Execution)
	}
	h.writeJSON(w, status, resp)
}

// handleWebSocket subscribes to live updates of a sheet
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request, id string) {
	if h.hub == nil {
		h.writeError(w, http.StatusServiceUnavailable, "unavailable", "Live updates are disabled", "")
		return
	}
	h.hub.Serve(w, r, id)
}
