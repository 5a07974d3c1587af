package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"todolist/internal/handlers/dto"
	"todolist/internal/logger"
	"todolist/internal/service"
)

type TodoHandler struct {
	svc *service.TodoService
}

func NewTodoHandler(svc *service.TodoService) *TodoHandler {
	return &TodoHandler{svc: svc}
}

func parseID(r *http.Request) (int64, bool) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		logger.Warn("HTTP: invalid id",
			zap.String("id", idParam),
			zap.String("client_ip", r.RemoteAddr))
		return 0, false
	}
	return id, true
}

func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var request dto.CreateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: bad request body", zap.Error(err), zap.String("client_ip", r.RemoteAddr))
		respondError(w, http.StatusBadRequest, "Failed to create todo list", "invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	input, violations := request.ToInput()
	if len(violations) > 0 {
		writeBusinessError(w, service.NewValidationError(violations))
		return
	}

	created, err := h.svc.Create(r.Context(), input)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	logger.Info("HTTP_OUT: todo created",
		zap.Int64("todo_id", created.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusCreated))

	respondSuccess(w, http.StatusCreated, "Todo list created successfully",
		toPayload("data", created))
}

func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	query := r.URL.Query()
	search := query.Get("search")

	items, err := h.svc.List(r.Context(), search, query.Get("sort_by"), query.Get("order_direction"))
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	var searchEcho any
	if search != "" {
		searchEcho = search
	}

	logger.Info("HTTP_OUT: todos listed",
		zap.Int("count", len(items)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	respondSuccess(w, http.StatusOK, "Todo lists retrieved successfully",
		toPayload("data", items),
		toPayload("search", searchEcho),
		toPayload("total_count", len(items)))
}

func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, ok := parseID(r)
	if !ok {
		writeBusinessError(w, service.NewBadRequest("Failed to retrieve todo list",
			map[string]any{"id": "must be a positive integer"}))
		return
	}

	t, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	logger.Info("HTTP_OUT: todo retrieved",
		zap.Int64("todo_id", t.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	respondSuccess(w, http.StatusOK, "Todo list retrieved successfully",
		toPayload("data", t))
}

func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, ok := parseID(r)
	if !ok {
		writeBusinessError(w, service.NewBadRequest("Failed to update todo list",
			map[string]any{"id": "must be a positive integer"}))
		return
	}

	var request dto.UpdateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: bad request body", zap.Error(err), zap.String("client_ip", r.RemoteAddr))
		respondError(w, http.StatusBadRequest, "Failed to update todo list", "invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	input, violations := request.ToInput()
	if len(violations) > 0 {
		writeBusinessError(w, service.NewValidationError(violations))
		return
	}

	updated, err := h.svc.Update(r.Context(), id, input)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	logger.Info("HTTP_OUT: todo updated",
		zap.Int64("todo_id", updated.ID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	respondSuccess(w, http.StatusOK, "Todo list updated successfully",
		toPayload("data", updated))
}

func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id, ok := parseID(r)
	if !ok {
		writeBusinessError(w, service.NewBadRequest("Failed to delete todo list",
			map[string]any{"id": "must be a positive integer"}))
		return
	}

	deletedID, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	logger.Info("HTTP_OUT: todo deleted",
		zap.Int64("todo_id", deletedID),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	respondSuccess(w, http.StatusOK, "Todo list deleted successfully",
		toPayload("deleted_id", deletedID))
}

func (h *TodoHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var request dto.BulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: bad request body", zap.Error(err), zap.String("client_ip", r.RemoteAddr))
		respondError(w, http.StatusBadRequest, "Failed to delete todo lists", "invalid request body: "+err.Error())
		return
	}
	defer r.Body.Close()

	count, err := h.svc.BulkDelete(r.Context(), request.IDs)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	logger.Info("HTTP_OUT: todos bulk deleted",
		zap.Int64("deleted", count),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	respondSuccess(w, http.StatusOK,
		"Successfully deleted "+strconv.FormatInt(count, 10)+" todo list(s)",
		toPayload("deleted_count", count),
		toPayload("deleted_ids", request.IDs))
}

func (h *TodoHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	logger.HttpRequestInfo(r, "HTTP: health check")

	if err := h.svc.HealthCheck(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "Service unhealthy", err.Error())
		return
	}
	respondSuccess(w, http.StatusOK, "OK")
}
