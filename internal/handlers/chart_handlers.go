package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"todolist/internal/logger"
	"todolist/internal/service"
)

type ChartHandler struct {
	svc *service.ChartService
}

func NewChartHandler(svc *service.ChartService) *ChartHandler {
	return &ChartHandler{svc: svc}
}

func (h *ChartHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	chartType := r.URL.Query().Get("type")
	switch chartType {
	case "status":
		summary, err := h.svc.StatusSummary(r.Context())
		if err != nil {
			writeBusinessError(w, err)
			return
		}
		respondSuccess(w, http.StatusOK, "Status summary retrieved successfully",
			toPayload("data", map[string]any{"status_summary": summary}))

	case "priority":
		summary, err := h.svc.PrioritySummary(r.Context())
		if err != nil {
			writeBusinessError(w, err)
			return
		}
		respondSuccess(w, http.StatusOK, "Priority summary retrieved successfully",
			toPayload("data", map[string]any{"priority_summary": summary}))

	case "assignee":
		summary, err := h.svc.AssigneeSummary(r.Context())
		if err != nil {
			writeBusinessError(w, err)
			return
		}
		respondSuccess(w, http.StatusOK, "Assignee summary retrieved successfully",
			toPayload("data", map[string]any{"assignee_summary": summary}))

	default:
		logger.Warn("HTTP: invalid chart type",
			zap.String("type", chartType),
			zap.String("client_ip", r.RemoteAddr))
		writeBusinessError(w, service.NewBadRequest("Invalid chart type",
			map[string]any{"supported_types": "status, priority, assignee"}))
		return
	}

	logger.Info("HTTP_OUT: chart data served",
		zap.String("type", chartType),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))
}
