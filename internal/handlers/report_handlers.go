package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"todolist/internal/logger"
	"todolist/internal/models/todo"
	"todolist/internal/service"
)

type ReportHandler struct {
	svc *service.ReportService
}

func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{svc: svc}
}

// parseFilter reads the shared export/preview criteria. Malformed dates
// or numbers drop their range (a single bound is ignored anyway); the
// raw values are echoed back by preview as filters_applied.
func parseFilter(r *http.Request) (todo.Filter, map[string]any) {
	query := r.URL.Query()
	f := todo.Filter{
		Title:    query.Get("title"),
		Assignee: query.Get("assigne"),
		Status:   query.Get("status"),
		Priority: query.Get("priority"),
	}

	if v, err := time.ParseInLocation("2006-01-02", query.Get("start"), time.Local); err == nil {
		f.Start = &v
	}
	if v, err := time.ParseInLocation("2006-01-02", query.Get("end"), time.Local); err == nil {
		f.End = &v
	}
	if v, err := strconv.Atoi(query.Get("min")); err == nil {
		f.MinTime = &v
	}
	if v, err := strconv.Atoi(query.Get("max")); err == nil {
		f.MaxTime = &v
	}

	echo := map[string]any{}
	for _, key := range []string{"title", "assigne", "start", "end", "min", "max", "status", "priority"} {
		if v := query.Get(key); v != "" {
			echo[key] = v
		}
	}
	return f, echo
}

func (h *ReportHandler) Export(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	filter, _ := parseFilter(r)
	artifact, err := h.svc.ExportExcel(r.Context(), filter)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	filename := service.ExportFilename(time.Now())
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact)))
	w.WriteHeader(http.StatusOK)
	w.Write(artifact)

	logger.Info("HTTP_OUT: report exported",
		zap.String("filename", filename),
		zap.Int("bytes", len(artifact)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))
}

func (h *ReportHandler) Preview(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	filter, echo := parseFilter(r)
	preview, err := h.svc.Preview(r.Context(), filter)
	if err != nil {
		writeBusinessError(w, err)
		return
	}

	logger.Info("HTTP_OUT: report previewed",
		zap.Int("rows", preview.Summary.TotalRecords),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	respondSuccess(w, http.StatusOK, "Preview data retrieved successfully",
		toPayload("data", map[string]any{
			"todos":           preview.Todos,
			"summary":         preview.Summary,
			"filters_applied": echo,
		}))
}
