// Package handler is the HTTP command surface: a JSON API over the request
// orchestrator. Sessions ride in the X-Papergen-Session header; the handler
// creates one when absent and echoes it back on every response.
package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/avolkov/papergen/internal/analyze"
	"github.com/avolkov/papergen/internal/catalog"
	"github.com/avolkov/papergen/internal/extract"
	"github.com/avolkov/papergen/internal/i18n"
	"github.com/avolkov/papergen/internal/model"
	"github.com/avolkov/papergen/internal/service"
	"github.com/avolkov/papergen/internal/store"
)

// SessionHeader carries the opaque session id between client and server.
const SessionHeader = "X-Papergen-Session"

// maxUploadBytes caps the size of an uploaded document.
const maxUploadBytes = 2 << 20

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New creates a new Handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Use(h.sessionMiddleware)
	r.Get("/api/subjects", h.handleSubjects)
	r.Post("/api/generate/auto", h.handleGenerateAuto)
	r.Post("/api/generate/manual", h.handleGenerateManual)
	r.Post("/api/analyze", h.handleAnalyze)
	r.Get("/api/dashboard", h.handleDashboard)
	r.Get("/api/requests/{requestID}", h.handleRequest)
	r.Get("/api/requests/{requestID}/export/{format}", h.handleExport)
	r.Post("/api/feedback", h.handleFeedback)
	r.Post("/api/uploads", h.handleUpload)
}

// sessionMiddleware resolves the caller's session and stores its id in the
// request context. The resolved id is echoed back so first-time callers can
// keep it.
func (h *Handler) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.svc.EnsureSession(r.Header.Get(SessionHeader), r.UserAgent())
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		w.Header().Set(SessionHeader, sess.ID)
		ctx := model.ContextWithSession(r.Context(), sess.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// subjectInfo is one row of the subjects listing.
type subjectInfo struct {
	Subject string   `json:"subject"`
	Topics  []string `json:"topics"`
}

func (h *Handler) handleSubjects(w http.ResponseWriter, r *http.Request) {
	var subjects []subjectInfo
	for _, s := range catalog.Subjects() {
		topics, _ := catalog.TopicsFor(s)
		subjects = append(subjects, subjectInfo{Subject: s, Topics: topics})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"subjects": subjects})
}

func (h *Handler) handleGenerateAuto(w http.ResponseWriter, r *http.Request) {
	var req service.AutoRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.svc.GenerateAuto(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleGenerateManual(w http.ResponseWriter, r *http.Request) {
	var req service.ManualRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.svc.GenerateManual(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, result)
}

// analyzeRequest is the JSON body of POST /api/analyze.
type analyzeRequest struct {
	Papers            []model.PastPaper `json:"papers"`
	SyllabusTopics    []string          `json:"syllabus_topics"`
	HotTopicThreshold float64           `json:"hot_topic_threshold"`
	PredictionLimit   int               `json:"prediction_limit"`
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !h.decode(w, r, &req) {
		return
	}
	opts := analyze.DefaultOptions()
	if req.HotTopicThreshold > 0 {
		opts.HotTopicThreshold = req.HotTopicThreshold
	}
	if req.PredictionLimit > 0 {
		opts.PredictionLimit = req.PredictionLimit
	}
	report, err := h.svc.AnalyzePastPapers(r.Context(), req.Papers, req.SyllabusTopics, opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	f := store.DefaultDashboardFilters()
	if n := queryInt(r, "top_n"); n > 0 {
		f.TopN = n
	}
	if n := queryInt(r, "days"); n > 0 {
		f.DailyDays = n
	}
	if n := queryInt(r, "recent"); n > 0 {
		f.RecentLimit = n
	}
	stats, err := h.svc.Dashboard(f)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "requestID"), 10, 64)
	if err != nil {
		h.writeError(w, r, model.NewError(model.KindInvalidInput, "invalid request id"))
		return
	}
	result, err := h.svc.Request(id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "requestID"), 10, 64)
	if err != nil {
		h.writeError(w, r, model.NewError(model.KindInvalidInput, "invalid request id"))
		return
	}
	format := model.ExportFormat(chi.URLParam(r, "format"))

	blob, name, contentType, err := h.svc.Export(id, format)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if _, err := w.Write(blob); err != nil {
		h.logger.Error("write export", "request_id", id, "error", err)
	}
}

// feedbackRequest is the JSON body of POST /api/feedback.
type feedbackRequest struct {
	Kind    string `json:"kind"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.svc.RecordFeedback(r.Context(), req.Kind, req.Rating, req.Comment); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{
		"message": i18n.T(r.Context(), "feedback.recorded"),
	})
}

// handleUpload accepts a multipart document, logs its metadata and, for
// syllabus uploads, returns the extracted topics.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, r, model.NewError(model.KindInvalidInput, "parse multipart form: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, model.NewError(model.KindInvalidInput, "missing file field"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.writeError(w, r, model.WrapError(model.KindPersistenceFailure, err, "read upload"))
		return
	}

	purpose := model.UploadPurpose(r.FormValue("purpose"))
	id, err := h.svc.RecordUpload(r.Context(), model.FileUpload{
		FileName: header.Filename,
		FileKind: header.Header.Get("Content-Type"),
		FileSize: int64(len(content)),
		Purpose:  purpose,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := map[string]any{
		"id":      id,
		"message": i18n.Td(r.Context(), "upload.recorded", map[string]any{"FileName": header.Filename}),
	}
	if purpose == model.UploadSyllabus {
		resp["topics"] = extract.Topics(string(content))
	}
	h.writeJSON(w, http.StatusCreated, resp)
}

// queryInt parses the named query parameter as an int, returning 0 when the
// parameter is absent or not a valid integer.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, r, model.NewError(model.KindInvalidInput, "decode request body: %v", err))
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

// errorResponse is the JSON error envelope: a machine-readable kind, a
// localized summary and the English detail for debugging.
type errorResponse struct {
	Error   model.ErrorKind `json:"error"`
	Message string          `json:"message"`
	Detail  string          `json:"detail,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := model.KindOf(err)
	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	h.writeJSON(w, status, errorResponse{
		Error:   kind,
		Message: i18n.KindMessage(r.Context(), kind),
		Detail:  err.Error(),
	})
}

func statusForKind(kind model.ErrorKind) int {
	switch kind {
	case model.KindInvalidInput:
		return http.StatusBadRequest
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindResourceExhausted:
		return http.StatusRequestEntityTooLarge
	case model.KindCollaboratorFailure:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
