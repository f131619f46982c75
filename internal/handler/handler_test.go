package handler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/papergen/internal/i18n"
	"github.com/avolkov/papergen/internal/model"
	"github.com/avolkov/papergen/internal/service"
	"github.com/avolkov/papergen/internal/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	require.NoError(t, i18n.Init("en"))

	st, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	svc := service.New(st, service.Config{Seed: 11})
	r := chi.NewRouter()
	New(svc, nil).Routes(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, session string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(SessionHeader, session)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGenerateAutoEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/generate/auto", service.AutoRequest{
		Subject: "Operating Systems",
		Count:   6,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(SessionHeader))

	var result service.GenerationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result.Questions, 6)
	assert.Greater(t, result.Request.ID, int64(0))
}

func TestSessionHeaderEchoedBack(t *testing.T) {
	router := newTestRouter(t)

	first := doJSON(t, router, http.MethodGet, "/api/dashboard", nil, "")
	require.Equal(t, http.StatusOK, first.Code)
	session := first.Header().Get(SessionHeader)
	require.NotEmpty(t, session)

	second := doJSON(t, router, http.MethodGet, "/api/dashboard", nil, session)
	assert.Equal(t, session, second.Header().Get(SessionHeader))
}

func TestGenerateAutoUnknownSubject(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/generate/auto", service.AutoRequest{
		Subject: "Astrology",
		Count:   5,
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.KindInvalidInput, resp.Error)
	assert.Equal(t, "The request is not valid. Check the input and try again.", resp.Message)
	assert.Contains(t, resp.Detail, "Astrology")
}

func TestGenerateAutoCountCap(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/generate/auto", service.AutoRequest{
		Subject: "Operating Systems",
		Count:   5000,
	}, "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRequestAndExportEndpoints(t *testing.T) {
	router := newTestRouter(t)

	created := doJSON(t, router, http.MethodPost, "/api/generate/manual", service.ManualRequest{
		SyllabusText: "Virtual Memory Management\nProcess Scheduling Algorithms\n",
		Count:        4,
	}, "")
	require.Equal(t, http.StatusCreated, created.Code)

	var result service.GenerationResult
	require.NoError(t, json.Unmarshal(created.Body.Bytes(), &result))
	id := strconv.FormatInt(result.Request.ID, 10)

	got := doJSON(t, router, http.MethodGet, "/api/requests/"+id, nil, "")
	require.Equal(t, http.StatusOK, got.Code)

	exported := doJSON(t, router, http.MethodGet, "/api/requests/"+id+"/export/text", nil, "")
	require.Equal(t, http.StatusOK, exported.Code)
	assert.Equal(t, "text/plain; charset=utf-8", exported.Header().Get("Content-Type"))
	assert.Contains(t, exported.Header().Get("Content-Disposition"), "question_paper.txt")
	assert.Contains(t, exported.Body.String(), "Q1")

	missing := doJSON(t, router, http.MethodGet, "/api/requests/999", nil, "")
	assert.Equal(t, http.StatusNotFound, missing.Code)

	badFormat := doJSON(t, router, http.MethodGet, "/api/requests/"+id+"/export/pdf", nil, "")
	assert.Equal(t, http.StatusBadRequest, badFormat.Code)
}

func TestAnalyzeEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/analyze", analyzeRequest{
		Papers: []model.PastPaper{
			{SourceID: "2022.txt", Year: 2022, Questions: []string{"Explain ACID Properties in detail."}},
			{SourceID: "2023.txt", Year: 2023, Questions: []string{"Explain ACID properties in detail."}},
		},
		SyllabusTopics: []string{"ACID Properties"},
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var report model.RecurrenceReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 2, report.PaperCount)
	require.NotEmpty(t, report.Recurring)
	assert.Equal(t, 2, report.Recurring[0].Appearances)
}

func TestFeedbackEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/feedback", feedbackRequest{
		Kind:   "paper_quality",
		Rating: 5,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "feedback has been recorded")

	bad := doJSON(t, router, http.MethodPost, "/api/feedback", feedbackRequest{Rating: 9}, "")
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestSubjectsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/subjects", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Operating Systems")
}

func TestUploadEndpoint(t *testing.T) {
	router := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "syllabus.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("Virtual Memory Management\nProcess Scheduling Algorithms\n"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("purpose", "syllabus"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		ID      int64    `json:"id"`
		Message string   `json:"message"`
		Topics  []string `json:"topics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Greater(t, resp.ID, int64(0))
	assert.Contains(t, resp.Message, "syllabus.txt")
	assert.Contains(t, resp.Topics, "Virtual Memory Management")
}
