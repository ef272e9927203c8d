package api_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/GlucoRisk/internal/api"
	"github.com/Skufu/GlucoRisk/internal/features"
	"github.com/Skufu/GlucoRisk/internal/history"
	"github.com/Skufu/GlucoRisk/internal/model"
	"github.com/Skufu/GlucoRisk/internal/observability"
	"github.com/Skufu/GlucoRisk/internal/risk"
	"github.com/Skufu/GlucoRisk/internal/scoring"
)

type fakeDB struct {
	err error
}

func (f fakeDB) Ping(ctx context.Context) error {
	return f.err
}

type fakeScorer struct {
	verdict scoring.Verdict
	err     error
	ready   bool
	seen    []features.Vector
}

func (f *fakeScorer) Score(_ context.Context, v features.Vector) (scoring.Verdict, error) {
	f.seen = append(f.seen, v)
	return f.verdict, f.err
}

func (f *fakeScorer) Ready() bool { return f.ready }

type memoryLog struct {
	mu      sync.Mutex
	records []history.Record
	err     error
}

func (m *memoryLog) Append(_ context.Context, rec history.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memoryLog) List(context.Context) ([]history.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]history.Record{}, m.records...), nil
}

type fakeExtractor struct {
	pages []string
}

func (f fakeExtractor) PageTexts(io.ReaderAt, int64) ([]string, error) {
	return f.pages, nil
}

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type harness struct {
	router  *gin.Engine
	scorer  *fakeScorer
	history *memoryLog
	metrics *observability.Metrics
}

func newHarness(t *testing.T, mutate func(*api.Options)) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := &harness{
		scorer: &fakeScorer{
			ready:   true,
			verdict: scoring.Verdict{Label: scoring.Positive, Probability: 0.82, Band: risk.High},
		},
		history: &memoryLog{},
		metrics: observability.NewMetrics(),
	}
	opts := api.Options{
		Scorer:    h.scorer,
		History:   h.history,
		Lister:    h.history,
		Metrics:   h.metrics,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Extractor: fakeExtractor{pages: []string{"1 2 3 4 5"}},
		Now:       func() time.Time { return fixedNow },
	}
	if mutate != nil {
		mutate(&opts)
	}
	h.router = api.NewRouter(opts)
	return h
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func uploadRequest(t *testing.T, path, filename, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestReadyz(t *testing.T) {
	t.Run("db disabled", func(t *testing.T) {
		h := newHarness(t, nil)
		w := h.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "disabled", decode(t, w)["db"])
	})

	t.Run("db unhealthy", func(t *testing.T) {
		h := newHarness(t, func(o *api.Options) { o.DB = fakeDB{err: errors.New("connection refused")} })
		w := h.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		body := decode(t, w)
		assert.Equal(t, "degraded", body["status"])
		assert.Contains(t, body["db"], "connection refused")
	})

	t.Run("resources missing", func(t *testing.T) {
		h := newHarness(t, func(o *api.Options) { o.DB = fakeDB{} })
		h.scorer.ready = false
		w := h.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		body := decode(t, w)
		assert.Equal(t, "unavailable", body["resources"])
		assert.Equal(t, "ok", body["db"])
	})
}

func TestPredict_JSON(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(jsonRequest(http.MethodPost, "/api/v1/predict", `{"glucose": 250, "bmi": 33.6, "age": 50}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	verdict := body["verdict"].(map[string]any)
	assert.Equal(t, "Positive", verdict["label"])
	assert.Equal(t, "High", verdict["band"])
	assert.Equal(t, "High Risk", verdict["result"])
	assert.Equal(t, 0.82, verdict["probability"])

	require.Len(t, h.scorer.seen, 1)
	v := h.scorer.seen[0]
	assert.Equal(t, 200.0, v.Glucose, "clamped to the form maximum")
	assert.Equal(t, 70.0, v.BloodPressure, "omitted fields take the default")
	assert.Equal(t, 50, v.Age)

	require.Len(t, h.history.records, 1)
	assert.Equal(t, "High Risk", h.history.records[0].Result)
	assert.Equal(t, fixedNow, h.history.records[0].ScoredAt)
}

func TestPredict_BadPayload(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(jsonRequest(http.MethodPost, "/api/v1/predict", `{"glucose": "high"`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_payload", decode(t, w)["error"])
	assert.Empty(t, h.history.records)
}

func TestPredict_BodyTooLarge(t *testing.T) {
	h := newHarness(t, func(o *api.Options) { o.MaxBodyBytes = 32 })
	w := h.do(jsonRequest(http.MethodPost, "/api/v1/predict", `{"glucose": 120, "bmi": 30.5, "age": 41, "insulin": 80}`))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Empty(t, h.scorer.seen)
}

func TestPredict_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"model missing", scoring.ErrModelUnavailable, http.StatusServiceUnavailable, "resource_unavailable"},
		{"scaler missing", scoring.ErrScalerUnavailable, http.StatusServiceUnavailable, "resource_unavailable"},
		{"schema", &features.SchemaError{Reason: "scaler returned 7 values"}, http.StatusUnprocessableEntity, "schema_mismatch"},
		{"field domain", &features.DomainError{Field: features.Glucose, Value: -1, Reason: "must be >= 0"}, http.StatusUnprocessableEntity, "invalid_field"},
		{"probability domain", &risk.DomainError{Probability: 1.3}, http.StatusInternalServerError, "probability_out_of_range"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			h.scorer.err = tt.err
			w := h.do(jsonRequest(http.MethodPost, "/api/v1/predict", `{}`))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decode(t, w)["error"])
			assert.Empty(t, h.history.records, "history is written only after a successful score")
		})
	}
}

func TestPredict_HistoryFailureKeepsVerdict(t *testing.T) {
	h := newHarness(t, nil)
	h.history.err = errors.New("disk full")
	w := h.do(jsonRequest(http.MethodPost, "/api/v1/predict", `{}`))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPredictCSV(t *testing.T) {
	h := newHarness(t, nil)
	csv := "Pregnancies,Glucose,BloodPressure,SkinThickness,Insulin,BMI,DPF,Age\n6,148,72,35,0,33.6,0.627,50\n"
	w := h.do(uploadRequest(t, "/api/v1/predict/csv", "row.csv", csv))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Len(t, h.scorer.seen, 1)
	assert.Equal(t, 0.627, h.scorer.seen[0].DiabetesPedigreeFunction)
	assert.Len(t, h.history.records, 1)
}

func TestPredictCSV_MissingColumn(t *testing.T) {
	h := newHarness(t, nil)
	csv := "Pregnancies,Glucose,BloodPressure,SkinThickness,Insulin,BMI,DPF\n6,148,72,35,0,33.6,0.627\n"
	w := h.do(uploadRequest(t, "/api/v1/predict/csv", "row.csv", csv))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, "missing_columns", body["error"])
	assert.Equal(t, []any{"Age"}, body["missing"])
	assert.Empty(t, h.scorer.seen)
}

func TestPredictCSV_InvalidValue(t *testing.T) {
	h := newHarness(t, nil)
	csv := "Pregnancies,Glucose,BloodPressure,SkinThickness,Insulin,BMI,DPF,Age\n6,n/a,72,35,0,33.6,0.627,50\n"
	w := h.do(uploadRequest(t, "/api/v1/predict/csv", "row.csv", csv))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, "invalid_value", body["error"])
	assert.Equal(t, "Glucose", body["field"])
}

func TestPredictFile_MissingPart(t *testing.T) {
	h := newHarness(t, nil)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/predict/csv", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := h.do(req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredictPDF_InsufficientData(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(uploadRequest(t, "/api/v1/predict/pdf", "lab.pdf", "%PDF-1.4"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, "insufficient_data", body["error"])
	assert.Equal(t, 5.0, body["found"])
	assert.Equal(t, 8.0, body["required"])
	assert.Equal(t, []any{1.0, 2.0, 3.0, 4.0, 5.0}, body["values"])
	assert.Empty(t, h.history.records)
}

func TestPredictPDF(t *testing.T) {
	h := newHarness(t, func(o *api.Options) {
		o.Extractor = fakeExtractor{pages: []string{"6 148 72", "35 0 33.6 0.627 50"}}
	})
	w := h.do(uploadRequest(t, "/api/v1/predict/pdf", "lab.pdf", "%PDF-1.4"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, h.scorer.seen, 1)
	assert.Equal(t, 50, h.scorer.seen[0].Age)
}

func TestReport(t *testing.T) {
	h := newHarness(t, nil)

	w := h.do(jsonRequest(http.MethodPost, "/api/v1/report?format=docx", `{"glucose": 148}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "diabetes-risk-20240301-093000.docx")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	form := url.Values{features.Glucose: {"148"}, features.Age: {"50"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/report?format=pdf", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = h.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	assert.Empty(t, h.history.records, "reports do not append history")
}

var hiddenField = regexp.MustCompile(`<input type="hidden" name="([A-Za-z]+)" value="([^"]*)">`)

func docxBody(t *testing.T, data []byte) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(body)
	}
	t.Fatal("word/document.xml missing")
	return ""
}

func TestReport_MatchesUploadedCard(t *testing.T) {
	h := newHarness(t, nil)
	csv := "Pregnancies,Glucose,BloodPressure,SkinThickness,Insulin,BMI,DPF,Age\n6,260,72,35,1200,33.6,0.627,50\n"
	w := h.do(uploadRequest(t, "/upload", "row.csv", csv))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "novalidate", "out-of-bounds values must not block resubmission")

	form := url.Values{}
	for _, m := range hiddenField.FindAllStringSubmatch(w.Body.String(), -1) {
		form.Set(m[1], m[2])
	}
	require.Len(t, form, features.Count)
	assert.Equal(t, "260", form.Get(features.Glucose))
	assert.Equal(t, "1200", form.Get(features.Insulin))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/report?format=docx", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = h.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.Len(t, h.scorer.seen, 2)
	assert.Equal(t, h.scorer.seen[0], h.scorer.seen[1], "report scores the same vector as the card")

	body := docxBody(t, w.Body.Bytes())
	assert.Contains(t, body, "Glucose: 260")
	assert.Contains(t, body, "Insulin: 1200")
	id := w.Header().Get("X-Report-ID")
	require.NotEmpty(t, id)
	assert.Contains(t, body, "Report ID: "+id)
}

func TestReport_RejectsOutOfDomainValues(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(jsonRequest(http.MethodPost, "/api/v1/report?format=pdf", `{"bmi": -3}`))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "invalid_field", decode(t, w)["error"])
	assert.Empty(t, h.scorer.seen)
}

func TestReport_BadFormat(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(jsonRequest(http.MethodPost, "/api/v1/report?format=odt", `{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistory(t *testing.T) {
	h := newHarness(t, nil)
	h.do(jsonRequest(http.MethodPost, "/api/v1/predict", `{}`))
	h.do(jsonRequest(http.MethodPost, "/api/v1/predict", `{"glucose": 180}`))

	w := h.do(httptest.NewRequest(http.MethodGet, "/api/v1/history", nil))
	require.Equal(t, http.StatusOK, w.Code)
	records := decode(t, w)["records"].([]any)
	assert.Len(t, records, 2)
}

func TestIndexPage(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	for _, name := range features.Order {
		assert.Contains(t, body, `name="`+name+`"`)
	}
	assert.Contains(t, body, `name="Insulin" min="0" max="900" step="1" value="100"`)
	assert.Contains(t, body, `name="BMI" min="0" max="70" step="0.1" value="25"`)
}

func TestFormSubmit(t *testing.T) {
	h := newHarness(t, nil)
	form := url.Values{features.Glucose: {"199"}, features.BMI: {"43.1"}, features.Age: {"55"}}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := h.do(req)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `class="card risk-high"`)
	assert.Contains(t, body, "High Risk")
	assert.Contains(t, body, `value="43.1"`)
	assert.Len(t, h.history.records, 1)
}

func TestFormSubmit_ResourceUnavailable(t *testing.T) {
	h := newHarness(t, nil)
	h.scorer.err = scoring.ErrModelUnavailable
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("Glucose=120"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := h.do(req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `role="alert"`)
	assert.NotContains(t, w.Body.String(), `class="card`)
}

func TestFormUpload_PartialValues(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(uploadRequest(t, "/upload", "notes.txt", "Pregnancies 2, glucose 130 and BP 80"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Extracted values: 2, 130, 80.")
	assert.Contains(t, body, `name="Glucose" min="0" max="200" step="1" value="130"`)
	assert.Empty(t, h.history.records)
}

func TestFormUpload_UnsupportedType(t *testing.T) {
	h := newHarness(t, nil)
	w := h.do(uploadRequest(t, "/upload", "scan.png", "\x89PNG"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported file type")
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, nil)
	h.do(jsonRequest(http.MethodPost, "/api/v1/predict", `{}`))

	w := h.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `glucorisk_history_appends_total{result="ok"} 1`)
}

func TestEndToEnd_BundledResources(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	res := model.Load(logger,
		filepath.Join("..", "..", "resources", "model.yaml"),
		filepath.Join("..", "..", "resources", "scaler.yaml"),
	)
	require.True(t, res.Ready())

	log := history.NewCSVLog(filepath.Join(t.TempDir(), "history.csv"))
	router := api.NewRouter(api.Options{
		Scorer:  scoring.New(res, scoring.WithLogger(logger)),
		History: log,
		Lister:  log,
		Logger:  logger,
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(http.MethodPost, "/api/v1/predict",
		`{"pregnancies": 6, "glucose": 199, "bloodPressure": 72, "skinThickness": 35, "insulin": 0, "bmi": 43, "diabetesPedigreeFunction": 0.627, "age": 55}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	verdict := decode(t, w)["verdict"].(map[string]any)
	assert.Equal(t, "High", verdict["band"])
	assert.Equal(t, "Positive", verdict["label"])

	records, err := log.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "High Risk", records[0].Result)
}
