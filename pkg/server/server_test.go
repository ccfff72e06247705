package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"orgmap/pkg/app"
	"orgmap/pkg/config"
	"orgmap/pkg/metrics"
	"orgmap/pkg/session"
)

func TestMain(m *testing.M) {
	// genai's auth transport starts an opencensus worker at init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

const rosterCSV = `Name,User,Manager,Site,Level,Type
Eve,eve,bob,NYC,3,FTE
Bob,bob,ann,SF,5,FTE
Tim,tim,bob,SF,3,Contractor
Ann,ann,,SF,7,FTE
`

type harness struct {
	t       *testing.T
	handler http.Handler
	metrics *metrics.Metrics
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	m := metrics.New()
	mgr := session.NewManager(session.Options{Metrics: m})
	t.Cleanup(mgr.Close)
	srv := New(Options{
		Sessions: mgr,
		Config:   config.DefaultConfig().Server,
		Logger:   zap.NewNop(),
		Metrics:  m,
	})
	return &harness{t: t, handler: srv.Handler(), metrics: m}
}

func (h *harness) do(method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) upload(target, fileName string, data []byte) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	require.NoError(h.t, err)
	_, err = part.Write(data)
	require.NoError(h.t, err)
	require.NoError(h.t, mw.Close())
	return h.do(http.MethodPost, target, &buf, mw.FormDataContentType())
}

func (h *harness) json(method, target, body string) *httptest.ResponseRecorder {
	h.t.Helper()
	return h.do(method, target, strings.NewReader(body), "application/json")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestUploadFlow(t *testing.T) {
	h := newHarness(t)

	rec := h.upload("/api/uploads", "roster.csv", []byte(rosterCSV))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	created := decode[UploadResponse](t, rec)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "roster.csv", created.FileName)
	assert.Equal(t, 4, created.RowCount)
	assert.Equal(t, []string{"Name", "User", "Manager", "Site", "Level", "Type"}, created.Headers)
	base := "/api/uploads/" + created.ID

	rec = h.do(http.MethodPost, base+"/apply", nil, "")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode[ErrorEnvelope](t, rec)
	assert.Equal(t, "incomplete_mapping", env.Code)
	assert.Equal(t, "required", env.Meta["manager"])

	rec = h.json(http.MethodPut, base+"/mapping", `{"mapping":{"manager":"Boss"}}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env = decode[ErrorEnvelope](t, rec)
	assert.Equal(t, "unknown_column", env.Code)
	assert.Equal(t, "Boss", env.Meta["manager"])

	rec = h.json(http.MethodPut, base+"/mapping",
		`{"mapping":{"manager":"Manager","location":"Site","level":"Level","employeeType":"Type","username":"User"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[app.View](t, rec).MappingComplete)

	rec = h.do(http.MethodPost, base+"/apply", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[app.View](t, rec)
	assert.True(t, view.Applied)
	assert.Equal(t, 3, view.Hierarchy.Total)
	assert.Equal(t, []string{"3", "5", "7"}, view.Options.Levels)

	rec = h.json(http.MethodPut, base+"/filters", `{"field":"level","values":["3"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[app.View](t, rec).FilteredCount)

	rec = h.json(http.MethodPost, base+"/click", `{"type":"location","name":"NYC","path":"bob/NYC"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view = decode[app.View](t, rec)
	assert.Equal(t, "Displaying: bob > NYC", view.Caption)
	assert.Equal(t, 1, view.FilteredCount)
	assert.Equal(t, []string{"3"}, view.Filters.Levels, "drill-down keeps facets")

	rec = h.do(http.MethodGet, base+"/hierarchy", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var hier struct {
		Nodes []struct {
			Name  string `json:"name"`
			Value int    `json:"value"`
		} `json:"nodes"`
		Loaded      bool `json:"loaded"`
		FilteredOut bool `json:"filteredOut"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hier))
	require.Len(t, hier.Nodes, 1)
	assert.Equal(t, "bob", hier.Nodes[0].Name)
	assert.Equal(t, 1, hier.Nodes[0].Value)
	assert.True(t, hier.Loaded)
	assert.False(t, hier.FilteredOut)

	rec = h.do(http.MethodDelete, base+"/filters", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[app.View](t, rec)
	assert.Equal(t, 4, view.FilteredCount)
	assert.Equal(t, "Overview of managers and their locations by employee count.", view.Caption)

	rec = h.json(http.MethodPut, base+"/filters", `{"differentCampus":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view = decode[app.View](t, rec)
	assert.True(t, view.Filters.DifferentCampus)

	rec = h.do(http.MethodGet, base+"/export.xlsx", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "roster_orgmap.xlsx")
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Hierarchy")

	rec = h.do(http.MethodDelete, base, nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do(http.MethodGet, base, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[ErrorEnvelope](t, rec).Code)
}

func TestUpload_Rejected(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name     string
		fileName string
		data     []byte
	}{
		{name: "wrong extension", fileName: "roster.xlsx", data: []byte(rosterCSV)},
		{name: "header only", fileName: "roster.csv", data: []byte("User,Manager\n")},
		{name: "binary content", fileName: "roster.csv", data: append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.upload("/api/uploads", tt.fileName, tt.data)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "parse_error", decode[ErrorEnvelope](t, rec).Code)
		})
	}
}

func TestReplaceFile(t *testing.T) {
	h := newHarness(t)
	created := decode[UploadResponse](t, h.upload("/api/uploads", "a.csv", []byte(rosterCSV)))

	rec := h.upload("/api/uploads/"+created.ID+"/file", "b.csv", []byte("Login,Boss\nx,y\n"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[app.View](t, rec)
	assert.Equal(t, "b.csv", view.FileName)
	assert.Equal(t, []string{"Login", "Boss"}, view.Headers)

	rec = h.upload("/api/uploads/missing/file", "b.csv", []byte(rosterCSV))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBadRequests(t *testing.T) {
	h := newHarness(t)
	created := decode[UploadResponse](t, h.upload("/api/uploads", "roster.csv", []byte(rosterCSV)))
	base := "/api/uploads/" + created.ID

	rec := h.json(http.MethodPost, base+"/click", `{"type":"team","name":"x"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode[ErrorEnvelope](t, rec)
	assert.Equal(t, "invalid_request", env.Code)
	assert.Equal(t, "oneof", env.Meta["type"])

	rec = h.json(http.MethodPost, base+"/click", `{"type":"location","path":"nomanager"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.json(http.MethodPut, base+"/filters", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.json(http.MethodPut, base+"/filters", `{"field":"manager","values":["bob"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.json(http.MethodPut, base+"/mapping", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(http.MethodPost, base+"/suggest", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "no_suggester", decode[ErrorEnvelope](t, rec).Code)

	rec = h.do(http.MethodGet, base+"/export.xlsx", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(http.MethodGet, "/api/nowhere", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)
	h.upload("/api/uploads", "roster.csv", []byte(rosterCSV))

	rec := h.do(http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", health["status"])
	assert.EqualValues(t, 1, health["sessions"])

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))

	rec = h.do(http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `orgmap_uploads_total{result="ok"} 1`)
	assert.Contains(t, body, `orgmap_http_requests_total{code="201",method="POST",route="/api/uploads"} 1`)
}
