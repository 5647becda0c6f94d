package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/cbc-reportcard/internal/service"
	"github.com/noah-isme/cbc-reportcard/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api/v1",
		School: config.SchoolConfig{
			Name:    "Kibali Academy",
			Mark:    "KA",
			Tagline: "Competency-Based Curriculum · Nairobi, Kenya",
			Contact: "Tel: +254 700 000 000  ·  admin@kibali.ac.ke",
		},
		Reports: config.ReportsConfig{DefaultTerm: 1, DefaultAcademicYear: 2026, MaxBodyBytes: 1 << 20},
		Metrics: config.MetricsConfig{Enabled: true},
		Docs:    config.DocsConfig{Enabled: true},
	}
}

func serve(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestRouterGenerateReports(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newRouter(testConfig(), zap.NewNop(), service.NewMetricsService())

	body := `{"students":[{"full_name":"Amani","current_grade":"Grade 4","assessments":[{"subject_name":"Maths","strand_id":"number-sense","score":"EE"}]},{"full_name":"Baraka","current_grade":"Grade 5"}],"term":2,"grade":"Grade 4"}`
	w := serve(r, http.MethodPost, "/api/v1/reports/generate", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
	require.Equal(t, "attachment; filename=Kibali_Academy_Reports_Term2_2026_Grade_4.pdf", w.Header().Get("Content-Disposition"))
	require.Equal(t, "1", w.Header().Get("X-Student-Count"))
	require.Equal(t, "1", w.Header().Get("X-Page-Count"))
	require.NotEmpty(t, w.Header().Get("X-Request-ID"))
	require.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterEmptyStudents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newRouter(testConfig(), zap.NewNop(), nil)

	w := serve(r, http.MethodPost, "/api/v1/reports/generate", `{"students":[]}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "NO_STUDENTS")
}

func TestRouterMetricsAndProbes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newRouter(testConfig(), zap.NewNop(), service.NewMetricsService())

	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", "").Code)
	require.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ready", "").Code)
	require.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/api/v1/reports/generate", `{"students":[{"full_name":"Amani"}]}`).Code)

	w := serve(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `report_cards_rendered_total{mode="bulk"} 1`)
	require.Contains(t, w.Body.String(), `http_requests_total{method="GET",path="/health",status="200"} 1`)
	require.NotContains(t, w.Body.String(), `path="/metrics"`)
}

func TestRouterPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newRouter(testConfig(), zap.NewNop(), nil)

	w := serve(r, http.MethodOptions, "/api/v1/reports/generate", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	require.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-Page-Count")
}

func TestRouterDocs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := newRouter(testConfig(), zap.NewNop(), nil)

	w := serve(r, http.MethodGet, "/docs/doc.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "CBC Report Card API")

	cfg := testConfig()
	cfg.Env = config.EnvProduction
	prod := newRouter(cfg, zap.NewNop(), nil)
	require.Equal(t, http.StatusNotFound, serve(prod, http.MethodGet, "/docs/doc.json", "").Code)
}
