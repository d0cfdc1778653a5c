package controlplane

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/veritas/internal/audit"
	"github.com/fentz26/veritas/internal/models"
	"github.com/fentz26/veritas/internal/provenance"
	"github.com/fentz26/veritas/internal/simulator"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	outputDir := filepath.Join(t.TempDir(), "output")

	simCfg := simulator.DefaultConfig()
	simCfg.StartDate = time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)
	opts := provenance.DefaultOptions()
	opts.CreationDate = time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)

	service := NewService(
		simulator.New(simCfg),
		provenance.NewAssembler(provenance.NewImageDownscaler(), opts),
		audit.NewRecorder(nil),
		outputDir,
	)
	return NewServer(service, "127.0.0.1:0"), outputDir
}

func do(t *testing.T, s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body["error"]
}

func TestHealthEndpoint_OK(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&health))
	assert.True(t, health.OK)
	assert.NotEmpty(t, health.Version)
	assert.NotEmpty(t, health.Time)
}

func TestHealthEndpoint_MethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/health", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestSimulateEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/simulate", map[string]interface{}{
		"segments": []map[string]interface{}{
			{"segment_id": "seg-A", "length_m": 9.0, "width_m": 5.0},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SimulateResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotEmpty(t, resp.Logs)
	assert.Equal(t, DefaultDays, resp.Summary.TotalDays)
	assert.Equal(t, len(resp.Logs), resp.Summary.TotalLogs)

	last := resp.Logs[len(resp.Logs)-1]
	assert.Equal(t, "seg-A", last.SegmentID)
	assert.InDelta(t, 2.0, last.CumulativeBlocks, 1e-4)
	assert.InDelta(t, 0.0, last.RemainingBlocks, 1e-4)
	assert.Equal(t, "2025-11-10", resp.Logs[0].Date)
}

func TestSimulateEndpoint_FieldNames(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/simulate", `{"segments":[{"segment_id":"a","length_m":100}],"days":1,"seed":3}`)
	require.Equal(t, http.StatusOK, w.Code)

	var raw struct {
		Logs    []map[string]interface{} `json:"logs"`
		Summary map[string]interface{}   `json:"summary"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&raw))
	require.Len(t, raw.Logs, 1)
	for _, key := range []string{"date", "segment_id", "shift_output_blocks", "cumulative_blocks", "remaining_blocks", "crew_size", "weather"} {
		assert.Contains(t, raw.Logs[0], key)
	}
	assert.NotContains(t, raw.Logs[0], "photo_base64")
	assert.Equal(t, float64(1), raw.Summary["total_days"])
	assert.Equal(t, float64(1), raw.Summary["total_logs"])
}

func TestSimulateEndpoint_Deterministic(t *testing.T) {
	s, _ := newTestServer(t)
	body := `{"segments":[{"segment_id":"a","length_m":40},{"segment_id":"b","length_m":20}],"days":12,"seed":42}`

	first := do(t, s, http.MethodPost, "/simulate", body)
	second := do(t, s, http.MethodPost, "/simulate", body)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestSimulateEndpoint_BadRequests(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"no segments", `{"segments":[]}`, "no segments provided"},
		{"missing segments", `{}`, "no segments provided"},
		{"non-positive length", `{"segments":[{"segment_id":"a","length_m":0}]}`, "invalid input"},
		{"zero days", `{"segments":[{"segment_id":"a","length_m":9}],"days":0}`, "invalid input"},
		{"too many days", `{"segments":[{"segment_id":"a","length_m":1e9}],"days":1000000}`, "invalid input"},
		{"bad json", `{"segments":`, "invalid json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/simulate", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeError(t, w), tt.want)
		})
	}

	w := do(t, s, http.MethodGet, "/simulate", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func sampleLogs() []models.ShiftLog {
	return []models.ShiftLog{{
		Date:              "2025-11-10",
		SegmentID:         "test-seg",
		ShiftOutputBlocks: 1.0,
		CumulativeBlocks:  5.0,
		RemainingBlocks:   10.0,
		CrewSize:          5,
		Weather:           models.WeatherClear,
	}}
}

func TestProvenanceEndpoint(t *testing.T) {
	s, outputDir := newTestServer(t)

	w := do(t, s, http.MethodPost, "/provenance", ProvenanceRequest{
		ShiftLogs:  sampleLogs(),
		OutputName: "sow.pdf",
		Project:    &models.ProjectMetadata{ProjectTitle: "Road Widening"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ProvenanceResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "http://example.com/output/sow.pdf", resp.PDFPath)
	assert.Regexp(t, `^[0-9a-f]{64}$`, resp.SHA256)

	onDisk, err := audit.HashFile(filepath.Join(outputDir, "sow.pdf"))
	require.NoError(t, err)
	assert.Equal(t, resp.SHA256, onDisk)

	// The served artifact is byte-identical to the fingerprinted one.
	get := do(t, s, http.MethodGet, "/output/sow.pdf", nil)
	require.Equal(t, http.StatusOK, get.Code)
	served, err := audit.HashReader(get.Body)
	require.NoError(t, err)
	assert.Equal(t, resp.SHA256, served)
}

func TestProvenanceEndpoint_DefaultName(t *testing.T) {
	s, outputDir := newTestServer(t)

	w := do(t, s, http.MethodPost, "/provenance", ProvenanceRequest{ShiftLogs: sampleLogs()})
	require.Equal(t, http.StatusOK, w.Code)

	_, err := os.Stat(filepath.Join(outputDir, DefaultOutputName))
	assert.NoError(t, err)
}

func widePhoto(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1000, 20))
	for x := 0; x < 1000; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y * 10), B: 64, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestProvenanceEndpoint_DigestTracksContent(t *testing.T) {
	s, _ := newTestServer(t)
	logs := sampleLogs()
	logs[0].PhotoBase64 = widePhoto(t)

	digest := func(name string) string {
		w := do(t, s, http.MethodPost, "/provenance", ProvenanceRequest{ShiftLogs: logs, OutputName: name})
		require.Equal(t, http.StatusOK, w.Code)
		var resp ProvenanceResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		return resp.SHA256
	}

	a := digest("a.pdf")
	b := digest("b.pdf")
	assert.Equal(t, a, b)

	logs[0].RemainingBlocks = 9.5
	assert.NotEqual(t, a, digest("c.pdf"))
}

func TestProvenanceEndpoint_CorruptPhoto(t *testing.T) {
	s, _ := newTestServer(t)
	logs := sampleLogs()
	logs[0].PhotoBase64 = "data:image/png;base64,not*base64"

	w := do(t, s, http.MethodPost, "/provenance", ProvenanceRequest{ShiftLogs: logs, OutputName: "photo.pdf"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProvenanceEndpoint_BadRequests(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodPost, "/provenance", ProvenanceRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "no shift_logs provided", decodeError(t, w))

	for _, name := range []string{"../escape.pdf", "nested/out.pdf", "..", `dir\out.pdf`} {
		w := do(t, s, http.MethodPost, "/provenance", ProvenanceRequest{ShiftLogs: sampleLogs(), OutputName: name})
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
	}

	w = do(t, s, http.MethodGet, "/provenance", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestOutputEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodGet, "/output/", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/output/missing.pdf", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodPost, "/output/x.pdf", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodOptions, "/provenance", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestService_Defaults(t *testing.T) {
	svc := NewService(simulator.New(nil), provenance.NewAssembler(nil, nil), nil, t.TempDir())
	svc.SetDefaults(2, 7)

	logs, summary, err := svc.Simulate([]models.Segment{{ID: "a", LengthM: 100}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalDays)
	assert.Len(t, logs, 2)

	days := 3
	logs, summary, err = svc.Simulate([]models.Segment{{ID: "a", LengthM: 100}}, &days, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalDays)
	assert.Len(t, logs, 3)
}

func TestService_GenerateProvenance(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(simulator.New(nil), provenance.NewAssembler(nil, nil), nil, dir)

	artifact, err := svc.GenerateProvenance(sampleLogs(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DefaultOutputName), artifact.Path)
	assert.Len(t, artifact.SHA256, 64)
	assert.Equal(t, strings.ToLower(artifact.SHA256), artifact.SHA256)

	_, err = svc.GenerateProvenance(nil, "x.pdf", nil)
	assert.ErrorIs(t, err, ErrNoShiftLogs)
}
