package server

import (
	"bytes"
	"encoding/json"
	"image"
	_ "image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"signature-digitizer/internal/config"
	"signature-digitizer/internal/core"
	imgio "signature-digitizer/internal/io"
	"signature-digitizer/internal/testimage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, mutate func(*config.ServerConfig)) *Server {
	t.Helper()
	logger, _ := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	cfg := config.Default().Server
	cfg.UploadDir = t.TempDir()
	if mutate != nil {
		mutate(&cfg)
	}

	d, err := core.NewDigitizer(core.DefaultParams(), logger)
	require.NoError(t, err)
	s, err := New(cfg, d, logger)
	require.NoError(t, err)
	return s
}

func encode(t *testing.T, mat gocv.Mat) []byte {
	t.Helper()
	defer mat.Close()
	logger, _ := test.NewNullLogger()
	data, err := imgio.NewImageLoader(logger).EncodePNG(mat)
	require.NoError(t, err)
	return data
}

func signaturePNG(t *testing.T) []byte {
	t.Helper()
	img, err := testimage.Signature(testimage.DefaultOptions())
	require.NoError(t, err)
	return encode(t, img)
}

type part struct {
	field, filename string
	data            []byte
}

func post(t *testing.T, s *Server, fields map[string]string, parts ...part) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, p := range parts {
		fw, err := w.CreateFormFile(p.field, p.filename)
		require.NoError(t, err)
		_, err = fw.Write(p.data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/digitize", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var body struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error, body.Kind
}

func TestDigitizeEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	for _, color := range []string{"", "black", "blue"} {
		t.Run("color="+color, func(t *testing.T) {
			fields := map[string]string{}
			if color != "" {
				fields["color"] = color
			}
			rec := post(t, s, fields, part{"file", "signature.png", signaturePNG(t)})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			want := color
			if want == "" {
				want = "black"
			}
			assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Header().Get("Content-Disposition"), DownloadName)
			assert.Equal(t, want, rec.Header().Get("X-Ink-Color"))
			assert.Equal(t, "800", rec.Header().Get("X-Image-Width"))
			assert.Equal(t, "400", rec.Header().Get("X-Image-Height"))
			assert.NotEqual(t, "0", rec.Header().Get("X-Ink-Pixels"))

			img, format, err := image.Decode(bytes.NewReader(rec.Body.Bytes()))
			require.NoError(t, err)
			assert.Equal(t, "png", format)
			assert.Equal(t, image.Rect(0, 0, 800, 400), img.Bounds())
		})
	}

	entries, err := os.ReadDir(s.cfg.UploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "spooled uploads must be removed")
}

func TestDigitizeEndpointErrors(t *testing.T) {
	s := newTestServer(t, nil)
	blank := encode(t, testimage.Blank(64, 32, 255))

	tests := []struct {
		name   string
		fields map[string]string
		parts  []part
		status int
		kind   core.ErrorKind
		msg    string
	}{
		{
			name:   "no file part",
			fields: map[string]string{"color": "black"},
			status: http.StatusBadRequest,
			kind:   core.KindInvalidInput,
			msg:    "No file part",
		},
		{
			name:   "no selected file",
			parts:  []part{{"file", "", nil}},
			status: http.StatusBadRequest,
			kind:   core.KindInvalidInput,
			msg:    "No selected file",
		},
		{
			name:   "unknown color",
			fields: map[string]string{"color": "red"},
			parts:  []part{{"file", "s.png", blank}},
			status: http.StatusBadRequest,
			kind:   core.KindInvalidInput,
			msg:    "red",
		},
		{
			name:   "blank page",
			parts:  []part{{"file", "s.png", blank}},
			status: http.StatusBadRequest,
			kind:   core.KindNoSignature,
			msg:    core.ErrNoSignatureDetected.Error(),
		},
		{
			name:   "garbage bytes",
			parts:  []part{{"file", "s.png", []byte("definitely not an image")}},
			status: http.StatusBadRequest,
			kind:   core.KindDecodeFailure,
		},
		{
			name:   "empty upload",
			parts:  []part{{"file", "s.png", []byte{}}},
			status: http.StatusBadRequest,
			kind:   core.KindInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, s, tt.fields, tt.parts...)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			msg, kind := decodeError(t, rec)
			assert.Equal(t, string(tt.kind), kind)
			assert.Contains(t, msg, tt.msg)
		})
	}
}

func TestDigitizeEndpointRejectsOversizedBody(t *testing.T) {
	s := newTestServer(t, func(c *config.ServerConfig) { c.MaxUploadBytes = 1024 })

	rec := post(t, s, nil, part{"file", "big.png", bytes.Repeat([]byte{0xff}, 8192)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string   `json:"status"`
		Colors []string `json:"colors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, []string{"black", "blue"}, body.Colors)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, func(c *config.ServerConfig) {
		c.AllowedOrigins = []string{"https://app.example"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/digitize", nil)
	req.Header.Set("Origin", "https://app.example")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestDigitizeEndpointTimesOut(t *testing.T) {
	s := newTestServer(t, func(c *config.ServerConfig) { c.RequestTimeout = time.Nanosecond })

	rec := post(t, s, nil, part{"file", "signature.png", signaturePNG(t)})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	_, kind := decodeError(t, rec)
	assert.Equal(t, string(core.KindInternal), kind)

	// the abandoned request still cleans up its spooled upload
	assert.Eventually(t, func() bool {
		entries, err := os.ReadDir(s.cfg.UploadDir)
		return err == nil && len(entries) == 0
	}, 10*time.Second, 10*time.Millisecond)
}

func TestDigitizeEndpointUsesConfiguredDefaultColor(t *testing.T) {
	logger, _ := test.NewNullLogger()
	params := core.DefaultParams()
	params.DefaultColor = core.Blue
	d, err := core.NewDigitizer(params, logger)
	require.NoError(t, err)

	cfg := config.Default().Server
	cfg.UploadDir = t.TempDir()
	s, err := New(cfg, d, logger)
	require.NoError(t, err)

	rec := post(t, s, nil, part{"file", "signature.png", signaturePNG(t)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "blue", rec.Header().Get("X-Ink-Color"))
}

func TestPipelineEndpoint(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pipeline", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Stages []core.StageInfo `json:"stages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Stages, 5)
	assert.Equal(t, "Gaussian Filter", body.Stages[1].Name)
	require.Len(t, body.Stages[1].Parameters, 1)
	assert.Equal(t, float64(core.DefaultParams().BlurKernel), body.Stages[1].Parameters[0].Value)
}
