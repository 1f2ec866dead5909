package frontend

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jo-hoe/leafcollector/internal/common"
	"github.com/jo-hoe/leafcollector/internal/core"
	"github.com/labstack/echo/v4"
)

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	img.Set(0, 0, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// newTestServer wires the frontend to a storage service holding one record
func newTestServer(t *testing.T) (*echo.Echo, *atomic.Int32) {
	t.Helper()
	uploads := &atomic.Int32{}
	pngData := testPNG(t)
	content := make([]int, len(pngData))
	for i, b := range pngData {
		content[i] = int(b)
	}
	storageMux := http.NewServeMux()
	storageMux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		uploads.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Image uploaded successfully!"})
	})
	storageMux.HandleFunc("GET /uploads", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{{
			"_id":         "leaf-1",
			"filename":    "tomato.png",
			"category":    "good tomato leaf",
			"contentType": "image/png",
			"content":     map[string]any{"type": "Buffer", "data": content},
			"uploadDate":  "2026-05-01T10:00:00Z",
		}})
	})
	storageServer := httptest.NewServer(storageMux)
	t.Cleanup(storageServer.Close)

	config := core.DefaultConfig(storageServer.URL)
	coreService, err := core.NewCoreService(config)
	if err != nil {
		t.Fatalf("NewCoreService failed: %v", err)
	}
	t.Cleanup(func() { _ = coreService.Close() })

	e := echo.New()
	e.Validator = &common.GenericEchoValidator{}
	NewFrontendService(config, coreService).SetRoutes(e)
	return e, uploads
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func formRequest(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func fileRequest(t *testing.T, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	_, _ = part.Write(data)
	_ = writer.Close()
	req := httptest.NewRequest(http.MethodPost, "/htmx/file", &body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func TestIndexAndProbe(t *testing.T) {
	e, _ := newTestServer(t)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusMovedPermanently || rec.Header().Get("Location") != "/index.html" {
		t.Errorf("Expected redirect to index.html, got %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/index.html", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	for _, want := range []string{"diseased groundnut leaf", `hx-post="/htmx/upload"`, "disabled"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("Expected index to contain %q", want)
		}
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/probe", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected probe 200, got %d", rec.Code)
	}
}

func TestUploadFlow(t *testing.T) {
	e, uploads := newTestServer(t)

	rec := serve(e, formRequest("/htmx/upload", url.Values{}))
	if !strings.Contains(rec.Body.String(), core.MessageSelectImageAndCategory) {
		t.Errorf("Expected validation message, got %s", rec.Body.String())
	}
	if uploads.Load() != 0 {
		t.Fatalf("Expected no upload request, got %d", uploads.Load())
	}

	rec = serve(e, fileRequest(t, "leaf.png", testPNG(t)))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "leaf.png") {
		t.Fatalf("Expected pending preview, got %d %s", rec.Code, rec.Body.String())
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/htmx/preview", nil))
	if rec.Code != http.StatusOK || rec.Header().Get(echo.HeaderContentType) != "image/png" {
		t.Errorf("Expected png preview, got %d %q", rec.Code, rec.Header().Get(echo.HeaderContentType))
	}

	rec = serve(e, formRequest("/htmx/category", url.Values{"category": {"good tomato leaf"}}))
	if !strings.Contains(rec.Body.String(), `value="good tomato leaf" selected`) {
		t.Errorf("Expected category to be selected, got %s", rec.Body.String())
	}

	rec = serve(e, formRequest("/htmx/crop", url.Values{
		"x": {"0"}, "y": {"0"}, "width": {"20"}, "height": {"20"},
		"displayedWidth": {"40"}, "displayedHeight": {"40"},
	}))
	if !strings.Contains(rec.Body.String(), "bytes), cropped") {
		t.Errorf("Expected cropped pending image, got %s", rec.Body.String())
	}

	rec = serve(e, formRequest("/htmx/upload", url.Values{}))
	if !strings.Contains(rec.Body.String(), core.MessageUploadSucceeded) {
		t.Errorf("Expected success message, got %s", rec.Body.String())
	}
	if uploads.Load() != 1 {
		t.Errorf("Expected one upload request, got %d", uploads.Load())
	}
}

func TestSelectFileRejectsText(t *testing.T) {
	e, _ := newTestServer(t)

	rec := serve(e, fileRequest(t, "notes.txt", []byte("hello")))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), core.MessageUnsupportedImage) {
		t.Errorf("Expected unsupported image message, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestCropValidation(t *testing.T) {
	e, _ := newTestServer(t)

	rec := serve(e, formRequest("/htmx/crop", url.Values{"x": {"0"}, "y": {"0"}, "width": {"5"}, "height": {"5"}}))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without displayed size, got %d", rec.Code)
	}

	rec = serve(e, formRequest("/htmx/crop", url.Values{
		"x": {"0"}, "y": {"0"}, "width": {"5"}, "height": {"5"},
		"displayedWidth": {"10"}, "displayedHeight": {"10"},
	}))
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 without a pending image, got %d", rec.Code)
	}

	_ = serve(e, fileRequest(t, "leaf.png", testPNG(t)))
	for _, width := range []string{"NaN", "0", "-3"} {
		rec = serve(e, formRequest("/htmx/crop", url.Values{
			"x": {"0"}, "y": {"0"}, "width": {width}, "height": {"5"},
			"displayedWidth": {"10"}, "displayedHeight": {"10"},
		}))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("width %s: expected 400, got %d", width, rec.Code)
		}
	}
	rec = serve(e, httptest.NewRequest(http.MethodGet, "/htmx/preview", nil))
	if rec.Header().Get(echo.HeaderContentType) != "image/png" {
		t.Errorf("Expected rejected crops to leave the pending png untouched, got %q", rec.Header().Get(echo.HeaderContentType))
	}
}

func TestGalleryAndCameraWithoutDevice(t *testing.T) {
	e, _ := newTestServer(t)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/htmx/images", nil))
	body := rec.Body.String()
	if rec.Code != http.StatusOK || !strings.Contains(body, "good tomato leaf") || !strings.Contains(body, "data:image/png;base64,") {
		t.Errorf("Expected rendered gallery record, got %d %s", rec.Code, body)
	}
	if strings.Contains(body, "Previous") {
		t.Error("Expected no pagination controls for the full listing")
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/htmx/camera/frame", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for camera frame without camera, got %d", rec.Code)
	}

	rec = serve(e, formRequest("/htmx/camera/activate", url.Values{}))
	if !strings.Contains(rec.Body.String(), core.MessageCameraUnavailable) {
		t.Errorf("Expected camera unavailable message, got %s", rec.Body.String())
	}
}

func TestCameraRoutes(t *testing.T) {
	framePath := filepath.Join(t.TempDir(), "frame.png")
	if err := os.WriteFile(framePath, testPNG(t), 0o600); err != nil {
		t.Fatalf("failed to write frame: %v", err)
	}
	config := core.DefaultConfig("http://localhost:1")
	config.Camera.Type = core.CameraTypeStill
	config.Camera.Devices = map[string]string{"environment": framePath}
	coreService, err := core.NewCoreService(config)
	if err != nil {
		t.Fatalf("NewCoreService failed: %v", err)
	}
	defer coreService.Close()
	e := echo.New()
	e.Validator = &common.GenericEchoValidator{}
	NewFrontendService(config, coreService).SetRoutes(e)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/htmx/camera/preview", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204 while the camera is closed, got %d", rec.Code)
	}

	rec = serve(e, formRequest("/htmx/camera/activate", url.Values{}))
	if !strings.Contains(rec.Body.String(), `id="camera-preview"`) {
		t.Fatalf("Expected camera preview after activation, got %s", rec.Body.String())
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/htmx/camera/frame", nil))
	if rec.Code != http.StatusOK || rec.Header().Get(echo.HeaderContentType) != "image/jpeg" {
		t.Errorf("Expected jpeg frame, got %d %q", rec.Code, rec.Header().Get(echo.HeaderContentType))
	}

	rec = serve(e, formRequest("/htmx/camera/capture", url.Values{}))
	body := rec.Body.String()
	if !strings.Contains(body, "photo-") || strings.Contains(body, `id="camera-preview"`) {
		t.Errorf("Expected captured photo as pending image and a closed camera, got %s", body)
	}
}
