package output

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/go-cmp/cmp"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	img.SetRGBA(1, 0, color.RGBA{0, 255, 0, 255})
	img.SetRGBA(0, 1, color.RGBA{0, 0, 255, 255})
	img.SetRGBA(1, 1, color.RGBA{12, 34, 56, 255})
	return img
}

func TestWritePPM(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePPM(&buf, testImage()); err != nil {
		t.Fatalf("WritePPM failed: %v", err)
	}

	expected := "P3\n2 2\n255\n" +
		"255 0 0\n" +
		"0 255 0\n" +
		"0 0 255\n" +
		"12 34 56\n"
	if diff := cmp.Diff(expected, buf.String()); diff != "" {
		t.Errorf("PPM mismatch (-want +got):\n%s", diff)
	}
}

func TestWritePPM_OffsetBounds(t *testing.T) {
	img := testImage().SubImage(image.Rect(1, 1, 2, 2))

	var buf bytes.Buffer
	if err := WritePPM(&buf, img); err != nil {
		t.Fatalf("WritePPM failed: %v", err)
	}
	if got := buf.String(); got != "P3\n1 1\n255\n12 34 56\n" {
		t.Errorf("Unexpected PPM for sub-image: %q", got)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	img := testImage()

	ppmPath := filepath.Join(dir, "nested", "render.ppm")
	if err := Save(ppmPath, img); err != nil {
		t.Fatalf("Save ppm failed: %v", err)
	}
	data, err := os.ReadFile(ppmPath)
	if err != nil {
		t.Fatalf("Failed to read ppm: %v", err)
	}
	if !strings.HasPrefix(string(data), "P3\n2 2\n255\n") {
		t.Errorf("Unexpected PPM header: %q", string(data[:12]))
	}

	pngPath := filepath.Join(dir, "render.png")
	if err := Save(pngPath, img); err != nil {
		t.Fatalf("Save png failed: %v", err)
	}
	decoded, err := imaging.Open(pngPath)
	if err != nil {
		t.Fatalf("Failed to reopen png: %v", err)
	}
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			want := img.RGBAAt(x, y)
			r, g, b, a := decoded.At(x, y).RGBA()
			got := color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)}
			if got != want {
				t.Errorf("Pixel (%d,%d): expected %v, got %v", x, y, want, got)
			}
		}
	}

	if err := Save(filepath.Join(dir, "render.xyz"), img); err == nil {
		t.Error("Expected an error for an unknown extension")
	}
}

func TestEncode(t *testing.T) {
	for _, ext := range []string{"png", ".jpg", "gif", "bmp", "tiff"} {
		var buf bytes.Buffer
		if err := Encode(&buf, testImage(), ext); err != nil {
			t.Errorf("Encode %s failed: %v", ext, err)
			continue
		}
		if buf.Len() == 0 {
			t.Errorf("Encode %s produced no data", ext)
		}
	}

	if err := Encode(io.Discard, testImage(), "webp"); err == nil {
		t.Error("Expected an error for an unsupported format")
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		".png":  "image/png",
		"JPG":   "image/jpeg",
		".ppm":  "image/x-portable-pixmap",
		".webp": "application/octet-stream",
	}
	for ext, want := range tests {
		if got := ContentType(ext); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", ext, got, want)
		}
	}
}

func TestThumbnail(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 225))

	thumb := Thumbnail(img, 128, 128)
	bounds := thumb.Bounds()
	if bounds.Dx() != 128 || bounds.Dy() > 128 {
		t.Errorf("Expected width 128 and height at most 128, got %v", bounds)
	}
	// 400x225 keeps its 16:9 shape
	if bounds.Dy() < 70 || bounds.Dy() > 74 {
		t.Errorf("Expected height near 72, got %d", bounds.Dy())
	}

	small := image.NewRGBA(image.Rect(0, 0, 50, 20))
	if got := Thumbnail(small, 128, 128).Bounds(); got.Dx() != 50 || got.Dy() != 20 {
		t.Errorf("Images that fit should keep their size, got %v", got)
	}
}

type recordedRequest struct {
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

func newS3TestServer(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []recordedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			ContentType: r.Header.Get("Content-Type"),
			Body:        body,
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	return server, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), requests...)
	}
}

func TestS3Publisher_PublishImage(t *testing.T) {
	server, requests := newS3TestServer(t)

	publisher, err := NewS3Publisher(S3Config{
		Endpoint:  server.URL,
		Region:    "us-east-1",
		Bucket:    "renders",
		AccessKey: "test-access",
		SecretKey: "test-secret",
	}, nil)
	if err != nil {
		t.Fatalf("NewS3Publisher failed: %v", err)
	}

	if err := publisher.PublishImage(context.Background(), "default/render.ppm", testImage()); err != nil {
		t.Fatalf("PublishImage failed: %v", err)
	}

	got := requests()
	if len(got) != 1 {
		t.Fatalf("Expected 1 request, got %d", len(got))
	}
	var expectedBody bytes.Buffer
	if err := WritePPM(&expectedBody, testImage()); err != nil {
		t.Fatalf("WritePPM failed: %v", err)
	}
	expected := recordedRequest{
		Method:      http.MethodPut,
		Path:        "/renders/default/render.ppm",
		ContentType: "image/x-portable-pixmap",
		Body:        expectedBody.Bytes(),
	}
	if diff := cmp.Diff(expected, got[0]); diff != "" {
		t.Errorf("Request mismatch (-want +got):\n%s", diff)
	}
}

func TestS3Publisher_UploadError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	publisher, err := NewS3Publisher(S3Config{Endpoint: server.URL, Region: "us-east-1", Bucket: "renders"}, nil)
	if err != nil {
		t.Fatalf("NewS3Publisher failed: %v", err)
	}
	if err := publisher.Upload(context.Background(), "x.png", []byte("data"), "image/png"); err == nil {
		t.Error("Expected an error for a rejected upload")
	}
}

func TestNewS3Publisher_RequiresBucket(t *testing.T) {
	if _, err := NewS3Publisher(S3Config{Region: "us-east-1"}, nil); err == nil {
		t.Error("Expected an error without a bucket")
	}
}
