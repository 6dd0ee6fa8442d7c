// SPDX-License-Identifier: MPL-2.0

package server

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

// newTestHandler builds a handler over a temp root containing a.pmtiles
// with 1000 deterministic bytes, returning the handler and the file bytes.
func newTestHandler(t *testing.T) (*staticHandler, []byte) {
	t.Helper()

	root := t.TempDir()
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i % 251)
	}
	if err := os.WriteFile(filepath.Join(root, "a.pmtiles"), data, 0o644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return newStaticHandler(root, nil, log.Default()), data
}

// get performs one request against the handler and returns the recorder.
func get(h http.Handler, method, target, rangeHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// checkCORS asserts the three CORS headers every response must carry.
func checkCORS(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, HEAD, OPTIONS" {
		t.Errorf("Access-Control-Allow-Methods = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Range, Content-Type" {
		t.Errorf("Access-Control-Allow-Headers = %q", got)
	}
}

func TestFullBodyRequest(t *testing.T) {
	t.Parallel()

	h, data := newTestHandler(t)
	rec := get(h, http.MethodGet, "/a.pmtiles", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	checkCORS(t, rec)
	if got := rec.Header().Get("Content-Type"); got != "application/octet-stream" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "1000" {
		t.Errorf("Content-Length = %q, want 1000", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), data) {
		t.Error("body does not match file contents")
	}
}

func TestFullRangeEqualsFullBody(t *testing.T) {
	t.Parallel()

	h, data := newTestHandler(t)
	rec := get(h, http.MethodGet, "/a.pmtiles", fmt.Sprintf("bytes=0-%d", len(data)-1))

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if !bytes.Equal(rec.Body.Bytes(), data) {
		t.Error("bytes=0-(N-1) must yield the same bytes as no Range header")
	}
}

func TestSubRanges(t *testing.T) {
	t.Parallel()

	h, data := newTestHandler(t)

	cases := []struct {
		name       string
		start, end int
	}{
		{"mid-file slice 500-599", 500, 599},
		{"first byte", 0, 0},
		{"last byte", 999, 999},
		{"prefix", 0, 99},
		{"suffix tail", 900, 999},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := get(h, http.MethodGet, "/a.pmtiles", fmt.Sprintf("bytes=%d-%d", tc.start, tc.end))
			if rec.Code != http.StatusPartialContent {
				t.Fatalf("status = %d, want 206", rec.Code)
			}

			wantLen := tc.end - tc.start + 1
			wantCR := fmt.Sprintf("bytes %d-%d/%d", tc.start, tc.end, len(data))
			if got := rec.Header().Get("Content-Range"); got != wantCR {
				t.Errorf("Content-Range = %q, want %q", got, wantCR)
			}
			if got := rec.Header().Get("Content-Length"); got != fmt.Sprint(wantLen) {
				t.Errorf("Content-Length = %q, want %d", got, wantLen)
			}
			if !bytes.Equal(rec.Body.Bytes(), data[tc.start:tc.end+1]) {
				t.Error("body does not match the requested byte slice")
			}
		})
	}
}

func TestOpenEndedRangeDefaultsToEOF(t *testing.T) {
	t.Parallel()

	h, data := newTestHandler(t)
	rec := get(h, http.MethodGet, "/a.pmtiles", "bytes=950-")

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 950-999/1000" {
		t.Errorf("Content-Range = %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), data[950:]) {
		t.Error("open-ended range must run to the last byte")
	}
}

func TestUnsatisfiableAndMalformedRanges(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)

	for _, header := range []string{
		"bytes=1000-1005", // start at file size
		"bytes=5000-",     // start past file size
		"bytes=600-500",   // start > end
		"bytes=abc-def",   // non-numeric
		"bytes=-500",      // missing start
		"chunks=0-10",     // wrong unit
	} {
		t.Run(header, func(t *testing.T) {
			t.Parallel()

			rec := get(h, http.MethodGet, "/a.pmtiles", header)
			if rec.Code != http.StatusRequestedRangeNotSatisfiable {
				t.Errorf("status = %d, want 416", rec.Code)
			}
			checkCORS(t, rec)
		})
	}
}

func TestRangeEndClampedToFileSize(t *testing.T) {
	t.Parallel()

	h, data := newTestHandler(t)
	rec := get(h, http.MethodGet, "/a.pmtiles", "bytes=990-5000")

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 990-999/1000" {
		t.Errorf("Content-Range = %q", got)
	}
	if !bytes.Equal(rec.Body.Bytes(), data[990:]) {
		t.Error("over-long end must clamp to the last byte")
	}
}

func TestOptionsNeverTouchesFilesystem(t *testing.T) {
	t.Parallel()

	// A root that no longer exists: any filesystem access would fail, so a
	// 200 proves the preflight path never stats or opens anything.
	root := t.TempDir()
	h := newStaticHandler(filepath.Join(root, "gone"), nil, log.Default())

	for _, target := range []string{"/", "/a.pmtiles", "/deep/path/x.json"} {
		rec := get(h, http.MethodOptions, target, "")
		if rec.Code != http.StatusOK {
			t.Errorf("OPTIONS %s status = %d, want 200", target, rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("OPTIONS %s body should be empty", target)
		}
		checkCORS(t, rec)
	}
}

func TestNotFoundCarriesCORS(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)

	for _, tc := range []struct{ name, method, target string }{
		{"missing file", http.MethodGet, "/missing.pmtiles"},
		{"root path", http.MethodGet, "/"},
		{"post method", http.MethodPost, "/a.pmtiles"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := get(h, tc.method, tc.target, "")
			if rec.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404", rec.Code)
			}
			checkCORS(t, rec)
		})
	}
}

func TestDirectoryIsNotFound(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "tiles"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	h := newStaticHandler(root, nil, log.Default())

	rec := get(h, http.MethodGet, "/tiles", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("directories must 404, got %d", rec.Code)
	}
}

func TestTraversalRejected(t *testing.T) {
	t.Parallel()

	parent := t.TempDir()
	if err := os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("secret"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	root := filepath.Join(parent, "public")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	h := newStaticHandler(root, nil, log.Default())

	rec := get(h, http.MethodGet, "/../secret.txt", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("traversal must 404, got %d", rec.Code)
	}
}

func TestHeadOmitsBody(t *testing.T) {
	t.Parallel()

	h, _ := newTestHandler(t)
	rec := get(h, http.MethodHead, "/a.pmtiles", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Length"); got != "1000" {
		t.Errorf("Content-Length = %q, want 1000", got)
	}
	if rec.Body.Len() != 0 {
		t.Error("HEAD response must have no body")
	}
}

func TestContentTypes(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	files := map[string]string{
		"a.pmtiles":  "application/octet-stream",
		"meta.json":  "application/json",
		"index.html": "text/html",
		"style.css":  "text/css",
		"map.js":     "application/javascript",
		"icon.png":   "image/png",
		"photo.jpg":  "image/jpeg",
		"photo.jpeg": "image/jpeg",
		"README.md":  "application/octet-stream",
	}
	for name := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	h := newStaticHandler(root, nil, log.Default())

	for name, want := range files {
		rec := get(h, http.MethodGet, "/"+name, "")
		if got := rec.Header().Get("Content-Type"); got != want {
			t.Errorf("%s: Content-Type = %q, want %q", name, got, want)
		}
	}
}

func TestConfiguredOrigins(t *testing.T) {
	t.Parallel()

	h := newStaticHandler(t.TempDir(), []string{"http://localhost:3000", "https://example.com"}, log.Default())
	rec := get(h, http.MethodOptions, "/", "")

	want := "http://localhost:3000, https://example.com"
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != want {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, want)
	}
}
