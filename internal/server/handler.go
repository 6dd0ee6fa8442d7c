// SPDX-License-Identifier: MPL-2.0

package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
)

// errMalformedRange marks Range headers that cannot be parsed or describe an
// unsatisfiable slice. The handler answers 416 instead of guessing.
var errMalformedRange = errors.New("malformed range")

// contentTypes maps file extensions to the Content-Type the server emits.
// Anything unlisted is served as a generic byte stream.
var contentTypes = map[string]string{
	".pmtiles": "application/octet-stream",
	".json":    "application/json",
	".html":    "text/html",
	".css":     "text/css",
	".js":      "application/javascript",
	".png":     "image/png",
	".jpg":     "image/jpeg",
	".jpeg":    "image/jpeg",
}

// staticHandler implements the static range-serving contract: GET/HEAD with
// optional single byte ranges, OPTIONS preflight, CORS headers on every
// response including 404s.
type staticHandler struct {
	root    string
	origins string
	logger  *log.Logger
}

// newStaticHandler builds the handler for a served root directory.
func newStaticHandler(root string, origins []string, logger *log.Logger) *staticHandler {
	allowed := "*"
	if len(origins) > 0 {
		allowed = strings.Join(origins, ", ")
	}
	return &staticHandler{root: root, origins: allowed, logger: logger}
}

// ServeHTTP implements http.Handler.
func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.writeCORS(w)

	// Preflight never touches the filesystem.
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}

	filePath, ok := h.resolve(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	size := info.Size()
	w.Header().Set("Content-Type", contentTypeFor(filePath))

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodGet {
			h.copyFile(w, filePath, 0, size)
		}
		return
	}

	start, length, err := parseRange(rangeHeader, size)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}

	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, start+length-1, size))
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method == http.MethodGet {
		h.copyFile(w, filePath, start, length)
	}
}

// writeCORS sets the CORS headers carried by every response.
func (h *staticHandler) writeCORS(w http.ResponseWriter) {
	header := w.Header()
	header.Set("Access-Control-Allow-Origin", h.origins)
	header.Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
	header.Set("Access-Control-Allow-Headers", "Range, Content-Type")
}

// resolve maps a request path to a file under the root. Paths that escape
// the root after cleaning are rejected.
func (h *staticHandler) resolve(urlPath string) (string, bool) {
	cleaned := path.Clean("/" + urlPath)
	if cleaned == "/" {
		return "", false
	}
	rel := strings.TrimPrefix(cleaned, "/")
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return filepath.Join(h.root, filepath.FromSlash(rel)), true
}

// copyFile streams length bytes starting at offset to the response.
// Write failures are logged only; the status line is already committed.
func (h *staticHandler) copyFile(w io.Writer, filePath string, offset, length int64) {
	f, err := os.Open(filePath)
	if err != nil {
		h.logger.Error("failed to open served file", "path", filePath, "error", err)
		return
	}
	defer f.Close()

	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			h.logger.Error("failed to seek served file", "path", filePath, "error", err)
			return
		}
	}

	if _, err := io.CopyN(w, f, length); err != nil {
		h.logger.Debug("response write aborted", "path", filePath, "error", err)
	}
}

// parseRange parses a single-range header of the form "bytes=START-[END]"
// against a file of the given size. END is inclusive and defaults to the
// last byte. It returns the start offset and slice length.
//
// Rejected as errMalformedRange: missing or non-numeric START, START > END,
// and START at or past the end of the file. An END past the end of the file
// is clamped rather than rejected, per usual HTTP range semantics.
func parseRange(header string, size int64) (start, length int64, err error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return 0, 0, errMalformedRange
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return 0, 0, errMalformedRange
	}

	start, err = strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
	if err != nil || start < 0 {
		return 0, 0, errMalformedRange
	}
	if start >= size {
		return 0, 0, errMalformedRange
	}

	end := size - 1
	if trimmed := strings.TrimSpace(endStr); trimmed != "" {
		end, err = strconv.ParseInt(trimmed, 10, 64)
		if err != nil || end < start {
			return 0, 0, errMalformedRange
		}
		if end >= size {
			end = size - 1
		}
	}

	return start, end - start + 1, nil
}

// contentTypeFor returns the Content-Type for a file path by extension.
func contentTypeFor(filePath string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(filePath))]; ok {
		return ct
	}
	return "application/octet-stream"
}
