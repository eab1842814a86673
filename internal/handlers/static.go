package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Static serves a pre-built single page app from dir. Paths that are not
// files fall back to index.html so client-side routes work on reload.
func Static(dir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			respondNotFound(w)
			return
		}

		// Prevent directory traversal attacks
		clean := path.Clean("/" + r.URL.Path)
		if strings.Contains(clean, "..") {
			http.Error(w, "Invalid file path", http.StatusBadRequest)
			return
		}

		full := filepath.Join(dir, filepath.FromSlash(clean))
		if info, err := os.Stat(full); err != nil || info.IsDir() {
			full = filepath.Join(dir, "index.html")
			if _, err := os.Stat(full); err != nil {
				http.NotFound(w, r)
				return
			}
		}

		// Set appropriate content type based on file extension
		switch {
		case strings.HasSuffix(full, ".css"):
			w.Header().Set("Content-Type", "text/css")
		case strings.HasSuffix(full, ".js"):
			w.Header().Set("Content-Type", "application/javascript")
		case strings.HasSuffix(full, ".html"):
			w.Header().Set("Content-Type", "text/html")
		}
		http.ServeFile(w, r, full)
	}
}
