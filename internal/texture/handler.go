// Package texture serves the PNG textures the capture rasterizer writes.
// Textures are server-generated and immutable, so there is no upload path.
package texture

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/inkfinity/inkfinity/backend-go/internal/typeid"
)

type Handler struct {
	dir string
}

func NewHandler(dir string) *Handler {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Error("create texture dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir}
}

// Serve returns an http.Handler for GET /textures/<id>.png. Texture IDs are
// unique, so files can be cached forever.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/textures/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSuffix(filepath.Base(r.URL.Path), ".png")
		if err := typeid.Validate(id, typeid.PrefixTexture); err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}
