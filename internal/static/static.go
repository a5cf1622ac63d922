// Package static serves the compiled admin client from SERVE_STATIC_ROOT_PATH.
package static

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/eugenenazirov/realestate-crm/internal/api"
	"github.com/eugenenazirov/realestate-crm/internal/config"
)

// IndexFile is served for paths that do not name an existing file.
const IndexFile = "index.html"

// Handler serves files below root and falls back to the index document so
// client-side routes resolve. Paths under an excluded prefix always 404.
type Handler struct {
	root    string
	files   http.Handler
	exclude []string
}

// New returns a Handler rooted at root, or nil when root is empty.
func New(root string, exclude ...string) (*Handler, error) {
	if root == "" {
		return nil, nil
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve static root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("static root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static root %s is not a directory", abs)
	}
	return &Handler{
		root:    abs,
		files:   http.FileServer(http.Dir(abs)),
		exclude: exclude,
	}, nil
}

// Root returns the absolute directory being served.
func (h *Handler) Root() string {
	return h.root
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.excluded(r.URL.Path) {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	name := path.Clean("/" + r.URL.Path)
	if name != "/" && h.isFile(name) {
		h.files.ServeHTTP(w, r)
		return
	}

	index := filepath.Join(h.root, IndexFile)
	if _, err := os.Stat(index); errors.Is(err, os.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, index)
}

func (h *Handler) excluded(p string) bool {
	for _, prefix := range h.exclude {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

func (h *Handler) isFile(name string) bool {
	info, err := os.Stat(filepath.Join(h.root, filepath.FromSlash(name)))
	return err == nil && !info.IsDir()
}

// Module provides *Handler, which is nil when no static root is configured.
var Module = fx.Module("static",
	fx.Provide(NewFromConfig),
)

// NewFromConfig serves cfg.ServeStaticRootPath, keeping every server-owned
// mount point out of the fallback.
func NewFromConfig(cfg config.Config, logger *zap.Logger) (*Handler, error) {
	h, err := New(cfg.ServeStaticRootPath, api.APIPath, api.GraphQLPath, api.HealthPath, api.MetricsPath)
	if err != nil || h == nil {
		return h, err
	}
	logger.Info("serving static files", zap.String("root", h.Root()))
	return h, nil
}
