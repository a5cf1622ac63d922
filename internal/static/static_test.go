package static

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/realestate-crm/internal/config"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, IndexFile), []byte("<html>crm</html>"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "assets", "app.js"), []byte("console.log(1)"), 0o644))

	h, err := New(root, "/api", "/graphql")
	require.NoError(t, err)
	return h
}

func get(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestNewWithoutRoot(t *testing.T) {
	h, err := New("")
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestNewRejectsMissingOrFileRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = New(file)
	assert.Error(t, err)
}

func TestServesFilesAndIndexFallback(t *testing.T) {
	h := newTestHandler(t)

	rec := get(h, http.MethodGet, "/assets/app.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())

	for _, target := range []string{"/", "/clients/42", "/assets/"} {
		rec = get(h, http.MethodGet, target)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "<html>crm</html>", rec.Body.String(), target)
	}
}

func TestExcludedPrefixesNeverServed(t *testing.T) {
	h := newTestHandler(t)

	for _, target := range []string{"/api", "/api/agents", "/graphql"} {
		assert.Equal(t, http.StatusNotFound, get(h, http.MethodGet, target).Code, target)
	}
	assert.Equal(t, http.StatusOK, get(h, http.MethodGet, "/apiary").Code)
}

func TestRejectsWrites(t *testing.T) {
	h := newTestHandler(t)
	assert.Equal(t, http.StatusMethodNotAllowed, get(h, http.MethodPost, "/").Code)
}

func TestMissingIndex(t *testing.T) {
	h, err := New(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, get(h, http.MethodGet, "/somewhere").Code)
}

func TestNewFromConfigExcludesServerRoutes(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, IndexFile), []byte("index"), 0o644))

	h, err := NewFromConfig(config.Config{ServeStaticRootPath: root}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, h)

	for _, target := range []string{"/api/agents", "/graphql", "/_health/ready", "/metrics"} {
		assert.Equal(t, http.StatusNotFound, get(h, http.MethodGet, target).Code, target)
	}
	assert.Equal(t, http.StatusOK, get(h, http.MethodGet, "/properties").Code)

	h, err = NewFromConfig(config.Config{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Nil(t, h)
}
