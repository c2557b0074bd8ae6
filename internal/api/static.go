package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// staticTypes lists the only asset classes served under /static.
var staticTypes = map[string]string{
	"css": "text/css",
	"js":  "application/javascript",
}

func (h *Handler) index(c *gin.Context) {
	h.serveFile(c, filepath.Join(h.staticDir, "index.html"), "text/html; charset=utf-8")
}

func (h *Handler) staticFile(c *gin.Context) {
	rel := strings.TrimPrefix(c.Param("filepath"), "/")
	prefix, rest, ok := strings.Cut(rel, "/")
	contentType, known := staticTypes[prefix]
	if !ok || !known || rest == "" {
		notFound(c)
		return
	}
	clean := path.Clean("/" + rest)
	if clean != "/"+rest || strings.Contains(rest, "..") {
		notFound(c)
		return
	}
	h.serveFile(c, filepath.Join(h.staticDir, "static", prefix, filepath.FromSlash(clean)), contentType)
}

func (h *Handler) serveFile(c *gin.Context, name, contentType string) {
	data, err := os.ReadFile(name)
	if err != nil {
		if os.IsNotExist(err) {
			notFound(c)
			return
		}
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}
