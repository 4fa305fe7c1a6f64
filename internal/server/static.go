package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves an optional built frontend and installs the fallback
// for unknown routes. Unknown /api paths always answer with a JSON 404.
func (s *Server) mountStatic() {
	indexPath := s.staticIndex()

	s.engine.NoRoute(func(c *gin.Context) {
		if indexPath == "" || strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.URL.Path == "/api" {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not Found"})
			return
		}
		c.File(indexPath)
	})

	if indexPath == "" {
		return
	}

	s.engine.GET("/", func(c *gin.Context) {
		c.File(indexPath)
	})

	assetsDir := filepath.Join(s.staticDir, "assets")
	if _, err := os.Stat(assetsDir); err == nil {
		s.engine.StaticFS("/assets", gin.Dir(assetsDir, false))
	}

	favicon := filepath.Join(s.staticDir, "favicon.ico")
	if _, err := os.Stat(favicon); err == nil {
		s.engine.StaticFile("/favicon.ico", favicon)
	}
}

// staticIndex returns the frontend entry point, or "" when none is usable.
func (s *Server) staticIndex() string {
	if s.staticDir == "" {
		s.logger.Debug("static directory not configured; API only mode")
		return ""
	}

	info, err := os.Stat(s.staticDir)
	if err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing", "path", s.staticDir, "error", err)
		return ""
	}

	indexPath := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		s.logger.Warn("index.html not found", "path", indexPath, "error", err)
		return ""
	}
	return indexPath
}
