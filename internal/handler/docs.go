package handler

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed openapi.yaml
var openapiYAML []byte

// Minimal HTML that loads Swagger UI from a CDN and points to /openapi.yaml.
//
//go:embed swagger.html
var swaggerHTML []byte

// Info is the service banner served at the root.
type Info struct {
	Name    string
	Version string
}

// RegisterDocs mounts:
//   - GET /: service banner with links to the docs and the search endpoint
//   - GET /openapi.yaml: embedded OpenAPI document
//   - GET /docs: Swagger UI rendering of the document
func RegisterDocs(r *gin.Engine, info Info) {
	if info.Name == "" {
		info.Name = "AFL Player Over/Under Search API"
	}
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message":  info.Name,
			"version":  info.Version,
			"docs":     "/docs",
			"endpoint": "/search/over-under",
		})
	})
	r.GET("/openapi.yaml", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/yaml; charset=utf-8", openapiYAML)
	})
	r.GET("/docs", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", swaggerHTML)
	})
}
