package api

import (
	"go-contact-pipeline/internal/api/handler"
	"go-contact-pipeline/pkg/router"

	httpSwagger "github.com/swaggo/http-swagger"
)

// RegisterRoutes wires the pipeline API onto the router.
func RegisterRoutes(r *router.Router, h *handler.Handler) {
	r.GET("/health", h.Health)
	r.POST("/pipeline/run", h.RunPipeline)
	r.GET("/pipeline/runs", h.ListRuns)
	// More specific routes first
	r.GET("/pipeline/runs/*/errors", h.GetRunErrors)
	r.GET("/pipeline/runs/*", h.GetRun)
	r.GET("/swagger/*", httpSwagger.WrapHandler.ServeHTTP)
}
