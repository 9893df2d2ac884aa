package handler

import "github.com/gin-gonic/gin"

// Handlers groups every HTTP handler of the local API.
type Handlers struct {
	Arts     *ArtHandler
	Criteria *CriterionHandler
	Sessions *SessionHandler
	Backup   *BackupHandler
	Exports  *ExportHandler
	System   *SystemHandler
}

// RegisterRoutes mounts the system endpoints at the root and the API under prefix.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers) {
	r.GET("/health", h.System.Health)
	r.GET("/ready", h.System.Ready)
	r.GET("/metrics", h.System.Prometheus)

	api := r.Group(prefix)

	arts := api.Group("/arts")
	arts.GET("", h.Arts.List)
	arts.GET("/:id", h.Arts.Get)
	arts.GET("/:id/stats", h.Arts.Stats)
	arts.GET("/:id/criteria", h.Criteria.List)
	arts.POST("/:id/criteria", h.Criteria.Add)

	criteria := api.Group("/criteria")
	criteria.PATCH("/:id", h.Criteria.Rename)
	criteria.POST("/:id/move", h.Criteria.Move)
	criteria.DELETE("/:id", h.Criteria.Delete)

	sessions := api.Group("/sessions")
	sessions.GET("", h.Sessions.List)
	sessions.POST("", h.Sessions.Create)

	backup := api.Group("/backup")
	backup.GET("", h.Backup.Export)
	backup.POST("/restore", h.Backup.Restore)

	exports := api.Group("/exports")
	exports.GET("/coach-pack", h.Exports.CoachPack)
	exports.POST("", h.Exports.Generate)
	exports.GET("/download/:token", h.Exports.Download)

	api.GET("/system/metrics", h.System.Snapshot)
}
