package http

import "github.com/gin-gonic/gin"

// Register attaches catalog routes to the given router group. write
// middleware guards every mutating route.
func (h *Handler) Register(rg *gin.RouterGroup, write ...gin.HandlerFunc) {
	guarded := func(hs ...gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, write...), hs...)
	}

	projects := rg.Group("/projects")
	projects.GET("", h.search)
	projects.POST("", guarded(h.createProject)...)
	projects.PATCH("", guarded(h.updateProjects)...)
	projects.DELETE("/:name", guarded(h.deleteProject)...)
	projects.POST("/:name/deliverables", guarded(h.addDeliverable)...)

	rg.PATCH("/deliverables", guarded(h.updateDeliverables)...)

	rg.GET("/options", h.options)
	rg.GET("/stats", h.stats)
	rg.POST("/labels/normalize", h.normalize)
	rg.GET("/vocabulary", h.vocabulary)
}
