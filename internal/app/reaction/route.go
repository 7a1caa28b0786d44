package reaction

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	reactions := rg.Group("/messages/:id/reactions")
	{
		reactions.GET("", handler.ListReactions)
		reactions.POST("", handler.React)
		reactions.DELETE("", handler.Unreact)
	}
}
