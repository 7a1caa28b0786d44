package user

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	users := rg.Group("/users")
	{
		users.GET("", handler.Members)
		users.POST("", handler.Register)
		users.GET("/availability", handler.Availability)
		users.POST("/login", handler.Login)
		users.POST("/claim", handler.Claim)
		users.POST("/:id/active", handler.Touch)
	}
}
