package message

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	messages := rg.Group("/messages")
	{
		messages.GET("", handler.ListMessages)
		messages.POST("", handler.CreateMessage)
		messages.DELETE("/:id", handler.DeleteMessage)
	}

	users := rg.Group("/users/:id")
	{
		users.DELETE("/messages", handler.DeleteOwnMessages)
		users.GET("/message-counts", handler.GetMessageCounts)
	}
}
