package question

import "github.com/gin-gonic/gin"

func RegisterRoutes(rg *gin.RouterGroup, handler Handler) {
	questions := rg.Group("/questions")
	{
		questions.GET("/current", handler.Current)
		questions.GET("/:id/answers", handler.Answers)
		questions.POST("/:id/answers", handler.Answer)
	}
}
