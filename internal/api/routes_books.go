package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/bookreview/internal/handlers"
)

func registerBookRoutes(api *gin.RouterGroup, books *handlers.BookHandler, reviews *handlers.ReviewHandler) {
	group := api.Group("/books")
	{
		group.GET("", books.List)
		group.POST("", books.Create)
		group.GET("/:id", books.Get)
		group.PUT("/:id", books.Update)
		group.DELETE("/:id", books.Delete)
		// Nested shape without pagination parameters, paged list with them.
		group.GET("/:id/reviews", books.Reviews)
		group.POST("/:id/reviews", reviews.Create)
	}
}

func registerReviewRoutes(api *gin.RouterGroup, reviews *handlers.ReviewHandler) {
	group := api.Group("/reviews")
	{
		group.GET("/:id", reviews.Get)
		group.PUT("/:id", reviews.Update)
		group.DELETE("/:id", reviews.Delete)
	}
}
