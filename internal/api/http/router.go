package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/campusbridge/meet/internal/api/http/middleware"
)

func SetupRouter(meetingController *MeetingController, callController *CallController, allowedOrigins []string, jwtSecret string) *gin.Engine {
	router := gin.Default()

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	if len(config.AllowOrigins) == 0 {
		config.AllowOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	config.AllowCredentials = true
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	router.Use(cors.New(config))

	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	if meetingController != nil {
		meetings := api.Group("/meetings")
		meetings.POST("/join", middleware.JWTAuth(jwtSecret), meetingController.JoinMeeting)
		meetings.GET("/:roomID", meetingController.GetMeeting)
	}

	if callController != nil {
		calls := api.Group("/calls")
		calls.GET("/:roomID", callController.GetCall)
		calls.POST("/:roomID/offer", callController.WriteOffer)
		calls.POST("/:roomID/answer", callController.WriteAnswer)
		calls.POST("/:roomID/candidates/:side", callController.AddCandidate)
		calls.DELETE("/:roomID", callController.EndCall)
		calls.GET("/:roomID/ws", callController.Feed)
	}

	return router
}
