package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusbridge/meet/internal/api/http/converter"
	"github.com/campusbridge/meet/internal/repository"
	"github.com/campusbridge/meet/internal/service"
)

type MeetingController struct {
	meetings service.MeetingInteractor
}

func NewMeetingController(meetings service.MeetingInteractor) *MeetingController {
	return &MeetingController{meetings: meetings}
}

// JoinMeeting resolves the caller's role in a room, creating the room if this
// is the first arrival. The UI uses the role to decide between "Start Call"
// and "Join Call" controls.
func (c *MeetingController) JoinMeeting(ctx *gin.Context) {
	type request struct {
		RoomID string `json:"room_id"`
	}

	userID, exists := ctx.Get("user_id")
	if !exists {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	meeting, role, err := c.meetings.EnsureRoom(ctx.Request.Context(), req.RoomID, userID.(string))
	if err != nil {
		if errors.Is(err, service.ErrInvalidRoomID) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create/load meeting"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"meeting": converter.MeetingToApi(meeting),
		"role":    role,
	})
}

func (c *MeetingController) GetMeeting(ctx *gin.Context) {
	meeting, err := c.meetings.GetMeeting(ctx.Request.Context(), ctx.Param("roomID"))
	if err != nil {
		if errors.Is(err, repository.ErrMeetingNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "meeting not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"meeting": converter.MeetingToApi(meeting)})
}
