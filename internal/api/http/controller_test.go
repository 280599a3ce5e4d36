package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusbridge/meet/internal/repository"
	"github.com/campusbridge/meet/internal/service"
	"github.com/campusbridge/meet/internal/signal"
)

const testSecret = "test-secret"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewInMemoryMeetingRepository()
	store := signal.NewInMemoryStore()

	meetingService := service.NewMeetingService(repo, nil, time.Hour)
	callService := service.NewCallService(store, repo, nil)

	return SetupRouter(
		NewMeetingController(meetingService),
		NewCallController(callService, nil),
		nil,
		testSecret,
	)
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func doJSON(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestJoinMeetingRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/meetings/join", "", gin.H{"room_id": "abcd-efgh-ijkl"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJoinMeetingAssignsRoles(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/meetings/join", signToken(t, "uidA"), gin.H{"room_id": "abcd-efgh-ijkl"})
	require.Equal(t, http.StatusOK, w.Code)

	var first struct {
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.Equal(t, "host", first.Role)

	w = doJSON(router, http.MethodPost, "/api/meetings/join", signToken(t, "uidB"), gin.H{"room_id": "abcd-efgh-ijkl"})
	require.Equal(t, http.StatusOK, w.Code)

	var second struct {
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, "guest", second.Role)
}

func TestJoinMeetingRejectsMalformedRoomID(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/meetings/join", signToken(t, "uidA"), gin.H{"room_id": "not a room"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWriteAnswerBeforeOfferConflicts(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/calls/abcd-efgh-ijkl/answer", "", gin.H{"type": "answer", "sdp": "v=0 answer"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestOfferAnswerRoundTrip(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/calls/abcd-efgh-ijkl/offer", "", gin.H{"type": "offer", "sdp": "v=0 offer"})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodPost, "/api/calls/abcd-efgh-ijkl/answer", "", gin.H{"type": "answer", "sdp": "v=0 answer"})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodGet, "/api/calls/abcd-efgh-ijkl", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Call struct {
			Offer  *struct{ SDP string } `json:"offer"`
			Answer *struct{ SDP string } `json:"answer"`
		} `json:"call"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Call.Offer)
	require.NotNil(t, resp.Call.Answer)
}

func TestAddCandidateRejectsUnknownSide(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/calls/abcd-efgh-ijkl/candidates/middle", "", gin.H{"candidate": "candidate:1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEndCallRemovesNegotiationState(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodPost, "/api/calls/abcd-efgh-ijkl/offer", "", gin.H{"type": "offer", "sdp": "v=0 offer"})
	require.Equal(t, http.StatusNoContent, w.Code)
	w = doJSON(router, http.MethodPost, "/api/calls/abcd-efgh-ijkl/candidates/offer", "", gin.H{"candidate": "candidate:1"})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/calls/abcd-efgh-ijkl", "", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodGet, "/api/calls/abcd-efgh-ijkl", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Idempotent: ending the already-empty call still succeeds.
	w = doJSON(router, http.MethodDelete, "/api/calls/abcd-efgh-ijkl", "", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
