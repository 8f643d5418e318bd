package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/lesson-service/internal/services"
	"github.com/SAP-F-2025/lesson-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// SessionHandler exposes the lesson page commands. Every route acts on
// behalf of the learner resolved by AuthMiddleware.
type SessionHandler struct {
	BaseHandler
	sessionService services.LessonSessionService
}

func NewSessionHandler(sessionService services.LessonSessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

// MountLesson starts a session for a lesson page
// @Summary Mount lesson
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body services.MountRequest true "Challenge to mount"
// @Success 201 {object} services.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) MountLesson(c *gin.Context) {
	learner, ok := learnerID(c)
	if !ok {
		return
	}

	var req services.MountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Mounting lesson", "challenge_id", req.ChallengeID)

	session, err := h.sessionService.Mount(c.Request.Context(), &req, learner)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession returns the learner's view of a session
// @Summary Get session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	h.withSession(c, func(sessionID, learner string) (*services.SessionResponse, error) {
		return h.sessionService.Get(c.Request.Context(), sessionID, learner)
	})
}

// SyncIdentity re-synchronizes the session after the page switched lessons
// @Summary Sync lesson identity
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body services.SyncIdentityRequest true "Current lesson"
// @Success 200 {object} services.SessionResponse
// @Router /sessions/{id}/identity [put]
func (h *SessionHandler) SyncIdentity(c *gin.Context) {
	var req services.SyncIdentityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	h.withSession(c, func(sessionID, learner string) (*services.SessionResponse, error) {
		return h.sessionService.SyncIdentity(c.Request.Context(), sessionID, &req, learner)
	})
}

// SelectOption records the learner's current choice for a question
// @Summary Select option
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body services.SelectOptionRequest true "Question and option, zero-indexed"
// @Success 200 {object} services.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Router /sessions/{id}/options [post]
func (h *SessionHandler) SelectOption(c *gin.Context) {
	var req services.SelectOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	h.withSession(c, func(sessionID, learner string) (*services.SessionResponse, error) {
		return h.sessionService.SelectOption(c.Request.Context(), sessionID, &req, learner)
	})
}

// ToggleAssignment checks or unchecks one assignment box
// @Summary Toggle assignment
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body services.ToggleAssignmentRequest true "Checkbox state"
// @Success 200 {object} services.SessionResponse
// @Failure 422 {object} ErrorResponse
// @Router /sessions/{id}/assignments [post]
func (h *SessionHandler) ToggleAssignment(c *gin.Context) {
	var req services.ToggleAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	h.withSession(c, func(sessionID, learner string) (*services.SessionResponse, error) {
		return h.sessionService.ToggleAssignment(c.Request.Context(), sessionID, &req, learner)
	})
}

// SubmitAnswers commits the selected options and reveals feedback
// @Summary Submit answers
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Router /sessions/{id}/submit [post]
func (h *SessionHandler) SubmitAnswers(c *gin.Context) {
	h.withSession(c, func(sessionID, learner string) (*services.SessionResponse, error) {
		return h.sessionService.Submit(c.Request.Context(), sessionID, learner)
	})
}

// UnmountLesson discards the session
// @Summary Unmount lesson
// @Tags sessions
// @Param id path string true "Session ID"
// @Success 204
// @Router /sessions/{id} [delete]
func (h *SessionHandler) UnmountLesson(c *gin.Context) {
	learner, ok := learnerID(c)
	if !ok {
		return
	}
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	if err := h.sessionService.Unmount(c.Request.Context(), sessionID, learner); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) withSession(c *gin.Context, call func(sessionID, learner string) (*services.SessionResponse, error)) {
	learner, ok := learnerID(c)
	if !ok {
		return
	}
	sessionID := ParseStringIDParam(c, "id")
	if sessionID == "" {
		return
	}

	session, err := call(sessionID, learner)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}
