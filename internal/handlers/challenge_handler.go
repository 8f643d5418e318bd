package handlers

import (
	"net/http"
	"strconv"

	"github.com/SAP-F-2025/lesson-service/internal/models"
	"github.com/SAP-F-2025/lesson-service/internal/repositories"
	"github.com/SAP-F-2025/lesson-service/internal/services"
	"github.com/SAP-F-2025/lesson-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const maxImportSize = 10 << 20

type ChallengeHandler struct {
	BaseHandler
	challengeService services.ChallengeService
}

func NewChallengeHandler(challengeService services.ChallengeService, logger utils.Logger) *ChallengeHandler {
	return &ChallengeHandler{
		BaseHandler:      NewBaseHandler(logger),
		challengeService: challengeService,
	}
}

// CreateChallenge adds a challenge to the catalogue
// @Summary Create challenge
// @Tags challenges
// @Accept json
// @Produce json
// @Param challenge body services.ChallengeRequest true "Challenge data"
// @Success 201 {object} models.Challenge
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /challenges [post]
func (h *ChallengeHandler) CreateChallenge(c *gin.Context) {
	h.LogRequest(c, "Creating challenge")

	var req services.ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	challenge, err := h.challengeService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, challenge)
}

// GetChallenge retrieves a challenge by ID. Only authors see solutions and
// feedback.
// @Summary Get challenge
// @Tags challenges
// @Produce json
// @Param id path string true "Challenge ID"
// @Success 200 {object} services.ChallengeView
// @Failure 404 {object} ErrorResponse
// @Router /challenges/{id} [get]
func (h *ChallengeHandler) GetChallenge(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	challenge, err := h.challengeService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondWithChallenge(c, challenge)
}

// GetChallengeBySlug retrieves a challenge by its URL slug
// @Summary Get challenge by slug
// @Tags challenges
// @Produce json
// @Param slug path string true "Challenge slug"
// @Success 200 {object} services.ChallengeView
// @Failure 404 {object} ErrorResponse
// @Router /challenges/slug/{slug} [get]
func (h *ChallengeHandler) GetChallengeBySlug(c *gin.Context) {
	slug := ParseStringIDParam(c, "slug")
	if slug == "" {
		return
	}

	challenge, err := h.challengeService.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondWithChallenge(c, challenge)
}

// ListChallenges lists the catalogue
// @Summary List challenges
// @Tags challenges
// @Produce json
// @Param type query int false "Challenge type"
// @Param super_block query string false "Super block"
// @Param block query string false "Block"
// @Param search query string false "Title search"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} ListResponse
// @Router /challenges [get]
func (h *ChallengeHandler) ListChallenges(c *gin.Context) {
	filters := parseChallengeFilters(c)

	challenges, total, err := h.challengeService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	var items interface{} = challenges
	if !isAuthor(c) {
		views := make([]*services.ChallengeView, 0, len(challenges))
		for _, challenge := range challenges {
			view, err := services.NewChallengeView(challenge)
			if err != nil {
				h.handleServiceError(c, err)
				return
			}
			views = append(views, view)
		}
		items = views
	}

	c.JSON(http.StatusOK, ListResponse{
		Items:  items,
		Total:  total,
		Limit:  filters.Limit,
		Offset: filters.Offset,
	})
}

// UpdateChallenge replaces a challenge
// @Summary Update challenge
// @Tags challenges
// @Accept json
// @Produce json
// @Param id path string true "Challenge ID"
// @Param challenge body services.ChallengeRequest true "Challenge data"
// @Success 200 {object} models.Challenge
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /challenges/{id} [put]
func (h *ChallengeHandler) UpdateChallenge(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Updating challenge", "challenge_id", id)

	var req services.ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	challenge, err := h.challengeService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, challenge)
}

// DeleteChallenge removes a challenge
// @Summary Delete challenge
// @Tags challenges
// @Param id path string true "Challenge ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /challenges/{id} [delete]
func (h *ChallengeHandler) DeleteChallenge(c *gin.Context) {
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	h.LogRequest(c, "Deleting challenge", "challenge_id", id)

	if err := h.challengeService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ImportChallenges loads challenges from an uploaded xlsx workbook
// @Summary Import challenges
// @Tags challenges
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "xlsx workbook"
// @Success 200 {object} services.ImportResult
// @Failure 400 {object} ErrorResponse
// @Router /challenges/import [post]
func (h *ChallengeHandler) ImportChallenges(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing file", err, err.Error())
		return
	}
	if fileHeader.Size > maxImportSize {
		h.RespondWithError(c, http.StatusRequestEntityTooLarge, "File too large", nil, "limit is 10MB")
		return
	}

	h.LogRequest(c, "Importing challenges", "filename", fileHeader.Filename, "size", fileHeader.Size)

	file, err := fileHeader.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Unreadable file", err, err.Error())
		return
	}
	defer file.Close()

	result, err := h.challengeService.ImportFromExcel(c.Request.Context(), file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondWithChallenge hides answer keys from non-authors
func (h *ChallengeHandler) respondWithChallenge(c *gin.Context, challenge *models.Challenge) {
	if isAuthor(c) {
		c.JSON(http.StatusOK, challenge)
		return
	}

	view, err := services.NewChallengeView(challenge)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func parseChallengeFilters(c *gin.Context) repositories.ChallengeFilters {
	page := parseIntQuery(c, "page", 1)
	size := parseIntQuery(c, "size", 20)
	if page < 1 {
		page = 1
	}

	filters := repositories.ChallengeFilters{
		SuperBlock: c.Query("super_block"),
		Block:      c.Query("block"),
		Search:     c.Query("search"),
		Limit:      size,
		Offset:     (page - 1) * size,
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}

	if typeStr := c.Query("type"); typeStr != "" {
		if value, err := strconv.Atoi(typeStr); err == nil {
			challengeType := models.ChallengeType(value)
			filters.ChallengeType = &challengeType
		}
	}

	return filters
}
