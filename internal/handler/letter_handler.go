package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/akademika-dev/letter-office-api/internal/dto"
	"github.com/akademika-dev/letter-office-api/internal/models"
	appErrors "github.com/akademika-dev/letter-office-api/pkg/errors"
	"github.com/akademika-dev/letter-office-api/pkg/response"
)

type letterService interface {
	Submit(ctx context.Context, req dto.SubmitLetterRequest, actor *models.JWTClaims) (*models.LetterRequest, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.LetterRequest, error)
	List(ctx context.Context, query dto.LetterQuery, actor *models.JWTClaims) ([]models.LetterRequest, error)
	History(ctx context.Context, id string, actor *models.JWTClaims) ([]models.LetterHistoryEntry, error)
	Forward(ctx context.Context, id string, req dto.ForwardLetterRequest, actor *models.JWTClaims) (*models.LetterRequest, error)
	Decide(ctx context.Context, id string, req dto.DecideLetterRequest, actor *models.JWTClaims) (*models.LetterRequest, error)
}

type artifactService interface {
	Link(ctx context.Context, letterID string, actor *models.JWTClaims) (*dto.ArtifactLink, error)
	Open(ctx context.Context, token string) ([]byte, string, error)
}

// LetterHandler exposes REST endpoints for the letter approval workflow.
type LetterHandler struct {
	letters   letterService
	artifacts artifactService
}

// NewLetterHandler constructs the handler.
func NewLetterHandler(letters letterService, artifacts artifactService) *LetterHandler {
	return &LetterHandler{letters: letters, artifacts: artifacts}
}

// Submit godoc
// @Summary Submit an official letter request
// @Tags Letters
// @Accept json
// @Produce json
// @Param payload body dto.SubmitLetterRequest true "Letter payload"
// @Success 201 {object} response.Envelope
// @Router /letters [post]
func (h *LetterHandler) Submit(c *gin.Context) {
	var req dto.SubmitLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid letter payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	letter, err := h.letters.Submit(c.Request.Context(), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, letter, nil)
}

// List godoc
// @Summary List letter requests
// @Tags Letters
// @Produce json
// @Param stage query string false "Comma separated stages"
// @Param category query string false "Letter category"
// @Param orgUnit query string false "Owning org unit"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /letters [get]
func (h *LetterHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.LetterQuery{
		Category: strings.TrimSpace(c.Query("category")),
		OrgUnit:  strings.TrimSpace(c.Query("orgUnit")),
	}
	if rawStage := c.Query("stage"); rawStage != "" {
		parts := strings.Split(rawStage, ",")
		stages := make([]models.LetterStage, 0, len(parts))
		for _, part := range parts {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			stages = append(stages, models.LetterStage(part))
		}
		query.Stage = stages
	}
	query.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "0"))
	query.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	letters, err := h.letters.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, letters, nil)
}

// Get godoc
// @Summary Get letter detail
// @Tags Letters
// @Produce json
// @Param id path string true "Letter ID"
// @Success 200 {object} response.Envelope
// @Router /letters/{id} [get]
func (h *LetterHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	letter, err := h.letters.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, letter, nil)
}

// History godoc
// @Summary Get the append-only audit trail for a letter
// @Tags Letters
// @Produce json
// @Param id path string true "Letter ID"
// @Success 200 {object} response.Envelope
// @Router /letters/{id}/history [get]
func (h *LetterHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entries, err := h.letters.History(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Forward godoc
// @Summary Forward a letter to unit approval
// @Tags Letters
// @Accept json
// @Produce json
// @Param id path string true "Letter ID"
// @Param payload body dto.ForwardLetterRequest true "Forward payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /letters/{id}/forward [post]
func (h *LetterHandler) Forward(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ForwardLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid forward payload"))
		return
	}
	letter, err := h.letters.Forward(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, letter, nil)
}

// Decide godoc
// @Summary Approve or reject a letter
// @Description Approving a letter allocates its official document number atomically with the stage change.
// @Tags Letters
// @Accept json
// @Produce json
// @Param id path string true "Letter ID"
// @Param payload body dto.DecideLetterRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /letters/{id}/decide [post]
func (h *LetterHandler) Decide(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.DecideLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}
	letter, err := h.letters.Decide(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, letter, nil)
}

// Artifact godoc
// @Summary Get a signed download link for a completed letter
// @Tags Letters
// @Produce json
// @Param id path string true "Letter ID"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /letters/{id}/artifact [get]
func (h *LetterHandler) Artifact(c *gin.Context) {
	if h.artifacts == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "artifact service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	link, err := h.artifacts.Link(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Download godoc
// @Summary Download a letter artifact by signed token
// @Tags Letters
// @Produce application/pdf
// @Param token path string true "Signed artifact token"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /artifacts/{token} [get]
func (h *LetterHandler) Download(c *gin.Context) {
	if h.artifacts == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "artifact service not configured"))
		return
	}
	data, filename, err := h.artifacts.Open(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
