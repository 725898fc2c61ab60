package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akademika-dev/letter-office-api/internal/dto"
	"github.com/akademika-dev/letter-office-api/internal/models"
	appErrors "github.com/akademika-dev/letter-office-api/pkg/errors"
	"github.com/akademika-dev/letter-office-api/pkg/response"
)

type templateService interface {
	List(ctx context.Context) ([]models.NumberingTemplate, error)
	Upsert(ctx context.Context, category string, req dto.UpsertTemplateRequest) (*models.NumberingTemplate, error)
}

// TemplateHandler exposes numbering template administration endpoints.
type TemplateHandler struct {
	service templateService
}

// NewTemplateHandler constructs the handler.
func NewTemplateHandler(service templateService) *TemplateHandler {
	return &TemplateHandler{service: service}
}

// List godoc
// @Summary List numbering templates
// @Tags Numbering
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /numbering/templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, templates, nil)
}

// Upsert godoc
// @Summary Create or replace the numbering template for a category
// @Tags Numbering
// @Accept json
// @Produce json
// @Param category path string true "Letter category"
// @Param payload body dto.UpsertTemplateRequest true "Template payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /numbering/templates/{category} [put]
func (h *TemplateHandler) Upsert(c *gin.Context) {
	var req dto.UpsertTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid template payload"))
		return
	}
	template, err := h.service.Upsert(c.Request.Context(), c.Param("category"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, template, nil)
}
