package dto

import "github.com/akademika-dev/letter-office-api/internal/models"

// UpsertTemplateRequest creates or replaces the numbering template for a
// category.
type UpsertTemplateRequest struct {
	Pattern     string             `json:"pattern" binding:"required"`
	ResetPolicy models.ResetPolicy `json:"resetPolicy" binding:"required"`
}
