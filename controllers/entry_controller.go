package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/contactbox/models"
	"github.com/cppla/contactbox/services"
	"github.com/cppla/contactbox/utils"
)

// EntryController exposes contact-form entries.
type EntryController struct {
	svc *services.EntryService
}

// NewEntryController creates a new EntryController instance.
func NewEntryController(svc *services.EntryService) *EntryController {
	return &EntryController{svc: svc}
}

// AddEntry stores a submission and queues the confirmation mail.
func (e *EntryController) AddEntry(ctx *gin.Context) {
	var req services.EntryInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}
	entry, err := e.svc.Create(ctx.Request.Context(), req)
	if err != nil {
		respondError(ctx, err, failure{internal: "failed to save entry", code: 50010})
		return
	}
	utils.SuccessMessage(ctx, "Entry added successfully", entry)
}

// GetEntries lists all entries.
func (e *EntryController) GetEntries(ctx *gin.Context) {
	entries, err := e.svc.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, failure{internal: "failed to fetch entries", code: 50011})
		return
	}
	utils.Success(ctx, entries)
}

// UpdateEntry applies a partial update.
func (e *EntryController) UpdateEntry(ctx *gin.Context) {
	var patch models.EntryPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid request payload")
		return
	}
	entry, err := e.svc.Update(ctx.Request.Context(), ctx.Param("id"), patch)
	if err != nil {
		respondError(ctx, err, failure{notFound: "Entry not found", internal: "failed to update entry", code: 50012})
		return
	}
	utils.Success(ctx, entry)
}

// DeleteEntry removes an entry.
func (e *EntryController) DeleteEntry(ctx *gin.Context) {
	if err := e.svc.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		respondError(ctx, err, failure{notFound: "Entry not found", internal: "failed to delete entry", code: 50013})
		return
	}
	utils.SuccessMessage(ctx, "Entry deleted successfully", nil)
}

// ResendConfirmation sends the confirmation mail again and reports the delivery result.
func (e *EntryController) ResendConfirmation(ctx *gin.Context) {
	if err := e.svc.Notify(ctx.Request.Context(), ctx.Param("id")); err != nil {
		respondError(ctx, err, failure{notFound: "Entry not found", internal: "failed to load entry", code: 50014})
		return
	}
	utils.SuccessMessage(ctx, "Confirmation sent", nil)
}
