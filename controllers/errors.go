package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/contactbox/services"
	"github.com/cppla/contactbox/utils"
)

// failure describes how a handler reports errors it cannot classify further.
type failure struct {
	notFound string
	internal string
	code     int
}

// respondError maps service errors onto HTTP statuses and logs the cause.
func respondError(ctx *gin.Context, err error, f failure) {
	var verr *services.ValidationError
	var nerr *services.NotificationError
	switch {
	case errors.As(err, &verr):
		utils.Sugar.Infow("validation failed", "path", ctx.FullPath(), "field", verr.Field)
		utils.Error(ctx, http.StatusBadRequest, 40010, verr.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.Sugar.Infow("record not found", "path", ctx.FullPath(), "id", ctx.Param("id"))
		utils.Error(ctx, http.StatusNotFound, 40400+f.code%100, f.notFound)
	case errors.Is(err, services.ErrNoFile):
		utils.Error(ctx, http.StatusBadRequest, 40030, "no file uploaded")
	case errors.Is(err, services.ErrFileTooLarge):
		utils.Error(ctx, http.StatusBadRequest, 40032, "file size exceeds limit")
	case errors.As(err, &nerr):
		utils.Sugar.Errorw("notification failed", "path", ctx.FullPath(), "error", err)
		utils.Error(ctx, http.StatusBadGateway, 50200, "failed to send confirmation email")
	default:
		utils.Sugar.Errorw(f.internal, "path", ctx.FullPath(), "error", err)
		utils.Error(ctx, http.StatusInternalServerError, f.code, f.internal)
	}
}
