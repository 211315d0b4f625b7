package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/contactbox/services"
	"github.com/cppla/contactbox/utils"
)

// multipartOverhead leaves room for boundaries and headers above the file size limit.
const multipartOverhead = 1 << 20

// ImageController manages uploaded images and serves their bytes.
type ImageController struct {
	svc      *services.ImageService
	baseURL  string
	maxBytes int64
}

// NewImageController creates a new ImageController. An empty baseURL means links are built from the request host.
func NewImageController(svc *services.ImageService, baseURL string, maxBytes int64) *ImageController {
	return &ImageController{svc: svc, baseURL: strings.TrimRight(baseURL, "/"), maxBytes: maxBytes}
}

// Upload returns a handler storing the multipart file found in field.
func (i *ImageController) Upload(field string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, i.maxBytes+multipartOverhead)
		file, header, err := ctx.Request.FormFile(field)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respondError(ctx, services.ErrFileTooLarge, failure{})
				return
			}
			respondError(ctx, services.ErrNoFile, failure{})
			return
		}
		defer file.Close()

		img, err := i.svc.Upload(ctx.Request.Context(), file, header.Filename, header.Size)
		if err != nil {
			respondError(ctx, err, failure{internal: "failed to save image", code: 50030})
			return
		}
		utils.SuccessMessage(ctx, "Image uploaded successfully", img)
	}
}

// ListImages returns every image projected as {id, url}.
func (i *ImageController) ListImages(ctx *gin.Context) {
	images, err := i.svc.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, failure{internal: "failed to fetch images", code: 50031})
		return
	}
	utils.Success(ctx, services.Links(images, i.linkBase(ctx)))
}

// GetImages returns the full image records.
func (i *ImageController) GetImages(ctx *gin.Context) {
	images, err := i.svc.List(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err, failure{internal: "failed to fetch images", code: 50031})
		return
	}
	utils.Success(ctx, images)
}

// DeleteImage removes an image record and, best-effort, its file.
func (i *ImageController) DeleteImage(ctx *gin.Context) {
	if err := i.svc.Delete(ctx.Request.Context(), ctx.Param("id")); err != nil {
		respondError(ctx, err, failure{notFound: "Image not found", internal: "failed to delete image", code: 50032})
		return
	}
	utils.SuccessMessage(ctx, "Image deleted successfully", nil)
}

// ServeFile streams a stored file by its key.
func (i *ImageController) ServeFile(ctx *gin.Context) {
	obj, err := i.svc.Open(ctx.Request.Context(), ctx.Param("filename"))
	if err != nil {
		respondError(ctx, err, failure{notFound: "file not found", internal: "failed to read file", code: 50033})
		return
	}
	defer obj.Body.Close()
	headers := map[string]string{"Cache-Control": "public, max-age=86400"}
	if !inlineSafe(obj.ContentType) {
		headers["Content-Disposition"] = "attachment"
	}
	ctx.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, headers)
}

// inlineSafe reports whether a stored type may render in the browser from this origin.
// SVG can carry script, so only raster images qualify.
func inlineSafe(contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	return strings.HasPrefix(mediaType, "image/") && !strings.Contains(mediaType, "svg")
}

func (i *ImageController) linkBase(ctx *gin.Context) string {
	if i.baseURL != "" {
		return i.baseURL
	}
	scheme := "http"
	if ctx.Request.TLS != nil {
		scheme = "https"
	}
	if proto := ctx.GetHeader("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + ctx.Request.Host
}
