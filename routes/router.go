package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cppla/contactbox/config"
	"github.com/cppla/contactbox/controllers"
	"github.com/cppla/contactbox/middleware"
	"github.com/cppla/contactbox/utils"
)

// Controllers groups the handlers mounted by SetupRouter.
type Controllers struct {
	Entries *controllers.EntryController
	Images  *controllers.ImageController
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, h Controllers) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	// Access log goes to its own rolling file
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, true))
	} else {
		utils.Sugar.Warnf("gin log disabled: %v", err)
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		// browsers reject credentials with a wildcard origin
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.SecurityHeaders())

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	r.GET("/uploads/:filename", h.Images.ServeFile)

	api := r.Group("/api")
	api.POST("/add-entry", h.Entries.AddEntry)
	api.GET("/get-entries", h.Entries.GetEntries)
	api.PUT("/update-entry/:id", h.Entries.UpdateEntry)
	api.DELETE("/delete-entry/:id", h.Entries.DeleteEntry)
	api.POST("/entries/:id/notify", h.Entries.ResendConfirmation)

	api.POST("/upload", h.Images.Upload("file"))
	api.GET("/images", h.Images.ListImages)
	api.DELETE("/images/:id", h.Images.DeleteImage)

	// Secondary image surface kept for older clients
	gallery := api.Group("/gallery")
	gallery.POST("/upload-image", h.Images.Upload("image"))
	gallery.GET("/get-image", h.Images.GetImages)
	gallery.DELETE("/delete-image/:id", h.Images.DeleteImage)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			utils.Error(ctx, http.StatusNotFound, 40400, "api route not found")
			return
		}
		utils.Error(ctx, http.StatusNotFound, 40400, "not found")
	})

	return r
}
