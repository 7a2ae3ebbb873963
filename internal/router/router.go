package router

import (
	"artgen-go/internal/config"
	"artgen-go/internal/handler"
	"artgen-go/internal/middleware"
	"artgen-go/internal/repository"
	"artgen-go/internal/service"
	"artgen-go/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Store      repository.Store
	Auth       *service.AuthService
	Catalog    *service.CatalogService
	Gallery    *service.GalleryService
	Generation *service.GenerationService
	Tuning     *service.TuningService
}

// SetupRouter builds the gin engine with every route.
func SetupRouter(
	cfg *config.Config,
	jwtManager *utils.JWTManager,
	logger *logrus.Logger,
	svc Services,
) *gin.Engine {
	if cfg.Server.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = int64(cfg.Server.MaxUploadMB) << 20

	r.Use(middleware.LoggerMiddleware(logger))
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(&cfg.CORS))

	authHandler := handler.NewAuthHandler(svc.Auth)
	generationHandler := handler.NewGenerationHandler(svc.Generation, int64(cfg.Server.MaxUploadMB)<<20)
	galleryHandler := handler.NewGalleryHandler(svc.Gallery)
	catalogHandler := handler.NewCatalogHandler(svc.Catalog)
	tuningHandler := handler.NewTuningHandler(svc.Tuning)
	healthHandler := handler.NewHealthHandler(svc.Store, cfg.Storage.Backend)

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "artgen image generation API",
			"version": "1.0.0",
		})
	})
	r.GET("/health", healthHandler.Health)

	optionalAuth := middleware.OptionalAuth(jwtManager)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.AuthMiddleware(jwtManager), authHandler.GetMe)
		}

		api.GET("/users/:id", authHandler.GetUser)

		images := api.Group("/images")
		images.Use(optionalAuth)
		{
			images.POST("/text-to-image", generationHandler.TextToImage)
			images.POST("/image-to-image", generationHandler.ImageToImage)
			images.POST("/face-cloning", generationHandler.FaceCloning)
			images.POST("/edit-face", generationHandler.EditFace)
			images.POST("/edit-objects", generationHandler.EditObjects)

			images.GET("", galleryHandler.ListImages)
			images.GET("/:id", galleryHandler.GetImage)
		}

		api.GET("/style-presets", catalogHandler.ListStylePresets)
		api.GET("/ai-models", catalogHandler.ListAiModels)

		tunings := api.Group("/model-tunings")
		tunings.Use(optionalAuth)
		{
			tunings.GET("", tuningHandler.List)
			tunings.POST("", tuningHandler.Create)
			tunings.GET("/:id", tuningHandler.Get)
			tunings.PATCH("/:id", tuningHandler.Update)
			tunings.DELETE("/:id", tuningHandler.Delete)
		}
	}

	return r
}
