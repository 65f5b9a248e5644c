package routing

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skillswap-project/server-beta/internal/handlers"
	"github.com/skillswap-project/server-beta/internal/managers"
	"github.com/skillswap-project/server-beta/internal/middleware"
	"github.com/skillswap-project/server-beta/internal/schemas"
	"github.com/skillswap-project/server-beta/internal/utils"
)

// InitRouter builds the gin engine with all middleware and routes wired up.
func InitRouter(databaseMgr managers.DatabaseMgr, mailMgr managers.MailMgr, jwtMgr managers.JWTMgr,
	notificationMgr managers.NotificationMgr, storageMgr managers.StorageMgr) *gin.Engine {
	// Initialize router with logging and recovery middleware
	router := gin.New()
	// Initialize middleware
	setupCommonMiddleware(router)
	// Setup routes
	setupRoutes(router, databaseMgr, mailMgr, jwtMgr, notificationMgr, storageMgr)

	return router
}

func setupCommonMiddleware(router *gin.Engine) {
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.InjectTrace())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"http://localhost:5173", "http://localhost:19000"},
		AllowMethods:  []string{"GET", "PATCH", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Accept, Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-Trace-Id"},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(middleware.SanitizePath())
	router.Use(middleware.LogRequest())
	router.Use(middleware.CollectMetrics())
}

func setupRoutes(router *gin.Engine, databaseMgr managers.DatabaseMgr, mailMgr managers.MailMgr,
	jwtMgr managers.JWTMgr, notificationMgr managers.NotificationMgr, storageMgr managers.StorageMgr) {
	// Set up version route
	router.GET("/", func(c *gin.Context) {
		apiVersion := os.Getenv("PR_NUMBER")
		var pullRequest string

		if apiVersion == "" {
			apiVersion = "main:latest"
		} else {
			pullRequest = "https://github.com/skillswap-project/server-beta/pull/" + apiVersion
			apiVersion = "PR-" + apiVersion
		}
		metadata := &schemas.MetadataDTO{
			ApiVersion:  apiVersion,
			ApiName:     "Skill Swap",
			PullRequest: pullRequest,
		}
		utils.WriteAndLogResponse(c, metadata, http.StatusOK)
	})

	// Set up health route
	router.GET("/health", func(c *gin.Context) {
		// Ping the database
		if err := databaseMgr.GetPool().Ping(c); err != nil {
			c.String(http.StatusInternalServerError, "Database not responding")
			return
		}
		c.Status(http.StatusOK)
	})

	// Set up metrics route
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Set up API routes
	apiRouter := router.Group("/api")
	{
		// Set up user routes
		userRouter := apiRouter.Group("/users")
		userHdl := handlers.NewUserHandler(&databaseMgr, &jwtMgr, &mailMgr, &storageMgr)
		ratingHdl := handlers.NewRatingHandler(&databaseMgr)
		userRoutes(userRouter, userHdl, ratingHdl, jwtMgr)

		// Set up skill routes
		skillRouter := apiRouter.Group("/skills")
		skillHdl := handlers.NewSkillHandler(&databaseMgr)
		skillRoutes(skillRouter, skillHdl, jwtMgr)

		// Set up swap routes
		swapRouter := apiRouter.Group("/swaps")
		swapRouter.Use(jwtMgr.JWTMiddleware())
		swapHdl := handlers.NewSwapHandler(&databaseMgr)
		swapRoutes(swapRouter, swapHdl)

		// Set up rating routes
		ratingRouter := apiRouter.Group("/ratings")
		ratingRouter.Use(jwtMgr.JWTMiddleware())
		ratingRoutes(ratingRouter, ratingHdl)

		// Set up admin routes
		adminRouter := apiRouter.Group("/admin")
		adminRouter.Use(jwtMgr.JWTMiddleware(), middleware.RequireAdmin())
		adminHdl := handlers.NewAdminHandler(&databaseMgr, &notificationMgr)
		adminRoutes(adminRouter, adminHdl)
	}
}

func userRoutes(userRouter *gin.RouterGroup, userHdl handlers.UserHdl, ratingHdl handlers.RatingHdl, jwtMgr managers.JWTMgr) {
	userRouter.POST("", middleware.ValidateAndSanitizeStruct(&schemas.RegistrationRequest{}), userHdl.RegisterUser)
	userRouter.POST("/verify", middleware.ValidateAndSanitizeStruct(&schemas.VerificationRequest{}), userHdl.VerifyEmail)
	userRouter.POST("/login", middleware.ValidateAndSanitizeStruct(&schemas.LoginRequest{}), userHdl.LoginUser)
	userRouter.POST("/refresh", middleware.ValidateAndSanitizeStruct(&schemas.RefreshTokenRequest{}), userHdl.RefreshToken)
	userRouter.GET("/:userId/picture", userHdl.GetProfilePicture)
	// The following routes require the user to be authenticated
	userRouter.Use(jwtMgr.JWTMiddleware())
	userRouter.GET("/me", userHdl.GetProfile)
	userRouter.POST("/me/picture", userHdl.UploadProfilePicture)
	userRouter.GET("/:userId/ratings", ratingHdl.ListRatingsForUser)
}

func skillRoutes(skillRouter *gin.RouterGroup, skillHdl handlers.SkillHdl, jwtMgr managers.JWTMgr) {
	// Browsing the catalog is public, modifying it is not
	skillRouter.GET("", skillHdl.ListSkills)
	skillRouter.GET("/:skillId", skillHdl.GetSkill)
	skillRouter.Use(jwtMgr.JWTMiddleware())
	skillRouter.POST("", middleware.ValidateAndSanitizeStruct(&schemas.CreateSkillRequest{}), skillHdl.CreateSkill)
	skillRouter.PUT("/:skillId", middleware.ValidateAndSanitizeStruct(&schemas.UpdateSkillRequest{}), skillHdl.UpdateSkill)
	skillRouter.DELETE("/:skillId", skillHdl.DeleteSkill)
}

func swapRoutes(swapRouter *gin.RouterGroup, swapHdl handlers.SwapHdl) {
	swapRouter.POST("", middleware.ValidateAndSanitizeStruct(&schemas.CreateSwapRequest{}), swapHdl.CreateSwap)
	swapRouter.GET("", swapHdl.ListSwaps)
	swapRouter.PUT("/:swapId/accept", swapHdl.AcceptSwap)
	swapRouter.PUT("/:swapId/reject", swapHdl.RejectSwap)
	swapRouter.PUT("/:swapId/complete", swapHdl.CompleteSwap)
}

func ratingRoutes(ratingRouter *gin.RouterGroup, ratingHdl handlers.RatingHdl) {
	ratingRouter.POST("", middleware.ValidateAndSanitizeStruct(&schemas.CreateRatingRequest{}), ratingHdl.CreateRating)
	ratingRouter.GET("/:ratingId", ratingHdl.GetRating)
	ratingRouter.PUT("/:ratingId", middleware.ValidateAndSanitizeStruct(&schemas.UpdateRatingRequest{}), ratingHdl.UpdateRating)
	ratingRouter.DELETE("/:ratingId", ratingHdl.DeleteRating)
}

func adminRoutes(adminRouter *gin.RouterGroup, adminHdl handlers.AdminHdl) {
	adminRouter.GET("/users", adminHdl.ListUsers)
	adminRouter.PUT("/users/:userId/ban", middleware.ValidateAndSanitizeStruct(&schemas.BanUserRequest{}), adminHdl.BanUser)
	adminRouter.GET("/skills/pending", adminHdl.ListPendingSkills)
	adminRouter.PUT("/skills/:skillId/approve", adminHdl.ApproveSkill)
	adminRouter.PUT("/skills/:skillId/reject", middleware.ValidateAndSanitizeStruct(&schemas.RejectSkillRequest{}), adminHdl.RejectSkill)
	adminRouter.POST("/messages/broadcast", middleware.ValidateAndSanitizeStruct(&schemas.BroadcastRequest{}), adminHdl.BroadcastMessage)
}
