package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"charitychain/docs"
	"charitychain/internal/config"
	"charitychain/internal/handler"
	"charitychain/internal/middleware"
	"charitychain/internal/model"
)

// Register wires routes and middleware. authenticate guards every route that
// needs a signed-in user.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log *zap.Logger,
	authenticate []echo.MiddlewareFunc,
	authHandler *handler.AuthHandler,
	campaignHandler *handler.CampaignHandler,
	donationHandler *handler.DonationHandler,
	userHandler *handler.UserHandler,
	syncHandler *handler.SyncHandler,
) {
	e.HTTPErrorHandler = ErrorHandler(log)
	e.Validator = NewValidator()

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.BodyLimit("1M"))

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	api.GET("/health", handler.Health)

	// Auth
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout, authenticate...)
	api.GET("/auth/me", authHandler.Me, authenticate...)

	// Campaigns
	api.GET("/campaigns", campaignHandler.ListCampaigns)
	api.GET("/campaigns/:id", campaignHandler.GetCampaign)
	api.POST("/campaigns", campaignHandler.CreateCampaign, authenticate...)
	api.PUT("/campaigns/:id", campaignHandler.UpdateCampaign, authenticate...)
	api.DELETE("/campaigns/:id", campaignHandler.DeleteCampaign, authenticate...)

	// Donations
	api.GET("/donations", donationHandler.ListDonations)
	api.GET("/donations/:id", donationHandler.GetDonation)
	api.POST("/donations", donationHandler.CreateDonation, authenticate...)

	// Users
	api.GET("/users/profile", userHandler.GetProfile, authenticate...)
	api.PUT("/users/profile", userHandler.UpdateProfile, authenticate...)

	// Admin
	adminOnly := append(append([]echo.MiddlewareFunc{}, authenticate...), middleware.RequireRole(model.RoleAdmin))
	api.POST("/admin/sync", syncHandler.Sync, adminOnly...)
}
