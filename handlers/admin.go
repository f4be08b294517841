// handlers/admin.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/datahex-administration/ConnectionQuest/middleware"
	"github.com/datahex-administration/ConnectionQuest/services"
)

func SetupAdminRoutes(
	app *fiber.App,
	questionService *services.QuestionService,
	couponService *services.CouponService,
	participantService *services.ParticipantService,
	overviewService *services.OverviewService,
	brandingService *services.BrandingService,
) {
	// 🔐 Admin routes — static admin key on top of Gateway auth
	admin := app.Group("/admin", middleware.AdminAuthMiddleware())

	// Question catalog
	admin.Post("/questions", questionService.CreateQuestion)
	admin.Get("/questions", questionService.GetAllQuestions)
	admin.Put("/questions/:id", questionService.UpdateQuestion)
	admin.Delete("/questions/:id", questionService.DeleteQuestion)
	admin.Post("/questions/:id/options", questionService.AddQuestionOption)
	admin.Put("/options/:id", questionService.UpdateQuestionOption)
	admin.Delete("/options/:id", questionService.DeleteQuestionOption)

	// Reward campaigns
	admin.Post("/coupon-templates", couponService.CreateCouponTemplate)
	admin.Get("/coupon-templates", couponService.GetAllCouponTemplates)
	admin.Put("/coupon-templates/:id", couponService.UpdateCouponTemplate)
	admin.Delete("/coupon-templates/:id", couponService.DeleteCouponTemplate)
	admin.Get("/vouchers", couponService.ListVouchers)

	// Dashboard
	admin.Get("/participants", participantService.SearchParticipants)
	admin.Get("/sessions", overviewService.GetSessionsOverview)
	admin.Get("/stats", overviewService.GetDashboardStats)

	// Branding
	admin.Put("/branding/:slot", brandingService.UploadBrandingAsset)
	admin.Delete("/branding/:slot", brandingService.DeleteBrandingAsset)
}
