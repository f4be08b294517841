// handlers/quiz.go
package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/datahex-administration/ConnectionQuest/middleware"
	"github.com/datahex-administration/ConnectionQuest/services"
)

func SetupQuizRoutes(
	app *fiber.App,
	participantService *services.ParticipantService,
	sessionService *services.SessionService,
	answerService *services.AnswerService,
	matchService *services.MatchService,
	rewardService *services.RewardService,
	brandingService *services.BrandingService,
) {
	// 🔓 Public routes — still behind Gateway auth, participant identity comes
	// from the body or the X-Participant-ID header
	quiz := app.Group("/", middleware.ParticipantContextMiddleware())

	quiz.Post("/participants", participantService.RegisterParticipant)

	quiz.Post("/sessions", sessionService.CreateSession)
	quiz.Post("/sessions/:code/join", sessionService.JoinSession)
	quiz.Get("/sessions/:code/status", sessionService.GetSessionStatus)
	quiz.Get("/sessions/:code/questions", sessionService.GetSessionQuestions)
	quiz.Post("/sessions/:code/answers", answerService.SubmitAnswers)
	quiz.Get("/sessions/:code/results", matchService.GetSessionResults)

	quiz.Post("/vouchers/:id/download", rewardService.DownloadVoucher)

	quiz.Get("/branding", brandingService.GetBranding)
}
