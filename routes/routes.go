package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"

	controller "skilllink/controllers"
	"skilllink/middleware"
)

// SetupRoutes wires every route group onto the app.
func SetupRoutes(app *fiber.App) {
	routeLogger := log.New(os.Stdout, "ROUTES: ", log.Ldate|log.Ltime|log.Lshortfile)

	controller.InitGoogleOAuth()
	controller.InitStripe()

	// Auth routes with request logging; credential endpoints are rate limited
	auth := app.Group("/api/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	auth.Post("/register", controller.Register)
	auth.Post("/login", middleware.LoginRateLimiter(), controller.Login)
	auth.Post("/send-otp", controller.SendOTP)
	auth.Post("/verify-otp", controller.VerifyOTP)
	auth.Get("/google", controller.GoogleOAuth)
	auth.Get("/google/callback", controller.GoogleOAuthCallback)

	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Get("/me", controller.Me)
	protectedAuth.Patch("/profile", controller.UpdateProfile)
	protectedAuth.Patch("/employer/basic", controller.EmployerBasic)
	protectedAuth.Patch("/employer/details", controller.EmployerDetails)
	protectedAuth.Patch("/employer/trust", controller.EmployerTrust)

	// Job routes
	jobs := app.Group("/api/jobs", middleware.Protected())
	jobs.Post("/", controller.CreateJob)
	jobs.Get("/", controller.ListMyJobs)
	jobs.Get("/:id", controller.GetJob)
	jobs.Patch("/:id", controller.UpdateJob)
	jobs.Delete("/:id", controller.DeleteJob)
	jobs.Post("/:id/apply", controller.ApplyToJob)
	jobs.Post("/applications/:id/approve", controller.ApproveApplication)

	// Invite routes
	invites := app.Group("/api/invites", middleware.Protected())
	invites.Post("/", controller.CreateInvite)
	invites.Get("/", controller.ListInvites)
	invites.Get("/:id", controller.GetInvite)
	invites.Post("/:id/accept", controller.AcceptInvite)
	invites.Post("/:id/decline", controller.DeclineInvite)

	// Project routes
	projects := app.Group("/api/projects", middleware.Protected())
	projects.Get("/", controller.ListProjects)
	projects.Post("/", controller.CreateProject)
	projects.Get("/:id", controller.GetProject)
	projects.Patch("/:id", controller.UpdateProject)

	projects.Get("/:id/messages", controller.ListProjectMessages)
	projects.Post("/:id/messages", controller.PostProjectMessage)

	projects.Get("/:id/submissions", controller.ListProjectSubmissions)
	projects.Post("/:id/submissions", controller.PostProjectSubmission)
	projects.Delete("/:id/submissions/:submissionId", controller.DeleteProjectSubmission)

	projects.Post("/:id/milestones", controller.CreateMilestone)
	projects.Patch("/:id/milestones/:milestoneId", controller.UpdateMilestone)

	projects.Post("/:id/request-payment", controller.RequestPayment)
	projects.Post("/:id/extend-deadline", controller.ExtendDeadline)
	projects.Post("/:id/request-deadline-extension", controller.RequestDeadlineExtension)
	projects.Post("/:id/approve-deadline-extension/:eventId", controller.ApproveDeadlineExtension)
	projects.Post("/:id/contact-support", controller.ContactSupport)

	projects.Get("/:id/ws", controller.WSUpgrade, controller.ProjectFeedWS)

	// Worker routes; search, meta and profile are public
	workers := app.Group("/api/workers")
	workers.Get("/", controller.ListWorkers)
	workers.Get("/meta", controller.WorkersMeta)

	workersPrivate := workers.Group("", middleware.Protected())
	workersPrivate.Get("/dashboard", controller.WorkerDashboard)
	workersPrivate.Get("/jobs/invitations", controller.WorkerJobInvitations)
	workersPrivate.Get("/jobs/active", controller.WorkerActiveJobs)
	workersPrivate.Get("/jobs/completed", controller.WorkerCompletedJobs)
	workersPrivate.Post("/invitations/:id/accept", controller.AcceptInvite)
	workersPrivate.Post("/invitations/:id/decline", controller.DeclineInvite)
	workersPrivate.Get("/payments/overview", controller.WorkerPaymentsOverview)
	workersPrivate.Get("/payments/history", controller.WorkerPaymentsHistory)
	workersPrivate.Post("/withdrawals", controller.RequestWithdrawal)

	workers.Get("/:id", controller.GetWorker)

	// Employer routes
	employers := app.Group("/api/employers", middleware.Protected())
	employers.Get("/dashboard", controller.EmployerDashboard)
	employers.Get("/payments/overview", controller.EmployerPaymentsOverview)
	employers.Get("/payments/history", controller.EmployerPaymentsHistory)
	employers.Post("/wallet/deposit", controller.WalletDeposit)
	employers.Post("/wallet/deposit/intent", controller.CreateDepositIntent)
	employers.Post("/projects/:id/payments", controller.PayWorker)

	// Stripe calls the webhook without a session
	app.Post("/api/employers/wallet/webhook", controller.HandleDepositWebhook)

	// Review routes; public listings per user
	reviews := app.Group("/api/reviews")
	reviews.Get("/worker/:id", controller.ListReviewsForUser)
	reviews.Get("/employer/:id", controller.ListReviewsForUser)

	reviewsPrivate := reviews.Group("", middleware.Protected())
	reviewsPrivate.Post("/", controller.CreateReview)
	reviewsPrivate.Get("/history/me", controller.MyReviewHistory)

	// Notification routes
	notifications := app.Group("/api/notifications", middleware.Protected())
	notifications.Get("/", controller.ListNotifications)
	notifications.Post("/", middleware.RequireAdmin(), controller.CreateNotification)
	notifications.Post("/:id/read", controller.MarkNotificationRead)
	notifications.Post("/read-all", controller.MarkAllNotificationsRead)

	// Upload routes
	uploads := app.Group("/api/uploads", middleware.Protected())
	uploads.Post("/image", controller.UploadImage)
	uploads.Post("/file", controller.UploadFile)

	// Admin routes
	app.Post("/api/admin/login", middleware.LoginRateLimiter(), controller.AdminLogin)

	admin := app.Group("/api/admin", middleware.Protected(), middleware.RequireAdmin())
	admin.Get("/users", controller.AdminListUsers)
	admin.Get("/users/:id", controller.AdminGetUser)
	admin.Get("/jobs", controller.AdminListJobs)
	admin.Get("/jobs/:id", controller.AdminGetJob)
	admin.Get("/payments", controller.AdminListPayments)
	admin.Get("/payments/:id", controller.AdminGetPayment)

	routeLogger.Println("Routes initialized successfully")
}
