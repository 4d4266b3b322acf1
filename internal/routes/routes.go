package routes

import (
	"github.com/gin-gonic/gin"

	"clinic-records-server/internal/config"
	"clinic-records-server/internal/core"
	"clinic-records-server/internal/handlers"
	"clinic-records-server/internal/middleware"
	"clinic-records-server/internal/models"
	"clinic-records-server/internal/store"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, s *store.Store, cfg *config.Config) {
	// Wire the core services
	identity := core.NewIdentity(s)
	linkage := core.NewLinkageResolver(s)
	guard := core.NewGuard(linkage)
	scheduler := core.NewScheduler(s, guard, linkage)
	records := core.NewHealthRecords(s, guard, linkage)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(identity, linkage, s, cfg)
	entityHandler := handlers.NewEntityHandler(linkage, guard, s)
	appointmentHandler := handlers.NewAppointmentHandler(scheduler)
	healthRecordHandler := handlers.NewHealthRecordHandler(records)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg)) // Apply JWT authentication middleware
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.GET("/scope", entityHandler.GetScope)
		}

		// Admin-seeded account creation (may carry a linkedEntityId)
		accountRoutes := private.Group("/accounts")
		accountRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			accountRoutes.POST("", authHandler.Register)
			accountRoutes.PATCH("/:id/status", authHandler.SetAccountStatus)
		}

		// Patient profile routes
		patientRoutes := private.Group("/patients")
		{
			// One-time profile registration for the authenticated patient account
			patientRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePatient), entityHandler.LinkPatientProfile)

			// Own profile for patients, any profile for doctors/admins (guard in core)
			patientRoutes.GET("/:id", entityHandler.GetPatientByID)

			// Plain-text history report download
			patientRoutes.GET("/:id/history/export", healthRecordHandler.ExportPatientHistory)

			// Admin-only routes
			adminPatientRoutes := patientRoutes.Group("")
			adminPatientRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
			{
				adminPatientRoutes.GET("", entityHandler.GetPatients)
				adminPatientRoutes.PUT("/:id", entityHandler.UpdatePatient)
				adminPatientRoutes.DELETE("/:id", entityHandler.DeletePatient)
			}
		}

		// Doctor profile routes
		doctorRoutes := private.Group("/doctors")
		{
			doctorRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleDoctor), entityHandler.LinkDoctorProfile)

			// Directory is readable by all authenticated users
			doctorRoutes.GET("", entityHandler.GetDoctors)
			doctorRoutes.GET("/:id", entityHandler.GetDoctorByID)

			adminDoctorRoutes := doctorRoutes.Group("")
			adminDoctorRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
			{
				adminDoctorRoutes.PUT("/:id", entityHandler.UpdateDoctor)
				adminDoctorRoutes.DELETE("/:id", entityHandler.DeleteDoctor)
			}
		}

		// Appointment routes
		appointmentRoutes := private.Group("/appointments")
		{
			// Patients book for themselves; ownership enforced in the core
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.BookAppointment)

			// Scope-narrowed listing (patient/doctor own, admin all)
			appointmentRoutes.GET("", appointmentHandler.GetAppointments)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)

			// Status transitions (ownership and legality in the core)
			appointmentRoutes.PATCH("/:id/confirm", appointmentHandler.ConfirmAppointment)
			appointmentRoutes.PATCH("/:id/complete", appointmentHandler.CompleteAppointment)
			appointmentRoutes.PATCH("/:id/cancel", appointmentHandler.CancelAppointment)

			// Hard delete is an administrative override
			appointmentRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), appointmentHandler.DeleteAppointment)
		}

		// Health record routes
		healthRecordRoutes := private.Group("/health-records")
		{
			// Doctors create records
			healthRecordRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleDoctor), healthRecordHandler.CreateHealthRecord)

			// Patient can get their own, doctors for their patients, admins any
			healthRecordRoutes.GET("/patient/:patientId", healthRecordHandler.GetHealthRecordsForPatient)
			healthRecordRoutes.GET("/:id", healthRecordHandler.GetHealthRecordByID)

			// Administrative overrides
			adminRecordRoutes := healthRecordRoutes.Group("")
			adminRecordRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
			{
				adminRecordRoutes.PUT("/:id", healthRecordHandler.UpdateHealthRecord)
				adminRecordRoutes.DELETE("/:id", healthRecordHandler.DeleteHealthRecord)
			}
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
