package main

import (
	"log"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"github.com/fluxhq/flux-api/internal/auth"
	"github.com/fluxhq/flux-api/internal/config"
	"github.com/fluxhq/flux-api/internal/constants"
	"github.com/fluxhq/flux-api/internal/database"
	"github.com/fluxhq/flux-api/internal/handlers"
	"github.com/fluxhq/flux-api/internal/logger"
	"github.com/fluxhq/flux-api/internal/middleware"
	"github.com/fluxhq/flux-api/internal/permissions"
	"github.com/fluxhq/flux-api/internal/repository"
	"github.com/fluxhq/flux-api/internal/services"
	"github.com/fluxhq/flux-api/internal/sso"
)

func main() {
	cfg := config.Load()

	gin.SetMode(cfg.GinMode)

	logg := logger.New(cfg.GinMode)
	defer logg.Sync()

	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	db := database.GetDB()

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	teamRepo := repository.NewTeamRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	perms := permissions.NewEvaluator(db)

	authService := services.NewAuthService(userRepo, cfg.GhostUserID)
	orgService := services.NewOrganizationService(orgRepo, teamRepo, perms)
	teamService := services.NewTeamService(teamRepo, orgRepo, userRepo, perms)
	taskService := services.NewTaskService(taskRepo, teamRepo, userRepo, perms)

	issuer := auth.NewTokenIssuer(cfg.JWTSecret)
	google := sso.NewGoogleClient(cfg)

	authHandler := handlers.NewAuthHandler(authService, google, issuer, cfg.ClientURL, logg)
	orgHandler := handlers.NewOrganizationHandler(orgService, logg)
	teamHandler := handlers.NewTeamHandler(teamService, logg)
	taskHandler := handlers.NewTaskHandler(taskService, logg)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logg))

	// Session cookies only carry the short-lived OAuth state.
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   cfg.GinMode == "release",
		SameSite: 2,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authRoutes := r.Group("/auth")
	{
		authRoutes.GET("/google/start", authHandler.GoogleLogin)
		authRoutes.GET("/google/callback", authHandler.GoogleCallback)
		authRoutes.POST("/logout", authHandler.Logout)
	}

	requireAuth := middleware.RequireAuth(issuer)

	r.GET("/me", requireAuth, authHandler.Me)
	r.DELETE("/me", requireAuth, authHandler.DeleteMe)

	orgs := r.Group("/orgs")
	orgs.Use(requireAuth)
	{
		orgs.POST("", orgHandler.CreateOrganization)
		orgs.GET("", orgHandler.ListOrganizations)
		orgs.POST("/join", orgHandler.RedeemJoinCode)
		orgs.GET("/:id", orgHandler.GetOrganization)
		orgs.PATCH("/:id", orgHandler.UpdateOrganization)
		orgs.DELETE("/:id", orgHandler.DeleteOrganization)
		orgs.GET("/:id/details", orgHandler.GetOrganizationDetails)
		orgs.GET("/:id/members", orgHandler.ListMembers)
		orgs.GET("/:id/users", orgHandler.ListMembers)
		orgs.PATCH("/:id/members/:userId", orgHandler.UpdateMemberRole)
		orgs.DELETE("/:id/members/:userId", orgHandler.RemoveMember)
		orgs.POST("/:id/leave", orgHandler.Leave)
		orgs.DELETE("/:id/leave", orgHandler.Leave)
		orgs.POST("/:id/join-codes", orgHandler.RotateJoinCode)
		orgs.GET("/:id/join-codes", orgHandler.ListJoinCodes)
		orgs.POST("/:id/teams", teamHandler.CreateTeam)
		orgs.GET("/:id/teams", teamHandler.ListTeams)
	}

	teams := r.Group("/teams")
	teams.Use(requireAuth)
	{
		teams.GET("/:id", teamHandler.GetTeam)
		teams.PATCH("/:id", teamHandler.UpdateTeam)
		teams.DELETE("/:id", teamHandler.DeleteTeam)
		teams.GET("/:id/info", teamHandler.GetTeamInfo)
		teams.PATCH("/:id/info", teamHandler.UpdateTeamInfo)
		teams.GET("/:id/permissions", teamHandler.Permissions)
		teams.GET("/:id/members", teamHandler.ListMembers)
		teams.POST("/:id/members", teamHandler.AddMember)
		teams.POST("/:id/leader", teamHandler.AddLeader)
		teams.DELETE("/:id/members/:userId", teamHandler.RemoveMember)
		teams.POST("/:id/leave", teamHandler.Leave)
		teams.GET("/:id/links", teamHandler.ListLinks)
		teams.POST("/:id/links", teamHandler.CreateLink)
		teams.PATCH("/:id/links/:linkId", teamHandler.UpdateLink)
		teams.DELETE("/:id/links/:linkId", teamHandler.DeleteLink)
		teams.GET("/:id/calendar", teamHandler.ListEvents)
		teams.POST("/:id/calendar", teamHandler.CreateEvent)
		teams.PATCH("/:id/calendar/:eventId", teamHandler.UpdateEvent)
		teams.DELETE("/:id/calendar/:eventId", teamHandler.DeleteEvent)
		teams.GET("/:id/tasks", taskHandler.ListTasks)
		teams.POST("/:id/tasks", taskHandler.CreateTask)
		teams.GET("/:id/activity", taskHandler.Activity)
	}

	tasks := r.Group("/tasks")
	tasks.Use(requireAuth)
	{
		tasks.GET("/:id", taskHandler.GetTask)
		tasks.PATCH("/:id", taskHandler.UpdateTask)
		tasks.DELETE("/:id", taskHandler.DeleteTask)
		tasks.POST("/:id/assignees", taskHandler.AddAssignee)
		tasks.DELETE("/:id/assignees/:userId", taskHandler.RemoveAssignee)
		tasks.POST("/:id/notes", taskHandler.AddNote)
	}

	logg.Infow("server starting", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
