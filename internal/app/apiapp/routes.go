package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ave4ge/findateammatebot/internal/domain/enums"
	"github.com/ave4ge/findateammatebot/internal/transport/http/handlers"
)

type Dependencies struct {
	Tokens            TokenParser
	Admin             handlers.AdminReader
	Verifications     handlers.VerificationReader
	Photos            handlers.PhotoLinker
	VerificationsPage int
	Logger            *zap.Logger
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	adminHandler := handlers.NewAdminHandler(deps.Admin, deps.Verifications, deps.VerificationsPage)
	if deps.Photos != nil {
		adminHandler.AttachPhotoLinker(deps.Photos)
	}

	authMW := AuthMiddleware(deps.Tokens, deps.Logger)
	staffMW := RequireRole(string(enums.RoleAdmin), string(enums.RoleVerifier), string(enums.RoleAdminVerifier))
	adminMW := RequireRole(string(enums.RoleAdmin), string(enums.RoleAdminVerifier))

	r.Get("/healthz", healthHandler.Get)
	r.Route("/admin", func(r chi.Router) {
		r.Use(authMW)
		r.With(staffMW).Get("/stats", adminHandler.Stats)
		r.With(adminMW).Get("/leaders", adminHandler.Leaders)
		r.With(staffMW).Get("/verifications", adminHandler.Verifications)
		r.With(staffMW).Get("/participants/{id}", adminHandler.Participant)
	})
}
