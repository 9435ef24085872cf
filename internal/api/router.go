package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/yellownote-be/internal/api/handlers"
	"github.com/isdelr/yellownote-be/internal/auth"
	"github.com/isdelr/yellownote-be/internal/services"
	"github.com/isdelr/yellownote-be/internal/websocket"
)

// Dependencies holds everything the router wires into handlers.
type Dependencies struct {
	Users    services.UserServiceProvider
	Sessions services.SessionServiceProvider
	Boards   services.BoardServiceProvider
	Notes    services.NoteServiceProvider
	Hub      *websocket.Hub
	Tickets  *auth.TicketIssuer
	Bot      handlers.UpdateHandler
	Stats    handlers.StatsSource

	CORSOrigin    string
	WebhookSecret string
}

// NewRouter creates and configures a new Chi router.
func NewRouter(deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{deps.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := handlers.NewAuthHandler(deps.Users, deps.Sessions)
	userHandler := handlers.NewUserHandler(deps.Users)
	boardHandler := handlers.NewBoardHandler(deps.Boards, deps.Tickets)
	noteHandler := handlers.NewNoteHandler(deps.Notes)
	wsHandler := handlers.NewWebSocketHandler(deps.Hub, deps.Tickets, deps.CORSOrigin)
	webhookHandler := handlers.NewWebhookHandler(deps.Bot, deps.WebhookSecret)
	healthHandler := handlers.NewHealthHandler(deps.Stats)

	requireSession := auth.SessionMiddleware(deps.Sessions)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.Get)
		r.Get("/ws", wsHandler.Serve)
		r.HandleFunc("/bot", webhookHandler.Serve)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/", authHandler.Login)
			r.Post("/signup", authHandler.Register)
			r.With(requireSession).Post("/logout", authHandler.Logout)
		})

		// Everything below requires a session.
		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.Get("/user/me", userHandler.GetMe)
			r.Put("/user/me", userHandler.UpdateMe)

			// Board routes stay flat: unmatched board paths and methods must
			// reach NotFound without a session.
			r.Post("/board", boardHandler.Create)
			r.Post("/board/", boardHandler.Create)
			r.Get("/board/list", boardHandler.List)
			r.Get("/board/{id}", boardHandler.Get)
			r.Post("/board/{id}/ticket", boardHandler.Ticket)

			r.Post("/note", noteHandler.Create)
			r.Put("/note/{id}", noteHandler.Update)
			r.Delete("/note/{id}", noteHandler.Delete)
		})
	})

	notFound := func(w http.ResponseWriter, r *http.Request) {
		handlers.WriteError(w, http.StatusNotFound, "Endpoint not found")
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	return r
}
