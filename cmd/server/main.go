package main

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"

	"parkwise/internal/api"
	"parkwise/internal/auth"
	"parkwise/internal/config"
	"parkwise/internal/repository"
	"parkwise/internal/service"
)

func main() {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}

	slots := repository.NewSlotRegistry(db)
	requests := repository.NewRequestStore(db)
	sessions := repository.NewSessionStore(db)
	vehicles := repository.NewVehicleStore(db)
	rates := repository.NewRateCatalog(db)
	blocks := repository.NewBlockStore(db)
	users := repository.NewUserStore(db)
	jobRepo := repository.NewJobRepository(db)

	notifier := service.NewNotifier(cfg)
	renderer := service.NewQRService(cfg.UploadsDir, cfg.UploadBaseURL)

	requestSvc := service.NewRequestService(requests, slots, sessions, vehicles, notifier, renderer)
	sessionSvc := service.NewSessionService(sessions, slots, vehicles, rates, notifier, renderer)
	blockSvc := service.NewBlockService(blocks, slots)
	authSvc := service.NewAuthService(users, cfg.JWTSecret, cfg.JWTExpiration)
	jobSvc := service.NewJobService(jobRepo, cfg.RequestTTL)

	authHandler := api.NewAuthHandler(authSvc)
	requestHandler := api.NewRequestHandler(requestSvc)
	sessionHandler := api.NewSessionHandler(sessionSvc)
	slotHandler := api.NewSlotHandler(slots)
	blockHandler := api.NewBlockHandler(blockSvc)
	vehicleHandler := api.NewVehicleHandler(vehicles)
	rateHandler := api.NewRateHandler(rates)

	r := mux.NewRouter()

	// Public endpoints
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/sessions/scan", sessionHandler.Scan).Methods("POST")
	r.PathPrefix(cfg.UploadBaseURL + "/").Handler(
		http.StripPrefix(cfg.UploadBaseURL+"/", http.FileServer(http.Dir(cfg.UploadsDir))))

	// Authenticated endpoints
	app := r.PathPrefix("/api").Subrouter()
	app.Use(auth.Middleware(cfg.JWTSecret))
	app.HandleFunc("/vehicles", vehicleHandler.Create).Methods("POST")
	app.HandleFunc("/vehicles", vehicleHandler.Mine).Methods("GET")
	app.HandleFunc("/vehicles/{id}", vehicleHandler.Get).Methods("GET")
	app.HandleFunc("/blocks", blockHandler.List).Methods("GET")
	app.HandleFunc("/blocks/{id}", blockHandler.Get).Methods("GET")
	app.HandleFunc("/slots", slotHandler.List).Methods("GET")
	app.HandleFunc("/slots/{id}", slotHandler.Get).Methods("GET")
	app.HandleFunc("/requests", requestHandler.Create).Methods("POST")
	app.HandleFunc("/requests", requestHandler.List).Methods("GET")
	app.HandleFunc("/requests/{id}", requestHandler.Get).Methods("GET")
	app.HandleFunc("/sessions", sessionHandler.List).Methods("GET")
	app.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET")
	app.HandleFunc("/rates", rateHandler.List).Methods("GET")
	app.HandleFunc("/rates/{id}", rateHandler.Get).Methods("GET")

	// Admin endpoints (protected)
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(auth.Middleware(cfg.JWTSecret))
	admin.Use(auth.AdminOnly)
	admin.HandleFunc("/blocks", blockHandler.Create).Methods("POST")
	admin.HandleFunc("/slots/{id}/maintenance", slotHandler.SetMaintenance).Methods("PUT")
	admin.HandleFunc("/requests/{id}/approve", requestHandler.Approve).Methods("POST")
	admin.HandleFunc("/requests/{id}/reject", requestHandler.Reject).Methods("POST")
	admin.HandleFunc("/sessions", sessionHandler.Create).Methods("POST")
	admin.HandleFunc("/sessions/{id}/complete", sessionHandler.Complete).Methods("POST")
	admin.HandleFunc("/sessions/{id}/cancel", sessionHandler.Cancel).Methods("POST")
	admin.HandleFunc("/rates", rateHandler.Create).Methods("POST")
	admin.HandleFunc("/rates/{id}", rateHandler.Update).Methods("PUT")
	admin.HandleFunc("/rates/{id}", rateHandler.Deactivate).Methods("DELETE")

	c := cron.New()
	if _, err := c.AddFunc(cfg.ExpirySweepSpec, func() {
		if err := jobSvc.ExpireStaleRequests(); err != nil {
			log.Printf("Expiry sweep failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule expiry sweep: %v", err)
	}
	c.Start()
	defer c.Stop()

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	log.Printf("Server running on port %s", cfg.ServerPort)
	log.Fatal(http.ListenAndServe(":"+cfg.ServerPort, cors(r)))
}
