package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	redisDriver "github.com/redis/go-redis/v9"

	"social-go/internal/config"
	"social-go/internal/events"
	apihandlers "social-go/internal/handlers/apiserver"
	appKafka "social-go/internal/kafka"
	"social-go/internal/middleware"
	"social-go/internal/presence"
	appRedis "social-go/internal/redis"
	"social-go/internal/services"
	"social-go/internal/storage"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Println("API server configuration loaded.")

	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := storage.AutoMigrateTables(db); err != nil {
		log.Fatalf("Failed to migrate database tables: %v", err)
	}
	log.Println("API server database ready.")

	redisClient := redisDriver.NewClient(&redisDriver.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	tokenBlacklist := appRedis.NewRedisTokenBlacklist(redisClient)
	log.Println("Connected to Redis.")

	kfkProducer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
	if err != nil {
		log.Fatalf("Failed to create Kafka producer: %v", err)
	}
	defer kfkProducer.Close()
	publisher := events.NewKafkaPublisher(kfkProducer, cfg.Kafka)
	log.Println("Kafka producer initialized (API server).")

	userRepo := storage.NewGormUserRepository(db)
	friendRepo := storage.NewGormFriendRequestRepository(db)
	blockRepo := storage.NewGormBlockRepository(db)

	presenceService := presence.NewService(userRepo, publisher)
	authService := services.NewAuthService(userRepo, publisher, cfg)
	userService := services.NewUserService(userRepo, blockRepo, publisher)
	friendService := services.NewFriendService(userRepo, friendRepo, blockRepo, publisher)

	authHandler := apihandlers.NewAuthHandler(authService, tokenBlacklist, presenceService, cfg.Auth.JWTSecretKey)
	userHandler := apihandlers.NewUserHandler(userService, presenceService)
	friendHandler := apihandlers.NewFriendHandler(friendService)

	r := mux.NewRouter()

	// Public auth routes
	authRouter := r.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", authHandler.Register).Methods(http.MethodPost)
	authRouter.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)

	authMW := middleware.AuthMiddleware(cfg.Auth.JWTSecretKey, tokenBlacklist)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(authMW)

	// Logout lives under the protected router; it needs the JTI.
	apiRouter.HandleFunc("/auth/logout", authHandler.LogoutHandler).Methods(http.MethodPost)

	// User directory routes
	apiRouter.HandleFunc("/users/me", userHandler.GetMyProfileHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/me", userHandler.UpdateMyProfileHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/users/me/status", userHandler.SetStatusHandler).Methods(http.MethodPut)
	apiRouter.HandleFunc("/users/me/blocked", userHandler.ListBlockedUsersHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/search", userHandler.SearchUsersHandler).Methods(http.MethodGet)
	apiRouter.HandleFunc("/users/{username}/block", userHandler.BlockUserHandler).Methods(http.MethodPost)
	apiRouter.HandleFunc("/users/{username}/block", userHandler.UnblockUserHandler).Methods(http.MethodDelete)

	// Social graph routes
	friendRouter := apiRouter.PathPrefix("/friend").Subrouter()
	friendRouter.HandleFunc("/request", friendHandler.CreateFriendRequestHandler).Methods(http.MethodPost)
	friendRouter.HandleFunc("/request/status", friendHandler.UpdateFriendRequestStatusHandler).Methods(http.MethodPut)
	friendRouter.HandleFunc("/request/{requestID:[0-9]+}", friendHandler.DeleteFriendRequestHandler).Methods(http.MethodDelete)
	friendRouter.HandleFunc("/requests/pending/{username}", friendHandler.ListPendingRequestsHandler).Methods(http.MethodGet)
	friendRouter.HandleFunc("/requests/{username}", friendHandler.ListFriendRequestsHandler).Methods(http.MethodGet)
	friendRouter.HandleFunc("/friends/{username}", friendHandler.ListFriendsHandler).Methods(http.MethodGet)
	friendRouter.HandleFunc("/mutual/{username1}/{username2}", friendHandler.GetMutualFriendsHandler).Methods(http.MethodGet)

	corsHandler := handlers.CORS(
		handlers.AllowedOrigins(cfg.APIServer.CORS.AllowedOrigins),
		handlers.AllowedMethods(cfg.APIServer.CORS.AllowedMethods),
		handlers.AllowedHeaders(cfg.APIServer.CORS.AllowedHeaders),
		handlers.ExposedHeaders(cfg.APIServer.CORS.ExposedHeaders),
		handlers.AllowCredentials(),
		handlers.MaxAge(cfg.APIServer.CORS.MaxAge),
	)

	serverAddr := fmt.Sprintf("%s:%s", cfg.APIServer.Host, cfg.APIServer.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: corsHandler(r),
	}

	go func() {
		log.Printf("API server listening on %s", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("API server shutting down...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("API server shutdown failed: %v", err)
	}
	log.Println("API server stopped.")
}
