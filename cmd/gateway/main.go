package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	confluent "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	redisDriver "github.com/redis/go-redis/v9"

	"social-go/internal/config"
	"social-go/internal/events"
	"social-go/internal/handlers/gateway"
	appKafka "social-go/internal/kafka"
	"social-go/internal/presence"
	appRedis "social-go/internal/redis"
	"social-go/internal/storage"
	ws "social-go/internal/websocket"
)

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Println("Gateway configuration loaded.")

	db, err := storage.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Println("Gateway database ready.")

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

	// The gateway publishes too: connect/disconnect and quiet-hours sweeps
	// emit status envelopes just like API-side mutations do.
	kfkProducer, err := appKafka.NewConfluentKafkaProducer(cfg.Kafka)
	if err != nil {
		log.Fatalf("Failed to create Kafka producer: %v", err)
	}
	defer kfkProducer.Close()
	publisher := events.NewKafkaPublisher(kfkProducer, cfg.Kafka)

	userRepo := storage.NewGormUserRepository(db)
	presenceService := presence.NewService(userRepo, publisher)

	hub := ws.NewHub()
	go hub.Run()

	wsHandler := gateway.NewWebSocketHandler(hub, presenceService, tokenBlacklist, cfg)

	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	defer cancelConsumer()

	fanoutConsumer, err := appKafka.NewConfluentKafkaConsumer(cfg.Kafka)
	if err != nil {
		log.Fatalf("Failed to create Kafka consumer: %v", err)
	}
	defer fanoutConsumer.Close()

	go func() {
		handler := func(ctx context.Context, msg *confluent.Message) error {
			var env events.Envelope
			if err := json.Unmarshal(msg.Value, &env); err != nil {
				// Malformed envelopes are dropped, not retried.
				log.Printf("Dropping malformed fanout envelope (Offset: %v): %v", msg.TopicPartition.Offset, err)
				return nil
			}
			hub.Deliver(&env)
			return nil
		}
		err := fanoutConsumer.Consume(consumerCtx, []string{cfg.Kafka.FanoutTopic}, cfg.Kafka.ConsumerGroup, handler)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Fanout consumer stopped with error: %v", err)
		}
	}()

	sweeper := presence.NewSweeper(userRepo, presenceService, cfg.Presence.QuietHoursSweepInterval)
	go sweeper.Run(consumerCtx)

	muxRouter := http.NewServeMux()
	muxRouter.HandleFunc(cfg.Server.WebSocketPath, wsHandler.ServeWS)

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:           serverAddr,
		Handler:        muxRouter,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Printf("Gateway listening on %s (websocket path %s)", serverAddr, cfg.Server.WebSocketPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Gateway server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Gateway shutting down...")

	cancelConsumer()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Gateway shutdown failed: %v", err)
	}
	log.Println("Gateway stopped.")
}
