package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/devTechs001/folio-collab/internal/collab"
	"github.com/devTechs001/folio-collab/internal/config"
	"github.com/devTechs001/folio-collab/internal/handlers"
	"github.com/devTechs001/folio-collab/internal/history"
	"github.com/devTechs001/folio-collab/pkg/auth"
)

type Server struct {
	Router   *gin.Engine
	Hub      *collab.Hub
	Redis    *redis.Client
	Recorder *history.Recorder // nil — история выключена
	cfg      *config.Config
}

// NewServer собирает сервис: все зависимости передаются явно через
// конструкторы, никакого динамического связывания хендлеров.
func NewServer(cfg *config.Config) *Server {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	rdb := redis.NewClient(redisOpts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Redis connect failed: %v", err)
	}

	jwtMgr := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	verifier := auth.NewBlacklistVerifier(jwtMgr, rdb)

	var recorder *history.Recorder
	var hubRecorder collab.Recorder
	if cfg.DatabaseURL != "" {
		store, err := history.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Postgres connect failed: %v", err)
		}
		recorder = history.NewRecorder(store, cfg.HistoryBuffer)
		hubRecorder = recorder
	}

	hub := collab.NewHub(hubRecorder)

	collabH := handlers.NewCollabHandler(hub)
	wsH := handlers.NewWebSocketHandler(hub, collabH)
	presenceH := handlers.NewPresenceHandler(hub)

	router := gin.Default()
	APIEndpoints(router, verifier, cfg, wsH, presenceH)

	return &Server{
		Router:   router,
		Hub:      hub,
		Redis:    rdb,
		Recorder: recorder,
		cfg:      cfg,
	}
}

func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go s.Hub.Run()
	if s.Recorder != nil {
		go s.Recorder.Run(ctx)
	}

	srv := &http.Server{
		Addr:    ":" + s.cfg.Port,
		Handler: s.Router,
	}

	go func() {
		log.Printf("Server starting on port %s", s.cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server run error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	s.Hub.Stop()
	return nil
}
