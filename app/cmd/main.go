package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studydigest/app/agent"
	"studydigest/app/server"
	"studydigest/app/service"
	"studydigest/config"
	"studydigest/loader"
	"studydigest/logger"
	"studydigest/model"
	"studydigest/session"
	"studydigest/store"
	"studydigest/tracer"
)

func main() {
	cfg := config.Load()

	zlog := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer zlog.Sync()

	shutdownTracer := tracer.InitTracer(cfg.Tracing)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			log.Printf("tracer shutdown: %v", err)
		}
	}()

	if err := store.EnsureDirs(cfg.App.UploadDir, cfg.App.TextDir, cfg.App.AudioDir); err != nil {
		log.Fatal("error to create data directories: ", err)
	}

	completer, err := model.NewCompleter(cfg.LLM)
	if err != nil {
		log.Fatal("error to configure LLM provider: ", err)
	}

	ctx := context.Background()
	registry := mustRegistry(ctx, cfg.Database)
	defer registry.Close()

	sessions := mustSessionStore(ctx, cfg.Session)

	summarizerOpts := []agent.SummarizerOption{
		agent.WithDefaults(
			agent.WithModel(cfg.LLM.Model),
			agent.WithMaxChars(cfg.LLM.MaxChars),
			agent.WithPoints(cfg.LLM.Points),
		),
		agent.WithTimeout(cfg.LLM.Timeout),
	}
	if cfg.LLM.CountTokens {
		summarizerOpts = append(summarizerOpts, agent.WithTokenCounter(agent.TiktokenCounter()))
	}

	pivots := store.NewPivotStore(cfg.App.TextDir)
	svc := service.New(service.Deps{
		Uploads:    store.NewUploadStore(cfg.App.UploadDir),
		Pivots:     pivots,
		Router:     loader.NewDefaultRouter(zlog),
		Registry:   registry,
		Summarizer: agent.NewSummarizer(completer, zlog, summarizerOpts...),
		Logger:     zlog,
	})

	s := server.NewServer(cfg, server.Deps{
		Service:  svc,
		Sessions: sessions,
		Pivots:   pivots,
		Logger:   zlog,
	})

	go func() {
		if err := s.Run(); err != nil {
			log.Fatal("error to start server: ", err)
		}
	}()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	<-sigch
	log.Println("Received shutdown signal, shutting down server...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Stop(stopCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

func mustRegistry(ctx context.Context, cfg config.DatabaseConfig) store.DocumentRegistry {
	if cfg.DSN == "" {
		return store.NopRegistry{}
	}
	pg, err := store.NewPostgresStore(ctx, cfg.DSN)
	if err != nil {
		log.Fatal("error to connect to Postgres database: ", err)
	}
	if err := pg.Init(ctx); err != nil {
		log.Fatal("error to create tables: ", err)
	}
	return pg
}

func mustSessionStore(ctx context.Context, cfg config.SessionConfig) session.Store {
	if cfg.Backend != "redis" {
		return session.NewMemoryStore(cfg.TTL)
	}
	rdb, err := session.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("error to connect to Redis: ", err)
	}
	return session.NewRedisStore(rdb, cfg.TTL)
}
