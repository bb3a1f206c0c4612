// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatroom/internal/server"
	"chatroom/internal/server/database"
	"chatroom/internal/server/handlers"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"
)

func loadInsults(ctx context.Context, cfg server.Config) (*handlers.RandomInsults, error) {
	if !cfg.DB.Enabled() {
		return handlers.NewRandomInsults(cfg.InsultSeed, nil), nil
	}

	db, err := database.NewDB(cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	phrases, err := db.LoadInsults(ctx)
	if err != nil {
		return nil, err
	}
	if len(phrases) == 0 {
		log.Printf("Insults table is empty, seeding %d default phrases", len(handlers.DefaultInsults))
		if err := db.SeedInsults(ctx, handlers.DefaultInsults); err != nil {
			return nil, err
		}
		phrases = handlers.DefaultInsults
	}
	log.Printf("Loaded %d insults from database", len(phrases))
	return handlers.NewRandomInsults(cfg.InsultSeed, phrases), nil
}

func main() {
	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatal("Configuration error:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	insults, err := loadInsults(ctx, cfg)
	if err != nil {
		log.Fatal("Database connection error:", err)
	}

	srv := server.NewServer(cfg, insults)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(cfg.Port); err != nil && !errors.Is(err, server.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("Server error:", err)
	}
}
