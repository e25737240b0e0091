// Command artist-sync runs the artist sync service: the HTTP API and the
// periodic batch sync daemon in one process.
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

	"golang.org/x/sync/errgroup"

	"github.com/blackboxrecordclub/artist-sync/internal/catalog"
	"github.com/blackboxrecordclub/artist-sync/internal/config"
	"github.com/blackboxrecordclub/artist-sync/internal/daemon"
	"github.com/blackboxrecordclub/artist-sync/internal/db"
	syncsvc "github.com/blackboxrecordclub/artist-sync/internal/sync"
	"github.com/blackboxrecordclub/artist-sync/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	client := catalog.New(cfg.ClientID, cfg.ClientSecret)
	resolver := syncsvc.NewResolver(database.Artists())
	reconciler := syncsvc.NewReconciler(client, resolver, database.RelatedArtists())
	service := syncsvc.New(client, resolver, database.Users(), database.Artists(), database.UserArtists())
	driver := syncsvc.NewDriver(database.Users(), service, reconciler, client)

	server := web.NewServer(web.ServerConfig{
		Addr:         cfg.Addr,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		SuccessURL:   cfg.SuccessURL,
		TokenSecret:  cfg.TokenSecret,
		Database:     database,
		Sync:         service,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return daemon.New(driver, cfg.SyncInterval).Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		log.Println("shutdown complete")
		return nil
	}
	return err
}
