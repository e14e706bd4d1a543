package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aufmass/go-aufmass/config"
	"github.com/aufmass/go-aufmass/database"
	"github.com/aufmass/go-aufmass/guestcache"
	"github.com/aufmass/go-aufmass/logger"
	"github.com/aufmass/go-aufmass/server"
	"golang.org/x/net/http2"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the configuration file")
	flag.Parse()

	raw, err := os.ReadFile(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		if err := config.CreateSample(*configPath); err != nil {
			log.Fatalf("failed to create sample configuration: %v", err)
		}
		fmt.Printf("sample configuration written to %s, edit it and start again\n", *configPath)
		return
	}
	if err != nil {
		log.Fatalf("failed to read configuration: %v", err)
	}
	cfg, err := config.ParseConfig(raw)
	if err != nil {
		log.Fatalf("failed to parse configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel.Zap()); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(cfg.Database)
	if err != nil {
		logger.Sugar().Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	imported, err := store.ImportLegacy(ctx, cfg.Database.LegacyPath)
	if err != nil {
		logger.Sugar().Fatalf("legacy import failed: %v", err)
	}
	if imported {
		logger.Sugar().Info("legacy project file imported")
	}

	cache := guestcache.NewCache(ctx)
	defer cache.Close()

	mux := server.New(cfg, store, cache).Mux()

	group, ctx := errgroup.WithContext(ctx)
	var servers []*http.Server

	if cfg.Server.HttpAddress != "" {
		httpServer := &http.Server{
			Addr:    cfg.Server.HttpAddress,
			Handler: mux,
		}
		servers = append(servers, httpServer)
		group.Go(func() error {
			logger.Sugar().Infof("http server listening on %s", cfg.Server.HttpAddress)
			err := httpServer.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}

	if cfg.Server.HttpsAddress != "" {
		if err := cfg.TLS.Configurate(); err != nil {
			logger.Sugar().Fatalf("failed to configure tls: %v", err)
		}
		httpsServer := &http.Server{
			Addr:    cfg.Server.HttpsAddress,
			Handler: mux,
			TLSConfig: &tls.Config{
				GetCertificate: cfg.TLS.GetCertificate,
				MinVersion:     tls.VersionTLS12,
			},
		}
		if err := http2.ConfigureServer(httpsServer, nil); err != nil {
			logger.Sugar().Fatalf("failed to configure http2: %v", err)
		}
		servers = append(servers, httpsServer)
		group.Go(func() error {
			logger.Sugar().Infof("https server listening on %s", cfg.Server.HttpsAddress)
			err := httpsServer.ListenAndServeTLS("", "")
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}

	if len(servers) == 0 {
		logger.Sugar().Fatal("no listen address configured")
	}

	// shut both listeners down when the context ends
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Sugar().Warnf("server shutdown: %v", err)
			}
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Sugar().Fatalf("server failed: %v", err)
	}
	logger.Sugar().Info("shutdown complete")
}
