package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrPunder/codeform/internal/config"
	"github.com/MrPunder/codeform/internal/export"
	"github.com/MrPunder/codeform/internal/formserver"
	"github.com/MrPunder/codeform/internal/handlers"
	"github.com/MrPunder/codeform/internal/logger"
	"github.com/MrPunder/codeform/internal/middleware"
	"github.com/MrPunder/codeform/internal/render"
	"github.com/MrPunder/codeform/internal/session"
	"github.com/MrPunder/codeform/internal/storage"
	"github.com/MrPunder/codeform/internal/theme"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "c", "", "config path")
	flag.Parse()

	conf, err := config.LoadConfig(configPath)
	if err != nil {
		panic(err)
	}
	log, err := logger.NewZapLogger(conf.Log)
	if err != nil {
		panic(err)
	}
	log.Info("Initialized logger")
	log.Debugf("Config parametrs: %+v", conf.Server)

	log.Infof("Initializing %q storage", conf.Storage.Type)
	store, err := storage.New(conf.Storage)
	if err != nil {
		log.Errorf("Failed to initialize storage: %v", err)
		panic(err)
	}
	log.Info("Storage initialized successfully")

	urls := export.NewObjectURLs()
	var logoOpts []render.LogoOption
	if conf.Logo.AllowPrivateNetworks {
		log.Warnf("Logo URLs may point to private networks")
		logoOpts = append(logoOpts, render.WithPrivateNetworks())
	}
	renderer := render.NewRenderer(render.NewLogoLoader(conf.Logo.FetchTimeout, conf.Logo.MaxUploadBytes, log, logoOpts...), urls, log)
	handler := handlers.NewHandler(log, renderer, export.NewExporter(log), theme.NewPreference(store, log), conf.Logo.MaxUploadBytes)

	registry := session.NewRegistry(log)
	sessions := session.NewMiddleware(session.NewJWTManager(conf.Session.Secret, conf.Session.TTL), registry, log)
	tokenAuth := middleware.NewTokenAuth(middleware.TokenAuthConfig{
		APIToken: conf.API.Token,
		Logger:   log,
	})
	if conf.API.Token == "" {
		log.Warnf("API token is empty, /api/v1 is open")
	}

	router := handlers.NewRouter(handler, sessions, tokenAuth, conf.Server.StaticDir)

	server := formserver.NewFormServer(conf.Server.RunAddress, router, log)
	hLogger := middleware.NewHTTPLoger(log)
	compressor := middleware.NewGzipCompressor(log)
	server.AddMiddleware(compressor.CompressHandler, hLogger.HTTPLogHandler)
	log.Info("Initialized middleware functions")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go formserver.RunSweeper(ctx, time.Minute, conf.Session.IdleTimeout, registry.Sweep)
	go formserver.RunSweeper(ctx, time.Minute, time.Minute, urls.Sweep)

	go func() {
		if err := server.RunServer(); err != nil {
			log.Errorf("Server stopped: %v", err)
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case <-stop:
	case <-ctx.Done():
	}

	log.Info("Initialized shutdown")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Cann't stop server %s", err)
	}
	cancel()

	log.Info("Closing storage")
	store.Close()

	if err := log.Close(); err != nil {
		panic(err)
	}
}
