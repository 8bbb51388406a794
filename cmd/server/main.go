package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/haihvite/printiful-bot/internal/config"
	"github.com/haihvite/printiful-bot/internal/engine"
	"github.com/haihvite/printiful-bot/internal/gpm"
	"github.com/haihvite/printiful-bot/internal/httpapi"
	"github.com/haihvite/printiful-bot/internal/logbus"
	"github.com/haihvite/printiful-bot/internal/notify"
	"github.com/haihvite/printiful-bot/internal/proxy"
	"github.com/haihvite/printiful-bot/internal/store/sqlite"
)

func main() {
	configPath := flag.String("config", "./config.yaml", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	bus := logbus.New(200)
	bus.Log("info", "server starting", map[string]any{"addr": cfg.Server.Addr})

	ctx := context.Background()
	store, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("open sqlite: %v", err)
	}
	defer store.Close()

	ports, err := proxy.NewPortAllocator(cfg.Storage.PortCounterPath, cfg.Proxy.LocalPortBase)
	if err != nil {
		log.Fatalf("port allocator: %v", err)
	}
	pool := proxy.NewPool(proxy.NewClient(cfg.Proxy, ports))

	notifier := notify.NewEmailNotifier(store, bus)

	runner := &engine.BrowserRunner{
		GPMCfg:   cfg.GPM,
		FlowCfg:  cfg.Flow,
		API:      gpm.NewClient(cfg.GPM),
		Store:    store,
		Bus:      bus,
		Notifier: notifier,
		CSVPath:  cfg.Storage.ExportCSVPath,
	}
	eng := engine.New(cfg.Limits, store, pool, bus, runner)

	api := httpapi.New(httpapi.Options{
		Cfg:    cfg,
		Bus:    bus,
		Store:  store,
		Engine: eng,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-stop:
		bus.Log("info", "shutdown signal received", map[string]any{"signal": sig.String()})
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			bus.Log("error", "http server error", map[string]any{"error": err.Error()})
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	eng.Wait()
	_ = notifier.Close(shutdownCtx)
	_ = server.Shutdown(shutdownCtx)
	bus.Log("info", "server stopped", nil)
}
