package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"drivesim/internal/sim"
	"drivesim/internal/stream"
)

type scene struct {
	simulation *sim.Simulation
	hub        *stream.Hub
}

func newRouter(scenes map[string]*scene, webDir string) http.Handler {
	names := make([]string, 0, len(scenes))
	for name := range scenes {
		names = append(names, name)
	}
	sort.Strings(names)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /scenes", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(names); err != nil {
			log.Printf("failed to write scene list: %v", err)
		}
	})
	mux.HandleFunc("/ws/scene/{name}", func(w http.ResponseWriter, r *http.Request) {
		sc, ok := scenes[r.PathValue("name")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		sc.hub.ServeHTTP(w, r)
	})
	if webDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(webDir)))
	}
	return mux
}

func main() {
	addr := flag.String("addr", ":8080", "server listen address")
	configPath := flag.String("config", "", "TOML scene config (defaults to the built-in scenes)")
	webDir := flag.String("web", "", "directory with the browser renderer's static files, served at / when set")
	flag.Parse()

	conf := sim.DefaultConfig()
	if *configPath != "" {
		var err error
		if conf, err = sim.LoadConfig(*configPath); err != nil {
			log.Fatalf("config: %v", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	scenes := make(map[string]*scene, len(conf.Scenes))
	for _, sc := range conf.Scenes {
		simulation, err := sim.New(sc)
		if err != nil {
			log.Fatalf("scene setup failed: %v", err)
		}
		hub := stream.NewHub(simulation)
		scenes[sc.Name] = &scene{simulation: simulation, hub: hub}

		wg.Add(1)
		go func(interval time.Duration) {
			defer wg.Done()
			simulation.Run(ctx, interval, hub.Broadcast)
		}(simulation.Config().TickInterval.Duration)
	}

	server := &http.Server{
		Addr:              *addr,
		Handler:           newRouter(scenes, *webDir),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	log.Printf("serving %d scenes on http://localhost%v", len(scenes), *addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}

	wg.Wait()
	for _, sc := range scenes {
		sc.simulation.Close()
		sc.hub.Close()
	}
}
