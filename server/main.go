package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	dbPath := flag.String("db", "arena.db", "Path to SQLite database file")
	publicURL := flag.String("public-url", "", "Public base URL for QR spectate links (default: http://localhost<addr>)")
	graceSec := flag.Int("grace", int(DefaultGracePeriod.Seconds()), "Reconnection grace period in seconds")
	flag.Parse()

	if *publicURL == "" {
		*publicURL = fmt.Sprintf("http://localhost%s", *addr)
	}

	db, err := OpenDB(*dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	recorder := NewRecorder(db)
	arenas := NewArenaRegistry()
	matches := NewMatchManager(arenas, recorder)
	conns := NewConnManager(matches, time.Duration(*graceSec)*time.Second, DefaultIdleTimeout)
	go conns.Run()

	hub := NewHub(db, matches, conns)
	go hub.Run()

	mux := SetupRoutes(hub, *publicURL)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Printf("Arena server starting on %s", *addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(ctx)

	conns.Stop()
	recorder.Stop()
}
