package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/simpledb/simpledb"
	"github.com/simpledb/simpledb/core"
	"github.com/simpledb/simpledb/ps"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	port := flag.Int("port", 3306, "TCP port to listen on")
	dataDir := flag.String("dataDir", "", "Data directory for persistence (memory if empty)")
	jwtSecret := flag.String("jwtSecret", "", "Require JWT authentication with this HS256 secret")
	jwtIssuer := flag.String("jwtIssuer", "", "Expected JWT issuer claim")
	certFile := flag.String("tlsCert", "", "TLS certificate file (enables TLS with -tlsKey)")
	keyFile := flag.String("tlsKey", "", "TLS private key file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("SimpleDB SQL Server v%s\n", Version)
		return
	}

	// Initialize the store
	var store *ps.Store
	var err error
	if *dataDir == "" {
		log.Println("Using memory store")
		store, err = ps.NewMemoryStore()
	} else {
		log.Printf("Using file store: %s", *dataDir)
		store, err = ps.NewFileStore(*dataDir)
	}
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	instance, err := simpledb.Open(store, core.DefaultConfig())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	// Create and start server
	var server *Server
	if *jwtSecret != "" {
		server = NewServerWithAuth(instance, &AuthConfig{
			Enabled:   true,
			JWTSecret: *jwtSecret,
			Issuer:    *jwtIssuer,
		})
	} else {
		server = NewServer(instance, ps.Identity{
			Name:  "SimpleDB Server",
			Email: "server@simpledb.local",
		})
	}

	addr := fmt.Sprintf(":%d", *port)
	if *certFile != "" && *keyFile != "" {
		err = server.StartTLS(addr, *certFile, *keyFile)
	} else {
		err = server.Start(addr)
	}
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	// Print banner
	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Printf("║   SimpleDB SQL Server v%-14s ║\n", Version)
	fmt.Println("║   In-memory SQL Engine                ║")
	fmt.Println("╚═══════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Listening on port %d\n", *port)
	fmt.Println("Send SQL queries (one per line), 'quit' to disconnect")
	fmt.Println()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	server.Stop()
	log.Println("Server stopped")
}
