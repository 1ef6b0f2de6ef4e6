// Command testserver runs a configurable HTTP sink target for local runs.
//
// Usage:
//
//	testserver [flags]
//
// Flags:
//
//	-port    Port to listen on (default: 8080)
//	-host    Host to bind to (default: localhost)
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/avrhamo/releases-sub000/testserver"
)

func main() {
	port := flag.Int("port", 8080, "port to listen on")
	host := flag.String("host", "localhost", "host to bind to")
	flag.Parse()

	server := testserver.NewServer()
	addr := fmt.Sprintf("%s:%d", *host, *port)

	fmt.Println("Datadrill Test Server")
	fmt.Println("======================")
	fmt.Printf("Listening on http://%s\n\n", addr)
	fmt.Println("Endpoints:")
	fmt.Println("  ANY  /health              - Health check")
	fmt.Println("  ANY  /status/{code}       - Return specific status code")
	fmt.Println("  ANY  /delay/{ms}          - Delay response by milliseconds")
	fmt.Println("  ANY  /echo                - Reflect body and headers")
	fmt.Println("  ANY  /fail-rate?percent=N - Fail N percent of requests")

	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Handler(),
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		os.Exit(0)
	}()

	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
