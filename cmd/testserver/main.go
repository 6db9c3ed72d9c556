// Command testserver runs a fake groupride signup service for trying the CLI
// locally.
//
// Usage:
//
//	testserver [flags]
//
// Flags:
//
//	-port        Port to listen on (default: 8080)
//	-host        Host to bind to (default: localhost)
//	-ride        Slug of a ride to open at startup (optional)
//	-capacity    Capacity of that ride (default: 10)
//	-waitlist    Accept signups past capacity as waitlisted
//	-open-after  Answer the first n signups as if the ride did not exist
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"sattelclub/testserver"
)

func main() {
	port := flag.Int("port", 8080, "port to listen on")
	host := flag.String("host", "localhost", "host to bind to")
	slug := flag.String("ride", "", "slug of a ride to open at startup")
	capacity := flag.Int("capacity", 10, "capacity of the startup ride")
	waitlist := flag.Bool("waitlist", false, "accept signups past capacity as waitlisted")
	openAfter := flag.Int("open-after", 0, "answer the first n signups with \"doesn't exist\"")
	flag.Parse()

	server := testserver.NewServer()
	if *slug != "" {
		server.OpenRideAfter(*slug, *capacity, *waitlist, *openAfter)
	}
	addr := fmt.Sprintf("%s:%d", *host, *port)

	fmt.Println("Sattelclub Test Server")
	fmt.Println("======================")
	fmt.Printf("Listening on http://%s\n\n", addr)
	fmt.Println("Endpoints:")
	fmt.Printf("  POST %-24s - Signup form\n", testserver.SignupPath)
	fmt.Println("  POST /admin/rides             - Open a ride (slug, capacity, waitlist, openAfter)")
	fmt.Println("  GET  /health                  - Health check")
	fmt.Println("  GET  /status/{code}           - Return specific status code")
	fmt.Println("  GET  /delay/{ms}              - Delay response by milliseconds")
	if *slug != "" {
		fmt.Printf("\nRide %q open (capacity %d)\n", *slug, *capacity)
	}
	fmt.Println()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		os.Exit(0)
	}()

	log.Fatal(http.ListenAndServe(addr, server.Handler()))
}
