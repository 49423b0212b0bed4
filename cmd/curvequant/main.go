package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/RBFZ/CurveQuant/internal/config"
	"github.com/RBFZ/CurveQuant/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("curvequant - chart digitizer")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curvequant [serve]             Run the MCP server on stdin/stdout")
	fmt.Println("  curvequant detect <job.json>   Digitize a chart described by a job file")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println("  --json           (detect) Print results as JSON")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  CURVEQUANT_LOG_LEVEL=debug    Enable debug logging")
	fmt.Println("  CURVEQUANT_CONFIG=<path>      Detection settings file (.json)")
}

func main() {
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Printf("curvequant %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		case "detect":
			os.Exit(runDetect(args[1:]))
		case "serve":
		default:
			fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
			usage()
			os.Exit(2)
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if os.Getenv("CURVEQUANT_LOG_LEVEL") == "debug" {
		log.Printf("CurveQuant MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}
	if Version != "dev" {
		server.Version = Version
	}

	settings, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.NewWithSettings(settings)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
