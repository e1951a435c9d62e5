package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/quad-detect-mcp/internal/config"
	"github.com/ironsheep/quad-detect-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("%s %s (built %s, commit %s)\n", server.ServerName, Version, BuildTime, GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Print(usage)
			return
		case "detect":
			if err := runDetect(os.Args[2:], os.Stdout); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	// stdout carries the protocol
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	debug := os.Getenv("QUAD_MCP_LOG_LEVEL") == "debug"
	if debug {
		log.Printf("Quad Detect MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	tuning := config.EmptyTuningConfig()
	if path := os.Getenv("QUAD_MCP_CONFIG"); path != "" {
		var err error
		if tuning, err = config.LoadTuningConfig(path); err != nil {
			log.Fatalf("Failed to load tuning config: %v", err)
		}
		if debug {
			log.Printf("Loaded tuning config from %s", path)
		}
	}

	srv := server.New(tuning)
	srv.SetDebug(debug)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

const usage = `quad-detect-mcp - MCP server for sub-pixel rectangle detection

Usage:
  quad-detect-mcp                 serve MCP requests on stdin/stdout
  quad-detect-mcp detect [flags]  detect rectangles in one image, print JSON
  quad-detect-mcp version         print version information

Detect flags:
  -image PATH -width N -aspect R [-config FILE] [-overlay OUT.png] [-debug]

Environment:
  QUAD_MCP_LOG_LEVEL=debug  log every pipeline stage to stderr
  QUAD_MCP_CONFIG=FILE      JSON tuning file applied to all tool calls
`
