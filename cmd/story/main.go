// Package main starts the shared story real-time service and handles
// termination.
//
// The process is a transport adapter around room lifecycle, narrative event
// fan-out, and the completion backend that extends the story.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	storycmd "github.com/storyloom/storyloom/internal/cmd/story"
	"github.com/storyloom/storyloom/internal/platform/config"
)

func main() {
	cfg, err := storycmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[STORY] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := storycmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
