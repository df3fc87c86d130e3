// Package main provides the chat launcher application.
// It validates the python environment and delegates to the chat script.
package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/paperchat/chat-launcher/internal/cli"
)

func main() {
	// Best-effort .env load so the env contract can be satisfied from a file.
	_ = godotenv.Load()

	app := cli.NewApp()

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
