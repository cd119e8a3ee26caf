package main

import (
	"github.com/joho/godotenv"

	"florify/internal/cli"
)

func main() {
	// Optional; config files remain the primary source.
	_ = godotenv.Load()

	cli.Execute()
}
