package main

import (
	_ "github.com/joho/godotenv/autoload" // automatically load .env files

	"github.com/charmbracelet/crawlview/internal/cmd"
)

func main() {
	cmd.Execute()
}
