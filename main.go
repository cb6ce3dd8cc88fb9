package main

import (
	"os"

	"thesis_tracker/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
