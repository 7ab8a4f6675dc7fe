package main

import (
	"os"

	"github.com/reedipher/teatime/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
