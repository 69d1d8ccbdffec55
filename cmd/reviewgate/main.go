package main

import (
	"os"

	"github.com/dshills/reviewgate/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
