package main

import (
	"os"

	"github.com/danmuck/takctl/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
