package main

import (
	"os"

	"github.com/docuhash/docuhash/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
