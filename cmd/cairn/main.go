package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jmaddaus/cairn/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Run(os.Args[1:], version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, cli.ErrValidation) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
