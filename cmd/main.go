package main

import (
	"os"

	"github.com/soundprediction/citator/cmd/citator"
)

func main() {
	if err := citator.Execute(); err != nil {
		os.Exit(1)
	}
}
