package main

import (
	"errors"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errStrictFailure) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
