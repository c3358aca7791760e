// Package main provides the entrypoint for resource-notifier.
package main

import (
	"os"

	"github.com/stackwatch/resource-notifier/cmd"
)

func main() {
	if err := cmd.New().Execute(); err != nil {
		os.Exit(1)
	}
}
