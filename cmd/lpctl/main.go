//go:build !(rp2040 || rp2350)

// Command lpctl runs the low-power scheduler as a host simulation and
// monitors a device's console.
package main

import (
	"errors"
	"io/fs"
	"os"

	dotenv "github.com/joho/godotenv"

	"lowpower-go/x/logx"
)

func main() {
	if err := dotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logx.Warnf("failed to load .env file: %v", err)
	}
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
