// Package main runs the tray overlay.
//
// Usage:
//
//	overlay            Show the animated overlay next to the system tray
//	overlay version    Print version information
//
// Settings come from OVERLAY_* environment variables; see internal/config.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
