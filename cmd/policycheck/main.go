// Package main runs the conversation policy offline so keyword and template
// tables can be tuned without a bot token or provider key.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
