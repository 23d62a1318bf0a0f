// Package main is the entry point for the mutguard CLI.
package main

import "gooze.dev/pkg/mutguard/cmd"

func main() {
	cmd.Execute()
}
