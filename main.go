// Package main is the entry point for the unitmut CLI.
package main

import "gooze.dev/pkg/unitmut/cmd"

func main() {
	cmd.Execute()
}
