// The main package for the visitmakkah executable.
package main

import (
	"github.com/visitmakkah/visitmakkah/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
