// main is the entry point of the prelev CLI.
package main

import (
	"fmt"
	"os"

	"github.com/prelev/prelev/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
