// Command kassa is the point-of-sale order tool: it records orders on the
// device, keeps them reconciled with the shared central store, and provides
// the recovery and integrity tooling around the order log.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
