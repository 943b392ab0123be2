// Command agroconnect is the command line client for the AgroConnect
// marketplace auth API.
package main

import (
	"os"

	"github.com/agroconnect/marketplace-auth/internal/cli"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}
