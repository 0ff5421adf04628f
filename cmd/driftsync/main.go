// Command driftsync synchronises remote drive folders into hybrid
// search collections and serves retrieval over them.
package main

import (
	"os"

	"github.com/halyard-labs/driftsync/internal/adapters/driving/cli"
)

func main() {
	err := cli.Execute()
	cli.Shutdown()
	if err != nil {
		os.Exit(1)
	}
}
