// Command listingdesk runs the listing widgets from the terminal.
package main

import (
	"os"

	"github.com/pendergraft/listingdesk/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
