// revlog reads log files backwards, newest line first.
package main

import (
	"os"

	"github.com/ccollicutt/revlog/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
