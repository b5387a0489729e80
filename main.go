// The main package for the site-audit executable.
package main

import (
	"os"

	"github.com/JakeFAU/site-structure-audit/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
