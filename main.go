// Command pagefetch retrieves page markup with plain HTTP or a headless
// browser.
package main

import (
	"os"

	"github.com/raysh454/pagefetch/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
