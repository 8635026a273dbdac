// Command sqlcomment annotates SQL statements with sqlcommenter tags and
// decodes the tags of annotated statements.
package main

import (
	"fmt"
	"os"

	"github.com/kroma-labs/sqlcommenter-go/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
