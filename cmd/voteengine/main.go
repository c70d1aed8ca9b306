// Command voteengine is the administrative CLI for the release vote
// engine: listing releases, dry-running tabulation, and triggering
// resolution outside of the (out of scope) HTTP command surface.
package main

import (
	"fmt"
	"os"

	"github.com/apache/trusted-releases/cmd/voteengine/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
