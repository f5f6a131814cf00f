// pagelens attaches to a running web page, lets users and agents capture
// element context with source locations, and serves the results over MCP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	serverName    = "pagelens"
	serverVersion = "0.2.0"
)

var rootCmd = &cobra.Command{
	Use:   "pagelens",
	Short: "In-page element inspector with an MCP tool surface",
	Long: `pagelens attaches to a web page through the DevTools protocol and turns
visual element selection into source-located inspection items.

Point it at a dev server, then let an AI agent call the capture tools, or
select elements and regions directly in the page. Captured items carry
the originating source file and line (from framework debug attributes),
a DOM snapshot, grouped computed styles, and an optional screenshot.

Examples:
  pagelens serve --page-url http://localhost:3000
  pagelens serve --browser-url ws://127.0.0.1:9222 --headless=false
  PAGELENS_DEBUG=1 pagelens serve`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the pagelens version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s v%s\n", serverName, serverVersion)
	},
}

func main() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
