package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/navhist/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╔╗╔┌─┐┬  ┬┬ ┬┬┌─┐┌┬┐
  ║║║├─┤└┐┌┘├─┤│└─┐ │
  ╝╚╝┴ ┴ └┘ ┴ ┴┴└─┘ ┴
`

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.Fprint(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "navhist",
		Short: "Queued, blockable navigation history",
		Long: `navhist unifies browser, hash and in-memory navigation history
behind one queued, blockable API.

  • serve drives real browser tabs from the server over a WebSocket
  • repl plays with an in-memory history from the terminal
  • parse shows how an address splits into path, query and fragment`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		serveCmd(),
		replCmd(),
		parseCmd(),
		versionCmd(),
	)
	return root
}

// printBanner prints the ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}
