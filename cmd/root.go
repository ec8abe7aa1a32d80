package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the julian application
var rootCmd = &cobra.Command{
	Use:   "julian",
	Short: "Calendar assistant that finds free meeting slots",
	Long: `julian is a calendar assistant for Google Calendar. It lists events,
finds free meeting slots for one or several people and moves, declines or
creates meetings on request.

It can run as:
  - An MCP (Model Context Protocol) server for AI assistants (serve)
  - A command line tool for quick slot searches (slots)`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "julian version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to julian.toml (default: $JULIAN_CONFIG, ./julian.toml, ~/.config/julian/julian.toml)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSlotsCmd())
	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
