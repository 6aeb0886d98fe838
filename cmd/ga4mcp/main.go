package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/metriclane/ga4mcp/cmd/ga4mcp/commands"
)

var rootCmd = &cobra.Command{
	Use:   "ga4mcp",
	Short: "ga4mcp - Google Analytics 4 MCP server",
	Long: `ga4mcp - Multi-property Google Analytics 4 access over the Model Context Protocol.

Properties can be referenced by ID, exact name, or fuzzy match, and report
dates accept natural language ("today", "7daysAgo", "last month").

Available commands:
  serve      - Start the MCP server on stdio
  properties - List or search accessible GA4 properties
  version    - Show version information

Examples:
  ga4mcp serve                   # Run the MCP server
  ga4mcp properties list         # Show every accessible property
  ga4mcp properties search blog  # Fuzzy-search properties by name`,
}

func init() {
	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.PropertiesCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
