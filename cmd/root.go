package cmd

import (
	"fmt"
	"os"

	"ftp2http/config"
	"ftp2http/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ftp2http user:password@host:port [httpPort]",
	Short: "ftp2http exposes an FTP server's tree over HTTP with synchronized playback.",
	Long: `ftp2http serves an FTP server's directory tree as browsable web pages,
streams file contents with byte-range support, and offers a shared
"watch together" playback channel for media files.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(args)
		if err != nil {
			return fmt.Errorf("parsing ftp connection information: %w\nExample: ftp2http user:password@host:port 3000", err)
		}
		server.Start(cfg)
		return nil
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
