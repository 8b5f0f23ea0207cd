package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deskbridge/zoom-relay/internal/config"
)

func main() {
	root := &cobra.Command{
		Use:   "relay",
		Short: "Webhook relay between the Haptik chat-support platform and Zoom IM",
	}

	var configPath string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay server",
		Run: func(cmd *cobra.Command, args []string) {
			runServe(configPath)
		},
	}
	serveCmd.Flags().StringVar(&configPath, "config", config.DefaultConfigPath, "path to config.toml")
	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
