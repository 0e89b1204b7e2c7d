package main

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newComponents(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer c.Close()

		e := newServer(c)
		return e.Start(cfg.Server.Listen)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
