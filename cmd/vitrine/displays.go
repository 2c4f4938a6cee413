package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/junsooki/vitrine/internal/config"
	"github.com/junsooki/vitrine/internal/log"
)

func init() {
	rootCmd.AddCommand(displaysCmd)
}

var displaysCmd = &cobra.Command{
	Use:   "displays",
	Short: "List the displays playback can target",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		closer, err := log.Setup(cfg, log.Options{})
		handleErr(err)
		defer closer.Close()

		a, err := newApp(cfg)
		handleErr(err)

		displays, err := a.displays(context.Background())
		handleErr(err)
		for _, d := range displays {
			fmt.Println(d.Label())
		}
	},
}
