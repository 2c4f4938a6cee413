package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/junsooki/vitrine/internal/config"
	"github.com/junsooki/vitrine/internal/log"
	"github.com/junsooki/vitrine/internal/playback"
	"github.com/junsooki/vitrine/internal/tui"
)

func init() {
	rootCmd.PersistentFlags().StringP("backend", "b", "", "Window backend (ebiten, sdl, headless)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("backend", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{config.BackendEbiten, config.BackendSDL, config.BackendHeadless}, cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(config.SurfaceBackend, rootCmd.PersistentFlags().Lookup("backend")))

	rootCmd.PersistentFlags().StringP("listen", "l", "", "Serve the remote control channel on this address (e.g. :8090)")
	lo.Must0(viper.BindPFlag(config.ControlListen, rootCmd.PersistentFlags().Lookup("listen")))

	rootCmd.PersistentFlags().String("caption", "", "Text shown when a session ends without an idle image")
	lo.Must0(viper.BindPFlag(config.FallbackCaption, rootCmd.PersistentFlags().Lookup("caption")))

	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	lo.Must0(viper.BindPFlag(config.LogsLevel, rootCmd.PersistentFlags().Lookup("log-level")))

	rootCmd.PersistentFlags().String("log-file", "", "Append logs to this file")
	lo.Must0(viper.BindPFlag(config.LogsFile, rootCmd.PersistentFlags().Lookup("log-file")))

	rootCmd.Flags().StringP("fallback", "f", "", "Prefill the idle image")
}

var rootCmd = &cobra.Command{
	Use:   config.App + " [file]",
	Short: "Play video on a dedicated display from a terminal control panel",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		closer, err := log.Setup(cfg, log.Options{Quiet: true})
		handleErr(err)
		defer closer.Close()

		a, err := newApp(cfg)
		handleErr(err)

		options := tui.Options{
			File:     lo.FirstOr(args, ""),
			Fallback: lo.Must(cmd.Flags().GetString("fallback")),
			Remote:   cfg.ControlListen,
		}
		if options.Fallback == "" {
			options.Fallback = cfg.FallbackImage
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		handleErr(a.run(ctx, func(ctx context.Context, ctl *playback.Controller) error {
			options.Player = ctl
			return tui.Run(&options)
		}))
	},
}

// Execute runs the command line.
func Execute() {
	if viper.GetBool(config.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.For("cli").Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "error: %s\n", strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
