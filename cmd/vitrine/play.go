package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/junsooki/vitrine/internal/config"
	"github.com/junsooki/vitrine/internal/log"
	"github.com/junsooki/vitrine/internal/playback"
	"github.com/junsooki/vitrine/internal/pump"
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().IntP("display", "d", 0, "Display index to play on")
	playCmd.Flags().StringP("fallback", "f", "", "Idle image shown after the file ends")
	playCmd.Flags().Bool("hold", false, "Keep the idle image on screen until interrupted")
}

var playCmd = &cobra.Command{
	Use:     "play <file>",
	Short:   "Play a file fullscreen and exit when it ends",
	Example: config.App + " play --display 1 --fallback idle.png loop.mp4",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		closer, err := log.Setup(cfg, log.Options{})
		handleErr(err)
		defer closer.Close()

		a, err := newApp(cfg)
		handleErr(err)

		req := playback.Request{
			File:     args[0],
			Display:  lo.Must(cmd.Flags().GetInt("display")),
			Fallback: lo.Must(cmd.Flags().GetString("fallback")),
		}
		hold := lo.Must(cmd.Flags().GetBool("hold"))

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		handleErr(a.run(ctx, func(ctx context.Context, ctl *playback.Controller) error {
			return playOnce(ctx, ctl, req, hold)
		}))
	},
}

// playOnce runs one session, stopping it when ctx ends. With hold the idle
// frame stays up until ctx ends, unless the window was closed.
func playOnce(ctx context.Context, ctl *playback.Controller, req playback.Request, hold bool) error {
	if err := ctl.Start(req); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		ctl.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		ctl.Stop()
	case <-done:
	}

	st := ctl.Status()
	if st.Err != nil {
		return st.Err
	}
	log.For("cli").WithFields(logrus.Fields{
		"reason": st.Reason,
		"frames": st.Frames,
		"idle":   st.Fallback,
	}).Info("session ended")

	if hold && st.Reason == pump.EndOfStream {
		<-ctx.Done()
	}
	return nil
}
