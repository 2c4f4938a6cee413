package main

import (
	"context"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/junsooki/vitrine/internal/config"
	"github.com/junsooki/vitrine/internal/decoder/gstreamer"
	"github.com/junsooki/vitrine/internal/display"
	"github.com/junsooki/vitrine/internal/display/ebitensurface"
	"github.com/junsooki/vitrine/internal/display/sdlsurface"
	"github.com/junsooki/vitrine/internal/encoder"
	"github.com/junsooki/vitrine/internal/fallback"
	"github.com/junsooki/vitrine/internal/log"
	"github.com/junsooki/vitrine/internal/playback"
	"github.com/junsooki/vitrine/internal/preview"
	"github.com/junsooki/vitrine/internal/pump"
	"github.com/junsooki/vitrine/internal/remote"
)

// app wires the playback stack onto the configured window backend.
type app struct {
	cfg     *config.Config
	backend display.Backend
	logger  *logrus.Entry
}

func newApp(cfg *config.Config) (*app, error) {
	backend, err := newBackend(cfg)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, backend: backend, logger: log.For("app")}, nil
}

func newBackend(cfg *config.Config) (display.Backend, error) {
	w := cfg.Windowed
	windowed := image.Rect(w.X, w.Y, w.X+w.Width, w.Y+w.Height)

	switch cfg.Backend {
	case config.BackendEbiten:
		return ebitensurface.New(windowed), nil
	case config.BackendSDL:
		return sdlsurface.New(windowed), nil
	case config.BackendHeadless:
		return display.NewHeadless(display.HeadlessOptions{
			Width:    cfg.HeadlessWidth,
			Height:   cfg.HeadlessHeight,
			Windowed: windowed,
		}), nil
	default:
		return nil, fmt.Errorf("unknown surface backend %q", cfg.Backend)
	}
}

// displays enumerates outputs. The backend is started because some
// backends can only be queried from their main thread.
func (a *app) displays(ctx context.Context) ([]display.Descriptor, error) {
	var out []display.Descriptor
	err := a.backend.Run(ctx, func(context.Context) error {
		var err error
		out, err = a.backend.Displays()
		return err
	})
	return out, err
}

// run builds the controller, starts the control server when configured and
// calls body. The controller is closed when body returns.
func (a *app) run(ctx context.Context, body func(ctx context.Context, ctl *playback.Controller) error) error {
	return a.backend.Run(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		displays, err := a.backend.Displays()
		if err != nil {
			return fmt.Errorf("enumerate displays: %w", err)
		}
		if len(displays) == 0 {
			return fmt.Errorf("no displays found")
		}

		pumpOpts := pump.Options{PullTimeout: a.cfg.PullTimeout, Backoff: a.cfg.Backoff}
		var broadcaster *preview.Broadcaster
		if a.cfg.ControlListen != "" {
			broadcaster = preview.NewBroadcaster(
				encoder.NewJPEGEncoder(a.cfg.PreviewQuality, a.cfg.PreviewMaxWidth),
				a.cfg.PreviewFPS,
			)
			pumpOpts.Tap = broadcaster.Tap
		}

		ctl := playback.New(playback.Options{
			Surface:         display.NewPlaybackSurface(a.backend, a.cfg.Title),
			Displays:        displays,
			Open:            gstreamer.Open,
			Fallback:        fallback.New(a.cfg.FallbackCaption),
			DefaultFallback: a.cfg.FallbackImage,
			Pump:            pumpOpts,
		})
		defer func() {
			if err := ctl.Close(); err != nil {
				a.logger.WithError(err).Warn("close playback surface")
			}
		}()

		if broadcaster != nil {
			service := preview.NewService(a.cfg.ICEServers, broadcaster)
			defer service.Close()
			go broadcaster.Run(ctx)

			server := remote.NewServer(ctl, service)
			go func() {
				if err := server.ListenAndServe(ctx, a.cfg.ControlListen, a.cfg.ControlPath); err != nil {
					a.logger.WithError(err).Error("control server stopped")
				}
			}()
		}

		return body(ctx, ctl)
	})
}
