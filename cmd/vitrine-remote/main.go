package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/junsooki/vitrine/internal/config"
	"github.com/junsooki/vitrine/internal/log"
	"github.com/junsooki/vitrine/internal/peer"
	"github.com/junsooki/vitrine/internal/remote"
	"github.com/junsooki/vitrine/internal/viewer"
)

func main() {
	lo.Must0(config.Setup())
	closer := lo.Must(log.Setup(config.Load(), log.Options{}))
	defer closer.Close()
	logger := log.For("remote")

	cfg, err := config.ParseRemoteFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	logger.WithFields(logrus.Fields{
		"url":     cfg.URL,
		"preview": cfg.Preview,
	}).Info("vitrine remote starting")

	var viewerPeer *peer.Viewer
	var view *viewer.Viewer
	replied := make(chan struct{}, 1)
	notify := func() {
		select {
		case replied <- struct{}{}:
		default:
		}
	}

	client := remote.NewClient(cfg.URL, remote.Handler{
		OnStatus: func(st remote.StatusInfo) {
			printStatus(st)
			notify()
		},
		OnDisplays: func(list []remote.DisplayInfo) {
			for _, d := range list {
				fmt.Println(d.Label)
			}
			notify()
		},
		OnAnswer: func(payload json.RawMessage) {
			if viewerPeer != nil {
				if err := viewerPeer.HandleAnswer(payload); err != nil {
					logger.WithError(err).Warn("handle answer")
				}
			}
		},
		OnError: func(msg string) {
			fmt.Fprintf(os.Stderr, "player: %s\n", msg)
			notify()
		},
	})

	if cfg.Preview {
		view = viewer.New("Vitrine preview", client.Done())
		viewerPeer, err = peer.NewViewer(cfg.ICEServers, client)
		if err != nil {
			logger.WithError(err).Fatal("create preview peer")
		}
		defer viewerPeer.Close()
		viewerPeer.Transport().OnFrame(view.HandleJPEG)
	}

	if err := client.Connect(); err != nil {
		logger.WithError(err).Fatal("control connect")
	}
	defer client.Close()

	// the first status is the greeting sent on connect
	<-replied

	switch {
	case cfg.Start != "":
		err = client.Start(cfg.Start, cfg.Display, cfg.Fallback)
	case cfg.Stop:
		err = client.Stop()
	case cfg.Status:
		err = client.RequestDisplays()
	}
	if err != nil {
		logger.WithError(err).Fatal("send command")
	}

	if viewerPeer != nil {
		if err := viewerPeer.Connect(); err != nil {
			logger.WithError(err).Fatal("preview connect")
		}
	}

	if !cfg.Watch() {
		<-replied
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if view != nil {
		go func() {
			<-sigCh
			client.Close()
		}()
		// Ebitengine RunGame must be on the main goroutine.
		if err := view.Run(); err != nil {
			logger.WithError(err).Error("preview window")
		}
		return
	}

	select {
	case <-sigCh:
	case <-client.Done():
	}
}

func printStatus(st remote.StatusInfo) {
	switch {
	case st.Active:
		fmt.Printf("playing %s on display %d (session %s)\n", st.File, st.Display, st.SessionID)
	case st.SessionID == "":
		fmt.Println("idle")
	case st.Error != "":
		fmt.Printf("idle: %s failed: %s\n", st.File, st.Error)
	default:
		fmt.Printf("idle: %s ended (%s) after %d frames, idle image %s\n", st.File, st.Reason, st.Frames, st.Idle)
	}
}
