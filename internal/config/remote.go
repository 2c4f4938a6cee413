package config

import (
	"flag"
	"fmt"

	"github.com/spf13/viper"
)

// RemoteConfig holds configuration for the remote operator binary.
type RemoteConfig struct {
	URL      string
	Start    string
	Display  int
	Fallback string
	Stop     bool
	Status   bool
	Preview  bool
	// ICEServers comes from peer.ice_servers.
	ICEServers []string
}

// ParseRemoteFlags parses flags for the remote binary from args.
func ParseRemoteFlags(args []string) (*RemoteConfig, error) {
	cfg := &RemoteConfig{}
	fs := flag.NewFlagSet("vitrine-remote", flag.ContinueOnError)
	fs.StringVar(&cfg.URL, "url", "ws://localhost:8090/control", "Player control WebSocket URL")
	fs.StringVar(&cfg.Start, "start", "", "File to play (path on the player)")
	fs.IntVar(&cfg.Display, "display", 0, "Display index to play on")
	fs.StringVar(&cfg.Fallback, "fallback", "", "Idle image shown after the file ends")
	fs.BoolVar(&cfg.Stop, "stop", false, "Stop the running session")
	fs.BoolVar(&cfg.Status, "status", false, "Print the player status and exit")
	fs.BoolVar(&cfg.Preview, "preview", false, "Open a window with a live preview")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.Start != "" && cfg.Stop {
		return nil, fmt.Errorf("-start and -stop are mutually exclusive")
	}
	if cfg.Display < 0 {
		return nil, fmt.Errorf("-display must not be negative")
	}
	cfg.ICEServers = viper.GetStringSlice(PeerICEServers)
	return cfg, nil
}

// Watch reports whether the binary keeps running after sending its command.
func (c *RemoteConfig) Watch() bool {
	return c.Preview || (c.Start == "" && !c.Stop && !c.Status)
}
