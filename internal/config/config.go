// Package config holds runtime configuration backed by viper.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/junsooki/vitrine/internal/filesystem"
)

// App is the application name used for the config file and the env prefix.
const App = "vitrine"

// Configuration keys.
const (
	SurfaceBackend        = "surface.backend"
	SurfaceTitle          = "surface.title"
	SurfaceWindowedWidth  = "surface.windowed.width"
	SurfaceWindowedHeight = "surface.windowed.height"
	SurfaceWindowedX      = "surface.windowed.x"
	SurfaceWindowedY      = "surface.windowed.y"
	SurfaceHeadlessWidth  = "surface.headless.width"
	SurfaceHeadlessHeight = "surface.headless.height"
	PumpPullTimeout       = "pump.pull_timeout"
	PumpBackoff           = "pump.backoff"
	FallbackImage         = "fallback.image"
	FallbackCaption       = "fallback.caption"
	ControlListen         = "control.listen"
	ControlPath           = "control.path"
	PreviewFPS            = "preview.fps"
	PreviewQuality        = "preview.quality"
	PreviewMaxWidth       = "preview.max_width"
	PeerICEServers        = "peer.ice_servers"
	LogsLevel             = "logs.level"
	LogsJSON              = "logs.json"
	LogsFile              = "logs.file"
	CliColored            = "cli.colored"
)

// Backend names accepted by surface.backend.
const (
	BackendEbiten   = "ebiten"
	BackendSDL      = "sdl"
	BackendHeadless = "headless"
)

// Defaults maps every key to its factory value.
var Defaults = map[string]any{
	SurfaceBackend:        BackendEbiten,
	SurfaceTitle:          "Vitrine",
	SurfaceWindowedWidth:  800,
	SurfaceWindowedHeight: 600,
	SurfaceWindowedX:      100,
	SurfaceWindowedY:      100,
	SurfaceHeadlessWidth:  1280,
	SurfaceHeadlessHeight: 720,
	PumpPullTimeout:       100 * time.Millisecond,
	PumpBackoff:           10 * time.Millisecond,
	FallbackImage:         "",
	FallbackCaption:       "",
	ControlListen:         "",
	ControlPath:           "/control",
	PreviewFPS:            5,
	PreviewQuality:        70,
	PreviewMaxWidth:       640,
	PeerICEServers:        []string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"},
	LogsLevel:             "info",
	LogsJSON:              false,
	LogsFile:              "",
	CliColored:            true,
}

// EnvKeyReplacer turns config keys into env variable suffixes.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Config is a typed snapshot of the viper state.
type Config struct {
	Backend        string
	Title          string
	Windowed       Geometry
	HeadlessWidth  int
	HeadlessHeight int

	PullTimeout time.Duration
	Backoff     time.Duration

	FallbackImage   string
	FallbackCaption string

	ControlListen string
	ControlPath   string

	PreviewFPS      int
	PreviewQuality  int
	PreviewMaxWidth int
	ICEServers      []string

	LogLevel string
	LogJSON  bool
	LogFile  string
}

// Geometry is a window position and size.
type Geometry struct {
	X, Y, Width, Height int
}

// Setup registers defaults and env bindings and reads vitrine.toml if present.
func Setup() error {
	viper.SetConfigName(App)
	viper.SetConfigType("toml")
	viper.SetFs(filesystem.API())
	viper.AddConfigPath(Dir())

	viper.SetEnvPrefix(App)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	viper.AutomaticEnv()

	viper.SetTypeByDefaultValue(true)
	for name, value := range Defaults {
		viper.SetDefault(name, value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}
	return nil
}

// Dir is the directory searched for vitrine.toml.
func Dir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = "."
	}
	return filepath.Join(base, App)
}

// Load snapshots the current viper state.
func Load() *Config {
	return &Config{
		Backend: strings.ToLower(viper.GetString(SurfaceBackend)),
		Title:   viper.GetString(SurfaceTitle),
		Windowed: Geometry{
			X:      viper.GetInt(SurfaceWindowedX),
			Y:      viper.GetInt(SurfaceWindowedY),
			Width:  viper.GetInt(SurfaceWindowedWidth),
			Height: viper.GetInt(SurfaceWindowedHeight),
		},
		HeadlessWidth:  viper.GetInt(SurfaceHeadlessWidth),
		HeadlessHeight: viper.GetInt(SurfaceHeadlessHeight),

		PullTimeout: viper.GetDuration(PumpPullTimeout),
		Backoff:     viper.GetDuration(PumpBackoff),

		FallbackImage:   viper.GetString(FallbackImage),
		FallbackCaption: viper.GetString(FallbackCaption),

		ControlListen: viper.GetString(ControlListen),
		ControlPath:   viper.GetString(ControlPath),

		PreviewFPS:      clamp(viper.GetInt(PreviewFPS), 1, 30),
		PreviewQuality:  clamp(viper.GetInt(PreviewQuality), 1, 100),
		PreviewMaxWidth: viper.GetInt(PreviewMaxWidth),
		ICEServers:      viper.GetStringSlice(PeerICEServers),

		LogLevel: viper.GetString(LogsLevel),
		LogJSON:  viper.GetBool(LogsJSON),
		LogFile:  viper.GetString(LogsFile),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
