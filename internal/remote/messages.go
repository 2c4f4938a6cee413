package remote

import (
	"encoding/json"

	"github.com/samber/lo"

	"github.com/junsooki/vitrine/internal/display"
	"github.com/junsooki/vitrine/internal/playback"
)

// Message types for the control protocol.
const (
	TypeStart        = "start"
	TypeStop         = "stop"
	TypeStatus       = "status"
	TypeDisplays     = "displays"
	TypeOffer        = "offer"
	TypeAnswer       = "answer"
	TypeICECandidate = "ice-candidate"
	TypePing         = "ping"
	TypePong         = "pong"
	TypeError        = "error"
)

// Message is the envelope for all control messages.
type Message struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	File      string          `json:"file,omitempty"`
	Display   int             `json:"display,omitempty"`
	Fallback  string          `json:"fallback,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Status    *StatusInfo     `json:"status,omitempty"`
	List      []DisplayInfo   `json:"list,omitempty"`
	Msg       string          `json:"message,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// StatusInfo is the wire form of playback.Status.
type StatusInfo struct {
	Active    bool   `json:"active"`
	SessionID string `json:"sessionId,omitempty"`
	File      string `json:"file,omitempty"`
	Display   int    `json:"display"`
	Fallback  string `json:"fallback,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Frames    int    `json:"frames"`
	Idle      string `json:"idle,omitempty"`
	Error     string `json:"error,omitempty"`
}

// DisplayInfo describes one output in the display list.
type DisplayInfo struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Label  string `json:"label"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func newStatusInfo(st playback.Status) *StatusInfo {
	info := &StatusInfo{
		Active:    st.Active,
		SessionID: st.SessionID,
		File:      st.Request.File,
		Display:   st.Request.Display,
		Fallback:  st.Request.Fallback,
		Frames:    st.Frames,
	}
	if !st.Active && st.SessionID != "" {
		info.Reason = st.Reason.String()
		info.Idle = st.Fallback.String()
	}
	if st.Err != nil {
		info.Error = st.Err.Error()
	}
	return info
}

func newDisplayList(displays []display.Descriptor) []DisplayInfo {
	return lo.Map(displays, func(d display.Descriptor, _ int) DisplayInfo {
		return DisplayInfo{
			Index:  d.Index,
			Name:   d.Name,
			Label:  d.Label(),
			Width:  d.Bounds.Dx(),
			Height: d.Bounds.Dy(),
		}
	})
}
