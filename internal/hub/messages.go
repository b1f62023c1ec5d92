package hub

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/ytdj/internal/models"
	"github.com/desertthunder/ytdj/internal/shared"
)

// MessageType is the "type" field of a hub envelope.
type MessageType string

const (
	TypePing    MessageType = "ping"
	TypePong    MessageType = "pong"
	TypePlay    MessageType = "play"
	TypeVolume  MessageType = "vol"
	TypeControl MessageType = "control"
	TypeQR      MessageType = "qr"
)

// Message is the JSON envelope exchanged on every hub connection.
type Message struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
	TS   float64         `json:"ts,omitempty"`
}

// NewMessage marshals data into an envelope of type t.
func NewMessage(t MessageType, data any) (Message, error) {
	if data == nil {
		return Message{Type: t}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return Message{Type: t, Data: raw}, nil
}

// VolumeData is the payload of a vol message.
type VolumeData struct {
	Volume int `json:"volume"`
}

// QRRequest is the payload of an inbound qr message.
type QRRequest struct {
	URL string `json:"url"`
}

// QRData is the payload of the qr reply.
type QRData struct {
	Img string `json:"img"`
	URL string `json:"url"`
}

// PlayData is the payload of a play message.
type PlayData = models.PlaybackCue

// ParseVolume reads {"volume": n}, accepting a number or a numeric string.
func ParseVolume(raw json.RawMessage) (int, error) {
	var payload struct {
		Volume json.RawMessage `json:"volume"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0, fmt.Errorf("%w: volume payload: %v", shared.ErrInvalidInput, err)
	}
	if len(payload.Volume) == 0 {
		return 0, fmt.Errorf("%w: volume is required", shared.ErrMissingArgument)
	}
	return parseVolumeValue(payload.Volume)
}

func parseVolumeValue(raw json.RawMessage) (int, error) {
	text := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = strings.TrimSpace(unquoted)
	}
	return ParseVolumeText(text)
}

// ParseVolumeText parses a bare volume such as "75" or "75.0".
func ParseVolumeText(text string) (int, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: volume %q", shared.ErrInvalidInput, text)
	}
	return int(v), nil
}
