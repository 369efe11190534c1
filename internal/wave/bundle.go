// Package wave models the robot wire protocol: the event bundles the host
// delivers and the document operations the robot answers with.
package wave

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type EventType string

const (
	EventBlipSubmitted    EventType = "BLIP_SUBMITTED"
	EventWaveletSelfAdded EventType = "WAVELET_SELF_ADDED"
)

type Wavelet struct {
	WaveID     string `json:"waveId"`
	WaveletID  string `json:"waveletId"`
	RootBlipID string `json:"rootBlipId"`
	Title      string `json:"title"`
}

type Blip struct {
	BlipID       string `json:"blipId"`
	ParentBlipID string `json:"parentBlipId"`
	Content      string `json:"content"`
	Creator      string `json:"creator"`
}

type EventProperties struct {
	BlipID string `json:"blipId"`
}

type Event struct {
	Type       EventType       `json:"type"`
	ModifiedBy string          `json:"modifiedBy"`
	Timestamp  int64           `json:"timestamp"`
	Properties EventProperties `json:"properties"`
}

// Bundle is one batch of events delivered to the robot.
type Bundle struct {
	RobotAddress string          `json:"robotAddress"`
	Wavelet      Wavelet         `json:"wavelet"`
	Blips        map[string]Blip `json:"blips"`
	Events       []Event         `json:"events"`
}

var ErrInvalidBundle = errors.New("invalid event bundle")

// Decode reads a JSON event bundle.
func Decode(r io.Reader) (Bundle, error) {
	var bundle Bundle
	if err := json.NewDecoder(r).Decode(&bundle); err != nil {
		return Bundle{}, fmt.Errorf("%w: %w", ErrInvalidBundle, err)
	}
	if strings.TrimSpace(bundle.Wavelet.WaveletID) == "" {
		return Bundle{}, fmt.Errorf("%w: wavelet id is required", ErrInvalidBundle)
	}
	return bundle, nil
}

// WasSelfAdded reports whether the robot was just added to the wavelet.
func (b Bundle) WasSelfAdded() bool {
	for _, e := range b.Events {
		if e.Type == EventWaveletSelfAdded {
			return true
		}
	}
	return false
}

// Blip returns the blip with the given id.
func (b Bundle) Blip(id string) (Blip, bool) {
	blip, ok := b.Blips[id]
	return blip, ok
}
