package soundscape

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidShareCode is returned when a share code cannot be parsed.
var ErrInvalidShareCode = errors.New("invalid share code")

// EncodeShareCode renders a listening state as "id:percent" pairs,
// e.g. "1:50,11:100".
func EncodeShareCode(states []SoundState) string {
	parts := make([]string, 0, len(states))
	for _, st := range states {
		parts = append(parts, fmt.Sprintf("%d:%d", st.ID, int(math.Round(clampVolume(st.Volume)*100))))
	}
	return strings.Join(parts, ",")
}

// DecodeShareCode parses a code produced by EncodeShareCode. A missing
// percentage means full volume.
func DecodeShareCode(code string) ([]SoundState, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrInvalidShareCode
	}
	var states []SoundState
	for _, part := range strings.Split(code, ",") {
		idRaw, volRaw, hasVol := strings.Cut(strings.TrimSpace(part), ":")
		id, err := strconv.Atoi(idRaw)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: bad sound id %q", ErrInvalidShareCode, idRaw)
		}
		volume := 1.0
		if hasVol {
			pct, err := strconv.Atoi(volRaw)
			if err != nil || pct < 0 || pct > 100 {
				return nil, fmt.Errorf("%w: bad volume %q", ErrInvalidShareCode, volRaw)
			}
			volume = float64(pct) / 100
		}
		states = append(states, SoundState{ID: id, Volume: volume})
	}
	return states, nil
}

// SharedStateOf captures the playing sounds of s as a shareable state.
func SharedStateOf(s State) []SoundState {
	var states []SoundState
	for _, snd := range s.Sounds {
		if snd.Playing {
			states = append(states, SoundState{ID: snd.ID, Volume: snd.Volume})
		}
	}
	return states
}
