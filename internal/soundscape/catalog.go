// Package soundscape holds the ambient sound mixer: the static sound catalog,
// the category presets and the per-user playback state store.
package soundscape

import (
	"strconv"
	"strings"
)

// Sound ids of the built-in catalog.
const (
	SoundRain = iota + 1
	SoundThunder
	SoundWind
	SoundForest
	SoundLeaves
	SoundBirds
	SoundWaterStream
	SoundOceanWaves
	SoundCampfire
	SoundRainOnTent
	SoundCoffeeShop
	SoundTrain
	SoundNight
	SoundWhiteNoise
	SoundPinkNoise
	SoundBrownNoise
	SoundCosmicSounds
	SoundSpaceEngine
)

// DefaultVolume is the volume every sound starts with and returns to on Reset.
const DefaultVolume = 0.5

// Sound is a catalog entry together with its live playback state.
type Sound struct {
	ID      int
	Name    string
	Tags    []Category
	Asset   string
	Volume  float64
	Playing bool
	Loading bool
}

func sound(id int, name, asset string, tags ...Category) Sound {
	return Sound{ID: id, Name: name, Asset: "sounds/" + asset, Tags: tags, Volume: DefaultVolume}
}

// Catalog returns a fresh copy of the built-in sound list.
func Catalog() []Sound {
	return []Sound{
		sound(SoundRain, "Rain", "rain.mp3", Productivity, CreativeThinking, Sleep, Studying),
		sound(SoundThunder, "Thunder", "thunder.mp3"),
		sound(SoundWind, "Wind", "wind.mp3", CreativeThinking, Writing),
		sound(SoundForest, "Forest", "forest.mp3", CreativeThinking, BeautifulAmbients),
		sound(SoundLeaves, "Leaves", "leaves.mp3", Studying),
		sound(SoundBirds, "Birds", "birds.mp3"),
		sound(SoundWaterStream, "Water Stream", "water-stream.mp3", BeautifulAmbients),
		sound(SoundOceanWaves, "Ocean Waves", "ocean-waves.mp3", Relax),
		sound(SoundCampfire, "Campfire", "campfire.mp3", Relax, Writing),
		sound(SoundRainOnTent, "Rain on Tent", "rain-on-tent.mp3", Writing),
		sound(SoundCoffeeShop, "Coffee Shop", "coffee-shop.mp3", Productivity, Studying),
		sound(SoundTrain, "Train", "train.mp3"),
		sound(SoundNight, "Night", "night.mp3"),
		sound(SoundWhiteNoise, "White Noise", "white-noise.mp3", NoiseBlocker),
		sound(SoundPinkNoise, "Pink Noise", "pink-noise.mp3", NoiseBlocker, Sleep),
		sound(SoundBrownNoise, "Brown Noise", "brown-noise.mp3", NoiseBlocker, Sleep),
		sound(SoundCosmicSounds, "Cosmic Sounds", "cosmic-sounds.mp3", Motivation),
		sound(SoundSpaceEngine, "Space Engine", "space-engine.mp3", Motivation),
	}
}

// FindSound resolves a sound by numeric id or by name, ignoring case and spaces.
func FindSound(sounds []Sound, query string) (Sound, bool) {
	query = strings.TrimSpace(query)
	if id, err := strconv.Atoi(query); err == nil {
		for _, s := range sounds {
			if s.ID == id {
				return s, true
			}
		}
		return Sound{}, false
	}
	key := compactName(query)
	if key == "" {
		return Sound{}, false
	}
	for _, s := range sounds {
		if compactName(s.Name) == key {
			return s, true
		}
	}
	return Sound{}, false
}

func compactName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
