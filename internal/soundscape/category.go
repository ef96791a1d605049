package soundscape

import (
	"strconv"
	"strings"
)

// Category is a named preset of sounds meant to be played together.
type Category string

const (
	Productivity      Category = "Productivity"
	Relax             Category = "Relax"
	NoiseBlocker      Category = "NoiseBlocker"
	CreativeThinking  Category = "CreativeThinking"
	BeautifulAmbients Category = "BeautifulAmbients"
	Random            Category = "Random"
	Motivation        Category = "Motivation"
	Sleep             Category = "Sleep"
	Studying          Category = "Studying"
	Writing           Category = "Writing"
)

// CategoryInfo is the display metadata of a category.
type CategoryInfo struct {
	ID          int
	Name        Category
	Title       string
	Description string
}

// Categories lists every category in display order.
var Categories = []CategoryInfo{
	{ID: 1, Name: Productivity, Title: "Focus & Productivity", Description: "Coffee shop ambiance with rain - optimal 70dB for deep work."},
	{ID: 2, Name: Relax, Title: "Relaxation", Description: "Ocean waves and campfire for stress relief."},
	{ID: 3, Name: NoiseBlocker, Title: "Noise Blocker", Description: "Layered noise colors to mask distractions."},
	{ID: 7, Name: CreativeThinking, Title: "Creative Flow", Description: "Nature sounds to inspire creative thinking."},
	{ID: 9, Name: BeautifulAmbients, Title: "Mindfulness", Description: "Gentle flowing water and forest for meditation."},
	{ID: 10, Name: Random, Title: "Random Mix", Description: "Discover new soundscapes with a random blend."},
	{ID: 11, Name: Motivation, Title: "Motivation", Description: "Epic cosmic sounds for energy and drive."},
	{ID: 12, Name: Sleep, Title: "Sleep", Description: "Brown and pink noise for deeper, more restful sleep."},
	{ID: 13, Name: Studying, Title: "Studying", Description: "Library-like focus with rain and gentle ambiance."},
	{ID: 14, Name: Writing, Title: "Writing", Description: "Cozy rain on tent with wind for creative writing."},
}

// CategorySounds maps every category to the sound ids it plays.
// Random is empty and resolved by Store.PlayRandom.
var CategorySounds = map[Category][]int{
	Random:            {},
	Productivity:      {SoundCoffeeShop, SoundRain},
	Relax:             {SoundOceanWaves, SoundCampfire},
	NoiseBlocker:      {SoundBrownNoise, SoundPinkNoise, SoundWhiteNoise},
	CreativeThinking:  {SoundForest, SoundRain, SoundWind},
	BeautifulAmbients: {SoundWaterStream, SoundForest},
	Motivation:        {SoundCosmicSounds, SoundSpaceEngine},
	Sleep:             {SoundBrownNoise, SoundPinkNoise, SoundRain},
	Studying:          {SoundCoffeeShop, SoundRain, SoundLeaves},
	Writing:           {SoundRainOnTent, SoundWind, SoundCampfire},
}

// ParseCategory resolves a category by name, title or numeric id, ignoring case.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	if id, err := strconv.Atoi(s); err == nil {
		for _, info := range Categories {
			if info.ID == id {
				return info.Name, true
			}
		}
		return "", false
	}
	key := compactName(s)
	for _, info := range Categories {
		if compactName(string(info.Name)) == key || compactName(info.Title) == key {
			return info.Name, true
		}
	}
	return "", false
}

// Info returns the display metadata for c.
func (c Category) Info() (CategoryInfo, bool) {
	for _, info := range Categories {
		if info.Name == c {
			return info, true
		}
	}
	return CategoryInfo{}, false
}
