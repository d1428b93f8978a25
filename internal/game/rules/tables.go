package rules

import (
	"fmt"
	"strings"
)

const (
	// MinLevel and MaxLevel bound character level for every table in this file.
	MinLevel = 1
	MaxLevel = 20

	// DeathSaveThreshold is the minimum natural roll that counts as a death-save success.
	DeathSaveThreshold = 10
	// DeathSaveLimit is the number of successes that stabilize or failures that kill.
	DeathSaveLimit = 3

	// RoundsPerMinute converts minute durations to rounds (one round is six seconds).
	RoundsPerMinute = 10
	// RoundsPerHour converts hour durations to rounds.
	RoundsPerHour = 600
)

// Difficulty is an encounter difficulty band.
type Difficulty int

const (
	DifficultyEasy Difficulty = iota
	DifficultyMedium
	DifficultyHard
	DifficultyDeadly
)

// String returns the lower-case band name.
func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyMedium:
		return "medium"
	case DifficultyHard:
		return "hard"
	case DifficultyDeadly:
		return "deadly"
	default:
		return "unknown"
	}
}

// xpForLevel[i] is the experience needed to reach level i+1.
var xpForLevel = [MaxLevel]int{
	0, 300, 900, 2700, 6500, 14000, 23000, 34000, 48000, 64000,
	85000, 100000, 120000, 140000, 165000, 195000, 225000, 265000, 305000, 355000,
}

// xpThresholds[i] holds the per-character easy/medium/hard/deadly thresholds at level i+1.
var xpThresholds = [MaxLevel][4]int{
	{25, 50, 75, 100},
	{50, 100, 150, 200},
	{75, 150, 225, 400},
	{125, 250, 375, 500},
	{250, 500, 750, 1100},
	{300, 600, 900, 1400},
	{350, 750, 1100, 1700},
	{450, 900, 1400, 2100},
	{550, 1100, 1600, 2400},
	{600, 1200, 1900, 2800},
	{800, 1600, 2400, 3600},
	{1000, 2000, 3000, 4500},
	{1100, 2200, 3400, 5100},
	{1250, 2500, 3800, 5700},
	{1400, 2800, 4300, 6400},
	{1600, 3200, 4800, 7200},
	{2000, 3900, 5900, 8800},
	{2100, 4200, 6300, 9500},
	{2400, 4900, 7300, 10900},
	{2800, 5700, 8500, 12700},
}

var hitDieByClass = map[string]int{
	"barbarian": 12,
	"fighter":   10,
	"paladin":   10,
	"ranger":    10,
	"bard":      8,
	"cleric":    8,
	"druid":     8,
	"monk":      8,
	"rogue":     8,
	"warlock":   8,
	"sorcerer":  6,
	"wizard":    6,
}

// ProficiencyBonus returns the proficiency bonus for level: 2 + (level-1)/4.
//
// Precondition: MinLevel <= level <= MaxLevel.
// Postcondition: Returns a value in [2, 6].
func ProficiencyBonus(level int) int {
	level = clampLevel(level)
	return 2 + (level-1)/4
}

// AbilityMod computes floor((score - 10) / 2).
func AbilityMod(score int) int {
	diff := score - 10
	if diff < 0 {
		return (diff - 1) / 2
	}
	return diff / 2
}

// HitDie returns the hit die size for class (case-insensitive).
//
// Postcondition: Returns (sides, true) for a known class, (0, false) otherwise.
func HitDie(class string) (int, bool) {
	d, ok := hitDieByClass[strings.ToLower(class)]
	return d, ok
}

// XPForLevel returns the total experience required to reach level.
//
// Precondition: MinLevel <= level <= MaxLevel.
func XPForLevel(level int) (int, error) {
	if level < MinLevel || level > MaxLevel {
		return 0, Errorf(ErrValidation, "level must be in %d..%d, got %d", MinLevel, MaxLevel, level)
	}
	return xpForLevel[level-1], nil
}

// LevelForXP returns the highest level whose experience requirement is <= xp.
//
// Postcondition: Returns a level in [MinLevel, MaxLevel].
func LevelForXP(xp int) int {
	level := MinLevel
	for i, need := range xpForLevel {
		if xp >= need {
			level = i + 1
		}
	}
	return level
}

// XPThreshold returns the per-character XP threshold for level and difficulty.
func XPThreshold(level int, d Difficulty) (int, error) {
	if level < MinLevel || level > MaxLevel {
		return 0, Errorf(ErrValidation, "level must be in %d..%d, got %d", MinLevel, MaxLevel, level)
	}
	if d < DifficultyEasy || d > DifficultyDeadly {
		return 0, Errorf(ErrValidation, "unknown difficulty %d", int(d))
	}
	return xpThresholds[level-1][d], nil
}

// PartyThreshold sums the XP thresholds of every party member for difficulty d.
func PartyThreshold(levels []int, d Difficulty) (int, error) {
	total := 0
	for i, lvl := range levels {
		t, err := XPThreshold(lvl, d)
		if err != nil {
			return 0, fmt.Errorf("party member %d: %w", i, err)
		}
		total += t
	}
	return total, nil
}

// IsMassiveDamage reports whether damage (after temporary HP) kills outright:
// the damage left over after reducing hpBefore to 0 meets or exceeds maxHP.
// Equivalently damage >= hpBefore + maxHP.
//
// Precondition: damage >= 0; hpBefore >= 0; maxHP >= 1.
func IsMassiveDamage(damage, hpBefore, maxHP int) bool {
	if damage <= 0 {
		return false
	}
	return damage-hpBefore >= maxHP
}

func clampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}
