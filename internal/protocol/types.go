// Package protocol defines the JSON wire schema spoken between the hub and
// the upstream game servers, in both directions. It carries no behavior
// beyond decoding the inbound action union.
package protocol

// Style is the cosmetic descriptor attached to a player profile. Opaque to
// the hub; echoed to the opponent on match start.
type Style struct {
	Skin  string `json:"skin"`
	Bg    string `json:"bg"`
	Title string `json:"title"`
}

// PlayerInfo is the externally supplied player profile. Immutable for the
// duration of a match.
type PlayerInfo struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	UsernameMask string  `json:"usernameMask"`
	Level        int     `json:"level"`
	Rating       float64 `json:"rating"`
	BattleRating float64 `json:"battleRating"`
	Style        Style   `json:"style"`
}

// ScoreUpdate is a live mid-play score report. The same shape is relayed
// verbatim to the opponent as an opponentScoreUpdate.
type ScoreUpdate struct {
	Score     int  `json:"score"`
	TotalNote int  `json:"totalNote"`
	Near      int  `json:"near"`
	Received  int  `json:"received"`
	Lost      int  `json:"lost"`
	HasMiss   bool `json:"hasMiss"`
}

func (ScoreUpdate) isAction() {}

// PlayStats holds the per-judgement counters of a finished play.
type PlayStats struct {
	DecryptedPlus int `json:"decrypted_plus"`
	Decrypted     int `json:"decrypted"`
	Received      int `json:"received"`
	Lost          int `json:"lost"`
}

// PlayResult is the full result payload a game server attaches to a
// donePlaying envelope.
type PlayResult struct {
	Score    int       `json:"score"`
	Grade    int       `json:"grade"`
	Combo    int       `json:"combo"`
	MaxCombo int       `json:"maxCombo"`
	Stats    PlayStats `json:"stats"`
}
