package protocol

import (
	"encoding/json"
	"fmt"
)

// Inbound action tags.
const (
	ActionHeartbeat   = "heartbeat"
	ActionStartMatch  = "startMatch"
	ActionCancelGame  = "cancelGame"
	ActionBanChart    = "banChart"
	ActionPlayerReady = "playerReady"
	ActionUpdateScore = "updateScore"
	ActionDonePlaying = "donePlaying"
	ActionGameIsOver  = "gameIsOver"
)

// Envelope is the hub-addressed frame a game server forwards on behalf of
// one of its players. Data is decoded lazily per action tag.
type Envelope struct {
	Linker     bool            `json:"linker"`
	PlayerID   string          `json:"playerId"`
	Action     string          `json:"action"`
	Data       json.RawMessage `json:"data"`
	PlayerInfo *PlayerInfo     `json:"playerInfo,omitempty"`
	PlayResult *PlayResult     `json:"playResult,omitempty"`
	Timestamp  int64           `json:"timestamp"`
	Nonce      string          `json:"nonce,omitempty"`
}

// Action is the decoded inbound payload union.
type Action interface{ isAction() }

type Heartbeat struct{}

func (Heartbeat) isAction() {}

type StartMatch struct {
	IsHiddenInfo   bool `json:"isHiddenInfo"`
	IsHiddenRating bool `json:"isHiddenRating"`
	PlayerLevel    int  `json:"playerLevel"`
}

func (StartMatch) isAction() {}

type CancelGame struct{}

func (CancelGame) isAction() {}

type BanChart struct {
	ChartIndex int `json:"chartIndex"`
}

func (BanChart) isAction() {}

type PlayerReady struct{}

func (PlayerReady) isAction() {}

type DonePlaying struct {
	ResultID     string `json:"resultId"`
	JudgeDetails [4]int `json:"judgeDetails"`
}

func (DonePlaying) isAction() {}

type GameIsOver struct{}

func (GameIsOver) isAction() {}

// UnknownAction marks a tag the hub does not recognize. Defined no-op for
// callers; never an error.
type UnknownAction struct {
	Action string
}

func (UnknownAction) isAction() {}

// Decode resolves the envelope's action tag into its typed payload.
func (e Envelope) Decode() (Action, error) {
	switch e.Action {
	case ActionHeartbeat:
		return Heartbeat{}, nil
	case ActionStartMatch:
		var a StartMatch
		return a, e.decodeData(&a)
	case ActionCancelGame:
		return CancelGame{}, nil
	case ActionBanChart:
		var a BanChart
		return a, e.decodeData(&a)
	case ActionPlayerReady:
		return PlayerReady{}, nil
	case ActionUpdateScore:
		var a ScoreUpdate
		return a, e.decodeData(&a)
	case ActionDonePlaying:
		var a DonePlaying
		return a, e.decodeData(&a)
	case ActionGameIsOver:
		return GameIsOver{}, nil
	default:
		return UnknownAction{Action: e.Action}, nil
	}
}

func (e Envelope) decodeData(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("action %q: missing data", e.Action)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("action %q: %w", e.Action, err)
	}
	return nil
}
