package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInboundActions(t *testing.T) {
	cases := []struct {
		name   string
		action string
		data   string
		want   Action
	}{
		{"heartbeat", ActionHeartbeat, `{}`, Heartbeat{}},
		{
			"startMatch", ActionStartMatch,
			`{"isHiddenInfo":true,"isHiddenRating":false,"playerLevel":42}`,
			StartMatch{IsHiddenInfo: true, PlayerLevel: 42},
		},
		{"cancelGame", ActionCancelGame, `{}`, CancelGame{}},
		{"banChart", ActionBanChart, `{"chartIndex":3}`, BanChart{ChartIndex: 3}},
		{"playerReady", ActionPlayerReady, `{}`, PlayerReady{}},
		{
			"updateScore", ActionUpdateScore,
			`{"score":812345,"totalNote":1200,"near":14,"received":3,"lost":2,"hasMiss":true}`,
			ScoreUpdate{Score: 812345, TotalNote: 1200, Near: 14, Received: 3, Lost: 2, HasMiss: true},
		},
		{
			"donePlaying", ActionDonePlaying,
			`{"resultId":"res-9","judgeDetails":[500,23,4,1]}`,
			DonePlaying{ResultID: "res-9", JudgeDetails: [4]int{500, 23, 4, 1}},
		},
		{"gameIsOver", ActionGameIsOver, `{}`, GameIsOver{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := Envelope{Linker: true, PlayerID: "p1", Action: tc.action, Data: json.RawMessage(tc.data)}
			got, err := env.Decode()
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeUnknownActionIsNoOp(t *testing.T) {
	env := Envelope{Action: "frobnicate"}
	got, err := env.Decode()
	require.NoError(t, err)
	assert.Equal(t, UnknownAction{Action: "frobnicate"}, got)
}

func TestDecodeMalformedData(t *testing.T) {
	env := Envelope{Action: ActionBanChart, Data: json.RawMessage(`{"chartIndex":"three"}`)}
	_, err := env.Decode()
	assert.Error(t, err)

	env = Envelope{Action: ActionUpdateScore}
	_, err = env.Decode()
	assert.Error(t, err, "missing data for a payload-bearing action")
}

func TestEnvelopeCarriesPlayerInfoAndResult(t *testing.T) {
	raw := `{
		"linker": true,
		"playerId": "p1",
		"action": "donePlaying",
		"data": {"resultId": "r", "judgeDetails": [1,2,3,4]},
		"playerInfo": {
			"id": "p1", "username": "anri", "usernameMask": "a***",
			"level": 33, "rating": 14.25, "battleRating": 1620,
			"style": {"skin": "neon", "bg": "grid", "title": "breaker"}
		},
		"playResult": {
			"score": 995000, "grade": 4, "combo": 812, "maxCombo": 812,
			"stats": {"decrypted_plus": 700, "decrypted": 100, "received": 10, "lost": 2}
		},
		"timestamp": 1700000123,
		"nonce": "abc"
	}`

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(raw), &env))

	require.NotNil(t, env.PlayerInfo)
	assert.Equal(t, "anri", env.PlayerInfo.Username)
	assert.Equal(t, 14.25, env.PlayerInfo.Rating)
	assert.Equal(t, "neon", env.PlayerInfo.Style.Skin)

	require.NotNil(t, env.PlayResult)
	assert.Equal(t, 995000, env.PlayResult.Score)
	assert.Equal(t, 700, env.PlayResult.Stats.DecryptedPlus)
	assert.Equal(t, int64(1700000123), env.Timestamp)
}

// typedMessage re-reads a marshalled ServerMessage with its payload bound
// to a concrete type, proving the outbound shapes survive the wire.
type typedMessage[T any] struct {
	Status string `json:"status"`
	Action string `json:"action"`
	Data   T      `json:"data"`
}

func roundTrip[T any](t *testing.T, msg ServerMessage) typedMessage[T] {
	t.Helper()
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	var out typedMessage[T]
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, msg.Status, out.Status)
	assert.Equal(t, msg.Action, out.Action)
	return out
}

func TestMatchSuccessRoundTrip(t *testing.T) {
	data := MatchSuccessData{
		RoomID: "room-1",
		ChartInfo: ChartInfo{
			TrackList:              []string{"a", "b", "c", "d", "e"},
			DiffList:               []int{2, 2, 1, 2, 1},
			ChartSpecialEffectList: make([]any, 5),
		},
		OpponentID:           "p2",
		OpponentRating:       13.75,
		OpponentBattleRating: 1499.5,
		OpponentStyle:        Style{Skin: "neon", Bg: "grid", Title: "breaker"},
		OpponentUsername:     "rin",
		OpponentUsernameMask: "r**",
		OpponentLevel:        27,
	}
	out := roundTrip[MatchSuccessData](t, OK(ActionMatchSuccess, data))
	assert.Equal(t, data, out.Data)
}

func TestAnnoFinalChartRoundTrip(t *testing.T) {
	data := AnnoFinalChartData{
		BanChartIndex: [2]int{1, 3},
		TrackID:       "cyaegha",
		ChartDiff:     2,
	}
	out := roundTrip[AnnoFinalChartData](t, OK(ActionAnnoFinalChart, data))
	assert.Equal(t, data, out.Data)
}

func TestGameOverRoundTrip(t *testing.T) {
	data := GameOverData{
		IsWin:          true,
		BeforeRating:   1500,
		RatingChanges:  0,
		AfterRating:    1500,
		OpponentRating: 1480,
		OpponentScore: ScoreSummary{
			Score: 920000, DecryptedPlus: 350, Decrypted: 130,
			Received: 30, Lost: 14, Grade: "A",
		},
		OpponentJudgeDetails: [4]int{480, 30, 8, 6},
	}
	out := roundTrip[GameOverData](t, OK(ActionGameOver, data))
	assert.Equal(t, data, out.Data)
}

func TestOpponentScoreUpdateRoundTrip(t *testing.T) {
	data := ScoreUpdate{Score: 450000, TotalNote: 600, Near: 9, Received: 3, Lost: 1, HasMiss: true}
	out := roundTrip[ScoreUpdate](t, OK(ActionOpponentScoreUpdate, data))
	assert.Equal(t, data, out.Data)
}

func TestEmptyPayloadsRoundTrip(t *testing.T) {
	roundTrip[MatchConfirmData](t, OK(ActionMatchConfirm, MatchConfirmData{}))
	roundTrip[AllPlayerReadyData](t, OK(ActionAllPlayerReady, AllPlayerReadyData{}))
}

func TestLinkerMessageEnvelope(t *testing.T) {
	lm := LinkerMessage{
		Linker:         true,
		TargetPlayerID: "p2",
		Message:        OK(ActionMatchConfirm, MatchConfirmData{}),
	}
	raw, err := json.Marshal(lm)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, true, decoded["linker"])
	assert.Equal(t, "p2", decoded["targetPlayerId"])
	msg := decoded["message"].(map[string]any)
	assert.Equal(t, "ok", msg["status"])
	assert.Equal(t, "matchConfirm", msg["action"])
}
