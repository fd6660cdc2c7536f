package protocol

// Outbound action tags.
const (
	ActionMatchConfirm        = "matchConfirm"
	ActionMatchSuccess        = "matchSuccess"
	ActionAnnoFinalChart      = "annoFinalChart"
	ActionAllPlayerReady      = "allPlayerReady"
	ActionOpponentScoreUpdate = "opponentScoreUpdate"
	ActionGameOver            = "gameOver"
)

const (
	StatusOK   = "ok"
	StatusFail = "fail"
)

// ServerMessage is one hub-to-player message before enveloping.
type ServerMessage struct {
	Status string `json:"status"`
	Action string `json:"action"`
	Data   any    `json:"data"`
}

// LinkerMessage is the frame actually written to a game-server connection,
// addressing a ServerMessage to one player on that server.
type LinkerMessage struct {
	Linker         bool          `json:"linker"`
	TargetPlayerID string        `json:"targetPlayerId"`
	Message        ServerMessage `json:"message"`
}

// Notice is a soft boundary-level error sent back on the connection itself,
// outside the ok/fail envelope scheme.
type Notice struct {
	Linker         bool   `json:"linker"`
	TargetPlayerID string `json:"targetPlayerId"`
	Notice         string `json:"notice"`
}

// Identify is the handshake the hub sends right after dialing a game server.
type Identify struct {
	Linker bool   `json:"linker"`
	Action string `json:"action"`
	Token  string `json:"token"`
}

type MatchConfirmData struct{}

// ChartInfo is a room's roster as shipped on matchSuccess. The special
// effect list is always all-nil today but kept in the shape for clients.
type ChartInfo struct {
	TrackList              []string `json:"trackList"`
	DiffList               []int    `json:"diffList"`
	ChartSpecialEffectList []any    `json:"chartSpecialEffectList"`
}

type MatchSuccessData struct {
	RoomID    string    `json:"roomId"`
	ChartInfo ChartInfo `json:"chartInfo"`

	OpponentID           string  `json:"opponentId"`
	OpponentRating       float64 `json:"opponentRating"`
	OpponentBattleRating float64 `json:"opponentBattleRating"`
	OpponentStyle        Style   `json:"opponentStyle"`
	OpponentUsername     string  `json:"opponentUsername"`
	OpponentUsernameMask string  `json:"opponentUsernameMask"`
	OpponentLevel        int     `json:"opponentLevel"`
}

type AnnoFinalChartData struct {
	BanChartIndex      [2]int `json:"banChartIndex"`
	TrackID            string `json:"trackId"`
	ChartDiff          int    `json:"chartDiff"`
	ChartSpecialEffect any    `json:"chartSpecialEffect"`
}

type AllPlayerReadyData struct{}

// ScoreSummary is the per-seat result digest carried on gameOver.
type ScoreSummary struct {
	Score         int    `json:"score"`
	DecryptedPlus int    `json:"decryptedPlus"`
	Decrypted     int    `json:"decrypted"`
	Received      int    `json:"received"`
	Lost          int    `json:"lost"`
	Grade         string `json:"grade"`
}

type GameOverData struct {
	IsWin         bool    `json:"isWin"`
	BeforeRating  float64 `json:"beforeRating"`
	RatingChanges float64 `json:"ratingChanges"`
	AfterRating   float64 `json:"afterRating"`

	OpponentRating       float64      `json:"opponentRating"`
	OpponentScore        ScoreSummary `json:"opponentScore"`
	OpponentJudgeDetails [4]int       `json:"opponentJudgeDetails"`
}

// OK wraps a payload in a status-ok server message.
func OK(action string, data any) ServerMessage {
	return ServerMessage{Status: StatusOK, Action: action, Data: data}
}
