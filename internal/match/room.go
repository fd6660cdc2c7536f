package match

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nocturne-games/battle-hub/internal/catalog"
	"github.com/nocturne-games/battle-hub/internal/protocol"
)

// State is a room's current phase.
type State string

const (
	StateWaiting  State = "waiting"
	StateBanning  State = "banning"
	StateIngame   State = "ingame"
	StateFinished State = "finished"
)

const rosterSize = 5

// Timing holds the phase-driver delays. The ban grace window is a
// defensive delay inherited from the production service; it has no stated
// purpose beyond that, so it stays configurable rather than implied logic.
type Timing struct {
	PollInterval time.Duration
	BanGrace     time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		PollInterval: 100 * time.Millisecond,
		BanGrace:     300 * time.Millisecond,
	}
}

func (t Timing) withDefaults() Timing {
	d := DefaultTiming()
	if t.PollInterval <= 0 {
		t.PollInterval = d.PollInterval
	}
	if t.BanGrace <= 0 {
		t.BanGrace = d.BanGrace
	}
	return t
}

// Roster is the 5 track/difficulty pairs generated once per room.
type Roster struct {
	TrackList []string
	DiffList  []int
}

// RoomDeps bundles what a room needs beyond its two players.
type RoomDeps struct {
	Catalog *catalog.Catalog
	Timing  Timing
	Rng     *rand.Rand // nil: time-seeded
	Log     *zap.Logger
}

// Room is a single match's state machine. It owns exactly two seats whose
// 0/1 index is stable for the room's lifetime. All mutators are synchronous
// and serialized by the room mutex; the only suspension points live in the
// phase-driver goroutine, which re-checks the disconnect flags at every
// wake-up.
//
// There is no phase timeout: a seat that never bans, readies, or finishes
// stalls its room until process exit. Known gap, inherited deliberately.
type Room struct {
	ID string

	mu      sync.Mutex
	players [2]*ServerPlayer
	state   State
	roster  Roster

	banned       [2]bool
	bannedIndex  [2]int
	ready        [2]bool
	disconnected [2]bool
	finished     [2]bool
	results      [2]*protocol.PlayResult
	judgeDetails [2][4]int

	timing Timing
	rng    *rand.Rand
	log    *zap.Logger

	destroyOnce sync.Once
	onDestroy   func()
}

// NewRoom builds the room and generates its roster but sends nothing; the
// pairing caller registers the room first, then calls Start. Keeping the
// outbound frames out of construction lets the manager release its lock
// before any socket write, so one slow peer cannot stall matchmaking.
func NewRoom(players [2]*ServerPlayer, deps RoomDeps, onDestroy func()) *Room {
	rng := deps.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := &Room{
		ID:          uuid.NewString(),
		players:     players,
		state:       StateWaiting,
		bannedIndex: [2]int{-1, -1},
		timing:      deps.Timing.withDefaults(),
		rng:         rng,
		onDestroy:   onDestroy,
	}
	r.log = log.With(zap.String("room_id", r.ID))

	r.roster = makeRoster(deps.Catalog, rng)

	r.log.Info("room created",
		zap.String("player0", players[0].Info.Username),
		zap.String("player1", players[1].Info.Username))

	return r
}

// makeRoster samples 5 distinct tracks and assigns difficulty tiers with a
// fixed skew: slots 0-1 are always hard (2), slots 2-4 are easy (1) with
// probability 0.2, 0.4 and 0.7 respectively.
func makeRoster(cat *catalog.Catalog, rng *rand.Rand) Roster {
	tracks := cat.Sample(rng, rosterSize)
	tier := func(pEasy float64) int {
		if rng.Float64() < pEasy {
			return 1
		}
		return 2
	}
	return Roster{
		TrackList: tracks,
		DiffList:  []int{2, 2, tier(0.2), tier(0.4), tier(0.7)},
	}
}

// Start confirms the match to both seats, sends each seat the opponent's
// public info, and launches the phase driver. It is a no-op once the room
// has left waiting: a disconnect that lands between pairing and Start has
// already resolved the room, and nothing should be announced for it.
func (r *Room) Start() {
	r.mu.Lock()
	if r.state != StateWaiting {
		r.mu.Unlock()
		return
	}
	r.state = StateBanning
	r.mu.Unlock()

	r.broadcast(protocol.OK(protocol.ActionMatchConfirm, protocol.MatchConfirmData{}))

	chartInfo := protocol.ChartInfo{
		TrackList:              r.roster.TrackList,
		DiffList:               r.roster.DiffList,
		ChartSpecialEffectList: make([]any, len(r.roster.TrackList)),
	}
	for i := range r.players {
		self, opp := r.players[i], r.players[1-i]
		self.SendMessage(protocol.OK(protocol.ActionMatchSuccess, protocol.MatchSuccessData{
			RoomID:               r.ID,
			ChartInfo:            chartInfo,
			OpponentID:           opp.ID,
			OpponentRating:       opp.Info.Rating,
			OpponentBattleRating: opp.Info.BattleRating,
			OpponentStyle:        opp.Info.Style,
			OpponentUsername:     opp.Info.Username,
			OpponentUsernameMask: opp.Info.UsernameMask,
			OpponentLevel:        opp.Level,
		}))
	}

	go r.run()
}

// run drives banning -> ingame -> finished. Each await aborts silently on
// disconnect; the forfeit path is handled by OnPlayerDisconnect.
func (r *Room) run() {
	if !r.await(func() bool { return r.banned[0] && r.banned[1] }) {
		return
	}
	time.Sleep(r.timing.BanGrace)
	r.announceFinalChart()

	if !r.await(func() bool { return r.ready[0] && r.ready[1] }) {
		return
	}

	r.mu.Lock()
	if r.state != StateBanning {
		r.mu.Unlock()
		return
	}
	r.state = StateIngame
	r.mu.Unlock()
	r.broadcast(protocol.OK(protocol.ActionAllPlayerReady, protocol.AllPlayerReadyData{}))

	if !r.await(func() bool { return r.finished[0] && r.finished[1] }) {
		return
	}
	r.finish()
}

// await polls the join condition at the configured cadence. The condition
// is checked before the disconnect flags, so a condition satisfied at the
// same wake-up as a disconnect still advances the phase.
func (r *Room) await(cond func() bool) bool {
	for {
		r.mu.Lock()
		done := cond()
		disconnected := r.disconnected[0] || r.disconnected[1]
		r.mu.Unlock()
		if done {
			return true
		}
		if disconnected {
			return false
		}
		time.Sleep(r.timing.PollInterval)
	}
}

// announceFinalChart draws the final track uniformly from the roster
// indices neither seat banned (overlapping bans leave four candidates) and
// publishes it with both raw ban indices.
func (r *Room) announceFinalChart() {
	r.mu.Lock()
	pool := make([]int, 0, rosterSize)
	for i := range r.roster.TrackList {
		if i != r.bannedIndex[0] && i != r.bannedIndex[1] {
			pool = append(pool, i)
		}
	}
	if len(pool) == 0 {
		// Degenerate roster smaller than the ban count; reopen everything.
		for i := range r.roster.TrackList {
			pool = append(pool, i)
		}
	}
	chosen := pool[r.rng.Intn(len(pool))]
	data := protocol.AnnoFinalChartData{
		BanChartIndex: r.bannedIndex,
		TrackID:       r.roster.TrackList[chosen],
		ChartDiff:     r.roster.DiffList[chosen],
	}
	r.mu.Unlock()

	r.broadcast(protocol.OK(protocol.ActionAnnoFinalChart, data))
}

// finish scores both seats and reports the outcome. Rating is reported
// unchanged; delta computation is deferred upstream.
func (r *Room) finish() {
	r.mu.Lock()
	if r.state != StateIngame {
		// A disconnect won the race and already resolved the room.
		r.mu.Unlock()
		return
	}
	r.state = StateFinished

	summaries := [2]protocol.ScoreSummary{
		summarizeResult(r.results[0]),
		summarizeResult(r.results[1]),
	}
	zeroWins := seatZeroWins(r.results[0], r.results[1])
	judges := r.judgeDetails
	r.mu.Unlock()

	wins := [2]bool{zeroWins, !zeroWins}
	for i := range r.players {
		self, opp := r.players[i], r.players[1-i]
		self.SendMessage(protocol.OK(protocol.ActionGameOver, protocol.GameOverData{
			IsWin:                wins[i],
			BeforeRating:         self.Info.BattleRating,
			RatingChanges:        0,
			AfterRating:          self.Info.BattleRating,
			OpponentRating:       opp.Info.BattleRating,
			OpponentScore:        summaries[1-i],
			OpponentJudgeDetails: judges[1-i],
		}))
	}

	r.log.Info("room finished", zap.Bool("seat0_win", zeroWins))
	r.destroy()
}

// seatZeroWins applies the result-comparison rule: with two submitted
// results the strictly higher score wins (a tie goes to seat 1); with one
// result the submitter wins; with none, seat 0 loses.
func seatZeroWins(res0, res1 *protocol.PlayResult) bool {
	if res0 != nil && res1 != nil {
		return res0.Score > res1.Score
	}
	return res0 != nil
}

func summarizeResult(res *protocol.PlayResult) protocol.ScoreSummary {
	if res == nil {
		return protocol.ScoreSummary{Grade: GradeForScore(0)}
	}
	return protocol.ScoreSummary{
		Score:         res.Score,
		DecryptedPlus: res.Stats.DecryptedPlus,
		Decrypted:     res.Stats.Decrypted,
		Received:      res.Stats.Received,
		Lost:          res.Stats.Lost,
		Grade:         GradeForScore(res.Score),
	}
}

// GetPlayerIndex returns the seat of a bound player, or -1.
func (r *Room) GetPlayerIndex(p *ServerPlayer) int {
	for i := range r.players {
		if r.players[i] == p {
			return i
		}
	}
	return -1
}

// seatByID resolves the first seat whose player id matches.
func (r *Room) seatByID(playerID string) int {
	for i := range r.players {
		if r.players[i].ID == playerID {
			return i
		}
	}
	return -1
}

func (r *Room) Players() [2]*ServerPlayer { return r.players }

func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// OnPlayerSetBan records a seat's roster veto. A later ban from the same
// seat simply overwrites the earlier one.
func (r *Room) OnPlayerSetBan(playerID string, chartIndex int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.seatByID(playerID)
	if i == -1 {
		return
	}
	r.banned[i] = true
	r.bannedIndex[i] = chartIndex
}

func (r *Room) OnPlayerReady(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.seatByID(playerID)
	if i == -1 {
		return
	}
	r.ready[i] = true
}

// OnPlayerUpdateScore records the seat's latest score report and relays it
// to the opposite seat.
func (r *Room) OnPlayerUpdateScore(playerID string, data protocol.ScoreUpdate) {
	r.mu.Lock()
	i := r.seatByID(playerID)
	if i == -1 {
		r.mu.Unlock()
		return
	}
	r.players[i].LastScore = &data
	opp := r.players[1-i]
	r.mu.Unlock()

	opp.SendMessage(protocol.OK(protocol.ActionOpponentScoreUpdate, data))
}

// OnPlayerDonePlaying records the seat's (optional) result payload and its
// judge-detail tuple.
func (r *Room) OnPlayerDonePlaying(playerID string, judgeDetails [4]int, result *protocol.PlayResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.seatByID(playerID)
	if i == -1 {
		return
	}
	r.results[i] = result
	r.judgeDetails[i] = judgeDetails
	r.finished[i] = true
}

// OnPlayerDisconnect marks the seat gone and, when the match is live and
// the other seat is still connected, awards it a forfeit win built from the
// leaver's last known score. Safe to invoke once per seat; the room is
// destroyed exactly once either way.
func (r *Room) OnPlayerDisconnect(playerID string) {
	r.mu.Lock()
	i := r.seatByID(playerID)
	if i == -1 {
		r.mu.Unlock()
		return
	}

	r.log.Info("player disconnected", zap.String("username", r.players[i].Info.Username))
	r.disconnected[i] = true

	if r.state == StateFinished {
		r.mu.Unlock()
		return
	}

	var winner *ServerPlayer
	var forfeit protocol.ServerMessage
	opp := 1 - i
	if !r.disconnected[opp] && (r.state == StateBanning || r.state == StateIngame) {
		remaining, leaver := r.players[opp], r.players[i]
		summary := protocol.ScoreSummary{Grade: "D"}
		if last := leaver.LastScore; last != nil {
			summary.Score = last.Score
			summary.Received = last.Received
			summary.Lost = last.Lost
		}
		winner = remaining
		forfeit = protocol.OK(protocol.ActionGameOver, protocol.GameOverData{
			IsWin:          true,
			BeforeRating:   remaining.Info.BattleRating,
			RatingChanges:  0,
			AfterRating:    remaining.Info.BattleRating,
			OpponentRating: leaver.Info.BattleRating,
			OpponentScore:  summary,
		})
	}
	r.state = StateFinished
	r.mu.Unlock()

	if winner != nil {
		winner.SendMessage(forfeit)
	}
	r.destroy()
}

func (r *Room) destroy() {
	r.destroyOnce.Do(func() {
		if r.onDestroy != nil {
			r.onDestroy()
		}
	})
}

func (r *Room) broadcast(msg protocol.ServerMessage) {
	for _, p := range r.players {
		p.SendMessage(msg)
	}
}
