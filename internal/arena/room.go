// Package arena implements GameRoom, the per-match round state machine:
// Starting -> Countdown -> Guessing -> (round close) -> IndividualGuess or
// Countdown, looping until a player crosses the point threshold, with
// Paused/Abandoned/TimedOut side states for disconnection and duration caps.
package arena

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"wordarena/internal/logging"
	"wordarena/internal/protocol"
	"wordarena/internal/scoring"
	"wordarena/internal/stats"
	"wordarena/internal/words"
)

var (
	ErrRoomTerminal   = errors.New("arena: room has already ended")
	ErrNotYourTurn    = errors.New("arena: not your turn")
	ErrWrongPhase     = errors.New("arena: guesses are not accepted in this phase")
	ErrBadWord        = errors.New("arena: word fails validation")
	ErrAlreadyGuessed = errors.New("arena: word already guessed this episode")
	ErrUnknownPlayer  = errors.New("arena: user is not a player in this room")
)

var alphabeticPattern = regexp.MustCompile(`^[A-Za-z]+$`)

// Notifier delivers arena-originated events to a single user, matching the
// server message tag and payload shape of internal/protocol.
type Notifier interface {
	NotifyUser(userID, variant string, payload interface{})
}

// Config mirrors internal/config's GameConfig.
type Config struct {
	PointThreshold            int
	WordLengths               []int
	RoundCountdownSeconds     int
	GuessingDeadlineSeconds   int
	IndividualDeadlineSeconds int
	PauseTimeoutSeconds       int
	MaxGameDurationSeconds    int
}

type pendingGuess struct {
	word      string
	timestamp time.Time
}

type timerKind int

const (
	timerCountdown timerKind = iota
	timerGuessing
	timerIndividual
	timerPause
	timerMaxDuration
)

type timerFired struct {
	gen  int
	kind timerKind
}

type commandKind int

const (
	cmdSubmitGuess commandKind = iota
	cmdPlayerDisconnected
	cmdPlayerReconnected
	cmdLeaveGame
	cmdSkipIndividual
)

type command struct {
	kind   commandKind
	userID string
	word   string
	resp   chan error
}

// Room is one active match's actor.
type Room struct {
	id       string
	cfg      Config
	notifier Notifier
	provider words.Provider
	stats    stats.Repository
	onEnd    func(gameID string)
	logger   *logging.Logger

	cmds   chan command
	timers chan timerFired
	ctx    context.Context

	// mu guards state against concurrent reads from State(), called by
	// HTTP handlers outside the actor goroutine. The actor itself holds
	// it only around each command/timer's processing, never across a
	// blocking wait, so it never contends with r.send's channel round trip.
	mu sync.RWMutex

	state  GameState
	ledger *scoring.Ledger

	pending map[string]pendingGuess

	timerGen         int
	activeTimer      *time.Timer
	phaseDeadline    time.Time
	remainingOnPause time.Duration
	pausedFromPhase  Phase

	crossedThresholdAt map[string]time.Time
}

// New constructs a Room for the given roster. players must already be
// authenticated, connected users; word length is chosen uniformly from
// cfg.WordLengths.
func New(id string, playerIDs []string, displayNames map[string]string, cfg Config, provider words.Provider, notifier Notifier, statsRepo stats.Repository, onEnd func(string)) (*Room, error) {
	if len(cfg.WordLengths) == 0 {
		return nil, fmt.Errorf("arena: no configured word lengths")
	}
	length := cfg.WordLengths[rand.Intn(len(cfg.WordLengths))]
	target, ok := provider.PickWord(length)
	if !ok {
		return nil, fmt.Errorf("arena: no word available for length %d", length)
	}

	players := make([]Player, len(playerIDs))
	for i, uid := range playerIDs {
		players[i] = Player{UserID: uid, DisplayName: displayNames[uid], IsConnected: true}
	}

	threshold := cfg.PointThreshold
	if threshold <= 0 {
		threshold = 25
	}

	r := &Room{
		id:       id,
		cfg:      cfg,
		notifier: notifier,
		provider: provider,
		stats:    statsRepo,
		onEnd:    onEnd,
		cmds:     make(chan command),
		timers:   make(chan timerFired),
		ledger:   scoring.NewLedger(),
		pending:  make(map[string]pendingGuess),
		crossedThresholdAt: make(map[string]time.Time),
		state: GameState{
			ID:                  id,
			targetWord:          target,
			WordLength:          length,
			CurrentRound:        0,
			CurrentEpisode:      1,
			Status:              StatusStarting,
			CurrentPhase:        PhaseWaiting,
			Players:             players,
			OfficialBoard:       nil,
			EpisodeHistory:      nil,
			WordsAlreadyGuessed: make(map[string]bool),
			PointThreshold:      threshold,
			CreatedAt:           time.Now(),
		},
	}
	return r, nil
}

// Run is the room's actor loop; it exits when ctx is canceled. Once the room
// reaches a terminal status it keeps answering commands, each with
// ErrRoomTerminal, and ignores further timers.
func (r *Room) Run(ctx context.Context) {
	r.ctx = ctx
	r.mu.Lock()
	r.broadcastState()
	r.enterCountdown()
	r.mu.Unlock()
	r.startMaxDurationTimer()

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-r.cmds:
			r.mu.Lock()
			err := r.handle(cmd)
			r.mu.Unlock()
			if cmd.resp != nil {
				cmd.resp <- err
			}
		case tf := <-r.timers:
			if tf.gen != r.timerGen && tf.kind != timerMaxDuration {
				continue // stale timer from a phase we already left
			}
			r.mu.Lock()
			if !r.isTerminal() {
				r.handleTimer(tf.kind)
			}
			r.mu.Unlock()
		}
	}
}

func (r *Room) isTerminal() bool {
	switch r.state.Status {
	case StatusCompleted, StatusAbandoned, StatusTimedOut:
		return true
	default:
		return false
	}
}

func (r *Room) send(cmd command) error {
	cmd.resp = make(chan error, 1)
	r.cmds <- cmd
	return <-cmd.resp
}

// SubmitGuess is how the Coordinator delivers an inbound SubmitGuess.
func (r *Room) SubmitGuess(userID, word string) error {
	return r.send(command{kind: cmdSubmitGuess, userID: userID, word: word})
}

// PlayerDisconnected marks a player offline, e.g. on socket close or
// heartbeat timeout.
func (r *Room) PlayerDisconnected(userID string) error {
	return r.send(command{kind: cmdPlayerDisconnected, userID: userID})
}

// PlayerReconnected restores a player's connected flag after RejoinGame.
func (r *Room) PlayerReconnected(userID string) error {
	return r.send(command{kind: cmdPlayerReconnected, userID: userID})
}

// LeaveGame forfeits the room for userID, equivalent to a permanent
// disconnect for scoring purposes.
func (r *Room) LeaveGame(userID string) error {
	return r.send(command{kind: cmdLeaveGame, userID: userID})
}

// SkipIndividual lets the current winner pass on their solo attempt.
func (r *Room) SkipIndividual(userID string) error {
	return r.send(command{kind: cmdSkipIndividual, userID: userID})
}

// SetLogger attaches structured logging for this room's transitions.
// Optional: a nil logger (the default) disables it.
func (r *Room) SetLogger(l *logging.Logger) {
	r.logger = l
}

func (r *Room) logEvent(eventType string) {
	r.logEventFor(eventType, "")
}

func (r *Room) logEventFor(eventType, userID string) {
	if r.logger == nil {
		return
	}
	r.logger.LogArenaEvent(context.Background(), logging.ArenaEventFields{
		EventType: eventType,
		GameID:    r.id,
		UserID:    userID,
		Phase:     string(r.state.CurrentPhase),
		Round:     r.state.CurrentRound,
	})
}

// State returns a snapshot safe to read outside the actor (e.g. for the
// reconnection HTTP endpoint); the caller must not mutate it.
func (r *Room) State() SafeGameState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.Safe()
}

func (r *Room) playerIndex(userID string) int {
	for i, p := range r.state.Players {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

func (r *Room) handle(cmd command) error {
	if r.isTerminal() {
		return ErrRoomTerminal
	}
	switch cmd.kind {
	case cmdSubmitGuess:
		return r.submitGuess(cmd.userID, cmd.word)
	case cmdPlayerDisconnected:
		return r.playerDisconnected(cmd.userID)
	case cmdPlayerReconnected:
		return r.playerReconnected(cmd.userID)
	case cmdLeaveGame:
		return r.leaveGame(cmd.userID)
	case cmdSkipIndividual:
		return r.skipIndividual(cmd.userID)
	}
	return nil
}

func (r *Room) handleTimer(kind timerKind) {
	switch kind {
	case timerCountdown:
		r.enterGuessing()
	case timerGuessing:
		r.closeRound()
	case timerIndividual:
		r.endIndividualGuess(false)
	case timerPause:
		r.state.Status = StatusAbandoned
		r.logEvent("abandoned")
		r.finish()
	case timerMaxDuration:
		r.state.Status = StatusTimedOut
		r.logEvent("timed_out")
		r.finish()
	}
}

// ---- validation ----

func (r *Room) validateWord(word string) error {
	word = strings.ToUpper(strings.TrimSpace(word))
	if len(word) != r.state.WordLength {
		return ErrBadWord
	}
	if !alphabeticPattern.MatchString(word) {
		return ErrBadWord
	}
	if !r.provider.IsValid(word) {
		return ErrBadWord
	}
	if r.state.WordsAlreadyGuessed[word] {
		return ErrAlreadyGuessed
	}
	return nil
}

// ---- phase transitions ----

func (r *Room) newTimer(kind timerKind, d time.Duration) {
	if r.activeTimer != nil {
		r.activeTimer.Stop()
	}
	r.timerGen++
	gen := r.timerGen
	r.phaseDeadline = time.Now().Add(d)
	ctx := r.ctx
	r.activeTimer = time.AfterFunc(d, func() {
		select {
		case r.timers <- timerFired{gen: gen, kind: kind}:
		case <-ctx.Done():
		}
	})
}

func (r *Room) cancelTimer() {
	if r.activeTimer != nil {
		r.activeTimer.Stop()
		r.activeTimer = nil
	}
	r.timerGen++
}

func (r *Room) startMaxDurationTimer() {
	d := time.Duration(r.cfg.MaxGameDurationSeconds) * time.Second
	if d <= 0 {
		return
	}
	gen := r.timerGen
	ctx := r.ctx
	time.AfterFunc(d, func() {
		select {
		case r.timers <- timerFired{gen: gen, kind: timerMaxDuration}:
		case <-ctx.Done():
		}
	})
}

func (r *Room) enterCountdown() {
	r.state.Status = StatusActive
	r.state.CurrentPhase = PhaseCountdown
	r.state.CurrentWinner = nil
	r.pending = make(map[string]pendingGuess)
	seconds := r.cfg.RoundCountdownSeconds
	if seconds <= 0 {
		seconds = 5
	}
	for _, p := range r.state.Players {
		r.notifier.NotifyUser(p.UserID, "CountdownStart", protocol.CountdownStart{Seconds: seconds})
	}
	r.logEvent("countdown_started")
	r.newTimer(timerCountdown, time.Duration(seconds)*time.Second)
}

func (r *Room) enterGuessing() {
	r.state.CurrentRound++
	r.state.CurrentPhase = PhaseGuessing
	r.pending = make(map[string]pendingGuess)
	seconds := r.cfg.GuessingDeadlineSeconds
	if seconds <= 0 {
		seconds = 45
	}
	r.logEvent("guessing_started")
	r.newTimer(timerGuessing, time.Duration(seconds)*time.Second)
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.state.Players {
		if p.IsConnected {
			n++
		}
	}
	return n
}

func (r *Room) submitGuess(userID, word string) error {
	idx := r.playerIndex(userID)
	if idx < 0 {
		return ErrUnknownPlayer
	}

	switch r.state.CurrentPhase {
	case PhaseGuessing:
		if _, already := r.pending[userID]; already {
			return nil // extra submissions this round are simply ignored
		}
		if err := r.validateWord(word); err != nil {
			return err
		}
		r.pending[userID] = pendingGuess{word: strings.ToUpper(strings.TrimSpace(word)), timestamp: time.Now()}
		if len(r.pending) >= r.connectedCount() {
			r.cancelTimer()
			r.closeRound()
		}
		return nil
	case PhaseIndividualGuess:
		if r.state.CurrentWinner == nil || *r.state.CurrentWinner != userID {
			return ErrNotYourTurn
		}
		if err := r.validateWord(word); err != nil {
			return err
		}
		r.resolveIndividualGuess(userID, strings.ToUpper(strings.TrimSpace(word)))
		return nil
	default:
		return ErrWrongPhase
	}
}

type evaluated struct {
	userID  string
	word    string
	results []scoring.LetterResult
	points  int
	ledger  *scoring.Ledger
	ts      time.Time
	correct int
	present int
}

func (r *Room) evaluateAll() []evaluated {
	out := make([]evaluated, 0, len(r.pending))
	for userID, pg := range r.pending {
		results, points, updated, err := scoring.Evaluate(pg.word, r.state.targetWord, r.ledger)
		if err != nil {
			continue
		}
		e := evaluated{userID: userID, word: pg.word, results: results, points: points, ledger: updated, ts: pg.timestamp}
		for _, lr := range results {
			switch lr.Status {
			case scoring.Correct:
				e.correct++
			case scoring.Present:
				e.present++
			}
		}
		out = append(out, e)
	}
	return out
}

func pickWinner(evals []evaluated) *evaluated {
	if len(evals) == 0 {
		return nil
	}
	best := evals[0]
	for _, e := range evals[1:] {
		if e.correct > best.correct ||
			(e.correct == best.correct && e.present > best.present) ||
			(e.correct == best.correct && e.present == best.present && e.ts.Before(best.ts)) {
			best = e
		}
	}
	return &best
}

func toWireLetters(results []scoring.LetterResult) []LetterResult {
	out := make([]LetterResult, len(results))
	for i, lr := range results {
		out[i] = LetterResult{Letter: lr.Letter, Status: string(lr.Status), Position: lr.Position}
	}
	return out
}

func (r *Room) closeRound() {
	evals := r.evaluateAll()
	winner := pickWinner(evals)

	// Every submission scores against the pre-round ledger snapshot,
	// independent of who wins the round.
	for _, e := range evals {
		idx := r.playerIndex(e.userID)
		if idx < 0 {
			continue
		}
		r.state.Players[idx].Points += e.points
		r.trackThresholdCrossing(e.userID)
		r.state.Players[idx].GuessHistory = append(r.state.Players[idx].GuessHistory, PersonalGuess{
			Word:         e.word,
			PointsEarned: e.points,
			Timestamp:    e.ts,
		})
	}

	if winner == nil {
		for _, p := range r.state.Players {
			r.notifier.NotifyUser(p.UserID, "RoundResult", protocol.RoundResult{
				WinningGuess:    nil,
				YourGuess:       nil,
				NextPhase:       string(PhaseCountdown),
				IsWordCompleted: false,
			})
		}
		r.enterCountdown()
		return
	}

	r.commitWinner(*winner, evals)
}

func (r *Room) trackThresholdCrossing(userID string) {
	if _, already := r.crossedThresholdAt[userID]; already {
		return
	}
	idx := r.playerIndex(userID)
	if idx >= 0 && r.state.Players[idx].Points >= r.state.PointThreshold {
		r.crossedThresholdAt[userID] = time.Now()
	}
}

// commitWinner appends the winning guess to the official board, updates
// the ledger and words_already_guessed, marks that player's guess history
// entry as the winning one, and branches to the next phase.
func (r *Room) commitWinner(winner evaluated, allEvals []evaluated) {
	gr := GuessResult{
		Word:         winner.word,
		PlayerID:     winner.userID,
		Letters:      toWireLetters(winner.results),
		PointsEarned: winner.points,
		Timestamp:    winner.ts,
	}
	r.state.OfficialBoard = append(r.state.OfficialBoard, gr)
	r.state.WordsAlreadyGuessed[winner.word] = true
	r.ledger = winner.ledger

	if idx := r.playerIndex(winner.userID); idx >= 0 {
		hist := r.state.Players[idx].GuessHistory
		if len(hist) > 0 {
			hist[len(hist)-1].WasWinningGuess = true
		}
	}

	isWordCompleted := winner.word == r.state.targetWord

	for _, e := range allEvals {
		payload := protocol.RoundResult{
			WinningGuess:    gr,
			NextPhase:       "",
			IsWordCompleted: isWordCompleted,
		}
		if e.userID != winner.userID {
			payload.YourGuess = PersonalGuess{Word: e.word, PointsEarned: e.points, Timestamp: e.ts}
		} else {
			payload.YourGuess = PersonalGuess{Word: e.word, PointsEarned: e.points, WasWinningGuess: true, Timestamp: e.ts}
		}
		if isWordCompleted {
			payload.NextPhase = string(PhaseCountdown)
		} else {
			payload.NextPhase = string(PhaseIndividualGuess)
		}
		r.notifier.NotifyUser(e.userID, "RoundResult", payload)
	}

	if isWordCompleted {
		r.afterWordCompleted()
		return
	}

	r.enterIndividualGuess(winner.userID)
}

func (r *Room) afterWordCompleted() {
	if gameOverWinner, ok := r.checkWinCondition(); ok {
		r.enterGameOver(gameOverWinner)
		return
	}
	r.startNewEpisode()
	r.enterCountdown()
}

func (r *Room) checkWinCondition() (string, bool) {
	best := ""
	bestPoints := -1
	var bestCrossed time.Time
	found := false
	for _, p := range r.state.Players {
		if p.Points < r.state.PointThreshold {
			continue
		}
		crossed := r.crossedThresholdAt[p.UserID]
		switch {
		case !found:
			best, bestPoints, bestCrossed, found = p.UserID, p.Points, crossed, true
		case p.Points > bestPoints:
			best, bestPoints, bestCrossed = p.UserID, p.Points, crossed
		case p.Points == bestPoints && crossed.Before(bestCrossed):
			best, bestCrossed = p.UserID, crossed
		case p.Points == bestPoints && crossed.Equal(bestCrossed) && p.UserID < best:
			best = p.UserID
		}
	}
	return best, found
}

func (r *Room) startNewEpisode() {
	if len(r.state.OfficialBoard) > 0 {
		r.state.EpisodeHistory = append(r.state.EpisodeHistory, r.state.OfficialBoard)
	}
	r.state.OfficialBoard = nil
	r.state.WordsAlreadyGuessed = make(map[string]bool)
	r.ledger = scoring.NewLedger()
	r.state.CurrentEpisode++

	length := r.cfg.WordLengths[rand.Intn(len(r.cfg.WordLengths))]
	if target, ok := r.provider.PickWord(length); ok {
		r.state.targetWord = target
		r.state.WordLength = length
	}
}

func (r *Room) enterIndividualGuess(winnerID string) {
	r.state.CurrentPhase = PhaseIndividualGuess
	id := winnerID
	r.state.CurrentWinner = &id
	r.broadcastState()

	seconds := r.cfg.IndividualDeadlineSeconds
	if seconds <= 0 {
		seconds = 20
	}
	r.newTimer(timerIndividual, time.Duration(seconds)*time.Second)
}

func (r *Room) resolveIndividualGuess(userID, word string) {
	r.cancelTimer()
	results, points, updated, err := scoring.Evaluate(word, r.state.targetWord, r.ledger)
	if err != nil {
		return
	}

	idx := r.playerIndex(userID)
	if idx < 0 {
		return
	}
	r.state.Players[idx].Points += points
	r.trackThresholdCrossing(userID)

	isWordCompleted := word == r.state.targetWord
	r.state.Players[idx].GuessHistory = append(r.state.Players[idx].GuessHistory, PersonalGuess{
		Word: word, PointsEarned: points, WasWinningGuess: isWordCompleted, Timestamp: time.Now(),
	})

	if !isWordCompleted {
		r.notifier.NotifyUser(userID, "RoundResult", protocol.RoundResult{
			YourGuess:       PersonalGuess{Word: word, PointsEarned: points, Timestamp: time.Now()},
			NextPhase:       string(PhaseCountdown),
			IsWordCompleted: false,
		})
		r.endIndividualGuess(false)
		return
	}

	gr := GuessResult{Word: word, PlayerID: userID, Letters: toWireLetters(results), PointsEarned: points, Timestamp: time.Now()}
	r.state.OfficialBoard = append(r.state.OfficialBoard, gr)
	r.state.WordsAlreadyGuessed[word] = true
	r.ledger = updated

	for _, p := range r.state.Players {
		r.notifier.NotifyUser(p.UserID, "RoundResult", protocol.RoundResult{
			WinningGuess:    gr,
			NextPhase:       string(PhaseCountdown),
			IsWordCompleted: true,
		})
	}
	r.afterWordCompleted()
}

// endIndividualGuess handles both timeout and explicit skip: neither
// scores, both return to Countdown for the next group round.
func (r *Room) endIndividualGuess(_ bool) {
	r.state.CurrentWinner = nil
	r.enterCountdown()
}

func (r *Room) skipIndividual(userID string) error {
	if r.state.CurrentPhase != PhaseIndividualGuess {
		return ErrWrongPhase
	}
	if r.state.CurrentWinner == nil || *r.state.CurrentWinner != userID {
		return ErrNotYourTurn
	}
	r.cancelTimer()
	r.endIndividualGuess(true)
	return nil
}

func (r *Room) enterGameOver(winnerID string) {
	r.cancelTimer()
	r.state.CurrentPhase = PhaseGameOver
	r.state.Status = StatusCompleted
	r.logEvent("game_over")

	scores := make(map[string]int, len(r.state.Players))
	for _, p := range r.state.Players {
		scores[p.UserID] = p.Points
	}
	for _, p := range r.state.Players {
		r.notifier.NotifyUser(p.UserID, "GameOver", protocol.GameOver{Winner: winnerID, FinalScores: scores})
	}

	if r.stats != nil {
		ctx := context.Background()
		for _, p := range r.state.Players {
			_ = r.stats.IncrementGames(ctx, p.UserID)
			_ = r.stats.AddPoints(ctx, p.UserID, p.Points)
		}
		_ = r.stats.IncrementWins(ctx, winnerID)
	}

	r.finish()
}

func (r *Room) finish() {
	if r.onEnd != nil {
		r.onEnd(r.id)
	}
}

// ---- connection lifecycle ----

func (r *Room) playerDisconnected(userID string) error {
	idx := r.playerIndex(userID)
	if idx < 0 {
		return ErrUnknownPlayer
	}
	if !r.state.Players[idx].IsConnected {
		return nil
	}
	r.state.Players[idx].IsConnected = false
	r.logEventFor("player_disconnected", userID)
	for _, p := range r.state.Players {
		r.notifier.NotifyUser(p.UserID, "PlayerDisconnected", protocol.PlayerDisconnected{PlayerID: userID})
	}

	if r.connectedCount() == 0 {
		r.enterPaused()
	}
	return nil
}

// leaveGame forfeits userID's spot (same state transition as a
// disconnect) and, unlike a disconnect, confirms the departure directly
// to the leaving player.
func (r *Room) leaveGame(userID string) error {
	if err := r.playerDisconnected(userID); err != nil {
		return err
	}
	r.notifier.NotifyUser(userID, "GameLeft", nil)
	return nil
}

func (r *Room) playerReconnected(userID string) error {
	idx := r.playerIndex(userID)
	if idx < 0 {
		return ErrUnknownPlayer
	}
	wasPaused := r.state.Status == StatusPaused
	r.state.Players[idx].IsConnected = true
	r.logEventFor("player_reconnected", userID)
	for _, p := range r.state.Players {
		r.notifier.NotifyUser(p.UserID, "PlayerReconnected", protocol.PlayerReconnected{PlayerID: userID})
	}
	if wasPaused {
		r.resumeFromPause()
	}
	r.notifier.NotifyUser(userID, "GameStateUpdate", protocol.GameStateUpdate{State: r.state.Safe()})
	return nil
}

func (r *Room) enterPaused() {
	r.pausedFromPhase = r.state.CurrentPhase
	if !r.phaseDeadline.IsZero() {
		r.remainingOnPause = time.Until(r.phaseDeadline)
		if r.remainingOnPause < 0 {
			r.remainingOnPause = 0
		}
	}
	r.cancelTimer()
	r.state.Status = StatusPaused
	r.logEvent("paused")

	seconds := r.cfg.PauseTimeoutSeconds
	if seconds <= 0 {
		seconds = 300
	}
	r.newTimer(timerPause, time.Duration(seconds)*time.Second)
}

func (r *Room) resumeFromPause() {
	r.state.Status = StatusActive
	r.cancelTimer()

	remaining := r.remainingOnPause
	if remaining <= 0 {
		remaining = time.Second
	}
	switch r.pausedFromPhase {
	case PhaseCountdown:
		r.newTimer(timerCountdown, remaining)
	case PhaseGuessing:
		r.newTimer(timerGuessing, remaining)
	case PhaseIndividualGuess:
		r.newTimer(timerIndividual, remaining)
	default:
		r.enterCountdown()
	}
}

func (r *Room) broadcastState() {
	safe := r.state.Safe()
	for _, p := range r.state.Players {
		r.notifier.NotifyUser(p.UserID, "GameStateUpdate", protocol.GameStateUpdate{State: safe})
	}
}
