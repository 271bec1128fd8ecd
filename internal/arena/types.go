package arena

import "time"

// Status is a GameRoom's top-level lifecycle state.
type Status string

const (
	StatusStarting  Status = "starting"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
	StatusTimedOut  Status = "timed_out"
)

// Phase is the current step within the round state machine.
type Phase string

const (
	PhaseWaiting         Phase = "waiting"
	PhaseCountdown       Phase = "countdown"
	PhaseGuessing        Phase = "guessing"
	PhaseIndividualGuess Phase = "individual_guess"
	PhaseGameOver        Phase = "game_over"
)

// Player is one participant's in-game record.
type Player struct {
	UserID       string          `json:"user_id"`
	DisplayName  string          `json:"display_name"`
	Points       int             `json:"points"`
	GuessHistory []PersonalGuess `json:"guess_history"`
	IsConnected  bool            `json:"is_connected"`
}

// PersonalGuess is what a non-winning player sees about their own
// submission: no letter-level detail.
type PersonalGuess struct {
	Word            string    `json:"word"`
	PointsEarned    int       `json:"points_earned"`
	WasWinningGuess bool      `json:"was_winning_guess"`
	Timestamp       time.Time `json:"timestamp"`
}

// LetterResult mirrors scoring.LetterResult for wire purposes (kept as a
// distinct type so arena's wire shape doesn't change if scoring's internal
// representation does).
type LetterResult struct {
	Letter   string `json:"letter"`
	Status   string `json:"status"`
	Position int    `json:"position"`
}

// GuessResult is a submitted guess as evaluated against the target,
// carrying full letter-level detail. Only winning guesses are appended to
// the official board.
type GuessResult struct {
	Word         string         `json:"word"`
	PlayerID     string         `json:"player_id"`
	Letters      []LetterResult `json:"letters"`
	PointsEarned int            `json:"points_earned"`
	Timestamp    time.Time      `json:"timestamp"`
}

// GameState is the authoritative per-match record. TargetWord is
// unexported so an accidental json.Marshal(GameState) never leaks it;
// SafeGameState is the type actually sent to clients.
type GameState struct {
	ID                  string `json:"id"`
	targetWord          string
	WordLength          int             `json:"word_length"`
	CurrentRound        int             `json:"current_round"`
	CurrentEpisode      int             `json:"current_episode"`
	Status              Status          `json:"status"`
	CurrentPhase        Phase           `json:"current_phase"`
	Players             []Player        `json:"players"`
	OfficialBoard       []GuessResult   `json:"official_board"`
	EpisodeHistory      [][]GuessResult `json:"episode_history"`
	CurrentWinner       *string         `json:"current_winner"`
	WordsAlreadyGuessed map[string]bool `json:"words_already_guessed"`
	PointThreshold      int             `json:"point_threshold"`
	CreatedAt           time.Time       `json:"created_at"`
}

// SafeGameState is GameState with target_word elided, the only shape ever
// sent to a client.
type SafeGameState struct {
	ID                  string          `json:"id"`
	WordLength          int             `json:"word_length"`
	CurrentRound        int             `json:"current_round"`
	CurrentEpisode      int             `json:"current_episode"`
	Status              Status          `json:"status"`
	CurrentPhase        Phase           `json:"current_phase"`
	Players             []Player        `json:"players"`
	OfficialBoard       []GuessResult   `json:"official_board"`
	EpisodeHistory      [][]GuessResult `json:"episode_history"`
	CurrentWinner       *string         `json:"current_winner"`
	WordsAlreadyGuessed []string        `json:"words_already_guessed"`
	PointThreshold      int             `json:"point_threshold"`
	CreatedAt           time.Time       `json:"created_at"`
}

// Safe strips the target word and flattens WordsAlreadyGuessed into a
// stable-order slice for JSON transport.
func (s *GameState) Safe() SafeGameState {
	words := make([]string, 0, len(s.WordsAlreadyGuessed))
	for w := range s.WordsAlreadyGuessed {
		words = append(words, w)
	}
	return SafeGameState{
		ID:                  s.ID,
		WordLength:          s.WordLength,
		CurrentRound:        s.CurrentRound,
		CurrentEpisode:      s.CurrentEpisode,
		Status:              s.Status,
		CurrentPhase:        s.CurrentPhase,
		Players:             s.Players,
		OfficialBoard:       s.OfficialBoard,
		EpisodeHistory:      s.EpisodeHistory,
		CurrentWinner:       s.CurrentWinner,
		WordsAlreadyGuessed: words,
		PointThreshold:      s.PointThreshold,
		CreatedAt:           s.CreatedAt,
	}
}
