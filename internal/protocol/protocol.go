// Package protocol implements Word Arena's wire codec: inbound and
// outbound messages are JSON-encoded tagged unions. A unit variant
// serializes as the bare string "VariantName"; a variant carrying a
// payload serializes as the single-key object {"VariantName": payload}.
//
// The wire protocol is treated as a sealed enumeration with exhaustive
// dispatch on decode: an unrecognized tag becomes ErrUnknownVariant,
// never a silent drop.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownVariant is returned when an inbound tag does not match any
// known client message variant, or an envelope is malformed (not a bare
// string and not a single-key object).
var ErrUnknownVariant = errors.New("protocol: unknown or malformed message")

// ---- Client -> server payloads ----

type Authenticate struct {
	Token string `json:"token"`
	Force bool   `json:"force,omitempty"`
}

type SubmitGuess struct {
	Word string `json:"word"`
}

type RejoinGame struct {
	GameID string `json:"game_id"`
}

// ClientEnvelope carries exactly one non-nil field, selected by the
// inbound tag. Unit variants (JoinQueue, LeaveQueue, VoteStartGame,
// LeaveGame, Heartbeat) are represented by a non-nil marker value with no
// fields of its own.
type ClientEnvelope struct {
	Authenticate  *Authenticate
	JoinQueue     *struct{}
	LeaveQueue    *struct{}
	VoteStartGame *struct{}
	SubmitGuess   *SubmitGuess
	RejoinGame    *RejoinGame
	LeaveGame     *struct{}
	Heartbeat     *struct{}
}

// DecodeClientMessage parses one inbound JSON value into a ClientEnvelope.
func DecodeClientMessage(data []byte) (*ClientEnvelope, error) {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		switch tag {
		case "JoinQueue":
			return &ClientEnvelope{JoinQueue: &struct{}{}}, nil
		case "LeaveQueue":
			return &ClientEnvelope{LeaveQueue: &struct{}{}}, nil
		case "VoteStartGame":
			return &ClientEnvelope{VoteStartGame: &struct{}{}}, nil
		case "LeaveGame":
			return &ClientEnvelope{LeaveGame: &struct{}{}}, nil
		case "Heartbeat":
			return &ClientEnvelope{Heartbeat: &struct{}{}}, nil
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, tag)
		}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || len(obj) != 1 {
		return nil, fmt.Errorf("%w: not a tagged envelope", ErrUnknownVariant)
	}

	for key, payload := range obj {
		switch key {
		case "Authenticate":
			var a Authenticate
			if err := json.Unmarshal(payload, &a); err != nil {
				return nil, fmt.Errorf("%w: bad Authenticate payload: %v", ErrUnknownVariant, err)
			}
			return &ClientEnvelope{Authenticate: &a}, nil
		case "SubmitGuess":
			var s SubmitGuess
			if err := json.Unmarshal(payload, &s); err != nil {
				return nil, fmt.Errorf("%w: bad SubmitGuess payload: %v", ErrUnknownVariant, err)
			}
			return &ClientEnvelope{SubmitGuess: &s}, nil
		case "RejoinGame":
			var rg RejoinGame
			if err := json.Unmarshal(payload, &rg); err != nil {
				return nil, fmt.Errorf("%w: bad RejoinGame payload: %v", ErrUnknownVariant, err)
			}
			return &ClientEnvelope{RejoinGame: &rg}, nil
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, key)
		}
	}
	return nil, ErrUnknownVariant
}

// ---- Server -> client payloads ----
//
// Nested game-specific fields (State, WinningGuess, YourGuess,
// FinalScores, Players, User) are carried as interface{} so this package
// never imports the arena/registry domain types it serializes on their
// behalf — it only needs to know the envelope shape, not the payload's
// concrete Go type.

type AuthenticationSuccess struct {
	User interface{} `json:"user"`
}

type AuthenticationFailed struct {
	Reason string `json:"reason"`
}

type QueueJoined struct {
	Position int `json:"position"`
}

type MatchmakingCountdown struct {
	SecondsRemaining int `json:"seconds_remaining"`
	PlayersReady     int `json:"players_ready"`
	TotalPlayers     int `json:"total_players"`
}

type MatchFound struct {
	GameID  string      `json:"game_id"`
	Players interface{} `json:"players"`
}

type GameStateUpdate struct {
	State interface{} `json:"state"`
}

type CountdownStart struct {
	Seconds int `json:"seconds"`
}

type RoundResult struct {
	WinningGuess     interface{} `json:"winning_guess"`
	YourGuess        interface{} `json:"your_guess"`
	NextPhase        string      `json:"next_phase"`
	IsWordCompleted  bool        `json:"is_word_completed"`
}

type GameOver struct {
	Winner      interface{} `json:"winner"`
	FinalScores interface{} `json:"final_scores"`
}

type PlayerDisconnected struct {
	PlayerID string `json:"player_id"`
}

type PlayerReconnected struct {
	PlayerID string `json:"player_id"`
}

type Error struct {
	Message string `json:"message"`
}

// EncodeServerMessage builds the wire form of one outbound message. Pass a
// nil payload for unit variants (SessionDisconnected, QueueLeft, GameLeft).
func EncodeServerMessage(variant string, payload interface{}) ([]byte, error) {
	if payload == nil {
		return json.Marshal(variant)
	}
	return json.Marshal(map[string]interface{}{variant: payload})
}
