// Package scoring implements the pure, deterministic guess-evaluation and
// point-award rules at the heart of a Word Arena match: given a target
// word, a candidate guess, and the letter facts already revealed this
// word-completion episode, it produces per-letter Correct/Present/Absent
// statuses and the points the guess earns.
package scoring

import (
	"errors"
	"fmt"
	"strings"
)

// LetterStatus is the per-letter verdict of a guess against a target word.
type LetterStatus string

const (
	Correct LetterStatus = "correct"
	Present LetterStatus = "present"
	Absent  LetterStatus = "absent"
)

// LetterResult is one letter's outcome within an evaluated guess.
type LetterResult struct {
	Letter   string       `json:"letter"`
	Status   LetterStatus `json:"status"`
	Position int          `json:"position"`
}

const (
	presentPoints = 1
	correctPoints = 2
	solveBonus    = 5
)

// ErrLengthMismatch is returned when the guess and target words differ in length.
var ErrLengthMismatch = errors.New("scoring: guess and target differ in length")

// Ledger is the accumulated set of (letter, status[, position]) facts
// revealed on the official board within the current word-completion
// episode. It determines which parts of a new guess are novel and
// therefore score points.
type Ledger struct {
	revealedLetters  map[string]bool
	correctPositions map[string]bool
}

// NewLedger returns an empty ledger, as used at the start of each
// word-completion episode.
func NewLedger() *Ledger {
	return &Ledger{
		revealedLetters:  make(map[string]bool),
		correctPositions: make(map[string]bool),
	}
}

// Clone returns an independent copy so callers can evaluate speculatively
// without mutating the game's authoritative ledger.
func (l *Ledger) Clone() *Ledger {
	c := NewLedger()
	if l == nil {
		return c
	}
	for k := range l.revealedLetters {
		c.revealedLetters[k] = true
	}
	for k := range l.correctPositions {
		c.correctPositions[k] = true
	}
	return c
}

func positionKey(letter string, pos int) string {
	return fmt.Sprintf("%s@%d", letter, pos)
}

func (l *Ledger) hasRevealed(letter string) bool {
	return l != nil && l.revealedLetters[letter]
}

func (l *Ledger) hasCorrectAt(letter string, pos int) bool {
	return l != nil && l.correctPositions[positionKey(letter, pos)]
}

func (l *Ledger) reveal(letter string) {
	l.revealedLetters[letter] = true
}

func (l *Ledger) markCorrect(letter string, pos int) {
	l.correctPositions[positionKey(letter, pos)] = true
	l.revealedLetters[letter] = true
}

// Contains reports whether the ledger is a superset of other — used by
// callers that want to assert monotonic ledger growth across rounds.
func (l *Ledger) Contains(other *Ledger) bool {
	if other == nil {
		return true
	}
	if l == nil {
		return len(other.revealedLetters) == 0 && len(other.correctPositions) == 0
	}
	for k := range other.revealedLetters {
		if !l.revealedLetters[k] {
			return false
		}
	}
	for k := range other.correctPositions {
		if !l.correctPositions[k] {
			return false
		}
	}
	return true
}

// Evaluate scores guess against target given the ledger of facts already
// revealed this episode. It is pure: neither ledger nor its caller-visible
// state is mutated; the returned ledger is a new value the caller should
// adopt in place of the old one once the guess is accepted onto the
// official board.
//
// Letter status computation: target letters are tallied into a multiset.
// First pass marks exact-position matches Correct, consuming one
// occurrence each. Second pass, over the remaining positions in guess
// order, marks Present while occurrences remain, else Absent.
func Evaluate(guess, target string, ledger *Ledger) ([]LetterResult, int, *Ledger, error) {
	g := []rune(strings.ToUpper(guess))
	t := []rune(strings.ToUpper(target))
	if len(g) != len(t) {
		return nil, 0, nil, ErrLengthMismatch
	}

	remaining := make(map[rune]int, len(t))
	for _, r := range t {
		remaining[r]++
	}

	statuses := make([]LetterStatus, len(g))
	isCorrect := make([]bool, len(g))
	for i := range g {
		if g[i] == t[i] {
			statuses[i] = Correct
			isCorrect[i] = true
			remaining[g[i]]--
		}
	}
	for i := range g {
		if isCorrect[i] {
			continue
		}
		if remaining[g[i]] > 0 {
			statuses[i] = Present
			remaining[g[i]]--
		} else {
			statuses[i] = Absent
		}
	}

	working := ledger.Clone()
	points := 0
	results := make([]LetterResult, len(g))
	for i, r := range g {
		letter := string(r)
		results[i] = LetterResult{Letter: letter, Status: statuses[i], Position: i}

		switch statuses[i] {
		case Correct:
			if !working.hasCorrectAt(letter, i) {
				points += correctPoints
				working.markCorrect(letter, i)
			}
		case Present:
			if !working.hasRevealed(letter) {
				points += presentPoints
				working.reveal(letter)
			}
		}
	}

	if strings.EqualFold(guess, target) {
		points += solveBonus
	}

	return results, points, working, nil
}
