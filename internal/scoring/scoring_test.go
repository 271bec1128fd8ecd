package scoring

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_ExactMatchScoresAllCorrectPlusBonus(t *testing.T) {
	results, points, ledger, err := Evaluate("HELLO", "HELLO", NewLedger())
	require.NoError(t, err)

	for _, r := range results {
		assert.Equal(t, Correct, r.Status)
	}
	assert.Equal(t, 5*correctPoints+solveBonus, points)
	assert.True(t, ledger.hasCorrectAt("H", 0))
}

func TestEvaluate_UpgradePresentToCorrect(t *testing.T) {
	// Ledger already knows O and L are present somewhere (but not fixed to a position).
	ledger := NewLedger()
	ledger.reveal("O")
	ledger.reveal("L")

	results, points, updated, err := Evaluate("HELLO", "HELLO", ledger)
	require.NoError(t, err)

	for _, r := range results {
		assert.Equal(t, Correct, r.Status)
	}
	// All five positions are newly-fixed Correct facts (2 pts each) plus the solve bonus.
	assert.Equal(t, 5*correctPoints+solveBonus, points)
	assert.True(t, updated.Contains(ledger))
}

func TestEvaluate_DuplicateLettersInTarget(t *testing.T) {
	// Target LEVEL has no positional overlap at all with guess EAGLE, so every
	// letter resolves via the Present/Absent multiset pass.
	results, points, _, err := Evaluate("EAGLE", "LEVEL", NewLedger())
	require.NoError(t, err)

	want := []LetterStatus{Present, Absent, Absent, Present, Present}
	for i, r := range results {
		assert.Equalf(t, want[i], r.Status, "position %d", i)
	}
	// E and L each earn Present credit once; the second E is already revealed.
	assert.Equal(t, 2*presentPoints, points)
}

func TestEvaluate_ResubmissionAgainstGrownLedgerScoresNoMoreThanBefore(t *testing.T) {
	// P4-adjacent: evaluating the same guess against a ledger that has since
	// absorbed its own results must never score more than the first time
	// (monotonic point decay as the ledger grows, see P2 below).
	_, firstPoints, grown, err := Evaluate("WORLD", "HELLO", NewLedger())
	require.NoError(t, err)

	_, secondPoints, _, err := Evaluate("WORLD", "HELLO", grown)
	require.NoError(t, err)

	assert.LessOrEqual(t, secondPoints, firstPoints)
}

func TestEvaluate_LengthMismatch(t *testing.T) {
	_, _, _, err := Evaluate("HI", "HELLO", NewLedger())
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

// P1: Correct marks exactly the position matches, and Present consumption
// never exceeds the target's remaining occurrences after Correct consumption.
func TestProperty_CorrectPositionsExactlyMatchAndPresentNeverOverconsumes(t *testing.T) {
	words := []string{"HELLO", "WORLD", "LEVEL", "EAGLE", "ROBOT", "STARE", "TOOTH", "SHEEP"}
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		target := words[r.Intn(len(words))]
		guess := words[r.Intn(len(words))]
		if len(target) != len(guess) {
			continue
		}

		results, _, _, err := Evaluate(guess, target, NewLedger())
		require.NoError(t, err)

		remaining := make(map[rune]int)
		for _, c := range target {
			remaining[c]++
		}
		for i, c := range target {
			if rune(guess[i]) == c {
				remaining[c]--
			}
		}

		consumed := make(map[rune]int)
		for i, lr := range results {
			g := rune(guess[i])
			if lr.Status == Correct {
				assert.Equal(t, rune(target[i]), g)
			} else {
				assert.NotEqual(t, rune(target[i]), g)
			}
			if lr.Status == Present {
				consumed[g]++
			}
		}
		for letter, count := range consumed {
			assert.LessOrEqualf(t, count, remaining[letter], "present-consumption exceeded remaining count for %q", string(letter))
		}
	}
}

// P2: points are monotonic (non-increasing) as the ledger grows.
func TestProperty_PointsMonotonicInLedgerGrowth(t *testing.T) {
	_, basePoints, grown, err := Evaluate("STARE", "TOOTH", NewLedger())
	require.NoError(t, err)

	_, grownPoints, _, err := Evaluate("STARE", "TOOTH", grown)
	require.NoError(t, err)

	assert.LessOrEqual(t, grownPoints, basePoints)
}

// P3: an exact-match guess scores base letter points plus the solve bonus,
// with every position Correct.
func TestProperty_ExactMatchAlwaysAllCorrectPlusBonus(t *testing.T) {
	words := []string{"HELLO", "WORLD", "LEVEL", "EAGLE", "ROBOT"}
	for _, w := range words {
		results, points, _, err := Evaluate(w, w, NewLedger())
		require.NoError(t, err)
		for _, r := range results {
			assert.Equal(t, Correct, r.Status)
		}
		assert.Equal(t, len(w)*correctPoints+solveBonus, points)
	}
}
