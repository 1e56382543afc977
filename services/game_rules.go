package services

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode"

	"nexogeo-platform/models"

	"github.com/gosimple/unidecode"
	"golang.org/x/text/unicode/norm"
)

// Pure round rules. Everything here is deterministic (the draw takes its
// randomness as a parameter) so the state machine can be tested without a
// database; game_service.go wraps these in transactions.

// NormalizeGuess folds a guess or product name for comparison: trim, collapse
// internal whitespace, NFC-normalize, strip accents, lower-case. Product
// names are pt-BR, so "Liquidificador Inox" and "LIQÜIDIFICADOR  inox" must
// compare equal.
func NormalizeGuess(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	s = unidecode.Unidecode(s)
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.ToLower(strings.Join(fields, " "))
}

// GuessMatches reports whether a guess names the product. Exact match after
// normalization is the rule; partial guesses ("JBL" for "Caixa JBL") do not
// win, which keeps ties between lazy and complete guesses fair.
func GuessMatches(guess, productName string) bool {
	return NormalizeGuess(guess) == NormalizeGuess(productName)
}

// CorrectSubmissions filters the candidate set for a draw. Every matching
// submission is a distinct ticket — a user who guessed right three times
// holds three tickets, per the published rules.
func CorrectSubmissions(subs []models.GameSubmission, productName string) []models.GameSubmission {
	var out []models.GameSubmission
	for _, s := range subs {
		if GuessMatches(s.Guess, productName) {
			out = append(out, s)
		}
	}
	return out
}

// PickWinner selects uniformly among the already-filtered candidates.
// Returns nil when nobody guessed right (round finishes without a winner).
func PickWinner(candidates []models.GameSubmission, rng *rand.Rand) *models.GameSubmission {
	if len(candidates) == 0 {
		return nil
	}
	return &candidates[rng.Intn(len(candidates))]
}

// CanRevealClue guards the reveal transition: only while accepting, and never
// past the fifth clue.
func CanRevealClue(g *models.CaixaGame) error {
	if g.Status != models.GameStatusAccepting {
		return &InvalidStateError{Msg: fmt.Sprintf("cannot reveal clue: round is %s", g.Status)}
	}
	if g.RevealedCluesCount >= models.ClueCount {
		return &InvalidStateError{Msg: "all clues already revealed"}
	}
	return nil
}

// CanAcceptSubmission guards guess intake.
func CanAcceptSubmission(g *models.CaixaGame) error {
	if g.Status != models.GameStatusAccepting {
		return &InvalidStateError{Msg: fmt.Sprintf("round is not accepting submissions (status: %s)", g.Status)}
	}
	return nil
}

// CanEndSubmissions guards accepting → closed.
func CanEndSubmissions(g *models.CaixaGame) error {
	if g.Status != models.GameStatusAccepting {
		return &InvalidStateError{Msg: fmt.Sprintf("cannot close submissions: round is %s", g.Status)}
	}
	return nil
}

// CanDrawWinner guards closed → finished.
func CanDrawWinner(g *models.CaixaGame) error {
	if g.Status != models.GameStatusClosed {
		return &InvalidStateError{Msg: fmt.Sprintf("cannot draw winner: round is %s, must be closed", g.Status)}
	}
	return nil
}
