package services

import (
	"math"
	"math/rand"
	"testing"

	"nexogeo-platform/models"
)

func TestNormalizeGuess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Produto Exemplo", "produto exemplo"},
		{"trims and collapses whitespace", "  CAIXA  DE SOM  JBL ", "caixa de som jbl"},
		{"strips accents", "Liquidificador Elétrico", "liquidificador eletrico"},
		{"decomposed accents fold too", "Café", "cafe"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeGuess(tt.in); got != tt.want {
				t.Errorf("NormalizeGuess(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestGuessMatches(t *testing.T) {
	tests := []struct {
		name    string
		guess   string
		product string
		want    bool
	}{
		{"exact", "Produto Exemplo", "Produto Exemplo", true},
		{"case-insensitive", "produto exemplo", "Produto Exemplo", true},
		{"accent-insensitive", "liquidificador eletrico", "Liquidificador Elétrico", true},
		{"extra whitespace tolerated", " produto   exemplo ", "Produto Exemplo", true},
		{"wrong guess", "Errado", "Produto Exemplo", false},
		{"partial guess does not win", "Caixa", "Caixa JBL", false},
		{"superset guess does not win", "Caixa JBL Nova", "Caixa JBL", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GuessMatches(tt.guess, tt.product); got != tt.want {
				t.Errorf("GuessMatches(%q, %q) = %v, want %v", tt.guess, tt.product, got, tt.want)
			}
		})
	}
}

func TestCorrectSubmissions(t *testing.T) {
	subs := []models.GameSubmission{
		{ID: "s1", Guess: "Produto Exemplo"},
		{ID: "s2", Guess: "produto exemplo"},
		{ID: "s3", Guess: "Errado"},
	}
	got := CorrectSubmissions(subs, "Produto Exemplo")
	if len(got) != 2 {
		t.Fatalf("expected 2 correct submissions, got %d", len(got))
	}
	if got[0].ID != "s1" || got[1].ID != "s2" {
		t.Errorf("correct set should preserve order: got %s, %s", got[0].ID, got[1].ID)
	}
}

func TestPickWinnerEmptySet(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if w := PickWinner(nil, rng); w != nil {
		t.Errorf("expected nil winner for empty candidate set, got %v", w)
	}
}

func TestPickWinnerUniform(t *testing.T) {
	// Two equally-eligible candidates over 10,000 draws: each should land
	// within statistical tolerance of 50%.
	candidates := []models.GameSubmission{
		{ID: "a", Guess: "Produto Exemplo"},
		{ID: "b", Guess: "produto exemplo"},
	}
	rng := rand.New(rand.NewSource(42))

	counts := map[string]int{}
	const draws = 10000
	for i := 0; i < draws; i++ {
		w := PickWinner(candidates, rng)
		if w == nil {
			t.Fatal("unexpected nil winner")
		}
		counts[w.ID]++
	}

	for _, id := range []string{"a", "b"} {
		ratio := float64(counts[id]) / draws
		if math.Abs(ratio-0.5) > 0.03 {
			t.Errorf("candidate %s selected %.1f%% of the time, expected ~50%%", id, ratio*100)
		}
	}
}

func TestPickWinnerNeverSelectsOutsideCandidates(t *testing.T) {
	subs := []models.GameSubmission{
		{ID: "s1", Guess: "Produto Exemplo"},
		{ID: "s2", Guess: "produto exemplo"},
		{ID: "s3", Guess: "Errado"},
	}
	rng := rand.New(rand.NewSource(7))
	candidates := CorrectSubmissions(subs, "Produto Exemplo")
	for i := 0; i < 1000; i++ {
		w := PickWinner(candidates, rng)
		if w.ID == "s3" {
			t.Fatal("winner drawn from outside the correct-submission set")
		}
	}
}

func TestCanRevealClue(t *testing.T) {
	g := &models.CaixaGame{Status: models.GameStatusAccepting, RevealedCluesCount: 1}

	// Reveals 2..5 succeed; the count only increases.
	for i := 0; i < models.ClueCount-1; i++ {
		if err := CanRevealClue(g); err != nil {
			t.Fatalf("reveal %d: unexpected error %v", i+2, err)
		}
		g.RevealedCluesCount++
	}
	if g.RevealedCluesCount != models.ClueCount {
		t.Fatalf("expected %d revealed clues, got %d", models.ClueCount, g.RevealedCluesCount)
	}

	// The next reveal must fail with InvalidStateError.
	err := CanRevealClue(g)
	if err == nil {
		t.Fatal("expected error revealing past the last clue")
	}
	if _, ok := err.(*InvalidStateError); !ok {
		t.Errorf("expected *InvalidStateError, got %T", err)
	}

	// Wrong lifecycle state also fails.
	closed := &models.CaixaGame{Status: models.GameStatusClosed, RevealedCluesCount: 2}
	if _, ok := CanRevealClue(closed).(*InvalidStateError); !ok {
		t.Error("expected InvalidStateError for closed round")
	}
}

func TestSubmissionAndTransitionGuards(t *testing.T) {
	accepting := &models.CaixaGame{Status: models.GameStatusAccepting}
	closed := &models.CaixaGame{Status: models.GameStatusClosed}
	finished := &models.CaixaGame{Status: models.GameStatusFinished}

	if err := CanAcceptSubmission(accepting); err != nil {
		t.Errorf("accepting round must accept submissions: %v", err)
	}
	for _, g := range []*models.CaixaGame{closed, finished} {
		if _, ok := CanAcceptSubmission(g).(*InvalidStateError); !ok {
			t.Errorf("round in %s must reject submissions with InvalidStateError", g.Status)
		}
	}

	if err := CanEndSubmissions(accepting); err != nil {
		t.Errorf("accepting round must close: %v", err)
	}
	if _, ok := CanEndSubmissions(closed).(*InvalidStateError); !ok {
		t.Error("closing a closed round must fail")
	}

	if err := CanDrawWinner(closed); err != nil {
		t.Errorf("closed round must allow the draw: %v", err)
	}
	for _, g := range []*models.CaixaGame{accepting, finished} {
		if _, ok := CanDrawWinner(g).(*InvalidStateError); !ok {
			t.Errorf("draw on %s round must fail with InvalidStateError", g.Status)
		}
	}
}
