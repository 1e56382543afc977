package models

import (
	"time"
)

// Caixa Misteriosa round lifecycle. Transitions are one-directional:
// accepting → closed → finished. At most one row may be non-finished at a
// time; main.go installs a partial unique index to enforce that in storage.
const (
	GameStatusAccepting = "accepting"
	GameStatusClosed    = "closed"
	GameStatusFinished  = "finished"
)

// CaixaGame is one round of the mystery-product guessing contest.
type CaixaGame struct {
	ID        string `json:"id" gorm:"primaryKey"`
	ProductID string `json:"product_id" gorm:"not null;index"`
	Status    string `json:"status" gorm:"not null;default:'accepting';index"`

	// Number of clues currently visible, 1..5 while accepting; only increases.
	RevealedCluesCount int `json:"revealed_clues_count" gorm:"default:1"`

	// Set by the draw; nil on "finished without winner".
	WinnerSubmissionID *string `json:"winner_submission_id,omitempty"`

	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`

	// Relationships
	Product     Product          `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Submissions []GameSubmission `json:"submissions,omitempty" gorm:"foreignKey:GameID"`
}

// GameSubmission is a single guess by a participant during the accepting
// window. Immutable after creation except for IsCorrect, which is written at
// submission time and re-verified by the draw.
type GameSubmission struct {
	ID     string `json:"id" gorm:"primaryKey"`
	GameID string `json:"game_id" gorm:"not null;index"`

	UserName         string `json:"user_name" gorm:"not null"`
	UserPhone        string `json:"user_phone" gorm:"not null;index"`
	UserNeighborhood string `json:"user_neighborhood"`
	UserCity         string `json:"user_city"`

	Guess     string `json:"guess" gorm:"not null"`
	IsCorrect *bool  `json:"is_correct,omitempty"`

	// Per-(game, phone) counter so a player can track repeated guesses.
	SubmissionNumber int `json:"submission_number" gorm:"not null;default:1"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
