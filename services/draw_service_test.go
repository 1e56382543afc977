package services

import (
	"testing"

	"nexogeo-platform/models"
)

func TestEligibleParticipants(t *testing.T) {
	participants := []models.Participant{
		{ID: "p1", Nome: "Alice"},
		{ID: "p2", Nome: "Bruno"},
		{ID: "p3", Nome: "Clara"},
	}

	t.Run("no prior winners", func(t *testing.T) {
		got := EligibleParticipants(participants, map[string]bool{})
		if len(got) != 3 {
			t.Errorf("expected 3 eligible, got %d", len(got))
		}
	})

	t.Run("prior winners excluded", func(t *testing.T) {
		got := EligibleParticipants(participants, map[string]bool{"p2": true})
		if len(got) != 2 {
			t.Fatalf("expected 2 eligible, got %d", len(got))
		}
		for _, p := range got {
			if p.ID == "p2" {
				t.Error("prior winner p2 must not be eligible")
			}
		}
	})

	t.Run("everyone already won", func(t *testing.T) {
		got := EligibleParticipants(participants, map[string]bool{"p1": true, "p2": true, "p3": true})
		if len(got) != 0 {
			t.Errorf("expected no eligible participants, got %d", len(got))
		}
	})
}
