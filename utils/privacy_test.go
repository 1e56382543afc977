package utils

import (
	"testing"

	"nexogeo-platform/models"
)

func TestMaskPhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		want  string
	}{
		{"standard mobile", "11987654321", "11*******21"},
		{"formatted input strips punctuation", "(11) 98765-4321", "11*******21"},
		{"short number fully starred", "1234", "****"},
		{"very short number", "99", "**"},
		{"five digits keeps edges", "12345", "12*45"},
		{"empty input", "", "Não informado"},
		{"no digits at all", "abc", "Não informado"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskPhone(tt.phone); got != tt.want {
				t.Errorf("MaskPhone(%q) = %q, want %q", tt.phone, got, tt.want)
			}
		})
	}
}

func TestMaskEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  string
	}{
		{"long local part", "fulano@test.com", "f****o@test.com"},
		{"two-char local fully starred", "ab@test.com", "**@test.com"},
		{"one-char local fully starred", "a@test.com", "*@test.com"},
		{"three-char local keeps edges", "ana@test.com", "a*a@test.com"},
		{"domain never masked", "joaosilva@gmail.com", "j*******a@gmail.com"},
		{"empty input", "", "Não informado"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskEmail(tt.email); got != tt.want {
				t.Errorf("MaskEmail(%q) = %q, want %q", tt.email, got, tt.want)
			}
		})
	}
}

func TestMaskName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"first name kept, surname interior starred", "Maria Silva", "Maria S***a"},
		{"middle names dropped from display", "João Pedro de Souza", "João S***a"},
		{"single token keeps edges", "Carlos", "C****s"},
		{"short single token untouched", "Li", "Li"},
		{"empty input", "", "Não informado"},
		{"whitespace only", "   ", "Não informado"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaskName(tt.in); got != tt.want {
				t.Errorf("MaskName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func sampleParticipant() models.Participant {
	lat, lon := -23.5505, -46.6333
	return models.Participant{
		ID:           "p1",
		Nome:         "Maria Silva",
		Telefone:     "11987654321",
		Email:        "maria@test.com",
		Endereco:     "Rua das Flores, 123",
		Cidade:       "São Paulo",
		Bairro:       "Centro",
		Latitude:     &lat,
		Longitude:    &lon,
		OrigemSource: "instagram",
		OrigemMedium: "stories",
	}
}

func TestMaskParticipantAdmin(t *testing.T) {
	p := MaskParticipant(sampleParticipant(), RoleAdmin, false)
	if p.Nome != "Maria Silva" || p.Telefone != "11987654321" || p.Email != "maria@test.com" {
		t.Errorf("admin must see full identity, got nome=%q telefone=%q email=%q", p.Nome, p.Telefone, p.Email)
	}
	if p.Endereco != "Rua das Flores, 123" {
		t.Errorf("admin must see full address, got %q", p.Endereco)
	}
	if p.Latitude == nil || p.Longitude == nil {
		t.Error("admin must see coordinates")
	}
}

func TestMaskParticipantModerator(t *testing.T) {
	// Not a winner: identity masked, coordinates still visible.
	p := MaskParticipant(sampleParticipant(), RoleModerator, false)
	if p.Nome != "Maria S***a" {
		t.Errorf("moderator must see masked name for non-winner, got %q", p.Nome)
	}
	if p.Telefone != "11*******21" {
		t.Errorf("moderator must see masked phone for non-winner, got %q", p.Telefone)
	}
	if p.Endereco != RestrictedAddress {
		t.Errorf("non-admin address must be %q, got %q", RestrictedAddress, p.Endereco)
	}
	if p.Latitude == nil || p.Longitude == nil {
		t.Error("moderator must see coordinates regardless of winner status")
	}

	// Winner: identity clear, address still restricted.
	w := MaskParticipant(sampleParticipant(), RoleModerator, true)
	if w.Nome != "Maria Silva" || w.Telefone != "11987654321" || w.Email != "maria@test.com" {
		t.Errorf("moderator must see winner identity in full, got nome=%q telefone=%q email=%q", w.Nome, w.Telefone, w.Email)
	}
	if w.Endereco != RestrictedAddress {
		t.Errorf("winner address must stay %q for moderator, got %q", RestrictedAddress, w.Endereco)
	}
}

func TestMaskParticipantViewer(t *testing.T) {
	for _, isWinner := range []bool{false, true} {
		p := MaskParticipant(sampleParticipant(), RoleViewer, isWinner)
		if p.Nome != "Maria S***a" || p.Telefone != "11*******21" {
			t.Errorf("viewer identity must be masked (winner=%v), got nome=%q telefone=%q", isWinner, p.Nome, p.Telefone)
		}
		if p.Latitude != nil || p.Longitude != nil {
			t.Errorf("viewer must never see coordinates (winner=%v)", isWinner)
		}
		if p.Endereco != RestrictedAddress {
			t.Errorf("viewer address must be %q, got %q", RestrictedAddress, p.Endereco)
		}
		// Coarse location and acquisition channel are always visible.
		if p.Cidade != "São Paulo" || p.Bairro != "Centro" {
			t.Errorf("city/neighborhood must never be masked, got %q/%q", p.Cidade, p.Bairro)
		}
		if p.OrigemSource != "instagram" || p.OrigemMedium != "stories" {
			t.Errorf("acquisition channel must never be masked, got %q/%q", p.OrigemSource, p.OrigemMedium)
		}
	}
}

func TestMaskParticipantUnknownRole(t *testing.T) {
	p := MaskParticipant(sampleParticipant(), "superuser", true)
	if p.Nome != "Maria S***a" || p.Latitude != nil {
		t.Error("unknown roles must get the most restrictive view")
	}
}

func TestMaskSubmission(t *testing.T) {
	sub := models.GameSubmission{UserName: "João Pereira", UserPhone: "21912345678"}

	masked := MaskSubmission(sub, RoleViewer, false)
	if masked.UserName != "João P*****a" {
		t.Errorf("masked name = %q", masked.UserName)
	}
	if masked.UserPhone != "21*******78" {
		t.Errorf("masked phone = %q", masked.UserPhone)
	}

	clear := MaskSubmission(sub, RoleAdmin, false)
	if clear.UserName != "João Pereira" || clear.UserPhone != "21912345678" {
		t.Error("admin must see submission identity in full")
	}

	winner := MaskSubmission(sub, RoleModerator, true)
	if winner.UserName != "João Pereira" {
		t.Error("moderator must see winner submission in full")
	}
}
