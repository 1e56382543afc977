package utils

import (
	"strings"

	"nexogeo-platform/models"
)

// LGPD read-time masking. Records are never stored masked — every read path
// that returns participant-identifying fields runs them through here,
// parameterized by the caller's resolved role and whether the record belongs
// to the round's winner.

const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleEditor    = "editor"
	RoleViewer    = "viewer"
	RoleUser      = "user" // alias of viewer on the wire
)

// Placeholder shown when a field is empty on the source record.
const NotProvided = "Não informado"

// Fixed address placeholder for every non-admin role.
const RestrictedAddress = "Endereço restrito"

// roleVisibility is the capability set of one role. Keeping the policy as a
// table (rather than scattered ifs) keeps the rules auditable in one place.
type roleVisibility struct {
	FullIdentity     bool // name/phone/email always in the clear
	IdentityIfWinner bool // ...or only for winner records
	Coordinates      bool // may see latitude/longitude
	FullAddress      bool // may see the street address
}

var visibilityPolicy = map[string]roleVisibility{
	RoleAdmin:     {FullIdentity: true, Coordinates: true, FullAddress: true},
	RoleModerator: {IdentityIfWinner: true, Coordinates: true},
	RoleEditor:    {},
	RoleViewer:    {},
	RoleUser:      {},
}

func visibilityFor(role string) roleVisibility {
	if v, ok := visibilityPolicy[role]; ok {
		return v
	}
	// Unknown roles get the most restrictive view.
	return visibilityPolicy[RoleViewer]
}

// MaskPhone keeps the first two and last two digits of a phone number:
// "11987654321" → "11*******21". Numbers of four digits or fewer are fully
// starred; empty input yields the "not provided" marker.
func MaskPhone(phone string) string {
	var digits []rune
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) == 0 {
		return NotProvided
	}
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return string(digits[:2]) + strings.Repeat("*", len(digits)-4) + string(digits[len(digits)-2:])
}

// MaskEmail stars the interior of the local part; the domain is never
// masked: "fulano@test.com" → "f****o@test.com", "ab@test.com" → "**@test.com".
func MaskEmail(email string) string {
	if strings.TrimSpace(email) == "" {
		return NotProvided
	}
	parts := strings.SplitN(email, "@", 2)
	local := parts[0]
	var masked string
	if len(local) > 2 {
		masked = local[:1] + strings.Repeat("*", len(local)-2) + local[len(local)-1:]
	} else {
		masked = strings.Repeat("*", len(local))
	}
	if len(parts) == 1 {
		return masked
	}
	return masked + "@" + parts[1]
}

// MaskName is the public-display form of a name: first name stays readable,
// the last name keeps only its first and last characters.
// "Maria da Silva" → "Maria S***a"; a single token has its interior starred.
func MaskName(name string) string {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return NotProvided
	}
	if len(tokens) == 1 {
		return maskToken(tokens[0])
	}
	return tokens[0] + " " + maskToken(tokens[len(tokens)-1])
}

func maskToken(tok string) string {
	runes := []rune(tok)
	if len(runes) <= 2 {
		return tok
	}
	return string(runes[0]) + strings.Repeat("*", len(runes)-2) + string(runes[len(runes)-1])
}

// MaskParticipant applies the visibility policy to one participant record.
// City, neighborhood and acquisition-channel fields carry no direct personal
// identification risk and are needed for analytics, so they pass through for
// every role.
func MaskParticipant(p models.Participant, role string, isWinner bool) models.Participant {
	vis := visibilityFor(role)

	if !vis.FullIdentity && !(vis.IdentityIfWinner && isWinner) {
		p.Nome = MaskName(p.Nome)
		p.Telefone = MaskPhone(p.Telefone)
		p.Email = MaskEmail(p.Email)
	}
	if !vis.FullAddress {
		p.Endereco = RestrictedAddress
	}
	if !vis.Coordinates {
		p.Latitude = nil
		p.Longitude = nil
	}
	return p
}

// MaskSubmission applies the same identity rules to a mystery-game guess
// record (it carries name and phone only).
func MaskSubmission(s models.GameSubmission, role string, isWinner bool) models.GameSubmission {
	vis := visibilityFor(role)
	if !vis.FullIdentity && !(vis.IdentityIfWinner && isWinner) {
		s.UserName = MaskName(s.UserName)
		s.UserPhone = MaskPhone(s.UserPhone)
	}
	return s
}
