package normalize

import (
	"strings"

	"opsconsole/internal/account/models"
)

// Entitlement is one candidate product a streaming backend reports for a subscriber.
type Entitlement struct {
	ProductID int
	Name      string
	Status    models.Status
}

// TieBreak decides between several active, checkout or suspended entitlements.
type TieBreak string

const (
	// TieBreakFirst keeps the first of them in upstream order.
	TieBreakFirst TieBreak = "first"
	// TieBreakPreferActive ranks active over checkout over suspended, then upstream order.
	TieBreakPreferActive TieBreak = "prefer_active"
)

// ParseTieBreak defaults unknown or empty values to TieBreakFirst.
func ParseTieBreak(s string) TieBreak {
	if TieBreak(strings.TrimSpace(s)) == TieBreakPreferActive {
		return TieBreakPreferActive
	}
	return TieBreakFirst
}

// StreamingStatus maps a streaming backend's status string onto the closed set.
func StreamingStatus(raw string) models.Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "active", "ativo":
		return models.StatusActive
	case "checkout", "pending", "pendente":
		return models.StatusCheckout
	case "suspended", "suspenso":
		return models.StatusSuspended
	case "canceled", "cancelled", "cancelado":
		return models.StatusCanceled
	default:
		return models.StatusUnknown
	}
}

// FilterFamily keeps entitlements whose product id is in family. An empty
// family keeps everything.
func FilterFamily(entitlements []Entitlement, family map[int]struct{}) []Entitlement {
	if len(family) == 0 {
		return entitlements
	}
	out := make([]Entitlement, 0, len(entitlements))
	for _, e := range entitlements {
		if _, ok := family[e.ProductID]; ok {
			out = append(out, e)
		}
	}
	return out
}

// SelectEntitlement picks at most one entitlement. Active, checkout and
// suspended candidates win over unknown ones, and unknown ones win over
// canceled ones. Among several preferred candidates the tie-break applies;
// otherwise upstream order decides.
func SelectEntitlement(entitlements []Entitlement, tieBreak TieBreak) (Entitlement, bool) {
	if len(entitlements) == 0 {
		return Entitlement{}, false
	}
	best := 0
	for i := 1; i < len(entitlements); i++ {
		if better(entitlements[i].Status, entitlements[best].Status, tieBreak) {
			best = i
		}
	}
	return entitlements[best], true
}

// better reports whether a strictly beats the current pick b. Ties keep b,
// which preserves upstream order.
func better(a, b models.Status, tieBreak TieBreak) bool {
	if tier(a) != tier(b) {
		return tier(a) < tier(b)
	}
	return tier(a) == 0 && tieBreak == TieBreakPreferActive && rank(a) < rank(b)
}

func tier(s models.Status) int {
	switch s {
	case models.StatusActive, models.StatusCheckout, models.StatusSuspended:
		return 0
	case models.StatusCanceled:
		return 2
	default:
		return 1
	}
}

func rank(s models.Status) int {
	switch s {
	case models.StatusActive:
		return 0
	case models.StatusCheckout:
		return 1
	default:
		return 2
	}
}
