package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"opsconsole/internal/account/models"
)

// Directory account states as shown to operators.
const (
	DirectoryEnabled  = "Habilitado"
	DirectoryDisabled = "Desabilitado"
	DirectoryLocked   = "Bloqueado"
	DirectoryUnknown  = "Desconhecido"
)

// userAccountControl flags.
const (
	uacAccountDisable  = 0x0002
	uacLockout         = 0x0010
	uacPasswordExpired = 0x800000
)

// DirectoryState maps a userAccountControl bitmask to its display label.
// Disabled wins over locked. A password-expired account is reported as
// enabled: the flag is only consulted after the other two and has no label
// of its own, matching what operators have always been shown.
func DirectoryState(userAccountControl string) string {
	uac, err := strconv.ParseInt(strings.TrimSpace(userAccountControl), 10, 64)
	if err != nil {
		return DirectoryUnknown
	}
	switch {
	case uac&uacAccountDisable != 0:
		return DirectoryDisabled
	case uac&uacLockout != 0:
		return DirectoryLocked
	case uac&uacPasswordExpired != 0:
		return DirectoryEnabled
	default:
		return DirectoryEnabled
	}
}

// DirectoryStatus maps a userAccountControl bitmask onto the closed status set.
func DirectoryStatus(userAccountControl string) models.Status {
	switch DirectoryState(userAccountControl) {
	case DirectoryEnabled:
		return models.StatusActive
	case DirectoryDisabled, DirectoryLocked:
		return models.StatusSuspended
	default:
		return models.StatusUnknown
	}
}

// Seconds between 1601-01-01 and 1970-01-01.
const fileTimeEpochOffset = 11644473600

// ConvertADFileTime converts a FileTime value (100ns ticks since 1601-01-01)
// into a UTC time. Zero, the "never expires" sentinel (max int64) and
// non-numeric input all return nil.
func ConvertADFileTime(raw string) *time.Time {
	ticks, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || ticks <= 0 || ticks == math.MaxInt64 {
		return nil
	}
	secs := ticks/10_000_000 - fileTimeEpochOffset
	nanos := (ticks % 10_000_000) * 100
	t := time.Unix(secs, nanos).UTC()
	return &t
}

// FormatGroupName extracts the CN component of a distinguished name.
// A DN without a CN= component is returned unchanged.
func FormatGroupName(dn string) string {
	for _, part := range splitDN(dn) {
		part = strings.TrimSpace(part)
		if len(part) > 3 && strings.EqualFold(part[:3], "CN=") {
			return strings.ReplaceAll(part[3:], `\,`, ",")
		}
	}
	return dn
}

// splitDN splits on commas that are not escaped with a backslash.
func splitDN(dn string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(dn); i++ {
		switch dn[i] {
		case '\\':
			i++
		case ',':
			parts = append(parts, dn[start:i])
			start = i + 1
		}
	}
	return append(parts, dn[start:])
}
