package slots

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"slotdesk/internal/models"
)

// Fingerprint hashes every generator input that can change a date's slot
// list. A cached board whose fingerprint differs must be regenerated.
func Fingerprint(day models.WorkingDay, settings models.SlotSettings, dateBlocked bool) string {
	raw := fmt.Sprintf("%t|%s|%s|%s|%s|%d|%d|%t",
		day.IsOpen, day.StartTime, day.EndTime, day.BreakStart, day.BreakEnd,
		settings.DefaultDuration, settings.BufferTime, dateBlocked)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:8])
}
