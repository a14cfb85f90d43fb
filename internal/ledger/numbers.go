package ledger

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// entryPrefix maps an entry type to its number prefix.
func entryPrefix(t EntryType) string {
	switch t {
	case EntryTypeSystem:
		return "SYS"
	case EntryTypeRecurring:
		return "REC"
	default:
		return "JE"
	}
}

// newEntryNumber builds a {PREFIX}-{YYYYMM}-{disambiguator} number. The
// disambiguator combines the second-resolution timestamp with a random
// suffix so concurrent postings within the same second stay distinct; a
// residual collision surfaces as ErrDuplicateEntryNumber and is retried once.
func newEntryNumber(t EntryType, at time.Time) string {
	buf := make([]byte, 2)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("%s-%s-%s%s", entryPrefix(t), at.Format("200601"), at.Format("150405"), hex.EncodeToString(buf))
}
