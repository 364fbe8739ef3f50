package store

import "github.com/google/uuid"

// Id prefixes per collection
const (
	PrefixProject  = "p"
	PrefixTask     = "t"
	PrefixNote     = "n"
	PrefixArtifact = "a"
	PrefixCalendar = "c"
	PrefixMindmap  = "m"
	PrefixDeck     = "deck"
)

// NewID mints a random id such as "t-2f9c...". Ids never derive from the
// clock so bulk copies cannot collide.
func NewID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
