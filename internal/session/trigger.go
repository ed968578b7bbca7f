package session

import "strings"

// DefaultTrigger is the token that routes launcher input to this plugin.
const DefaultTrigger = "ch"

// MatchText applies the trigger grammar to raw launcher input. The input is
// split at its first space; when the part before it equals trigger, the rest
// is returned verbatim. "ch" alone, without a space, does not trigger.
func MatchText(raw, trigger string) (string, bool) {
	head, rest, found := strings.Cut(raw, " ")
	if !found || head != trigger {
		return "", false
	}
	return rest, true
}
