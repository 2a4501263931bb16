package core

import "strings"

// DefaultTerminationToken is the sentinel conventionally used to end a chat.
const DefaultTerminationToken = "TERMINATE"

// TerminationFunc decides whether a message ends the conversation. It must be
// a pure function of the message.
type TerminationFunc func(Message) bool

// Never is a TerminationFunc that never fires.
func Never(Message) bool { return false }

// ContainsToken fires when the message content contains token. An empty token
// never matches.
func ContainsToken(token string) TerminationFunc {
	return func(m Message) bool {
		return token != "" && strings.Contains(m.Content, token)
	}
}

// HasSuffixToken fires when the trimmed message content ends with token.
func HasSuffixToken(token string) TerminationFunc {
	return func(m Message) bool {
		return token != "" && strings.HasSuffix(strings.TrimSpace(m.Content), token)
	}
}

// AnyOf fires when at least one of fns fires. Nil entries are ignored.
func AnyOf(fns ...TerminationFunc) TerminationFunc {
	return func(m Message) bool {
		for _, fn := range fns {
			if fn != nil && fn(m) {
				return true
			}
		}
		return false
	}
}
