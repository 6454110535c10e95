package sessions

// TitleFromMessage derives a conversation title from message content: the
// content itself when it fits in maxLen characters, otherwise its first
// maxLen characters followed by "...".
func TitleFromMessage(content string, maxLen int) string {
	runes := []rune(content)
	if maxLen <= 0 || len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen]) + "..."
}

// DerivedTitle returns the title a session should take when msg is appended
// to it. Only the first user message of a session still carrying
// DefaultTitle produces a title, so a session is renamed at most once.
func DerivedTitle(s *Session, msg Message, maxLen int) (string, bool) {
	if msg.Role != RoleUser || s.Title != DefaultTitle || s.HasUserMessage() {
		return "", false
	}
	return TitleFromMessage(msg.Content, maxLen), true
}
