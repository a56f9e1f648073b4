package state

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Roles used in the conversation record.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleError     = "error"
	RoleSolution  = "solution"
)

// Entry is one (role, content) pair.
type Entry struct {
	Role    string
	Content string
}

// Record is the append-only conversation log for one goal.
type Record struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{}
}

// Append adds an entry to the end of the log.
func (r *Record) Append(role, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Role: role, Content: content})
}

// Len reports the number of entries.
func (r *Record) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Entries returns a copy of the full log.
func (r *Record) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Recent returns up to n of the newest entries, oldest first.
func (r *Record) Recent(n int) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n <= 0 {
		return nil
	}
	start := len(r.entries) - n
	if start < 0 {
		start = 0
	}
	out := make([]Entry, len(r.entries)-start)
	copy(out, r.entries[start:])
	return out
}

// Format renders the newest n entries as "Role: content" lines for prompts.
func (r *Record) Format(n int) string {
	recent := r.Recent(n)
	if len(recent) == 0 {
		return "No previous conversation."
	}
	lines := make([]string, len(recent))
	for i, e := range recent {
		lines[i] = capitalize(e.Role) + ": " + e.Content
	}
	return strings.Join(lines, "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + strings.ToLower(s[size:])
}
