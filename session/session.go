package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

type Session struct {
	Name     string    `json:"name"`
	Provider string    `json:"provider,omitempty"`
	Messages []Message `json:"messages"`
	path     string
}

// New creates a new session.
func New(name string) (*Session, error) {
	path, err := getSessionPath(name)
	if err != nil {
		return nil, err
	}
	return &Session{
		Name:     name,
		Messages: []Message{},
		path:     path,
	}, nil
}

// NewInMemory creates a session that is never written to disk.
func NewInMemory(name string) *Session {
	return &Session{Name: name, Messages: []Message{}}
}

// Load loads an existing session from disk.
func Load(name string) (*Session, error) {
	path, err := getSessionPath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read session file %s: %w", path, err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("could not parse session file %s: %w", path, err)
	}
	s.path = path
	return &s, nil
}

// Save writes the current session state to disk. In-memory sessions are a
// no-op.
func (s *Session) Save() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}

// AddMessage appends a message to the session history.
func (s *Session) AddMessage(msg Message) {
	s.Messages = append(s.Messages, msg)
}

// Trim drops the oldest messages so that at most 2*maxContext remain.
func (s *Session) Trim(maxContext int) {
	limit := 2 * maxContext
	if limit < 0 || len(s.Messages) <= limit {
		return
	}
	kept := make([]Message, limit)
	copy(kept, s.Messages[len(s.Messages)-limit:])
	s.Messages = kept
}

// LastAssistant returns the most recent assistant message.
func (s *Session) LastAssistant() (Message, bool) {
	if i := s.lastAssistantIndex(); i >= 0 {
		return s.Messages[i], true
	}
	return Message{}, false
}

// ReplaceLastAssistant rewrites the content of the most recent assistant
// message in place. It reports false when there is none.
func (s *Session) ReplaceLastAssistant(content string) bool {
	i := s.lastAssistantIndex()
	if i < 0 {
		return false
	}
	s.Messages[i].Content = content
	return true
}

// Clear forgets the conversation.
func (s *Session) Clear() {
	s.Messages = []Message{}
}

func (s *Session) lastAssistantIndex() int {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return i
		}
	}
	return -1
}

func getSessionPath(name string) (string, error) {
	sessionDir := filepath.Join(".askai", "sessions")
	if err := os.MkdirAll(sessionDir, 0755); err != nil {
		return "", fmt.Errorf("could not create session directory: %w", err)
	}
	return filepath.Join(sessionDir, fmt.Sprintf("%s.json", name)), nil
}
