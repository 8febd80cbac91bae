package discord

import (
	"sync"

	"github.com/bwmarrin/discordgo"

	"guildkeeper/internal/wizard"
)

type flowKind int

const (
	flowCreate flowKind = iota
	flowTrigger
)

// wizardSession ties a running wizard to the interaction that opened it.
type wizardSession struct {
	id          string
	kind        flowKind
	wizard      *wizard.Wizard
	interaction *discordgo.Interaction
	userID      string
	guildID     string
	eventName   string
	timezone    string
	// categoryID is the trigger category for flowTrigger.
	categoryID string
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*wizardSession
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*wizardSession)}
}

func (s *sessionStore) add(ws *wizardSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[ws.id] = ws
}

func (s *sessionStore) get(id string) (*wizardSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.sessions[id]
	return ws, ok
}

func (s *sessionStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *sessionStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
