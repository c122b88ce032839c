package dialog

import "sync"

// State is a user's pending multi-step interaction.
type State int

const (
	// Idle means no prompt is outstanding.
	Idle State = iota
	// AwaitingFolderName means the next text becomes a new folder's name.
	AwaitingFolderName
	// AwaitingFolderSelection means the next text is parsed as a 1-based
	// index into the user's folder list.
	AwaitingFolderSelection
)

func (s State) String() string {
	switch s {
	case AwaitingFolderName:
		return "awaiting-folder-name"
	case AwaitingFolderSelection:
		return "awaiting-folder-selection"
	default:
		return "idle"
	}
}

// Machine tracks per-user dialog state. Every user starts Idle; prompts are
// single-shot, so consuming a state always returns the user to Idle.
type Machine struct {
	mu     sync.Mutex
	states map[int64]State
}

func NewMachine() *Machine {
	return &Machine{states: make(map[int64]State)}
}

// Get returns the user's current state.
func (m *Machine) Get(userID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[userID]
}

// Set records a pending prompt, overriding whatever was pending before.
func (m *Machine) Set(userID int64, s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s == Idle {
		delete(m.states, userID)
		return
	}
	m.states[userID] = s
}

// Reset returns the user to Idle.
func (m *Machine) Reset(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
}

// Consume atomically reads the user's state and resets it to Idle.
func (m *Machine) Consume(userID int64) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.states[userID]
	delete(m.states, userID)
	return s
}
