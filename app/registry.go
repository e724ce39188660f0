package app

import (
	"strings"
	"sync"

	"geoconsole/config"
	"geoconsole/draft"
	"geoconsole/gate"
	"geoconsole/metrics"
)

// editorSet holds the mounted editors of one resource kind, keyed by the
// scheduler key, which starts with the session id.
type editorSet[R any] struct {
	mu    sync.Mutex
	items map[string]*draft.Editor[R]
}

func newEditorSet[R any]() *editorSet[R] {
	return &editorSet[R]{items: map[string]*draft.Editor[R]{}}
}

// mount returns the editor under key, creating it when absent. The second
// result is false when an existing editor was returned.
func (s *editorSet[R]) mount(key string, create func() *draft.Editor[R]) (*draft.Editor[R], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if editor, ok := s.items[key]; ok {
		return editor, false
	}

	editor := create()
	s.items[key] = editor
	metrics.Inc(config.MountedEditors)
	return editor, true
}

func (s *editorSet[R]) get(key string) (*draft.Editor[R], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	editor, ok := s.items[key]
	return editor, ok
}

func (s *editorSet[R]) unmount(key string) bool {
	s.mu.Lock()
	editor, ok := s.items[key]
	delete(s.items, key)
	s.mu.Unlock()

	if !ok {
		return false
	}
	editor.Close()
	metrics.Dec(config.MountedEditors)
	return true
}

func (s *editorSet[R]) unmountSession(sid string) int {
	prefix := sid + "/"

	s.mu.Lock()
	var closing []*draft.Editor[R]
	for key, editor := range s.items {
		if strings.HasPrefix(key, prefix) {
			closing = append(closing, editor)
			delete(s.items, key)
		}
	}
	s.mu.Unlock()

	for _, editor := range closing {
		editor.Close()
		metrics.Dec(config.MountedEditors)
	}
	return len(closing)
}

// gateSet holds the delete dialogs, one per session and team.
type gateSet struct {
	mu    sync.Mutex
	items map[string]*gate.Gate
}

func newGateSet() *gateSet {
	return &gateSet{items: map[string]*gate.Gate{}}
}

func gateKey(sid, teamID string) string { return sid + "/" + teamID }

func (s *gateSet) get(sid, teamID string) (*gate.Gate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.items[gateKey(sid, teamID)]
	return g, ok
}

func (s *gateSet) getOrCreate(sid, teamID string, create func() *gate.Gate) *gate.Gate {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := gateKey(sid, teamID)
	if g, ok := s.items[key]; ok {
		return g
	}
	g := create()
	s.items[key] = g
	return g
}

func (s *gateSet) remove(sid, teamID string) {
	s.mu.Lock()
	g, ok := s.items[gateKey(sid, teamID)]
	delete(s.items, gateKey(sid, teamID))
	s.mu.Unlock()

	if ok {
		g.Stop()
	}
}

func (s *gateSet) removeSession(sid string) {
	prefix := sid + "/"

	s.mu.Lock()
	var stopping []*gate.Gate
	for key, g := range s.items {
		if strings.HasPrefix(key, prefix) {
			stopping = append(stopping, g)
			delete(s.items, key)
		}
	}
	s.mu.Unlock()

	for _, g := range stopping {
		g.Stop()
	}
}
