// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: shortcut/service.go
// Summary: Rebindable shortcut registry with conflict detection and
//          config-backed persistence.
// Usage: svc := shortcut.New()
//        if action, ok := svc.Lookup(shortcut.FromPress(press)); ok { ... }

package shortcut

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/framegrace/texelterm/config"
)

const configSection = "texelterm.shortcuts"

// disabledPrefix marks a persisted chord whose action is switched off
// without losing the user's chord choice.
const disabledPrefix = "disabled:"

var (
	ErrConflict      = errors.New("chord already bound")
	ErrUnknownAction = errors.New("unknown action")
	ErrEmptyChord    = errors.New("empty chord")
)

// Binding ties an action to its current chord.
type Binding struct {
	Action  Action
	Chord   Chord
	Enabled bool
}

// Service owns the shortcut table. Lookups happen on every keystroke,
// so matches go through a prebuilt chord index under a read lock.
type Service struct {
	mu       sync.RWMutex
	bindings map[Action]Binding
	byChord  map[Chord]Action
	persist  func(map[string]string)
}

// New builds the service from compiled defaults overlaid with the
// user's saved bindings. Unparseable saved chords log and fall back
// to the default.
func New() *Service {
	return newService(config.Shared().StringMap(configSection), persistToConfig)
}

func newService(saved map[string]string, persist func(map[string]string)) *Service {
	s := &Service{
		bindings: defaultBindings(),
		persist:  persist,
	}
	for name, raw := range saved {
		action := Action(name)
		binding, ok := s.bindings[action]
		if !ok {
			log.Printf("Shortcut: Ignoring saved binding for unknown action %q", name)
			continue
		}
		enabled := true
		if strings.HasPrefix(raw, disabledPrefix) {
			enabled = false
			raw = strings.TrimPrefix(raw, disabledPrefix)
		}
		chord, err := ParseChord(raw)
		if err != nil {
			log.Printf("Shortcut: Invalid saved chord for %s: %v", action, err)
			continue
		}
		binding.Chord = chord
		binding.Enabled = enabled
		s.bindings[action] = binding
	}
	s.reindexLocked()
	return s
}

// Lookup returns the enabled action bound to the chord.
func (s *Service) Lookup(chord Chord) (Action, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	action, ok := s.byChord[chord.normalized()]
	return action, ok
}

// Conflicting returns the enabled action other than except that holds
// the chord.
func (s *Service) Conflicting(chord Chord, except Action) (Action, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if action, ok := s.byChord[chord.normalized()]; ok && action != except {
		return action, true
	}
	return ActionNone, false
}

// Rebind assigns a new chord to an action. Conflicts with another
// enabled action are rejected, leaving the table unchanged.
func (s *Service) Rebind(action Action, chord Chord) error {
	chord = chord.normalized()
	if chord.IsEmpty() {
		return fmt.Errorf("rebind %s: %w", action, ErrEmptyChord)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	binding, ok := s.bindings[action]
	if !ok {
		return fmt.Errorf("rebind %q: %w", action, ErrUnknownAction)
	}
	if holder, held := s.byChord[chord]; held && holder != action {
		return fmt.Errorf("rebind %s to %s: %w by %s", action, chord, ErrConflict, holder)
	}

	binding.Chord = chord
	s.bindings[action] = binding
	s.reindexLocked()
	s.persistLocked()
	return nil
}

// SetEnabled switches an action on or off without forgetting its
// chord.
func (s *Service) SetEnabled(action Action, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	binding, ok := s.bindings[action]
	if !ok {
		return fmt.Errorf("enable %q: %w", action, ErrUnknownAction)
	}
	if binding.Enabled == enabled {
		return nil
	}
	binding.Enabled = enabled
	s.bindings[action] = binding
	s.reindexLocked()
	s.persistLocked()
	return nil
}

// ResetBinding restores one action to its factory chord.
func (s *Service) ResetBinding(action Action) error {
	defaults := defaultBindings()
	def, ok := defaults[action]
	if !ok {
		return fmt.Errorf("reset %q: %w", action, ErrUnknownAction)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if holder, held := s.byChord[def.Chord]; held && holder != action {
		return fmt.Errorf("reset %s to %s: %w by %s", action, def.Chord, ErrConflict, holder)
	}
	s.bindings[action] = def
	s.reindexLocked()
	s.persistLocked()
	return nil
}

// ResetAll restores every factory binding.
func (s *Service) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings = defaultBindings()
	s.reindexLocked()
	s.persistLocked()
}

// Bindings returns a copy of the table sorted by action name.
func (s *Service) Bindings() []Binding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Binding, 0, len(s.bindings))
	for _, b := range s.bindings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Action < out[j].Action })
	return out
}

// Binding returns one action's current binding.
func (s *Service) Binding(action Action) (Binding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bindings[action]
	return b, ok
}

func (s *Service) reindexLocked() {
	s.byChord = make(map[Chord]Action, len(s.bindings))
	for action, b := range s.bindings {
		if b.Enabled {
			s.byChord[b.Chord] = action
		}
	}
}

// persistLocked snapshots the table for the async writer. Save
// failures stay non-fatal; the in-memory table keeps working.
func (s *Service) persistLocked() {
	if s.persist == nil {
		return
	}
	out := make(map[string]string, len(s.bindings))
	for action, b := range s.bindings {
		v := b.Chord.String()
		if !b.Enabled {
			v = disabledPrefix + v
		}
		out[string(action)] = v
	}
	s.persist(out)
}

func persistToConfig(m map[string]string) {
	section := make(config.Section, len(m))
	for k, v := range m {
		section[k] = v
	}
	config.SetSection(configSection, section)
}
