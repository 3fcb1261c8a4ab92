package reconcile

import (
	"context"
	"log"

	"rfboard/internal/ingest"
	"rfboard/internal/store"
)

// Backend is the write path to the external persistence owner.
// *ingest.Client satisfies it.
type Backend interface {
	SaveConfig(ctx context.Context, slots []store.SlotConfig) error
	SaveSlots(ctx context.Context, updates []ingest.SlotUpdate) error
	SaveGroup(ctx context.Context, g store.Group) error
}

// Session owns the open/edit/save-or-discard lifecycle of the three
// editors. Opening any editor silently closes another; save and cancel
// always return to NONE. A failed save leaves the editor open so the user
// can retry or cancel, and never touches the global connection state.
type Session struct {
	store   *store.Store
	backend Backend
}

// NewSession creates an editor session bound to the store and backend.
func NewSession(s *store.Store, b Backend) *Session {
	return &Session{store: s, backend: b}
}

// OpenConfig snapshots the persisted slot list as the working copy and
// activates the CONFIG editor.
func (s *Session) OpenConfig() []store.SlotConfig {
	s.store.SetSettingsMode(store.ModeConfig)
	return s.store.Config()
}

// SaveConfig validates the working copy, persists it through the backend
// and reflects it into the store. The working copy is the caller's; it is
// discarded by simply closing the editor.
func (s *Session) SaveConfig(ctx context.Context, working []store.SlotConfig) error {
	if err := Validate(working); err != nil {
		// Reconciler bug, not user input: surface loudly.
		log.Printf("BUG: %v", err)
		return err
	}

	payload := ToPersistPayload(working)
	if err := s.backend.SaveConfig(ctx, payload); err != nil {
		return err
	}
	s.store.SetConfig(payload)
	s.store.SetSettingsMode(store.ModeNone)
	return nil
}

// OpenGroup returns a working copy of the group (blank if not yet stored)
// and activates the GROUP editor.
func (s *Session) OpenGroup(number int) store.Group {
	s.store.SetSettingsMode(store.ModeGroup)
	if g, ok := s.store.Group(number); ok {
		return g
	}
	return store.Group{Group: number}
}

// SaveGroup persists the group and reflects it into the store.
func (s *Session) SaveGroup(ctx context.Context, g store.Group) error {
	if err := s.backend.SaveGroup(ctx, g); err != nil {
		return err
	}
	s.store.SetGroup(g)
	s.store.SetSettingsMode(store.ModeNone)
	return nil
}

// OpenExtended activates the EXTENDED (name override) editor.
func (s *Session) OpenExtended() {
	s.store.SetSettingsMode(store.ModeExtended)
}

// SaveExtended persists extended-name overrides and applies them to the
// configured slots and live records. Empty strings clear an override.
func (s *Session) SaveExtended(ctx context.Context, updates []ingest.SlotUpdate) error {
	if err := s.backend.SaveSlots(ctx, updates); err != nil {
		return err
	}

	slots := s.store.Config()
	for _, u := range updates {
		for i := range slots {
			if slots[i].Slot != u.Slot {
				continue
			}
			slots[i].ExtendedID = u.ExtendedID
			slots[i].ExtendedName = u.ExtendedName
		}
		id := u.ExtendedID
		name := u.ExtendedName
		s.store.UpdateTransmitter(u.Slot, store.TransmitterPatch{
			ExtendedID:   &id,
			ExtendedName: &name,
		})
	}
	s.store.SetConfig(slots)
	s.store.SetSettingsMode(store.ModeNone)
	return nil
}

// Cancel discards the working copy by closing whichever editor is open.
func (s *Session) Cancel() {
	s.store.SetSettingsMode(store.ModeNone)
}
