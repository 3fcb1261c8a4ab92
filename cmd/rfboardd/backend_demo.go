package main

import (
	"context"

	"rfboard/internal/ingest"
	"rfboard/internal/store"
)

// demoBackend accepts every save without persisting anywhere. In demo mode
// there is no hardware backend; the editor session reflects saves into the
// store itself, which is all the synthetic dashboard needs.
type demoBackend struct{}

func (demoBackend) SaveConfig(context.Context, []store.SlotConfig) error { return nil }

func (demoBackend) SaveSlots(context.Context, []ingest.SlotUpdate) error { return nil }

func (demoBackend) SaveGroup(context.Context, store.Group) error { return nil }
