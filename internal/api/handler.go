package api

import (
	"rfboard/internal/reconcile"
	"rfboard/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   *store.Store
	session *reconcile.Session
	demo    bool
}

// NewHandler creates a new API handler.
func NewHandler(s *store.Store, session *reconcile.Session, demo bool) *Handler {
	return &Handler{
		store:   s,
		session: session,
		demo:    demo,
	}
}
