package session

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// armAutosaveLocked re-arms the debounced draft-save timer. Each call
// supersedes the previous one, so at most one autosave task is ever
// outstanding per session. Autosave never runs validation.
func (s *Session) armAutosaveLocked() {
	settings := s.schema.Settings
	if !settings.AutoSave || !settings.AllowDraft || s.drafts == nil {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(settings.Interval(), s.autosave)
}

func (s *Session) cancelAutosaveLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) autosave() {
	s.mu.Lock()
	if s.state != StateEditing {
		s.mu.Unlock()
		return
	}
	draft := Draft{
		ID:        uuid.NewString(),
		SessionID: s.id,
		FormID:    s.schema.ID,
		Values:    copyValues(s.values),
		SavedAt:   time.Now().UTC(),
	}
	s.mu.Unlock()

	if err := s.drafts.SaveDraft(context.Background(), draft); err != nil {
		s.logger.Warn("autosave draft failed",
			"form", draft.FormID,
			"session", draft.SessionID,
			"error", err,
		)
	}
}
