package usecase

import (
	"context"
	"io"
	"sync"
	"testing"

	"patient-appointments-bff/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type auditEvent struct {
	UserID    *uuid.UUID
	SessionID string
	Action    string
	Metadata  entity.JSON
}

type fakeAuditService struct {
	mu     sync.Mutex
	events []auditEvent
}

func (f *fakeAuditService) LogEvent(_ context.Context, userID *uuid.UUID, sessionID string, action string, metadata entity.JSON) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, auditEvent{UserID: userID, SessionID: sessionID, Action: action, Metadata: metadata})
	return nil
}

func (f *fakeAuditService) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Action
	}
	return out
}

func quietLogger(t *testing.T) *logrus.Logger {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}
