package application

import (
	"github.com/bnema/sessionkeys/internal/domain"
	"go.uber.org/zap"
)

// ManagerFactory holds the shared, secret-free collaborators and hands out a
// fresh SessionManager per user request.
type ManagerFactory struct {
	deps ManagerDeps
}

func NewManagerFactory(deps ManagerDeps) *ManagerFactory {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	return &ManagerFactory{deps: deps}
}

func (f *ManagerFactory) ForUser(userKey domain.UserKey) *SessionManager {
	deps := f.deps
	deps.Logger = f.deps.Logger.Named("manager").With(zap.String("user_key", string(userKey)))

	return NewSessionManager(deps)
}
