package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/yungbote/learnbridge/internal/api"
	"github.com/yungbote/learnbridge/internal/bus"
	"github.com/yungbote/learnbridge/internal/platform/logger"
	"github.com/yungbote/learnbridge/internal/store"
	"github.com/yungbote/learnbridge/internal/types"
)

func nopLogger() *logger.Logger { return logger.NewNop() }

// stubSession pins the user key so service tests don't exercise login.
type stubSession struct {
	key    string
	authed bool
}

func (s *stubSession) Login(ctx context.Context, email, password string) (types.User, error) {
	return types.User{}, nil
}
func (s *stubSession) Logout(ctx context.Context)      {}
func (s *stubSession) Token() string                   { return "stub-token" }
func (s *stubSession) UserKey() string                 { return s.key }
func (s *stubSession) CurrentUser() (types.User, bool) { return types.User{}, false }
func (s *stubSession) Authenticated() bool             { return s.authed }
func (s *stubSession) HandleUnauthorized()             {}

type env struct {
	store    *store.Store
	bus      *bus.Bus
	apic     *api.Client
	session  SessionService
	progress ProgressService
}

func newEnv(t *testing.T, handler http.Handler) *env {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "state.db"), logger.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	apic, err := api.New(api.Options{BaseURL: srv.URL}, logger.NewNop())
	if err != nil {
		t.Fatalf("new api client: %v", err)
	}

	b := bus.New(logger.NewNop())
	session := &stubSession{key: "u1", authed: true}
	ps := NewProgressService(st, apic, b, session, logger.NewNop())

	return &env{store: st, bus: b, apic: apic, session: session, progress: ps}
}
