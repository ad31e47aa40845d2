package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/learnbridge/internal/api"
	"github.com/yungbote/learnbridge/internal/bus"
	"github.com/yungbote/learnbridge/internal/platform/logger"
	"github.com/yungbote/learnbridge/internal/store"
	"github.com/yungbote/learnbridge/internal/types"
)

// SessionService owns the bearer token, the current user payload, and the
// per-user cache key. The user key is resolved once per session and handed
// to every cache consumer, never re-derived ad hoc.
type SessionService interface {
	Login(ctx context.Context, email, password string) (types.User, error)
	Logout(ctx context.Context)
	Token() string
	UserKey() string
	CurrentUser() (types.User, bool)
	Authenticated() bool

	// HandleUnauthorized is registered as the API client's 401 hook: it
	// clears local session state and notifies listeners, unconditionally.
	HandleUnauthorized()
}

type sessionService struct {
	store *store.Store
	apic  *api.Client
	bus   *bus.Bus
	log   *logger.Logger

	mu      sync.RWMutex
	token   string
	user    types.User
	hasUser bool
	userKey string
}

func NewSessionService(st *store.Store, apic *api.Client, b *bus.Bus, log *logger.Logger) SessionService {
	s := &sessionService{
		store: st,
		apic:  apic,
		bus:   b,
		log:   log.With("service", "SessionService"),
	}
	s.restore()

	apic.SetTokenSource(s.Token)
	apic.SetOnUnauthorized(s.HandleUnauthorized)
	return s
}

// restore loads a persisted session so a new process starts signed in.
func (s *sessionService) restore() {
	token := s.store.SessionToken()
	if token == "" {
		s.userKey = "anon"
		return
	}
	s.token = token

	if raw, ok := s.store.SessionUser(); ok {
		var u types.User
		if err := json.Unmarshal(raw, &u); err == nil {
			s.user = u
			s.hasUser = true
		}
	}
	s.userKey = s.resolveUserKey()
	s.log.Debug("session restored", "user_key", s.userKey)
}

func (s *sessionService) Login(ctx context.Context, email, password string) (types.User, error) {
	res, err := s.apic.Login(ctx, email, password)
	if err != nil {
		return types.User{}, fmt.Errorf("login: %w", err)
	}

	s.mu.Lock()
	s.token = res.Token
	s.user = res.User
	s.hasUser = true
	s.userKey = s.resolveUserKey()
	s.mu.Unlock()

	if err := s.store.PutSessionToken(res.Token); err != nil {
		s.log.Warn("persist token failed", "error", err)
	}
	if raw, err := json.Marshal(res.User); err == nil {
		_ = s.store.PutSessionUser(raw)
	}
	if err := s.store.RecordEmail(email); err != nil {
		s.log.Warn("record email failed", "error", err)
	}

	s.bus.Publish(ctx, bus.Message{Event: bus.EventAuthChanged})
	return res.User, nil
}

func (s *sessionService) Logout(ctx context.Context) {
	// Best effort: the server call may fail, local state goes regardless.
	if err := s.apic.Logout(ctx); err != nil {
		s.log.Debug("server logout failed", "error", err)
	}
	s.clearLocal(ctx)
}

// HandleUnauthorized clears the session for any 401, on any endpoint.
func (s *sessionService) HandleUnauthorized() {
	s.mu.RLock()
	hadToken := s.token != ""
	s.mu.RUnlock()
	if !hadToken {
		return
	}
	s.log.Info("session rejected by server, clearing local state")
	s.clearLocal(context.Background())
}

func (s *sessionService) clearLocal(ctx context.Context) {
	s.mu.Lock()
	userKey := s.userKey
	s.token = ""
	s.user = types.User{}
	s.hasUser = false
	s.userKey = "anon"
	s.mu.Unlock()

	s.store.ClearSession()
	for _, prefix := range store.UserPrefix(userKey) {
		if err := s.store.DeletePrefix(prefix); err != nil {
			s.log.Warn("clear user cache failed", "prefix", prefix, "error", err)
		}
	}
	s.store.ClearDirty()

	s.bus.Publish(ctx, bus.Message{Event: bus.EventAuthChanged})
}

func (s *sessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *sessionService) UserKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userKey
}

func (s *sessionService) CurrentUser() (types.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.hasUser
}

func (s *sessionService) Authenticated() bool {
	return s.Token() != ""
}

// resolveUserKey prefers the user payload (id, else email, else name) and
// falls back to unverified token claims, else "anon". Callers hold no lock
// ordering expectations; invoked under s.mu or before publication.
func (s *sessionService) resolveUserKey() string {
	if s.hasUser {
		if s.user.ID != 0 {
			return strconv.Itoa(s.user.ID)
		}
		if s.user.Email != "" {
			return strings.ToLower(s.user.Email)
		}
		if s.user.Name != "" {
			return s.user.Name
		}
	}
	if key := userKeyFromToken(s.token); key != "" {
		return key
	}
	return "anon"
}

// userKeyFromToken pulls an identity claim out of the JWT without verifying
// the signature. The key only namespaces local caches; authenticity is the
// server's problem.
func userKeyFromToken(token string) string {
	if strings.TrimSpace(token) == "" {
		return ""
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return ""
	}
	for _, claim := range []string{"user_id", "sub", "email", "name"} {
		switch v := claims[claim].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return strings.ToLower(strings.TrimSpace(v))
			}
		case float64:
			if v != 0 {
				return strconv.Itoa(int(v))
			}
		}
	}
	return ""
}
