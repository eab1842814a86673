package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bibliotek-ia/bibliotek/internal/models"
	"github.com/bibliotek-ia/bibliotek/internal/respond"
	"github.com/bibliotek-ia/bibliotek/internal/storage"
)

// touchInterval bounds how often last_seen_at is written per user
const touchInterval = time.Minute

// Middleware guards API routes
type Middleware struct {
	tokens *JWTManager
	store  UserStore
	now    func() time.Time

	mu        sync.Mutex
	lastTouch map[int64]time.Time
	lastPrune time.Time
}

// NewMiddleware returns middleware verifying tokens issued by tokens
func NewMiddleware(tokens *JWTManager, store UserStore) *Middleware {
	return &Middleware{
		tokens:    tokens,
		store:     store,
		now:       time.Now,
		lastTouch: make(map[int64]time.Time),
	}
}

// Authenticate requires a valid bearer token for an account that still exists,
// and stores the claims and the account in the request context
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}

		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			slog.Debug("Rejected token", "err", err)
			respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		u, ok := m.loadUser(w, r, claims.UserID)
		if !ok {
			return
		}

		m.touch(r, claims.UserID)
		ctx := withUser(WithClaims(r.Context(), claims), u)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin lets only admins through. The role is read from storage so a
// promotion or demotion applies without a new token.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}

		u, ok := UserFromContext(r.Context())
		if !ok {
			if u, ok = m.loadUser(w, r, claims.UserID); !ok {
				return
			}
		}
		if !u.IsAdmin() {
			respond.Error(w, http.StatusForbidden, "admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loadUser writes the error response itself when it returns false
func (m *Middleware) loadUser(w http.ResponseWriter, r *http.Request, userID int64) (*models.User, bool) {
	u, err := m.store.GetUser(r.Context(), userID)
	if errors.Is(err, storage.ErrNotFound) {
		respond.Error(w, http.StatusUnauthorized, "account no longer exists")
		return nil, false
	}
	if err != nil {
		slog.Error("Failed to load user", "user_id", userID, "err", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	return u, true
}

func (m *Middleware) touch(r *http.Request, userID int64) {
	now := m.now()

	m.mu.Lock()
	// an entry older than touchInterval means the same as no entry
	if now.Sub(m.lastPrune) >= touchInterval {
		for id, t := range m.lastTouch {
			if now.Sub(t) >= touchInterval {
				delete(m.lastTouch, id)
			}
		}
		m.lastPrune = now
	}
	last, seen := m.lastTouch[userID]
	due := !seen || now.Sub(last) >= touchInterval
	if due {
		m.lastTouch[userID] = now
	}
	m.mu.Unlock()

	if !due {
		return
	}
	if err := m.store.TouchLastSeen(r.Context(), userID, now); err != nil {
		slog.Warn("Failed to update last seen", "user_id", userID, "err", err)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
