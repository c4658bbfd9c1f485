package services

import (
	"net/http"
	"os"

	"github.com/gorilla/sessions"
	"github.com/rs/zerolog/log"
)

const (
	sessionName   = "mdmate_session"
	sessionMaxAge = 3600 // 1 hour idle timeout, rolled on every save
)

// SessionService is the session authority: establish an identity for a
// userId, read it back, refresh its idle timeout, destroy it. The cookie
// value is opaque to the client; swapping the gorilla sessions.Store is the
// extension point for an externally shared backend.
type SessionService interface {
	Establish(w http.ResponseWriter, r *http.Request, userID string) error
	CurrentUserID(r *http.Request) (string, bool)
	Refresh(w http.ResponseWriter, r *http.Request) error
	Destroy(w http.ResponseWriter, r *http.Request) error
}

type sessionService struct {
	store sessions.Store
}

func NewSessionService() SessionService {
	sessionKey := os.Getenv("SESSION_KEY")
	if sessionKey == "" {
		log.Fatal().Msg("SESSION_KEY environment variable not set")
	}

	store := sessions.NewCookieStore([]byte(sessionKey))
	store.MaxAge(sessionMaxAge)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = os.Getenv("ENV") == "production"
	store.Options.SameSite = http.SameSiteLaxMode

	return &sessionService{store: store}
}

// NewSessionServiceWithStore injects a custom store; used by tests.
func NewSessionServiceWithStore(store sessions.Store) SessionService {
	return &sessionService{store: store}
}

func (s *sessionService) Establish(w http.ResponseWriter, r *http.Request, userID string) error {
	session, _ := s.store.Get(r, sessionName)
	session.Values["userID"] = userID
	return session.Save(r, w)
}

func (s *sessionService) CurrentUserID(r *http.Request) (string, bool) {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		return "", false
	}
	userID, ok := session.Values["userID"].(string)
	return userID, ok && userID != ""
}

// Refresh re-saves the session so the idle timeout rolls forward.
func (s *sessionService) Refresh(w http.ResponseWriter, r *http.Request) error {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		return err
	}
	return session.Save(r, w)
}

// Destroy is idempotent; destroying an absent session is not an error.
func (s *sessionService) Destroy(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, sessionName)
	session.Options.MaxAge = -1
	delete(session.Values, "userID")
	return session.Save(r, w)
}
