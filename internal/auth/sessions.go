package auth

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/pulverlogic/newsboard/internal/models"
)

const (
	sessionName      = "pulverlogic"
	keyUsername      = "username"
	keyRole          = "role"
	keyImpersonating = "impersonating"
)

// Identity is who the current browser session belongs to.
type Identity struct {
	Username      string
	Role          models.Role
	Impersonating string
}

func (id Identity) LoggedIn() bool {
	return id.Username != ""
}

func (id Identity) IsAdmin() bool {
	return id.Role == models.RoleAdmin
}

// Scholar is the user whose data a scholar page shows: the impersonated
// scholar for an admin, the user themself otherwise.
func (id Identity) Scholar() string {
	if id.IsAdmin() && id.Impersonating != "" {
		return id.Impersonating
	}
	return id.Username
}

type Sessions struct {
	store *sessions.CookieStore
}

func NewSessions(secret string, maxAge int, secure bool) (*Sessions, error) {
	if len(secret) < 16 {
		return nil, fmt.Errorf("session secret must be at least 16 bytes")
	}
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store}, nil
}

// Identity returns the public identity when there is no valid session.
func (s *Sessions) Identity(r *http.Request) Identity {
	session, err := s.store.Get(r, sessionName)
	if err != nil {
		return Identity{Role: models.RolePublic}
	}
	username, _ := session.Values[keyUsername].(string)
	role, _ := session.Values[keyRole].(string)
	impersonating, _ := session.Values[keyImpersonating].(string)
	if username == "" {
		return Identity{Role: models.RolePublic}
	}
	return Identity{Username: username, Role: models.Role(role), Impersonating: impersonating}
}

func (s *Sessions) Login(w http.ResponseWriter, r *http.Request, u models.User) error {
	session, _ := s.store.Get(r, sessionName)
	session.Values = map[interface{}]interface{}{
		keyUsername: u.Username,
		keyRole:     string(u.Role),
	}
	return session.Save(r, w)
}

func (s *Sessions) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := s.store.Get(r, sessionName)
	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// Impersonate lets an admin view the site as scholar. An empty scholar
// ends the impersonation.
func (s *Sessions) Impersonate(w http.ResponseWriter, r *http.Request, scholar string) error {
	session, _ := s.store.Get(r, sessionName)
	if role, _ := session.Values[keyRole].(string); models.Role(role) != models.RoleAdmin {
		return fmt.Errorf("only admins can impersonate")
	}
	if scholar == "" {
		delete(session.Values, keyImpersonating)
	} else {
		session.Values[keyImpersonating] = scholar
	}
	return session.Save(r, w)
}
