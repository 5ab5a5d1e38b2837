package adminclient

import (
	"context"
	"slices"

	"github.com/crestline/estatesite/internal/apierr"
	"github.com/crestline/estatesite/internal/auth"
	"github.com/crestline/estatesite/internal/properties/editor"

	log "github.com/sirupsen/logrus"
)

type Section string

const (
	SectionDashboard    Section = "dashboard"
	SectionProperties   Section = "properties"
	SectionAppointments Section = "appointments"
	SectionUsers        Section = "users"
)

var (
	ErrNotLoggedIn      = apierr.New(apierr.Unauthenticated, "not logged in")
	ErrSectionForbidden = apierr.New(apierr.Forbidden, "section not available for this role")
)

// Shell is the admin UI state: who is logged in, which sections they see and the open unit editors.
type Shell struct {
	client *Client
	store  SessionStore

	session       Session
	authenticated bool
	verified      bool

	current   Section
	leavingTo Section
	workspace *editor.Workspace
}

func NewShell(client *Client, store SessionStore) *Shell {
	return &Shell{
		client: client,
		store:  store,
	}
}

// Bootstrap restores a stored session and checks it with the server. A rejected
// token clears the store. A server that cannot be reached keeps the stored session.
func (s *Shell) Bootstrap(ctx context.Context) error {
	session, ok := s.store.Get()
	if !ok {
		s.reset()
		return nil
	}

	s.session = session
	s.authenticated = true
	s.current = SectionDashboard
	s.client.SetToken(session.Token)

	user, err := s.client.Verify(ctx)
	if err != nil {
		if apierr.KindOf(err) == apierr.Unauthenticated {
			log.Infof("stored session rejected: %s", err)
			if clearErr := s.store.Clear(); clearErr != nil {
				log.Errorf("clear session store: %s", clearErr)
			}
			s.reset()
			return nil
		}
		log.Warnf("verify session: %s, staying logged in", err)
		return err
	}

	s.verified = true
	s.session.User = user
	if err := s.store.Set(s.session); err != nil {
		log.Errorf("refresh stored session: %s", err)
	}
	return nil
}

func (s *Shell) Login(ctx context.Context, username, password string) (*auth.Account, error) {
	result, err := s.client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}

	session := Session{Token: result.Token, User: result.User}
	if err := s.store.Set(session); err != nil {
		return nil, err
	}

	s.session = session
	s.authenticated = true
	s.verified = true
	s.current = SectionDashboard
	s.client.SetToken(result.Token)
	return result.User, nil
}

// Logout tells the server best-effort and always clears local state.
func (s *Shell) Logout(ctx context.Context) error {
	if s.authenticated {
		if err := s.client.Logout(ctx); err != nil {
			log.Warnf("server logout: %s", err)
		}
	}
	s.reset()
	return s.store.Clear()
}

func (s *Shell) reset() {
	s.session = Session{}
	s.authenticated = false
	s.verified = false
	s.current = ""
	s.leavingTo = ""
	s.workspace = nil
	s.client.SetToken("")
}

func (s *Shell) Authenticated() bool {
	return s.authenticated
}

// Verified reports whether the server confirmed the session in this run.
func (s *Shell) Verified() bool {
	return s.verified
}

func (s *Shell) User() *auth.Account {
	return s.session.User
}

func (s *Shell) Current() Section {
	return s.current
}

func (s *Shell) Workspace() *editor.Workspace {
	return s.workspace
}

// Sections lists what the current role may open.
func (s *Shell) Sections() []Section {
	if !s.authenticated || s.session.User == nil {
		return nil
	}

	role := s.session.User.Role
	sections := []Section{SectionDashboard}
	if auth.CanManageProperties(role) {
		sections = append(sections, SectionProperties)
	}
	if auth.CanManageAppointments(role) {
		sections = append(sections, SectionAppointments)
	}
	if auth.CanManageUsers(role) {
		sections = append(sections, SectionUsers)
	}
	return sections
}

// Navigate opens a section. Leaving the property editor with unsaved edits
// returns a pending navigation that moves only once resolved.
func (s *Shell) Navigate(ctx context.Context, section Section) (*editor.PendingNavigation, error) {
	if !s.authenticated {
		return nil, ErrNotLoggedIn
	}
	if !slices.Contains(s.Sections(), section) {
		return nil, ErrSectionForbidden
	}
	if section == s.current {
		return nil, nil
	}

	if s.current == SectionProperties && s.workspace != nil {
		s.leavingTo = section
		if pending := s.workspace.Back(); pending != nil {
			return pending, nil
		}
		return nil, nil
	}

	if section == SectionProperties {
		if err := s.openProperties(ctx); err != nil {
			return nil, err
		}
	}
	s.current = section
	return nil, nil
}

func (s *Shell) openProperties(ctx context.Context) error {
	buildings, err := s.client.Buildings(ctx)
	if err != nil {
		return err
	}

	ws := editor.NewWorkspace()
	for _, b := range buildings {
		units, err := s.client.EditorUnits(ctx, b.ID)
		if err != nil {
			return err
		}
		ws.Open(editor.New(b, units, s.client))
	}
	ws.OnClose(func() {
		s.workspace = nil
		s.current = s.leavingTo
		s.leavingTo = ""
	})

	s.workspace = ws
	return nil
}
