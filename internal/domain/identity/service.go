package identity

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/patientcare/patientcare/internal/platform/apperr"
	"github.com/patientcare/patientcare/internal/platform/contact"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func equalEmail(a, b string) bool {
	return a != "" && strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// Register validates and stores a new user. A blank id gets a UUID and a
// phone number is stored in +973 form.
func (s *Service) Register(ctx context.Context, u *User) error {
	v := apperr.NewValidation("Registration failed")
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	if u.Name == "" {
		v.Add("name", "Name is required")
	}
	if u.Email == "" {
		v.Add("email", "Email is required")
	} else if !contact.ValidEmail(u.Email) {
		v.Add("email", "Please enter a valid email address")
	}
	if !validTypes[u.UserType] {
		v.Add("userType", "userType must be patient, doctor or admin")
	}
	if u.PhoneNumber != "" {
		phone, ok := contact.FormatBahrainPhone(u.PhoneNumber)
		if !ok {
			v.Add("phoneNumber", "Please enter a valid Bahrain phone number")
		}
		u.PhoneNumber = phone
	}
	if u.UserType != TypeDoctor {
		u.Specialty = ""
	}
	if err := v.OrNil(); err != nil {
		return err
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = s.now().UTC()
	return s.repo.Create(ctx, u)
}

func (s *Service) Get(ctx context.Context, id string) (*User, error) {
	return s.find(ctx, id, func(u *User) bool { return u.ID == id })
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.find(ctx, email, func(u *User) bool { return equalEmail(u.Email, email) })
}

func (s *Service) find(ctx context.Context, key string, match func(u *User) bool) (*User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if match(u) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", key, apperr.ErrNotFound)
}

// ListDoctors returns doctors sorted by name, optionally narrowed to one
// specialty.
func (s *Service) ListDoctors(ctx context.Context, specialty string) ([]*User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []*User{}
	for _, u := range users {
		if u.UserType != TypeDoctor {
			continue
		}
		if specialty != "" && !strings.EqualFold(u.Specialty, specialty) {
			continue
		}
		out = append(out, u)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// DisplayName returns the user's name, used to label exports.
func (s *Service) DisplayName(ctx context.Context, id string) (string, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Name, nil
}
