// Package credential orchestrates registration, login and the license
// lifecycle over the user registry and license ledger.
package credential

import (
	"context"
	"fmt"
	"time"

	"github.com/redmonkez12/trailpass/internal/apperr"
	"github.com/redmonkez12/trailpass/internal/auth"
	"github.com/redmonkez12/trailpass/internal/license"
	"github.com/redmonkez12/trailpass/internal/logging"
	"github.com/redmonkez12/trailpass/internal/metrics"
	"github.com/redmonkez12/trailpass/internal/user"
	"github.com/redmonkez12/trailpass/internal/validation"
)

// UserRegistry is the identity store the service depends on.
type UserRegistry interface {
	Create(ctx context.Context, u *user.User) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
	AppendLicense(ctx context.Context, userID, licenseID string) error
}

// LicenseLedger is the license store the service depends on.
type LicenseLedger interface {
	Create(ctx context.Context, lic *license.License) (*license.License, error)
	GetByID(ctx context.Context, id string) (*license.License, error)
	ListByIDs(ctx context.Context, ids []string) ([]*license.License, error)
}

// Service handles credential and license business logic
type Service struct {
	users    UserRegistry
	licenses LicenseLedger
	hasher   auth.PasswordHasher
	tokens   auth.TokenService
	metrics  *metrics.Metrics
	logger   *logging.Logger
	now      func() time.Time
}

func NewService(
	users UserRegistry,
	licenses LicenseLedger,
	hasher auth.PasswordHasher,
	tokens auth.TokenService,
	m *metrics.Metrics,
	logger *logging.Logger,
) *Service {
	return &Service{
		users:    users,
		licenses: licenses,
		hasher:   hasher,
		tokens:   tokens,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// RegisterInput is the data accepted by RegisterUser.
type RegisterInput struct {
	Email       string
	Password    string
	Name        string
	Preferences map[string]any
}

// AuthResult is returned by a successful registration or login.
type AuthResult struct {
	Token string          `json:"token"`
	User  user.PublicView `json:"user"`
}

// Verification is a license together with its validity at read time.
type Verification struct {
	License *license.License `json:"license"`
	IsValid bool             `json:"isValid"`
}

// RegisterUser validates the input, stores a new user and returns a token
// for it. The email must not be registered already.
func (s *Service) RegisterUser(ctx context.Context, in RegisterInput) (res *AuthResult, err error) {
	defer func() { metrics.Record(s.metrics.Registrations, err) }()

	err = validation.ValidateRegistration(validation.Registration{
		Email:    in.Email,
		Password: in.Password,
		Name:     in.Name,
	})
	if err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	newUser, err := s.users.Create(ctx, &user.User{
		Email:        in.Email,
		PasswordHash: passwordHash,
		Name:         in.Name,
		DateCreated:  s.now().UTC(),
		Preferences:  in.Preferences,
	})
	if err != nil {
		return nil, err
	}

	return s.authenticated(newUser)
}

// LoginUser checks the password for email and returns a fresh token.
func (s *Service) LoginUser(ctx context.Context, email, password string) (res *AuthResult, err error) {
	defer func() { metrics.Record(s.metrics.Logins, err) }()

	if err := validation.ValidateLogin(validation.Login{Email: email, Password: password}); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, apperr.ErrAuthentication
	}

	return s.authenticated(u)
}

// GetUser returns the public view of the user with id.
func (s *Service) GetUser(ctx context.Context, id string) (*user.PublicView, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := u.Public()
	return &view, nil
}

// IssueLicense creates an active license for userID valid for license.Term.
// The ledger entry is written before the user references it.
func (s *Service) IssueLicense(ctx context.Context, userID, licenseType string) (lic *license.License, err error) {
	defer func() { metrics.Record(s.metrics.LicensesIssued, err) }()

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	err = validation.ValidateLicenseRequest(validation.LicenseRequest{UserID: userID, Type: licenseType})
	if err != nil {
		return nil, err
	}

	lic, err = s.licenses.Create(ctx, license.New(userID, licenseType, s.now()))
	if err != nil {
		return nil, err
	}

	if err := s.users.AppendLicense(ctx, userID, lic.ID); err != nil {
		s.logger.Error("license created but not linked to user",
			"license_id", lic.ID,
			"user_id", userID,
			"error", err.Error(),
		)
		return nil, err
	}

	return lic, nil
}

// VerifyLicense returns the license with its validity computed now.
func (s *Service) VerifyLicense(ctx context.Context, licenseID string) (*Verification, error) {
	lic, err := s.licenses.GetByID(ctx, licenseID)
	if err != nil {
		if apperr.IsDomain(err) {
			s.metrics.LicenseVerifications.WithLabelValues("not_found").Inc()
		}
		return nil, err
	}

	valid := lic.IsValidAt(s.now())
	result := "invalid"
	if valid {
		result = "valid"
	}
	s.metrics.LicenseVerifications.WithLabelValues(result).Inc()

	return &Verification{License: lic, IsValid: valid}, nil
}

// GetUserLicenses returns the user's licenses in issuance order. A
// referenced license with no ledger entry yields a nil element.
func (s *Service) GetUserLicenses(ctx context.Context, userID string) ([]*license.License, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.licenses.ListByIDs(ctx, u.LicenseIDs)
}

func (s *Service) authenticated(u *user.User) (*AuthResult, error) {
	token, err := s.tokens.CreateToken(u.ID, u.Email, auth.TokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return &AuthResult{Token: token, User: u.Public()}, nil
}
