// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/database"
	"github.com/javajoker/storefront-backend/internal/metrics"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/utils"
)

type AuthService struct {
	db         *gorm.DB
	tokens     *utils.TokenManager
	identities *utils.IdentityVerifier
	metrics    *metrics.Metrics
	now        func() time.Time
}

type SignupRequest struct {
	Username string  `json:"username" validate:"required"`
	Password string  `json:"password" validate:"required"`
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required"`
	Phone    *string `json:"phone,omitempty"`
	Avatar   *string `json:"avatar,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SSORequest carries an ID token signed by the provider. Email and account
// id are read from the verified token, never from the request body.
type SSORequest struct {
	Provider  string  `json:"provider" validate:"required"`
	IDToken   string  `json:"idToken" validate:"required"`
	Name      string  `json:"name,omitempty"`
	Thumbnail *string `json:"thumbnail,omitempty"`
}

// AuthResult is an authenticated customer and its new session token.
type AuthResult struct {
	Customer  *models.Customer
	Token     string
	ExpiresAt time.Time
	// Created is set when the call created the account.
	Created bool
}

func NewAuthService(db *gorm.DB, tokens *utils.TokenManager, identities *utils.IdentityVerifier, m *metrics.Metrics) *AuthService {
	if identities == nil {
		identities = utils.NewIdentityVerifier(nil)
	}
	return &AuthService{
		db:         db,
		tokens:     tokens,
		identities: identities,
		metrics:    m,
		now:        time.Now,
	}
}

// Signup creates a customer and opens a session. Username is checked
// before email so the first conflicting field is reported.
func (s *AuthService) Signup(ctx context.Context, req *SignupRequest) (*AuthResult, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	customer := &models.Customer{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Avatar:   req.Avatar,
	}
	if err := customer.SetPassword(req.Password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var result *AuthResult
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := checkIdentityAvailable(tx, 0, req.Username, req.Email); err != nil {
			return err
		}

		if err := tx.Create(customer).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return s.classifyDuplicate(ctx, req.Username, req.Email)
			}
			return fmt.Errorf("failed to create customer: %w", err)
		}

		var err error
		result, err = s.openSession(tx, customer)
		return err
	})
	if err != nil {
		return nil, err
	}

	result.Created = true
	s.recordSignup("password")
	logrus.WithFields(logrus.Fields{
		"customer_id": customer.ID,
		"username":    customer.Username,
	}).Info("Customer signed up")
	return result, nil
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResult, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	var customer models.Customer
	if err := s.db.WithContext(ctx).Where("username = ?", req.Username).Take(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewError(http.StatusUnauthorized, utils.MsgInvalidUsername)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := customer.CheckPassword(req.Password); err != nil {
		return nil, utils.NewError(http.StatusUnauthorized, utils.MsgInvalidPassword)
	}

	return s.openSession(s.db.WithContext(ctx), &customer)
}

// SSO signs in through an identity provider. A known provider account
// opens a session for its customer. Otherwise the account is linked to the
// customer with the same email, which the provider must have verified, or a
// new customer is created with an unusable password.
func (s *AuthService) SSO(ctx context.Context, req *SSORequest) (*AuthResult, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	identity, err := s.identities.Verify(provider, req.IDToken)
	if err != nil {
		logrus.WithError(err).WithField("provider", provider).Warn("Rejected identity token")
		return nil, utils.NewError(http.StatusUnauthorized, utils.MsgInvalidIdentity)
	}

	var result *AuthResult
	created := false

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var profile models.OAuthProfile
		err := tx.Where("provider = ? AND auth_id = ?", identity.Provider, identity.Subject).Take(&profile).Error
		switch {
		case err == nil:
			var customer models.Customer
			if err := tx.Preload("OAuth").Take(&customer, profile.CustomerID).Error; err != nil {
				return fmt.Errorf("failed to load customer: %w", err)
			}
			result, err = s.openSession(tx, &customer)
			return err
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("database error: %w", err)
		}

		var customer models.Customer
		err = tx.Where("email = ?", identity.Email).Take(&customer).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := s.createSSOCustomer(tx, identity, req, &customer); err != nil {
				return err
			}
			created = true
		case err != nil:
			return fmt.Errorf("database error: %w", err)
		case !identity.EmailVerified:
			return utils.ConflictError(utils.MsgEmailTaken)
		}

		customer.OAuth = &models.OAuthProfile{
			AuthID:     identity.Subject,
			Provider:   identity.Provider,
			CustomerID: customer.ID,
		}
		if err := tx.Create(customer.OAuth).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return utils.ConflictError(utils.MsgEmailTaken)
			}
			return fmt.Errorf("failed to link provider account: %w", err)
		}

		result, err = s.openSession(tx, &customer)
		return err
	})
	if err != nil {
		return nil, err
	}

	result.Created = created
	if created {
		s.recordSignup(identity.Provider)
	}
	return result, nil
}

func (s *AuthService) createSSOCustomer(tx *gorm.DB, identity *utils.Identity, req *SSORequest, customer *models.Customer) error {
	username, err := availableUsername(tx, identity.Email)
	if err != nil {
		return err
	}

	password, err := utils.GeneratePlaceholderPassword()
	if err != nil {
		return fmt.Errorf("failed to generate password: %w", err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = identity.Name
	}
	if name == "" {
		name = username
	}
	avatar := req.Thumbnail
	if avatar == nil && identity.Picture != "" {
		avatar = &identity.Picture
	}

	*customer = models.Customer{
		Name:     name,
		Username: username,
		Email:    identity.Email,
		Avatar:   avatar,
	}
	if err := customer.SetPassword(password); err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := tx.Create(customer).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return utils.ConflictError(utils.MsgEmailTaken)
		}
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// availableUsername derives a username from the email's local part, adding
// a random suffix when it is already taken.
func availableUsername(tx *gorm.DB, email string) (string, error) {
	base := strings.ToLower(strings.SplitN(email, "@", 2)[0])
	if len(base) > 40 {
		base = base[:40]
	}
	if base == "" {
		base = "customer"
	}

	candidate := base
	for attempt := 0; attempt < 5; attempt++ {
		var taken int64
		if err := tx.Model(&models.Customer{}).Where("username = ?", candidate).Count(&taken).Error; err != nil {
			return "", fmt.Errorf("database error: %w", err)
		}
		if taken == 0 {
			return candidate, nil
		}

		suffix, err := utils.GenerateRandomString(6)
		if err != nil {
			return "", err
		}
		candidate = base + "-" + strings.ToLower(suffix)
	}
	return "", fmt.Errorf("could not find a free username for %q", base)
}

// Logout revokes the session so its token stops authenticating.
func (s *AuthService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.db.WithContext(ctx).Delete(&models.Session{}, "id = ?", sessionID).Error; err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	logrus.WithField("session_id", sessionID).Info("Session revoked")
	return nil
}

// FindSession returns nil when the session does not exist.
func (s *AuthService) FindSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	if err := s.db.WithContext(ctx).Take(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &session, nil
}

func (s *AuthService) openSession(tx *gorm.DB, customer *models.Customer) (*AuthResult, error) {
	now := s.now()
	session := &models.Session{
		ID:         uuid.New(),
		CustomerID: customer.ID,
		ExpiresAt:  now.Add(s.tokens.TTL()),
	}
	if err := tx.Create(session).Error; err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.tokens.Generate(session.ID, customer.ID, customer.Username, now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	return &AuthResult{
		Customer:  customer,
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// classifyDuplicate maps a unique violation on insert back to the field
// that caused it, for the case where a concurrent signup won the race.
func (s *AuthService) classifyDuplicate(ctx context.Context, username, email string) error {
	if err := checkIdentityAvailable(s.db.WithContext(ctx), 0, username, email); err != nil {
		return err
	}
	return utils.ConflictError(utils.MsgUsernameTaken)
}

func (s *AuthService) recordSignup(provider string) {
	if s.metrics != nil {
		s.metrics.RecordSignup(provider)
	}
}

// checkIdentityAvailable reports whether username or email belongs to a
// customer other than exceptID. Empty values are not checked.
func checkIdentityAvailable(db *gorm.DB, exceptID uint, username, email string) error {
	for _, check := range []struct {
		column, value, message string
	}{
		{"username", username, utils.MsgUsernameTaken},
		{"email", email, utils.MsgEmailTaken},
	} {
		if check.value == "" {
			continue
		}
		var count int64
		err := db.Model(&models.Customer{}).
			Where(check.column+" = ? AND id <> ?", check.value, exceptID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if count > 0 {
			return utils.ConflictError(check.message)
		}
	}
	return nil
}
