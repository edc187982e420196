package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/volunteerhub/volunteer-backend/internal/models"
	"github.com/volunteerhub/volunteer-backend/internal/observability"
	"github.com/volunteerhub/volunteer-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrNotAdmin           = errors.New("administrator role required")
)

// ConflictError reports a registration field that is already taken.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q is already taken", e.Field, e.Value)
}

// ValidationError reports a registration field that fails the format rules.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var emailPattern = regexp.MustCompile(`^\w+([-+.']\w+)*@\w+([-.]\w+)*\.\w+([-.]\w+)*$`)

type AuthService struct {
	store     QueryStore
	jwtSecret []byte
	issuer    string
	audience  string
	expiry    time.Duration
}

func NewAuthService(store QueryStore, jwtSecret, issuer, audience string, expiry time.Duration) *AuthService {
	return &AuthService{
		store:     store,
		jwtSecret: []byte(jwtSecret),
		issuer:    issuer,
		audience:  audience,
		expiry:    expiry,
	}
}

type RegisterCmd struct {
	Username  string
	RealName  string
	StudentID string
	Email     string
	Password  string
}

func (s *AuthService) Register(ctx context.Context, cmd RegisterCmd) (*models.User, error) {
	if err := validatePassword(cmd.Password); err != nil {
		return nil, err
	}
	if !emailPattern.MatchString(cmd.Email) {
		return nil, &ValidationError{Field: "email", Message: "invalid email address"}
	}
	if cmd.Username == "" {
		return nil, &ValidationError{Field: "username", Message: "must not be empty"}
	}
	if cmd.StudentID == "" {
		return nil, &ValidationError{Field: "student_id", Message: "must not be empty"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:                uuid.New(),
		Username:          cmd.Username,
		RealName:          cmd.RealName,
		StudentID:         cmd.StudentID,
		Email:             cmd.Email,
		PasswordHash:      string(hash),
		Role:              models.RoleVolunteer,
		Status:            models.StatusActive,
		TotalServiceHours: decimal.Zero,
	}

	err = s.store.RunInTx(ctx, func(q *repository.Queries) error {
		checks := []struct {
			field string
			value string
			fn    func(context.Context, string) (bool, error)
		}{
			{"username", cmd.Username, q.UserExistsByUsername},
			{"student_id", cmd.StudentID, q.UserExistsByStudentID},
			{"email", cmd.Email, q.UserExistsByEmail},
		}
		for _, c := range checks {
			taken, err := c.fn(ctx, c.value)
			if err != nil {
				return err
			}
			if taken {
				return &ConflictError{Field: c.field, Value: c.value}
			}
		}
		return q.CreateUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates a user by username and password and returns a signed
// token alongside the user.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.authenticate(ctx, username, password)
	if err != nil {
		observability.IncrementLogin("failure")
		return "", nil, err
	}

	token, err := s.signToken(user)
	if err != nil {
		return "", nil, err
	}
	observability.IncrementLogin("success")
	return token, user, nil
}

// AdminLogin is Login plus a role gate: only admin and super_admin accounts
// may use the admin entry point.
func (s *AuthService) AdminLogin(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.authenticate(ctx, username, password)
	if err != nil {
		observability.IncrementLogin("failure")
		return "", nil, err
	}
	if user.Role != models.RoleAdmin && user.Role != models.RoleSuperAdmin {
		observability.IncrementLogin("forbidden")
		return "", nil, ErrNotAdmin
	}

	token, err := s.signToken(user)
	if err != nil {
		return "", nil, err
	}
	observability.IncrementLogin("success")
	return token, user, nil
}

func (s *AuthService) authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.Queries().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Run the comparison anyway so missing and wrong-password
			// lookups take comparable time.
			_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Status != models.StatusActive {
		return nil, ErrAccountDisabled
	}
	return user, nil
}

func (s *AuthService) signToken(user *models.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":    user.ID.String(),
		"username":   user.Username,
		"role":       user.Role,
		"avatar_url": user.AvatarURL,
		"sub":        user.ID.String(),
		"iss":        s.issuer,
		"aud":        s.audience,
		"iat":        now.Unix(),
		"exp":        now.Add(s.expiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// TokenExpiry returns the configured token lifetime. The logout denylist
// uses it as the revocation TTL.
func (s *AuthService) TokenExpiry() time.Duration {
	return s.expiry
}

// validatePassword enforces the registration password rules: at least 8
// characters drawn from at least 3 of the 4 character classes.
func validatePassword(password string) error {
	if len(password) < 8 {
		return &ValidationError{Field: "password", Message: "must be at least 8 characters"}
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			hasUpper = true
		case unicode.IsLower(c):
			hasLower = true
		case unicode.IsDigit(c):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	classes := 0
	for _, ok := range []bool{hasUpper, hasLower, hasDigit, hasSpecial} {
		if ok {
			classes++
		}
	}
	if classes < 3 {
		return &ValidationError{
			Field:   "password",
			Message: "must contain at least 3 of: uppercase, lowercase, digits, special characters",
		}
	}
	return nil
}
