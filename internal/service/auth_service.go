package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"askaway/internal/cache"
	"askaway/internal/middleware"
	"askaway/internal/models"
	"askaway/internal/oauth"
	"askaway/internal/observability"
	"askaway/internal/repository"
	"askaway/internal/validation"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Messages returned by the account endpoints.
const (
	MsgMissingRegisterFields = "Please fill in all required fields."
	MsgMissingCredentials    = "Please provide username and password"
	MsgInvalidCredentials    = "Invalid username or password"
	MsgIncorrectCredentials  = "Incorrect username or password"
	MsgWrongCurrentPassword  = "Current password is incorrect"
)

// BcryptCost is the work factor for stored password hashes.
const BcryptCost = 10

// bcrypt only reads the first 72 bytes of a password.
const bcryptMaxBytes = 72

// passwordKey returns the bytes bcrypt hashes for password. Longer
// passwords are cut at 72 bytes so hashing and comparing agree.
func passwordKey(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxBytes {
		b = b[:bcryptMaxBytes]
	}
	return b
}

// MaxUsernameLength is the widest username the users table stores.
const MaxUsernameLength = 30

// OAuth failure reasons reported to the frontend callback page.
const (
	OAuthReasonNotConfigured = "oauth_not_configured"
	OAuthReasonInvalidState  = "invalid_state"
	OAuthReasonExchange      = "exchange_failed"
	OAuthReasonAccount       = "account_error"
)

// OAuthError is a failed Google sign-in.
type OAuthError struct {
	Reason string
	Err    error
}

func (e *OAuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oauth %s: %v", e.Reason, e.Err)
	}
	return "oauth " + e.Reason
}

func (e *OAuthError) Unwrap() error { return e.Err }

// Session is an authenticated user and their access token.
type Session struct {
	User  *models.User
	Token *middleware.IssuedToken
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
	Interests string
	WorkArea  string
}

func (in RegisterInput) normalized() RegisterInput {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Interests = strings.TrimSpace(in.Interests)
	in.WorkArea = strings.TrimSpace(in.WorkArea)
	return in
}

type UpdateProfileInput struct {
	UserID          string
	FirstName       *string
	LastName        *string
	Email           *string
	Interests       *string
	WorkArea        *string
	CurrentPassword string
	NewPassword     string
}

type AuthService struct {
	users  repository.UserRepository
	stats  repository.StatsRepository
	tokens *middleware.TokenManager
	google oauth.Provider
	revoke func(ctx context.Context, jti string, expiresAt time.Time) error
}

// NewAuthService wires the account service. google may be nil when Google
// sign-in is not configured. rdb must be the client AuthRequired checks for
// revoked tokens; without one there is nothing to revoke against.
func NewAuthService(
	users repository.UserRepository,
	stats repository.StatsRepository,
	tokens *middleware.TokenManager,
	google oauth.Provider,
	rdb *redis.Client,
) *AuthService {
	return &AuthService{
		users:  users,
		stats:  stats,
		tokens: tokens,
		google: google,
		revoke: func(ctx context.Context, jti string, expiresAt time.Time) error {
			return middleware.RevokeToken(ctx, rdb, jti, expiresAt)
		},
	}
}

// Register creates an account from the classic sign-up form. All five
// identity fields are mandatory and nothing is stored when one is missing.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in = in.normalized()
	if in.FirstName == "" || in.LastName == "" || in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError(MsgMissingRegisterFields)
	}
	if len(in.Username) > MaxUsernameLength {
		return nil, models.NewValidationError(fmt.Sprintf("Username must not exceed %d characters", MaxUsernameLength))
	}
	return s.createAccount(ctx, in)
}

// RegisterAccount is the stricter sign-up used by /api/auth/register: last
// name is optional but username, email and password must be well formed.
func (s *AuthService) RegisterAccount(ctx context.Context, in RegisterInput) (*models.User, error) {
	in = in.normalized()
	if in.FirstName == "" || in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, models.NewValidationError(MsgMissingRegisterFields)
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	return s.createAccount(ctx, in)
}

func (s *AuthService) createAccount(ctx context.Context, in RegisterInput) (*models.User, error) {
	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError(repository.ErrEmailTaken)
	}
	existing, err = s.users.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewValidationError(repository.ErrUsernameTaken)
	}

	hashed, err := bcrypt.GenerateFromPassword(passwordKey(in.Password), BcryptCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Username:  in.Username,
		Email:     in.Email,
		Password:  string(hashed),
		Interests: in.Interests,
		WorkArea:  in.WorkArea,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent sign-up won the unique index.
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeConflict {
			return nil, models.NewValidationError(appErr.Message)
		}
		return nil, err
	}

	observability.RegistrationsTotal.WithLabelValues("password").Inc()
	return user, nil
}

// Login checks a username and password pair and issues a token.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, models.NewValidationError(MsgMissingCredentials)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.authenticate(user, password, MsgInvalidCredentials)
}

// LoginAccount accepts either a username or an email address.
func (s *AuthService) LoginAccount(ctx context.Context, identifier, password string) (*Session, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, models.NewValidationError(MsgMissingCredentials)
	}

	user, err := s.users.GetByUsername(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil && strings.Contains(identifier, "@") {
		if user, err = s.users.GetByEmail(ctx, strings.ToLower(identifier)); err != nil {
			return nil, err
		}
	}
	return s.authenticate(user, password, MsgIncorrectCredentials)
}

func (s *AuthService) authenticate(user *models.User, password, failure string) (*Session, error) {
	// Unknown users and wrong passwords share one message.
	if user == nil || user.Password == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.Password), passwordKey(password)) != nil {
		observability.LoginsTotal.WithLabelValues(observability.OutcomeFailure).Inc()
		return nil, models.NewUnauthorizedError(failure)
	}

	session, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	observability.LoginsTotal.WithLabelValues(observability.OutcomeSuccess).Inc()
	return session, nil
}

func (s *AuthService) issue(user *models.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &Session{User: user, Token: token}, nil
}

// Refresh issues a new token for an existing user.
func (s *AuthService) Refresh(ctx context.Context, userID string) (*Session, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Logout revokes the token described by claims.
func (s *AuthService) Logout(ctx context.Context, claims *middleware.TokenClaims) error {
	if claims == nil {
		return models.NewUnauthorizedError("Authorization required")
	}
	if err := s.revoke(ctx, claims.JTI, claims.ExpiresAt); err != nil {
		return models.NewUnavailableError("Could not revoke token")
	}
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) Stats(ctx context.Context, userID string) (*models.UserStats, error) {
	return s.stats.User(ctx, userID)
}

func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	return s.users.Delete(ctx, userID)
}

// UpdateProfile applies the provided fields. A password change needs the
// current password when the account has one.
func (s *AuthService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		name := strings.TrimSpace(*in.FirstName)
		if name == "" {
			return nil, models.NewValidationError("First name cannot be empty")
		}
		user.FirstName = name
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Interests != nil {
		user.Interests = strings.TrimSpace(*in.Interests)
	}
	if in.WorkArea != nil {
		user.WorkArea = strings.TrimSpace(*in.WorkArea)
	}

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := validation.ValidateEmail(email); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if email != user.Email {
			other, err := s.users.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != user.ID {
				return nil, models.NewValidationError(repository.ErrEmailTaken)
			}
			user.Email = email
		}
	}

	if in.NewPassword != "" {
		if user.Password != "" &&
			bcrypt.CompareHashAndPassword([]byte(user.Password), passwordKey(in.CurrentPassword)) != nil {
			return nil, models.NewUnauthorizedError(MsgWrongCurrentPassword)
		}
		if err := validation.ValidatePassword(in.NewPassword); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		hashed, err := bcrypt.GenerateFromPassword(passwordKey(in.NewPassword), BcryptCost)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		user.Password = string(hashed)
	}

	if err := s.users.Update(ctx, user); err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == models.CodeConflict {
			return nil, models.NewValidationError(appErr.Message)
		}
		return nil, err
	}
	return user, nil
}

// GoogleConfigured reports whether Google sign-in is available.
func (s *AuthService) GoogleConfigured() bool {
	return s.google != nil
}

// GoogleLoginURL stores a fresh state value and returns the consent URL.
func (s *AuthService) GoogleLoginURL(ctx context.Context) (string, error) {
	if s.google == nil {
		return "", models.NewUnavailableError("Google OAuth not configured")
	}
	if cache.GetClient() == nil {
		return "", models.NewUnavailableError("OAuth state store unavailable")
	}

	state := oauth.NewState()
	stored, err := cache.SetOnce(ctx, cache.OAuthStateKey(state), "1", cache.OAuthStateTTL)
	if err != nil || !stored {
		return "", models.NewUnavailableError("OAuth state store unavailable")
	}
	return s.google.AuthCodeURL(state), nil
}

// GoogleCallback validates state, exchanges code and signs the user in,
// linking or creating the account as needed.
func (s *AuthService) GoogleCallback(ctx context.Context, state, code string) (*Session, error) {
	if s.google == nil {
		return nil, &OAuthError{Reason: OAuthReasonNotConfigured}
	}
	if state == "" || code == "" {
		return nil, &OAuthError{Reason: OAuthReasonInvalidState}
	}
	if _, found, err := cache.Take(ctx, cache.OAuthStateKey(state)); err != nil || !found {
		return nil, &OAuthError{Reason: OAuthReasonInvalidState, Err: err}
	}

	profile, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, &OAuthError{Reason: OAuthReasonExchange, Err: err}
	}

	user, err := s.userForProfile(ctx, profile)
	if err != nil {
		return nil, &OAuthError{Reason: OAuthReasonAccount, Err: err}
	}
	session, err := s.issue(user)
	if err != nil {
		return nil, &OAuthError{Reason: OAuthReasonAccount, Err: err}
	}
	observability.LoginsTotal.WithLabelValues(observability.OutcomeSuccess).Inc()
	return session, nil
}

func (s *AuthService) userForProfile(ctx context.Context, profile *oauth.Profile) (*models.User, error) {
	user, err := s.users.GetByGoogleID(ctx, profile.GoogleID)
	if err != nil || user != nil {
		return user, err
	}

	email := strings.ToLower(profile.Email)
	user, err = s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	googleID := profile.GoogleID
	if user != nil {
		user.GoogleID = &googleID
		return user, s.users.Update(ctx, user)
	}

	firstName := profile.FirstName
	if firstName == "" {
		firstName = "Google"
	}
	base := usernameFromEmail(email)
	for attempt := 0; attempt < 5; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = fmt.Sprintf("%s%s", base, strings.ToLower(models.NewID()[22:]))
		}
		user = &models.User{
			FirstName: firstName,
			LastName:  profile.LastName,
			Username:  candidate,
			Email:     email,
			GoogleID:  &googleID,
		}
		err = s.users.Create(ctx, user)
		if err == nil {
			observability.RegistrationsTotal.WithLabelValues("google").Inc()
			return user, nil
		}
		var appErr *models.AppError
		if !errors.As(err, &appErr) || appErr.Message != repository.ErrUsernameTaken {
			return nil, err
		}
	}
	return nil, err
}

var usernameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)

// usernameFromEmail derives a valid username from the mailbox name.
func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	name := usernameUnsafe.ReplaceAllString(local, "")
	if len(name) > 24 {
		name = name[:24]
	}
	if len(name) < 3 {
		name = "user" + name
	}
	return name
}
