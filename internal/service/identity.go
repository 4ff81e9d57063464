package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clinic-scheduler/internal/apperr"
	"clinic-scheduler/internal/auth"
	"clinic-scheduler/internal/model"
	"clinic-scheduler/internal/validate"
)

type identityRepos interface {
	UserRepository
	TokenRepository
	Transactor
}

// SignupInput carries the field limits every transport enforces.
type SignupInput struct {
	Role        model.Role `json:"role" validate:"required,oneof=admin client doctor"`
	FirstName   string     `json:"first_name" validate:"required,max=50"`
	LastName    string     `json:"last_name" validate:"required,max=50"`
	Address     *string    `json:"address" validate:"omitempty,max=255"`
	ProfileDesc *string    `json:"profile_desc" validate:"omitempty,max=500"`
	Email       string     `json:"email" validate:"required,email,max=100"`
	Password    string     `json:"password" validate:"required,min=6,max=100"`
}

type Session struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         *model.User `json:"user,omitempty"`
}

// Identity owns user credentials and the sessions minted from them.
type Identity struct {
	repo   identityRepos
	issuer *auth.Issuer
	log    zerolog.Logger
	now    func() time.Time
}

func NewIdentity(repo identityRepos, issuer *auth.Issuer, log zerolog.Logger) *Identity {
	return &Identity{repo: repo, issuer: issuer, log: log, now: time.Now}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Create stores a new user with a bcrypt hash of the password.
func (s *Identity) Create(ctx context.Context, in SignupInput) (*model.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "internal error", err)
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Role:         in.Role,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Address:      in.Address,
		ProfileDesc:  in.ProfileDesc,
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		Status:       model.UserAvailable,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, apperr.Conflict("email already registered")
		}
		return nil, apperr.Storage("failed to register user", err)
	}
	return u, nil
}

// Signup creates the user and its first session atomically.
func (s *Identity) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	var sess *Session
	err := s.repo.WithTx(ctx, func(ctx context.Context) error {
		u, err := s.Create(ctx, in)
		if err != nil {
			return err
		}
		sess, err = s.issue(ctx, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", sess.User.ID).Str("role", string(sess.User.Role)).Msg("user registered")
	return sess, nil
}

// VerifyCredentials never reveals which of email or password was wrong.
func (s *Identity) VerifyCredentials(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.repo.UserByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.Unauthenticated("invalid email or password")
	}
	if err != nil {
		return nil, apperr.Storage("failed to load user", err)
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, apperr.Unauthenticated("invalid email or password")
	}
	return u, nil
}

func (s *Identity) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if u.Blocked {
		return nil, apperr.Forbidden("you are blocked")
	}
	return s.issue(ctx, u)
}

func (s *Identity) FindByID(ctx context.Context, id string) (*model.User, error) {
	u, err := s.repo.UserByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Storage("failed to load user", err)
	}
	return u, nil
}

func (s *Identity) SetBlocked(ctx context.Context, id string, blocked bool) (*model.User, error) {
	u, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Blocked = blocked
	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return nil, apperr.Storage("failed to update user", err)
	}
	s.log.Info().Str("user_id", id).Bool("blocked", blocked).Msg("block flag changed")
	return u, nil
}

func (s *Identity) ToggleBlocked(ctx context.Context, id string) (*model.User, error) {
	u, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.SetBlocked(ctx, id, !u.Blocked)
}

// Refresh rotates a refresh token and mints a new access token. Presenting
// a token that was already rotated revokes every token of its user.
func (s *Identity) Refresh(ctx context.Context, raw string) (*Session, error) {
	if raw == "" {
		return nil, apperr.Unauthenticated("refresh token is missing")
	}
	rt, err := s.repo.GetRefreshTokenByHash(ctx, auth.HashRefreshToken(raw))
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.Unauthenticated("invalid refresh token")
	}
	if err != nil {
		return nil, apperr.Storage("failed to load refresh token", err)
	}
	if rt.Revoked {
		if err := s.repo.RevokeAllRefreshTokens(ctx, rt.UserID); err != nil {
			return nil, apperr.Storage("failed to revoke refresh tokens", err)
		}
		s.log.Warn().Str("user_id", rt.UserID).Msg("refresh token reuse detected")
		return nil, apperr.Unauthenticated("invalid refresh token")
	}
	if !rt.ExpiresAt.After(s.now()) {
		return nil, apperr.Unauthenticated("refresh token expired")
	}

	u, err := s.repo.UserByID(ctx, rt.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.Unauthenticated("invalid refresh token")
	}
	if err != nil {
		return nil, apperr.Storage("failed to load user", err)
	}
	if u.Blocked {
		return nil, apperr.Forbidden("your account is blocked, contact an admin")
	}

	newRaw, newHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "internal error", err)
	}
	err = s.repo.RotateRefreshToken(ctx, rt.ID, uuid.New().String(), u.ID, newHash, s.issuer.RefreshExpiry())
	if errors.Is(err, ErrNotFound) {
		// lost a race with another refresh or a logout
		return nil, apperr.Unauthenticated("invalid refresh token")
	}
	if err != nil {
		return nil, apperr.Storage("failed to rotate refresh token", err)
	}
	access, err := s.issuer.AccessToken(u.ID, u.Role)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "internal error", err)
	}
	return &Session{AccessToken: access, RefreshToken: newRaw}, nil
}

func (s *Identity) Logout(ctx context.Context, uid string) error {
	if err := s.repo.RevokeAllRefreshTokens(ctx, uid); err != nil {
		return apperr.Storage("failed to log out", err)
	}
	return nil
}

func (s *Identity) issue(ctx context.Context, u *model.User) (*Session, error) {
	access, err := s.issuer.AccessToken(u.ID, u.Role)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "internal error", err)
	}
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "internal error", err)
	}
	if _, err := s.repo.CreateRefreshToken(ctx, u.ID, hash, s.issuer.RefreshExpiry()); err != nil {
		return nil, apperr.Storage("failed to create session", err)
	}
	return &Session{AccessToken: access, RefreshToken: raw, User: u}, nil
}
