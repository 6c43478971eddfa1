package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/finance-tracker/internal/model"
	"github.com/iliyamo/finance-tracker/internal/queue"
	"github.com/iliyamo/finance-tracker/internal/repository"
	"github.com/iliyamo/finance-tracker/internal/utils"
)

// UserStore is the credential store the auth service works against.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uint64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	CountActive(ctx context.Context) (int, error)
	List(ctx context.Context) ([]*model.User, error)
	Delete(ctx context.Context, id uint64) error
	UpdateStatus(ctx context.Context, id uint64, status string) error
	TouchLastLogin(ctx context.Context, id uint64, at time.Time) error
}

// AuthOptions carries the tunables of an AuthService.
type AuthOptions struct {
	BcryptCost int
	MaxUsers   int
	Events     queue.Publisher
	Logger     *zap.Logger
}

// AuthService owns the user lifecycle: signup, sign-in and the admin
// operations on accounts.
type AuthService struct {
	users     UserStore
	tokens    *utils.TokenIssuer
	events    queue.Publisher
	log       *zap.Logger
	cost      int
	maxUsers  int
	dummyHash string

	// serializes every path that can raise the active-user count
	capMu sync.Mutex
}

// NewAuthService precomputes a dummy hash at the configured cost so failed
// lookups take as long as failed password checks.
func NewAuthService(users UserStore, tokens *utils.TokenIssuer, opts AuthOptions) (*AuthService, error) {
	if users == nil || tokens == nil {
		return nil, errors.New("auth service: nil dependency")
	}
	if opts.MaxUsers < 1 {
		return nil, fmt.Errorf("auth service: max users must be positive, got %d", opts.MaxUsers)
	}
	if opts.Events == nil {
		opts.Events = queue.NopPublisher{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	dummy, err := utils.HashPassword("dummy-password-for-timing", opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	return &AuthService{
		users:     users,
		tokens:    tokens,
		events:    opts.Events,
		log:       opts.Logger,
		cost:      opts.BcryptCost,
		maxUsers:  opts.MaxUsers,
		dummyHash: dummy,
	}, nil
}

// MaxUsers returns the configured cap on active users.
func (s *AuthService) MaxUsers() int { return s.maxUsers }

// CreateUser registers a new active user with role "user".
func (s *AuthService) CreateUser(ctx context.Context, in SignupInput) (*model.User, error) {
	return s.createUser(ctx, in, model.RoleUser, true)
}

// CreateUserWithRole is used by the bootstrap CLI.  Unlike signup it does
// not require a confirmation password.
func (s *AuthService) CreateUserWithRole(ctx context.Context, username, email, password, role string) (*model.User, error) {
	if !model.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	in := SignupInput{Username: username, Email: email, Password: password, ConfirmPassword: password}
	return s.createUser(ctx, in, role, false)
}

func (s *AuthService) createUser(ctx context.Context, in SignupInput, role string, signup bool) (*model.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	s.capMu.Lock()
	defer s.capMu.Unlock()

	// cap first: a full instance gives the same answer for any payload
	active, err := s.users.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("count active users: %w", err)
	}
	if active >= s.maxUsers {
		return nil, ErrMaxUsers
	}

	if err := validateSignup(in); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup username: %w", err)
	}
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := utils.HashPassword(in.Password, s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		Status:       model.StatusActive,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		switch {
		case errors.Is(err, repository.ErrUsernameExists):
			return nil, ErrUsernameTaken
		case errors.Is(err, repository.ErrEmailExists):
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user created", zap.Uint64("user_id", u.ID), zap.String("role", role), zap.Bool("signup", signup))
	s.publish(ctx, queue.NewEvent(queue.EventUserCreated, u.ID, 0, map[string]string{"role": role}))
	return u, nil
}

// Session is the result of a successful sign-in.
type Session struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// Authenticate checks a username/password pair.  Unknown users, wrong
// passwords and non-active accounts all fail with ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*Session, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		utils.VerifyPassword(s.dummyHash, password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive() {
		s.log.Info("sign-in refused for non-active account", zap.Uint64("user_id", u.ID), zap.String("status", u.Status))
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		s.log.Warn("update last_login failed", zap.Uint64("user_id", u.ID), zap.Error(err))
	} else {
		u.LastLogin = &now
	}

	token, exp, err := s.tokens.Issue(u.ID, u.Username, u.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{User: u, Token: token, ExpiresAt: exp}, nil
}

// ListUsers returns every account.  PasswordHash is never serialized.
func (s *AuthService) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*model.User{}
	}
	return users, nil
}

// DeleteUser removes target on behalf of actor.
func (s *AuthService) DeleteUser(ctx context.Context, actorID, targetID uint64) error {
	if actorID == targetID {
		return ErrSelfDelete
	}
	if err := s.users.Delete(ctx, targetID); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.Uint64("user_id", targetID), zap.Uint64("actor_id", actorID))
	s.publish(ctx, queue.NewEvent(queue.EventUserDeleted, targetID, actorID, nil))
	return nil
}

// UpdateUserStatus activates or deactivates target on behalf of actor.
// Activation honours the active-user cap.
func (s *AuthService) UpdateUserStatus(ctx context.Context, actorID, targetID uint64, status string) error {
	if status != model.StatusActive && status != model.StatusInactive {
		return ErrInvalidStatus
	}
	if actorID == targetID && status != model.StatusActive {
		return ErrSelfDeactivate
	}

	s.capMu.Lock()
	defer s.capMu.Unlock()

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target.Status == status {
		return nil
	}
	if status == model.StatusActive {
		active, err := s.users.CountActive(ctx)
		if err != nil {
			return fmt.Errorf("count active users: %w", err)
		}
		if active >= s.maxUsers {
			return ErrMaxUsers
		}
	}
	if err := s.users.UpdateStatus(ctx, targetID, status); err != nil {
		return err
	}
	s.log.Info("user status changed", zap.Uint64("user_id", targetID), zap.Uint64("actor_id", actorID),
		zap.String("from", target.Status), zap.String("to", status))
	s.publish(ctx, queue.NewEvent(queue.EventUserStatusChanged, targetID, actorID,
		map[string]string{"from": target.Status, "to": status}))
	return nil
}

// Availability describes whether signup is currently open.
type Availability struct {
	SignupAvailable bool   `json:"signupAvailable"`
	ActiveUsers     int    `json:"activeUsers"`
	MaxUsers        int    `json:"maxUsers"`
	Message         string `json:"message"`
}

// SignupAvailability reports the active-user count against the cap.
func (s *AuthService) SignupAvailability(ctx context.Context) (Availability, error) {
	active, err := s.users.CountActive(ctx)
	if err != nil {
		return Availability{}, err
	}
	a := Availability{ActiveUsers: active, MaxUsers: s.maxUsers, SignupAvailable: active < s.maxUsers}
	if a.SignupAvailable {
		a.Message = "Signup is available"
	} else {
		a.Message = "Maximum user limit reached. Contact admin for access."
	}
	return a, nil
}

func (s *AuthService) publish(ctx context.Context, ev queue.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn("publish event failed", zap.String("type", ev.Type),
			zap.Uint64("user_id", ev.UserID), zap.Error(err))
	}
}
