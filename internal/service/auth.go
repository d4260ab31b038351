package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/file-manager/internal/logging"
	"github.com/iliyamo/file-manager/internal/model"
	"github.com/iliyamo/file-manager/internal/queue"
	"github.com/iliyamo/file-manager/internal/repository"
	"github.com/iliyamo/file-manager/internal/utils"
)

// Sessions is the token store behind login and logout.
type Sessions interface {
	Issue(ctx context.Context, user *model.User) (string, error)
	Resolve(ctx context.Context, token string) (model.ID, bool)
	Revoke(ctx context.Context, token string) error
}

// Enqueuer hands jobs to the post-processing queue without blocking. The
// returned channel yields the publish outcome once.
type Enqueuer interface {
	Enqueue(queue string, payload any) <-chan error
}

// AuthService registers users and manages their sessions.
type AuthService struct {
	users    repository.UserRepository
	sessions Sessions
	jobs     Enqueuer
	cost     int
	log      logging.Logger
}

func NewAuthService(users repository.UserRepository, sessions Sessions, jobs Enqueuer, bcryptCost int, log logging.Logger) *AuthService {
	return &AuthService{users: users, sessions: sessions, jobs: jobs, cost: bcryptCost, log: log.With("component", "auth")}
}

// Register creates an account and queues the welcome job.
func (s *AuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, invalid("email", "Missing email")
	}
	if password == "" {
		return nil, invalid("password", "Missing password")
	}
	u, err := s.users.Create(ctx, email, password, s.cost)
	if err != nil {
		return nil, err
	}

	if s.jobs != nil {
		done := s.jobs.Enqueue(queue.WelcomeQueue, queue.WelcomeJob{UserID: u.ID.String()})
		log := s.log.With("user_id", u.ID.String())
		go func() {
			if err := <-done; err != nil {
				log.Warn(context.Background(), "welcome job not enqueued", "error", err)
			}
		}()
	}
	return u, nil
}

// Login checks credentials and issues a session token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return "", ErrUnauthorized
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			utils.BurnPasswordCheck(password)
			return "", ErrUnauthorized
		}
		return "", err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return "", ErrUnauthorized
	}
	return s.sessions.Issue(ctx, u)
}

// Authenticate resolves a token to its user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	id, ok := s.sessions.Resolve(ctx, token)
	if !ok {
		return nil, ErrUnauthorized
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return u, nil
}

// Logout revokes a live token.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if _, ok := s.sessions.Resolve(ctx, token); !ok {
		return ErrUnauthorized
	}
	return s.sessions.Revoke(ctx, token)
}
