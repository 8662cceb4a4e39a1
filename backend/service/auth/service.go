package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"boardhub/backend/domain"
	"boardhub/backend/logging"
	"boardhub/backend/repository"
	"boardhub/backend/repository/events"
)

var (
	// ErrInvalidCredentials 邮箱不存在与密码错误返回同一个错误
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
)

const minPasswordLength = 8

// Session 登录结果
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
}

type Service struct {
	users  repository.UserRepository
	tokens *TokenManager
	bus    *events.Bus
	logger logging.Logger

	// dummyHash 用于邮箱不存在时也执行一次 bcrypt 比较，避免时序差异
	dummyHash []byte
	cost      int
}

func NewService(users repository.UserRepository, tokens *TokenManager, bus *events.Bus, logger logging.Logger) *Service {
	s := &Service{
		users:  users,
		tokens: tokens,
		bus:    bus,
		logger: logging.OrDefault(logger),
		cost:   bcrypt.DefaultCost,
	}
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("boardhub-dummy-password"), s.cost)
	return s
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
			s.loginFailed(email)
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.loginFailed(email)
		return Session{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	now := time.Now()
	if err := s.users.TouchLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("update last login failed", "user", user.ID, "err", err)
	} else {
		user.LastLoginAt = &now
	}

	s.bus.Publish(events.UserEvent{EventType: events.EventLoginSuccess, UserID: user.ID, Email: user.Email})
	return Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *Service) loginFailed(email string) {
	s.bus.Publish(events.UserEvent{EventType: events.EventLoginFailed, Email: email})
}

// Authenticate 校验 Bearer 令牌并重新加载用户：
// 已删除的用户失效，角色以库中当前值为准
func (s *Service) Authenticate(ctx context.Context, token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrUnauthorized
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	user, err := s.users.Get(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Claims{}, fmt.Errorf("%w: user no longer exists", ErrUnauthorized)
		}
		return Claims{}, err
	}
	claims.Email = user.Email
	claims.Role = user.Role
	return claims, nil
}

func (s *Service) CreateUser(ctx context.Context, email, password string, role domain.UserRole) (domain.User, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, fmt.Errorf("%w: email is invalid", repository.ErrInvalidData)
	}
	if len(password) < minPasswordLength {
		return domain.User{}, fmt.Errorf("%w: password must be at least %d characters", repository.ErrInvalidData, minPasswordLength)
	}
	if role == "" {
		role = domain.RoleUser
	}
	if role != domain.RoleAdmin && role != domain.RoleUser {
		return domain.User{}, fmt.Errorf("%w: role is invalid", repository.ErrInvalidData)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		// bcrypt 拒绝超过 72 字节的密码
		return domain.User{}, fmt.Errorf("%w: %v", repository.ErrInvalidData, err)
	}
	return s.users.Create(ctx, domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	})
}

func (s *Service) GetUser(ctx context.Context, id string) (domain.User, error) {
	return s.users.Get(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// EnsureAdmin 库中没有任何用户时创建初始管理员（幂等）
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	n, err := s.users.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	user, err := s.CreateUser(ctx, email, password, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("create initial admin: %w", err)
	}
	s.logger.Info("initial admin created", "email", user.Email)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
