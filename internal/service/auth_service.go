package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"portfolio-go/internal/model"
	"portfolio-go/internal/repository"
	"portfolio-go/pkg/hash"
	"portfolio-go/pkg/log"
	"portfolio-go/pkg/token"
)

// ErrInvalidCredentials 表示用户名或密码错误。
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService 管理唯一管理员的登录会话。
type AuthService interface {
	// Login 校验凭据并创建会话，返回签名后的会话 token。
	Login(ctx context.Context, uid, password string) (string, *model.AdminSession, error)
	// Authenticate 校验 token 对应的会话仍然有效。
	Authenticate(ctx context.Context, tokenString string) (*model.AdminSession, error)
	// Logout 销毁 token 对应的会话，token 无效时什么也不做。
	Logout(ctx context.Context, tokenString string) error
}

type authService struct {
	uid          string
	passwordHash string
	sessions     repository.SessionRepository
	jwtManager   *token.JWTManager
	now          func() time.Time
}

// NewAuthService 创建一个新的 AuthService 实例。
func NewAuthService(uid, passwordHash string, sessions repository.SessionRepository, jwtManager *token.JWTManager) AuthService {
	return &authService{
		uid:          uid,
		passwordHash: passwordHash,
		sessions:     sessions,
		jwtManager:   jwtManager,
		now:          time.Now,
	}
}

func (s *authService) Login(ctx context.Context, uid, password string) (string, *model.AdminSession, error) {
	if uid == "" || password == "" {
		return "", nil, &model.ValidationError{Message: "Username and password are required"}
	}
	if s.passwordHash == "" || uid != s.uid || !hash.CheckPasswordHash(password, s.passwordHash) {
		log.Warnw("管理员登录失败", "uid", uid)
		return "", nil, ErrInvalidCredentials
	}

	now := s.now()
	session := model.AdminSession{
		ID:        uuid.NewString(),
		UID:       uid,
		CreatedAt: now,
		ExpiresAt: now.Add(s.jwtManager.TTL()),
	}
	tok, err := s.jwtManager.GenerateToken(uid, session.ID, now)
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", nil, fmt.Errorf("store session: %w", err)
	}
	log.Infow("管理员登录成功", "uid", uid, "session_id", session.ID)
	return tok, &session, nil
}

func (s *authService) Authenticate(ctx context.Context, tokenString string) (*model.AdminSession, error) {
	if tokenString == "" {
		return nil, model.ErrAuthRequired
	}
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrAuthRequired, err)
	}
	session, err := s.sessions.Get(ctx, claims.SessionID())
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("%w: session expired", model.ErrAuthRequired)
	}
	if err != nil {
		return nil, err
	}
	if session.UID != s.uid || s.now().Sub(session.CreatedAt) > s.jwtManager.TTL() {
		_ = s.sessions.Delete(ctx, session.ID)
		return nil, fmt.Errorf("%w: session expired", model.ErrAuthRequired)
	}
	return session, nil
}

func (s *authService) Logout(ctx context.Context, tokenString string) error {
	if tokenString == "" {
		return nil
	}
	claims, err := s.jwtManager.VerifyToken(tokenString)
	if err != nil {
		return nil
	}
	return s.sessions.Delete(ctx, claims.SessionID())
}
