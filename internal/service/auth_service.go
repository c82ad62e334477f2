package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockroom/internal/apierror"
	"stockroom/internal/config"
	"stockroom/internal/dto"
	"stockroom/internal/model"
	"stockroom/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	tableUsers = "users"

	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// ErrInvalidCredentials is returned for every login failure so callers cannot
// tell a wrong password from an unknown user.
var ErrInvalidCredentials = apierror.Validation("invalid credentials")

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest, ip, requestID string) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error)
	Me(ctx context.Context, id uint) (*dto.UserResponse, error)
	CreateUser(ctx context.Context, actor Actor, req dto.CreateUserRequest) (*dto.UserResponse, error)
	ListUsers(ctx context.Context) ([]dto.UserResponse, error)
	UpdateUser(ctx context.Context, actor Actor, id uint, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	DeactivateUser(ctx context.Context, actor Actor, id uint) error
}

type authService struct {
	repo  repository.UserRepository
	cfg   *config.Config
	audit AuditRecorder
}

func NewAuthService(repo repository.UserRepository, cfg *config.Config, audit AuditRecorder) AuthService {
	return &authService{repo: repo, cfg: cfg, audit: audit}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest, ip, requestID string) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, storeErr(err, "user")
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, storeErr(err, "user %d", user.ID)
	}
	user.LastLogin = &now

	resp, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, AuditEntry{
		Actor:    Actor{UserID: user.ID, Role: user.Role, IP: ip, RequestID: requestID},
		Action:   model.AuditLogin,
		Table:    tableUsers,
		RecordID: user.ID,
	})
	return resp, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.LoginResponse, error) {
	token, err := jwt.Parse(refreshToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, apierror.Validation("refresh token invalid or expired")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims["typ"] != TokenRefresh {
		return nil, apierror.Validation("not a refresh token")
	}
	// JSON numbers decode as float64.
	rawID, ok := claims["user_id"].(float64)
	if !ok || rawID <= 0 {
		return nil, apierror.Validation("malformed token")
	}

	user, err := s.repo.FindByID(ctx, uint(rawID))
	if err != nil || !user.IsActive {
		return nil, apierror.Validation("user not found or inactive")
	}
	return s.issueTokens(user)
}

func (s *authService) Me(ctx context.Context, id uint) (*dto.UserResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user %d", id)
	}
	resp := userToResponse(user)
	return &resp, nil
}

func (s *authService) CreateUser(ctx context.Context, actor Actor, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := requireRole(actor, model.RoleAdmin); err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = model.RoleUser
	}
	if !model.ValidRole(role) {
		return nil, apierror.Validation("unknown role %q", role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &model.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, storeErr(err, "user %s", user.Username)
	}
	resp := userToResponse(user)
	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.AuditCreate, Table: tableUsers, RecordID: user.ID, New: resp,
	})
	return &resp, nil
}

func (s *authService) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeErr(err, "users")
	}
	resp := make([]dto.UserResponse, len(users))
	for i := range users {
		resp[i] = userToResponse(&users[i])
	}
	return resp, nil
}

func (s *authService) UpdateUser(ctx context.Context, actor Actor, id uint, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	if err := requireRole(actor, model.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "user %d", id)
	}
	before := userToResponse(user)

	if req.Email != nil {
		user.Email = strings.TrimSpace(*req.Email)
	}
	if req.Role != nil {
		if !model.ValidRole(*req.Role) {
			return nil, apierror.Validation("unknown role %q", *req.Role)
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		if !*req.IsActive && id == actor.UserID {
			return nil, apierror.Validation("you cannot deactivate your own account")
		}
		user.IsActive = *req.IsActive
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), 12)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, storeErr(err, "user %d", id)
	}
	after := userToResponse(user)
	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.AuditUpdate, Table: tableUsers, RecordID: id, Old: before, New: after,
	})
	return &after, nil
}

func (s *authService) DeactivateUser(ctx context.Context, actor Actor, id uint) error {
	if err := requireRole(actor, model.RoleAdmin); err != nil {
		return err
	}
	if id == actor.UserID {
		return apierror.Validation("you cannot deactivate your own account")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return storeErr(err, "user %d", id)
	}
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return storeErr(err, "user %d", id)
	}
	s.audit.Record(ctx, AuditEntry{
		Actor: actor, Action: model.AuditDelete, Table: tableUsers, RecordID: id, Old: userToResponse(user),
	})
	return nil
}

func (s *authService) issueTokens(user *model.User) (*dto.LoginResponse, error) {
	access, err := s.generateToken(user, TokenAccess, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	refresh, err := s.generateToken(user, TokenRefresh, time.Duration(s.cfg.JWTRefreshHours)*time.Hour)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    s.cfg.JWTExpirationHours * 3600,
		User:         userToResponse(user),
	}, nil
}

func (s *authService) generateToken(user *model.User, typ string, duration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
		"typ":      typ,
		"jti":      uuid.NewString(),
		"exp":      now.Add(duration).Unix(),
		"iat":      now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func userToResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
	}
}
