package services

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/entity"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/apperr"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/repository"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/utils"
)

type AuthService struct {
	Users     *repository.UserRepository
	Log       *zap.Logger
	JWTSecret string
	JWTTTL    time.Duration
}

func NewAuthService(users *repository.UserRepository, logger *zap.Logger, secret string, ttl time.Duration) *AuthService {
	return &AuthService{Users: users, Log: logger, JWTSecret: secret, JWTTTL: ttl}
}

type RegisterIn struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Commune  string `json:"commune"`
	Quartier string `json:"quartier"`
}

type AuthOut struct {
	Token string       `json:"token"`
	User  *entity.User `json:"user"`
}

// Register creates an account. Phone is the login identifier; role names
// accept the French synonyms used by the mobile clients. Privileged roles
// cannot be self-assigned here, only the admin endpoints grant them.
func (s *AuthService) Register(in *RegisterIn) (*AuthOut, error) {
	phone := normalizePhone(in.Phone)
	if phone == "" {
		return nil, apperr.New(apperr.Validation, "a phone number is required")
	}

	role := entity.ParseRole(in.Role)
	if role == "" {
		role = entity.RoleCitizen
	}
	if role != entity.RoleCitizen && role != entity.RoleCollector {
		return nil, apperr.New(apperr.PermissionDenied, "this role cannot be self-registered")
	}

	count, err := s.Users.CountByPhone(phone)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, apperr.New(apperr.AlreadySet, "this phone number is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		Phone:    phone,
		Email:    strings.TrimSpace(in.Email),
		Password: string(hash),
		FullName: strings.TrimSpace(in.FullName),
		Role:     role,
		Commune:  strings.TrimSpace(in.Commune),
		Quartier: strings.TrimSpace(in.Quartier),
		IsActive: true,
	}
	if err := s.Users.Create(user); err != nil {
		return nil, err
	}

	s.Log.Info("user registered",
		zap.Uint("userId", user.ID),
		zap.String("role", string(user.Role)))
	return s.issue(user)
}

type LoginIn struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *AuthService) Login(in *LoginIn) (*AuthOut, error) {
	user, err := s.Users.FindByPhone(normalizePhone(in.Phone))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.PermissionDenied, "invalid phone number or password")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperr.New(apperr.PermissionDenied, "this account has been deactivated")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, apperr.New(apperr.PermissionDenied, "invalid phone number or password")
	}
	return s.issue(user)
}

func (s *AuthService) Me(userID uint) (*entity.User, error) {
	user, err := s.Users.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "user not found")
		}
		return nil, err
	}
	return user, nil
}

type UpdateMeIn struct {
	FullName *string `json:"fullName"`
	Email    *string `json:"email"`
	Commune  *string `json:"commune"`
	Quartier *string `json:"quartier"`
	Password *string `json:"password"`
}

// UpdateMe patches the caller's own profile. Role changes go through admin
// endpoints, never here.
func (s *AuthService) UpdateMe(userID uint, in *UpdateMeIn) (*entity.User, error) {
	updates := map[string]any{}
	if in.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*in.FullName)
	}
	if in.Email != nil {
		updates["email"] = strings.TrimSpace(*in.Email)
	}
	if in.Commune != nil {
		updates["commune"] = strings.TrimSpace(*in.Commune)
	}
	if in.Quartier != nil {
		updates["quartier"] = strings.TrimSpace(*in.Quartier)
	}
	if in.Password != nil {
		if len(*in.Password) < 6 {
			return nil, apperr.New(apperr.Validation, "password must be at least 6 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		updates["password"] = string(hash)
	}
	if len(updates) == 0 {
		return s.Me(userID)
	}
	if err := s.Users.Update(userID, updates); err != nil {
		return nil, err
	}
	return s.Me(userID)
}

func (s *AuthService) issue(user *entity.User) (*AuthOut, error) {
	token, err := utils.GenerateToken(user.ID, string(user.Role), user.Commune, s.JWTSecret, s.JWTTTL)
	if err != nil {
		return nil, err
	}
	return &AuthOut{Token: token, User: user}, nil
}

func normalizePhone(phone string) string {
	return strings.ReplaceAll(strings.TrimSpace(phone), " ", "")
}
