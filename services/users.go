package services

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Madhav-Gupta-28/o2herbal-backend-go/models"
)

const MinPasswordLength = 6

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	GenerateJWT(user *models.User) (string, error)
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Session is a user together with a freshly issued token.
type Session struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

type UserService struct {
	users  UserStore
	tokens TokenIssuer
	admins map[string]struct{}
	lg     *zap.Logger
	now    func() time.Time
}

func NewUserService(users UserStore, tokens TokenIssuer, adminEmails []string, lg *zap.Logger) *UserService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		admins[normalizeEmail(e)] = struct{}{}
	}
	return &UserService{
		users:  users,
		tokens: tokens,
		admins: admins,
		lg:     lg,
		now:    time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" {
		return nil, models.Invalid("name", "Name is required")
	}
	if _, err := mail.ParseAddress(email); err != nil || !strings.Contains(email, "@") {
		return nil, models.Invalid("email", "Valid email is required")
	}
	if len(req.Password) < MinPasswordLength {
		return nil, models.Invalid("password", "Password must be at least %d characters", MinPasswordLength)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	role := models.RoleUser
	if _, ok := s.admins[email]; ok {
		role = models.RoleAdmin
	}
	now := s.now()
	user := &models.User{
		Name:      name,
		Email:     email,
		Password:  string(hashedPassword),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, errors.Wrap(models.ErrConflict, "user already exists")
		}
		return nil, errors.Wrap(err, "create user")
	}

	s.lg.Info("User registered", zap.String("user_id", user.ID.Hex()), zap.String("role", string(role)))
	return s.session(user)
}

// Login checks the password; unknown emails and wrong passwords fail alike.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, errors.Wrap(models.ErrUnauthorized, "invalid credentials")
		}
		return nil, errors.Wrap(err, "get user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errors.Wrap(models.ErrUnauthorized, "invalid credentials")
	}
	return s.session(user)
}

func (s *UserService) Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return s.users.GetUser(ctx, userID)
}

func (s *UserService) session(user *models.User) (*Session, error) {
	token, err := s.tokens.GenerateJWT(user)
	if err != nil {
		return nil, errors.Wrap(err, "generate token")
	}
	return &Session{User: user, Token: token}, nil
}
