package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/servicehub-platform/internal/auth"
	"github.com/spec-kit/servicehub-platform/internal/domain"
	"github.com/spec-kit/servicehub-platform/internal/repository"
	"github.com/spec-kit/servicehub-platform/pkg/util"
)

// UserService manages accounts and authentication.
type UserService struct {
	users      repository.UserRepository
	roles      repository.RoleRepository
	tokens     *auth.TokenManager
	bcryptCost int
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, roles repository.RoleRepository, tokens *auth.TokenManager, bcryptCost int) *UserService {
	return &UserService{users: users, roles: roles, tokens: tokens, bcryptCost: bcryptCost}
}

// UserCreateInput describes account creation payload.
type UserCreateInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	RoleName  string
}

// UserUpdateInput describes mutable account fields.
type UserUpdateInput struct {
	FirstName *string
	LastName  *string
	RoleName  *string
	IsActive  *bool
}

// UserListInput describes listing filters.
type UserListInput struct {
	SearchTerm *string
	RoleName   *string
	Page       int
	Limit      int
}

// LoginResult carries the issued token and its owner.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Create registers an account. Without an explicit role the CLIENT role is
// assigned.
func (s *UserService) Create(ctx context.Context, input UserCreateInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, util.NewDuplicateEntity("user", "email", email)
	}

	roleName := input.RoleName
	if roleName == "" {
		roleName = domain.RoleClient
	}
	role, err := s.roles.GetByName(ctx, roleName)
	if err != nil {
		return nil, notFound("role", roleName, err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        email,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: hash,
		RoleID:       role.ID,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	user.Role = role
	return user, nil
}

// Login verifies credentials and issues a token.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, util.NewUnauthorized("account disabled")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, util.NewUnauthorized("invalid credentials")
	}

	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Email, roleName)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// FindAll returns a page of accounts.
func (s *UserService) FindAll(ctx context.Context, input UserListInput) ([]domain.User, util.PageMeta, error) {
	page, limit := util.NormalizePage(input.Page, input.Limit)

	filter := repository.UserFilter{
		SearchTerm: input.SearchTerm,
		RoleName:   input.RoleName,
		Limit:      limit,
		Offset:     (page - 1) * limit,
	}
	users, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, util.PageMeta{}, err
	}
	total, err := s.users.Count(ctx, filter)
	if err != nil {
		return nil, util.PageMeta{}, err
	}
	return users, util.NewPageMeta(total, page, limit), nil
}

// FindByID fetches a single account.
func (s *UserService) FindByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("user", id, err)
	}
	return user, nil
}

// Update mutates account fields.
func (s *UserService) Update(ctx context.Context, id string, input UserUpdateInput) (*domain.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.RoleName != nil {
		role, err := s.roles.GetByName(ctx, *input.RoleName)
		if err != nil {
			return nil, notFound("role", *input.RoleName, err)
		}
		user.RoleID = role.ID
		user.Role = role
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Deactivate disables an account without deleting it.
func (s *UserService) Deactivate(ctx context.Context, id string) (*domain.User, error) {
	inactive := false
	return s.Update(ctx, id, UserUpdateInput{IsActive: &inactive})
}

// Roles lists all known roles.
func (s *UserService) Roles(ctx context.Context) ([]domain.Role, error) {
	return s.roles.List(ctx)
}
