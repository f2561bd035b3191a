package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicehub-platform/internal/api/dto"
	"github.com/spec-kit/servicehub-platform/internal/auth"
	"github.com/spec-kit/servicehub-platform/internal/domain"
	"github.com/spec-kit/servicehub-platform/internal/service"
	"github.com/spec-kit/servicehub-platform/pkg/util"
)

// UsersHandler exposes account and authentication endpoints.
type UsersHandler struct {
	service *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{service: userService}
}

// Register POST /auth/register.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return util.NewValidationError("email and password required", nil)
	}

	// Self-registration always yields a client account; elevated roles are
	// assigned by an administrator afterwards.
	user, err := h.service.Create(c.UserContext(), service.UserCreateInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		return err
	}
	return createdResponse(c, userResponse(user))
}

// Login POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	result, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return dataResponse(c, dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      userResponse(result.User),
	})
}

// Me GET /auth/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return util.NewUnauthorized("user required")
	}
	return dataResponse(c, userResponse(principal.User))
}

// CreateUser POST /users. Unlike Register, the caller picks the role.
func (h *UsersHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return util.NewValidationError("email and password required", nil)
	}
	user, err := h.service.Create(c.UserContext(), service.UserCreateInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		RoleName:  req.Role,
	})
	if err != nil {
		return err
	}
	return createdResponse(c, userResponse(user))
}

// List GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	page, limit := pageQuery(c)
	users, meta, err := h.service.FindAll(c.UserContext(), service.UserListInput{
		SearchTerm: optionalQuery(c, "search"),
		RoleName:   optionalQuery(c, "role"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return pageResponse(c, items, meta)
}

// Get GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.service.FindByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return dataResponse(c, userResponse(user))
}

// Update PATCH /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	user, err := h.service.Update(c.UserContext(), c.Params("id"), service.UserUpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		RoleName:  req.Role,
		IsActive:  req.IsActive,
	})
	if err != nil {
		return err
	}
	return dataResponse(c, userResponse(user))
}

// Deactivate DELETE /users/:id. Accounts are disabled, never removed.
func (h *UsersHandler) Deactivate(c *fiber.Ctx) error {
	user, err := h.service.Deactivate(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return dataResponse(c, userResponse(user))
}

// ListRoles GET /roles.
func (h *UsersHandler) ListRoles(c *fiber.Ctx) error {
	roles, err := h.service.Roles(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.RoleResponse, 0, len(roles))
	for _, role := range roles {
		items = append(items, dto.RoleResponse{
			ID:          role.ID,
			Name:        role.Name,
			Description: role.Description,
			Permissions: role.Permissions,
		})
	}
	return dataResponse(c, items)
}

func userResponse(user *domain.User) dto.UserResponse {
	roleName := ""
	if user.Role != nil {
		roleName = user.Role.Name
	}
	return dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      roleName,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}
