package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/servicehub-platform/internal/domain"
)

type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
	roles *memoryRoleRepository
	now   func() time.Time
}

// NewMemoryUserRepository returns an in-memory implementation backed by the
// given role repository for role resolution.
func NewMemoryUserRepository(roles RoleRepository) UserRepository {
	memRoles, _ := roles.(*memoryRoleRepository)
	return &memoryUserRepository{
		users: make(map[string]domain.User),
		roles: memRoles,
		now:   time.Now,
	}
}

func (r *memoryUserRepository) resolveRole(user *domain.User) {
	if r.roles == nil {
		return
	}
	if role, err := r.roles.GetByID(context.Background(), user.RoleID); err == nil {
		user.Role = role
	}
}

func (r *memoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user.ID = uuid.NewString()
	user.CreatedAt = r.now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	r.resolveRole(user)
	return nil
}

func (r *memoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = r.now()
	r.users[user.ID] = *user
	r.resolveRole(user)
	return nil
}

func (r *memoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	r.resolveRole(&user)
	return &user, nil
}

func (r *memoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			u := user
			r.resolveRole(&u)
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryUserRepository) matches(user domain.User, filter UserFilter) bool {
	if filter.RoleName != nil {
		u := user
		r.resolveRole(&u)
		if u.Role == nil || u.Role.Name != *filter.RoleName {
			return false
		}
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		if !strings.Contains(strings.ToLower(user.Email), search) &&
			!strings.Contains(strings.ToLower(user.FirstName), search) &&
			!strings.Contains(strings.ToLower(user.LastName), search) {
			return false
		}
	}
	return true
}

func (r *memoryUserRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.User
	for _, user := range r.users {
		if r.matches(user, filter) {
			r.resolveRole(&user)
			matched = append(matched, user)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return paginate(matched, filter.Limit, filter.Offset), nil
}

func (r *memoryUserRepository) Count(ctx context.Context, filter UserFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	count := 0
	for _, user := range r.users {
		if r.matches(user, filter) {
			count++
		}
	}
	return count, nil
}

type memoryRoleRepository struct {
	mu    sync.RWMutex
	roles map[string]domain.Role
}

// NewMemoryRoleRepository returns an in-memory role store seeded with the
// given roles.
func NewMemoryRoleRepository(roles ...domain.Role) RoleRepository {
	repo := &memoryRoleRepository{roles: make(map[string]domain.Role)}
	for _, role := range roles {
		if role.ID == "" {
			role.ID = uuid.NewString()
		}
		repo.roles[role.ID] = role
	}
	return repo
}

func (r *memoryRoleRepository) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	role, ok := r.roles[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &role, nil
}

func (r *memoryRoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, role := range r.roles {
		if role.Name == name {
			res := role
			return &res, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryRoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roles := make([]domain.Role, 0, len(r.roles))
	for _, role := range r.roles {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}
