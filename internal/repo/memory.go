package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/crucial707/hci-todo/internal/models"
)

// MemoryUserRepo keeps accounts for the lifetime of the process.
// The uniqueness check and the insert happen under one lock.
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users []models.User
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{}
}

// Create assigns id len(users)+1. Users are never deleted, so ids are never reused.
func (r *MemoryUserRepo) Create(ctx context.Context, username, passwordHash, role string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.find(username); ok {
		return nil, ErrConflict
	}

	u := models.User{
		ID:           len(r.users) + 1,
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
	}
	r.users = append(r.users, u)
	return &u, nil
}

func (r *MemoryUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id < 1 || id > len(r.users) {
		return nil, ErrNotFound
	}
	u := r.users[id-1]
	return &u, nil
}

func (r *MemoryUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.find(username)
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepo) List(ctx context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.User, len(r.users))
	copy(out, r.users)
	return out, nil
}

// find must be called with r.mu held.
func (r *MemoryUserRepo) find(username string) (models.User, bool) {
	key := UsernameKey(username)
	for _, u := range r.users {
		if UsernameKey(u.Username) == key {
			return u, true
		}
	}
	return models.User{}, false
}

// MemoryTodoRepo is the in-memory todo store. Ids come from a monotonic
// counter and are not reused after delete.
type MemoryTodoRepo struct {
	mu     sync.RWMutex
	todos  map[int]models.Todo
	nextID int
}

func NewMemoryTodoRepo() *MemoryTodoRepo {
	return &MemoryTodoRepo{todos: make(map[int]models.Todo), nextID: 1}
}

func (r *MemoryTodoRepo) List(ctx context.Context) ([]models.Todo, error) {
	r.mu.RLock()
	out := make([]models.Todo, 0, len(r.todos))
	for _, t := range r.todos {
		out = append(out, t)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryTodoRepo) GetByID(ctx context.Context, id int) (*models.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.todos[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (r *MemoryTodoRepo) Create(ctx context.Context, name string, isComplete bool) (*models.Todo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t := models.Todo{ID: r.nextID, Name: name, IsComplete: isComplete}
	r.todos[t.ID] = t
	r.nextID++
	return &t, nil
}

func (r *MemoryTodoRepo) Update(ctx context.Context, id int, name string, isComplete bool) (*models.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.todos[id]; !ok {
		return nil, ErrNotFound
	}
	t := models.Todo{ID: id, Name: name, IsComplete: isComplete}
	r.todos[id] = t
	return &t, nil
}

func (r *MemoryTodoRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.todos[id]; !ok {
		return ErrNotFound
	}
	delete(r.todos, id)
	return nil
}
