package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitea.jw6.us/james/calllog/internal/schema"
)

// collection is a map that remembers insertion order.
type collection[T any] struct {
	items map[string]T
	order []string
}

func newCollection[T any]() collection[T] {
	return collection[T]{items: make(map[string]T)}
}

func (c *collection[T]) get(id string) (T, bool) {
	v, ok := c.items[id]
	return v, ok
}

func (c *collection[T]) put(id string, v T) {
	if _, exists := c.items[id]; !exists {
		c.order = append(c.order, id)
	}
	c.items[id] = v
}

func (c *collection[T]) remove(id string) bool {
	if _, exists := c.items[id]; !exists {
		return false
	}
	delete(c.items, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return true
}

func (c *collection[T]) values() []T {
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}

// memoryUserRepo implements UserRepository.
type memoryUserRepo struct {
	mu    sync.RWMutex
	users collection[schema.User]
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: newCollection[schema.User]()}
}

func (r *memoryUserRepo) Create(ctx context.Context, in schema.NewUser) (*schema.User, error) {
	defer observeStore(ctx, "users.create")()
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.findByUsernameLocked(in.Username); ok {
		return nil, ErrConflict
	}
	user := schema.User{ID: uuid.NewString(), Username: in.Username, Password: in.Password}
	r.users.put(user.ID, user)
	return &user, nil
}

func (r *memoryUserRepo) GetByID(ctx context.Context, id string) (*schema.User, error) {
	defer observeStore(ctx, "users.get")()
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *memoryUserRepo) GetByUsername(ctx context.Context, username string) (*schema.User, error) {
	defer observeStore(ctx, "users.get_by_username")()
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.findByUsernameLocked(username)
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *memoryUserRepo) findByUsernameLocked(username string) (schema.User, bool) {
	for _, u := range r.users.values() {
		if u.Username == username {
			return u, true
		}
	}
	return schema.User{}, false
}

// memoryCallLogRepo implements CallLogRepository.
type memoryCallLogRepo struct {
	mu   sync.RWMutex
	logs collection[schema.CallLog]
	now  func() time.Time
}

func newMemoryCallLogRepo() *memoryCallLogRepo {
	return &memoryCallLogRepo{logs: newCollection[schema.CallLog](), now: time.Now}
}

func (r *memoryCallLogRepo) List(ctx context.Context) ([]schema.CallLog, error) {
	defer observeStore(ctx, "call_logs.list")()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.logs.values(), nil
}

func (r *memoryCallLogRepo) GetByID(ctx context.Context, id string) (*schema.CallLog, error) {
	defer observeStore(ctx, "call_logs.get")()
	r.mu.RLock()
	defer r.mu.RUnlock()

	log, ok := r.logs.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &log, nil
}

func (r *memoryCallLogRepo) Create(ctx context.Context, in schema.NewCallLog) (*schema.CallLog, error) {
	defer observeStore(ctx, "call_logs.create")()

	log := schema.CallLog{
		ID:          uuid.NewString(),
		ContactName: in.ContactName,
		PhoneNumber: in.PhoneNumber,
		CallType:    in.CallType,
		Duration:    in.Duration,
		IsFavorite:  in.IsFavorite,
		Timestamp:   in.Timestamp,
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = r.now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs.put(log.ID, log)
	return &log, nil
}

func (r *memoryCallLogRepo) Update(ctx context.Context, id string, patch schema.CallLogPatch) (*schema.CallLog, error) {
	defer observeStore(ctx, "call_logs.update")()
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.logs.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	updated := existing.Apply(patch)
	r.logs.put(id, updated)
	return &updated, nil
}

func (r *memoryCallLogRepo) Delete(ctx context.Context, id string) (bool, error) {
	defer observeStore(ctx, "call_logs.delete")()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logs.remove(id), nil
}

// memoryTemplateRepo implements TemplateRepository.
type memoryTemplateRepo struct {
	mu        sync.RWMutex
	templates collection[schema.MessageTemplate]
}

func newMemoryTemplateRepo() *memoryTemplateRepo {
	return &memoryTemplateRepo{templates: newCollection[schema.MessageTemplate]()}
}

func (r *memoryTemplateRepo) List(ctx context.Context) ([]schema.MessageTemplate, error) {
	defer observeStore(ctx, "templates.list")()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.templates.values(), nil
}

func (r *memoryTemplateRepo) GetByID(ctx context.Context, id string) (*schema.MessageTemplate, error) {
	defer observeStore(ctx, "templates.get")()
	r.mu.RLock()
	defer r.mu.RUnlock()

	tmpl, ok := r.templates.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &tmpl, nil
}

func (r *memoryTemplateRepo) Create(ctx context.Context, in schema.NewMessageTemplate) (*schema.MessageTemplate, error) {
	defer observeStore(ctx, "templates.create")()

	tmpl := schema.MessageTemplate{ID: uuid.NewString(), Name: in.Name, Message: in.Message}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates.put(tmpl.ID, tmpl)
	return &tmpl, nil
}

func (r *memoryTemplateRepo) Delete(ctx context.Context, id string) (bool, error) {
	defer observeStore(ctx, "templates.delete")()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.templates.remove(id), nil
}
