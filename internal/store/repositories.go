package store

import (
	"context"

	"gitea.jw6.us/james/calllog/internal/schema"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// Create returns ErrConflict when the username is already registered.
	Create(ctx context.Context, user schema.NewUser) (*schema.User, error)
	GetByID(ctx context.Context, id string) (*schema.User, error)
	GetByUsername(ctx context.Context, username string) (*schema.User, error)
}

// CallLogRepository handles the call log collection. Lookups of an unknown
// id return ErrNotFound.
type CallLogRepository interface {
	// List returns every call log in insertion order.
	List(ctx context.Context) ([]schema.CallLog, error)
	GetByID(ctx context.Context, id string) (*schema.CallLog, error)
	// Create assigns a new id and defaults a zero timestamp to now.
	Create(ctx context.Context, log schema.NewCallLog) (*schema.CallLog, error)
	// Update merges patch onto the stored record.
	Update(ctx context.Context, id string, patch schema.CallLogPatch) (*schema.CallLog, error)
	// Delete reports whether a record existed and was removed.
	Delete(ctx context.Context, id string) (bool, error)
}

// TemplateRepository manages message templates. Templates are never updated.
type TemplateRepository interface {
	List(ctx context.Context) ([]schema.MessageTemplate, error)
	GetByID(ctx context.Context, id string) (*schema.MessageTemplate, error)
	Create(ctx context.Context, tmpl schema.NewMessageTemplate) (*schema.MessageTemplate, error)
	Delete(ctx context.Context, id string) (bool, error)
}
