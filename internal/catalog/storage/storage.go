// Package storage defines the persistence boundary for the catalog.
package storage

import (
	"context"
	"time"

	"github.com/mscwg/catalog/internal/catalog/mscid"
	"github.com/mscwg/catalog/internal/catalog/records"
	"github.com/mscwg/catalog/internal/catalog/relations"
	"github.com/mscwg/catalog/internal/catalog/users"
)

// ChangeEntry is one entry in a record's change log.
type ChangeEntry struct {
	At     time.Time
	UserID string
	ID     mscid.ID
	Doc    map[string]any
}

// Store persists records, relations, accounts and change history.
type Store interface {
	relations.Store

	CreateRecord(ctx context.Context, table mscid.Table, doc map[string]any, slug, userID string) (mscid.ID, error)
	UpdateRecord(ctx context.Context, id mscid.ID, doc map[string]any, slug, userID string) error
	GetRecord(ctx context.Context, id mscid.ID) (records.Record, error)
	GetRecordBySlug(ctx context.Context, slug string) (records.Record, error)
	GetSlug(ctx context.Context, id mscid.ID) (string, error)
	ListRecords(ctx context.Context, table mscid.Table) ([]records.Record, error)
	AnnulRecord(ctx context.Context, id mscid.ID, userID string) error
	SlugTaken(ctx context.Context, slug string) (bool, error)
	History(ctx context.Context, id mscid.ID) ([]ChangeEntry, error)

	SaveUser(ctx context.Context, user users.User) error
	GetUser(ctx context.Context, userID string) (users.User, error)
	SaveAPIUser(ctx context.Context, user users.APIUser) error
	GetAPIUser(ctx context.Context, userID string) (users.APIUser, error)

	Close() error
}
