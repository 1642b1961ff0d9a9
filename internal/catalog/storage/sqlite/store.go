// Package sqlite provides SQLite-backed catalog storage: record documents,
// the relation graph, accounts and the change log.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/mscwg/catalog/internal/catalog/mscid"
	"github.com/mscwg/catalog/internal/catalog/records"
	"github.com/mscwg/catalog/internal/catalog/relations"
	"github.com/mscwg/catalog/internal/catalog/storage"
	"github.com/mscwg/catalog/internal/catalog/users"
	"github.com/mscwg/catalog/internal/errors"
	sqlitemigrate "github.com/mscwg/catalog/internal/platform/storage/sqlitemigrate"

	"github.com/mscwg/catalog/internal/catalog/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists catalog state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite catalog store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// CreateRecord inserts a document into a table and assigns it the next
// free number. Numbers are never reused.
func (s *Store) CreateRecord(ctx context.Context, table mscid.Table, doc map[string]any, slug, userID string) (mscid.ID, error) {
	if err := s.ready(ctx); err != nil {
		return mscid.ID{}, err
	}
	encoded, err := encodeDoc(doc)
	if err != nil {
		return mscid.ID{}, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return mscid.ID{}, fmt.Errorf("create record: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var number int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(number), 0) + 1 FROM records WHERE table_code = ?`,
		string(table),
	).Scan(&number)
	if err != nil {
		return mscid.ID{}, fmt.Errorf("create record: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO records (table_code, number, doc, slug) VALUES (?, ?, ?, ?)`,
		string(table), number, encoded, nullableSlug(slug),
	)
	if err != nil {
		return mscid.ID{}, fmt.Errorf("create record: %w", err)
	}
	id := mscid.ID{Table: table, Number: number}
	if err := logChange(ctx, tx, id, userID, encoded); err != nil {
		return mscid.ID{}, err
	}
	if err := tx.Commit(); err != nil {
		return mscid.ID{}, fmt.Errorf("create record: %w", err)
	}
	return id, nil
}

// UpdateRecord replaces an existing record's document.
func (s *Store) UpdateRecord(ctx context.Context, id mscid.ID, doc map[string]any, slug, userID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	encoded, err := encodeDoc(doc)
	if err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`UPDATE records SET doc = ?, slug = COALESCE(?, slug) WHERE table_code = ? AND number = ?`,
		encoded, nullableSlug(slug), string(id.Table), id.Number,
	)
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	if affected == 0 {
		return notFound(id)
	}
	if err := logChange(ctx, tx, id, userID, encoded); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update record: %w", err)
	}
	return nil
}

// GetRecord returns one record by MSC ID.
func (s *Store) GetRecord(ctx context.Context, id mscid.ID) (records.Record, error) {
	if err := s.ready(ctx); err != nil {
		return records.Record{}, err
	}
	var encoded string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT doc FROM records WHERE table_code = ? AND number = ?`,
		string(id.Table), id.Number,
	).Scan(&encoded)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return records.Record{}, notFound(id)
		}
		return records.Record{}, fmt.Errorf("get record: %w", err)
	}
	doc, err := decodeDoc(encoded)
	if err != nil {
		return records.Record{}, err
	}
	return records.Record{ID: id, Data: doc}, nil
}

// GetRecordBySlug returns the record a slug points to.
func (s *Store) GetRecordBySlug(ctx context.Context, slug string) (records.Record, error) {
	if err := s.ready(ctx); err != nil {
		return records.Record{}, err
	}
	var tableCode string
	var number int
	var encoded string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT table_code, number, doc FROM records WHERE slug = ?`,
		slug,
	).Scan(&tableCode, &number, &encoded)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return records.Record{}, errors.New(errors.CodeNotFound,
				fmt.Sprintf("no record with slug %q", slug))
		}
		return records.Record{}, fmt.Errorf("get record by slug: %w", err)
	}
	doc, err := decodeDoc(encoded)
	if err != nil {
		return records.Record{}, err
	}
	return records.Record{
		ID:   mscid.ID{Table: mscid.Table(tableCode), Number: number},
		Data: doc,
	}, nil
}

// GetSlug returns a record's slug, or "" when none was assigned.
func (s *Store) GetSlug(ctx context.Context, id mscid.ID) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}
	var slug sql.NullString
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT slug FROM records WHERE table_code = ? AND number = ?`,
		string(id.Table), id.Number,
	).Scan(&slug)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return "", notFound(id)
		}
		return "", fmt.Errorf("get slug: %w", err)
	}
	return slug.String, nil
}

// SlugTaken reports whether a slug is already assigned.
func (s *Store) SlugTaken(ctx context.Context, slug string) (bool, error) {
	if err := s.ready(ctx); err != nil {
		return false, err
	}
	var one int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT 1 FROM records WHERE slug = ?`, slug,
	).Scan(&one)
	if stderrors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return true, nil
}

// ListRecords returns every record in a table in number order.
func (s *Store) ListRecords(ctx context.Context, table mscid.Table) ([]records.Record, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT number, doc FROM records WHERE table_code = ? ORDER BY number ASC`,
		string(table),
	)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var out []records.Record
	for rows.Next() {
		var number int
		var encoded string
		if err := rows.Scan(&number, &encoded); err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
		doc, err := decodeDoc(encoded)
		if err != nil {
			return nil, err
		}
		out = append(out, records.Record{
			ID:   mscid.ID{Table: table, Number: number},
			Data: doc,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return out, nil
}

// AnnulRecord empties a record's document and removes every relation it
// takes part in, in either direction. The row and its number survive.
func (s *Store) AnnulRecord(ctx context.Context, id mscid.ID, userID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("annul record: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx,
		`UPDATE records SET doc = '{}' WHERE table_code = ? AND number = ?`,
		string(id.Table), id.Number,
	)
	if err != nil {
		return fmt.Errorf("annul record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("annul record: %w", err)
	}
	if affected == 0 {
		return notFound(id)
	}
	_, err = tx.ExecContext(ctx,
		`DELETE FROM relations WHERE subject = ? OR object = ?`,
		id.String(), id.String(),
	)
	if err != nil {
		return fmt.Errorf("annul record: %w", err)
	}
	if err := logChange(ctx, tx, id, userID, "{}"); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("annul record: %w", err)
	}
	return nil
}

// Relations returns a record's forward relation lists.
func (s *Store) Relations(ctx context.Context, subject string) (map[string][]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT predicate, object FROM relations WHERE subject = ? ORDER BY predicate, object`,
		subject,
	)
	if err != nil {
		return nil, fmt.Errorf("get relations: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var predicate, object string
		if err := rows.Scan(&predicate, &object); err != nil {
			return nil, fmt.Errorf("get relations: %w", err)
		}
		out[predicate] = append(out[predicate], object)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get relations: %w", err)
	}
	return out, nil
}

// AllRelations returns the full relation graph keyed by subject.
func (s *Store) AllRelations(ctx context.Context) (map[string]map[string][]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT subject, predicate, object FROM relations ORDER BY subject, predicate, object`,
	)
	if err != nil {
		return nil, fmt.Errorf("list relations: %w", err)
	}
	defer rows.Close()

	out := make(map[string]map[string][]string)
	for rows.Next() {
		var subject, predicate, object string
		if err := rows.Scan(&subject, &predicate, &object); err != nil {
			return nil, fmt.Errorf("list relations: %w", err)
		}
		if out[subject] == nil {
			out[subject] = make(map[string][]string)
		}
		out[subject][predicate] = append(out[subject][predicate], object)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list relations: %w", err)
	}
	return out, nil
}

// PutRelations replaces a record's forward relation lists.
func (s *Store) PutRelations(ctx context.Context, subject string, rels map[string][]string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put relations: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM relations WHERE subject = ?`, subject,
	); err != nil {
		return fmt.Errorf("put relations: %w", err)
	}
	for predicate, objects := range rels {
		for _, object := range objects {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO relations (subject, predicate, object) VALUES (?, ?, ?)`,
				subject, predicate, object,
			); err != nil {
				return fmt.Errorf("put relations: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("put relations: %w", err)
	}
	return nil
}

// History returns a record's change log, oldest first.
func (s *Store) History(ctx context.Context, id mscid.ID) ([]storage.ChangeEntry, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT changed_at, userid, doc FROM change_log
		  WHERE table_code = ? AND number = ?
		  ORDER BY id ASC`,
		string(id.Table), id.Number,
	)
	if err != nil {
		return nil, fmt.Errorf("record history: %w", err)
	}
	defer rows.Close()

	var out []storage.ChangeEntry
	for rows.Next() {
		var changedAt int64
		var userID, encoded string
		if err := rows.Scan(&changedAt, &userID, &encoded); err != nil {
			return nil, fmt.Errorf("record history: %w", err)
		}
		doc, err := decodeDoc(encoded)
		if err != nil {
			return nil, err
		}
		out = append(out, storage.ChangeEntry{
			At:     fromMillis(changedAt),
			UserID: userID,
			ID:     id,
			Doc:    doc,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("record history: %w", err)
	}
	return out, nil
}

// SaveUser upserts an editor account.
func (s *Store) SaveUser(ctx context.Context, user users.User) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.saveAccount(ctx, "users", user.UserID, user)
}

// GetUser returns an editor account by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (users.User, error) {
	var user users.User
	if err := s.getAccount(ctx, "users", userID, &user); err != nil {
		return users.User{}, err
	}
	return user, nil
}

// SaveAPIUser upserts an API account.
func (s *Store) SaveAPIUser(ctx context.Context, user users.APIUser) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.saveAccount(ctx, "api_users", user.UserID, user)
}

// GetAPIUser returns an API account by ID.
func (s *Store) GetAPIUser(ctx context.Context, userID string) (users.APIUser, error) {
	var user users.APIUser
	if err := s.getAccount(ctx, "api_users", userID, &user); err != nil {
		return users.APIUser{}, err
	}
	return user, nil
}

func (s *Store) saveAccount(ctx context.Context, table, userID string, account any) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id is required")
	}
	encoded, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO `+table+` (userid, doc) VALUES (?, ?)
		 ON CONFLICT (userid) DO UPDATE SET doc = excluded.doc`,
		userID, string(encoded),
	)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

func (s *Store) getAccount(ctx context.Context, table, userID string, account any) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	var encoded string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT doc FROM `+table+` WHERE userid = ?`, userID,
	).Scan(&encoded)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return errors.New(errors.CodeNotFound,
				fmt.Sprintf("no account %q", userID))
		}
		return fmt.Errorf("get account: %w", err)
	}
	if err := json.Unmarshal([]byte(encoded), account); err != nil {
		return fmt.Errorf("decode account: %w", err)
	}
	return nil
}

func logChange(ctx context.Context, tx *sql.Tx, id mscid.ID, userID, encoded string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO change_log (changed_at, userid, table_code, number, doc)
		 VALUES (?, ?, ?, ?, ?)`,
		toMillis(time.Now()), userID, string(id.Table), id.Number, encoded,
	)
	if err != nil {
		return fmt.Errorf("log change: %w", err)
	}
	return nil
}

func encodeDoc(doc map[string]any) (string, error) {
	if doc == nil {
		doc = map[string]any{}
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	return string(encoded), nil
}

func decodeDoc(encoded string) (map[string]any, error) {
	doc := make(map[string]any)
	if err := json.Unmarshal([]byte(encoded), &doc); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return doc, nil
}

func nullableSlug(slug string) any {
	if strings.TrimSpace(slug) == "" {
		return nil
	}
	return slug
}

func notFound(id mscid.ID) error {
	return errors.New(errors.CodeNotFound,
		fmt.Sprintf("no record %s", id.String()))
}

var _ relations.Store = (*Store)(nil)
var _ storage.Store = (*Store)(nil)
