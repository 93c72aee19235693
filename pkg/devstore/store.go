package devstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ethpandaops/archivoor/pkg/config"
)

var (
	// ErrNotFound indicates no document exists for the given id.
	ErrNotFound = errors.New("document not found")

	// ErrRevisionMismatch indicates the supplied revision is not the
	// document's current revision.
	ErrRevisionMismatch = errors.New("revision mismatch")
)

// Document is one stored document row. Body holds the full JSON document,
// including its current id and revision fields.
type Document struct {
	ID         uint   `gorm:"primaryKey"`
	Collection string `gorm:"uniqueIndex:idx_collection_doc;size:128"`
	DocID      string `gorm:"uniqueIndex:idx_collection_doc;size:256"`
	Seq        int
	Revision   string
	Body       []byte
	UpdatedAt  time.Time
}

// Store provides single-document persistence with revision checking.
// Atomicity is per document only; there are no multi-document transactions.
type Store interface {
	Start(ctx context.Context) error
	Stop() error

	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Put writes the full document. An empty claimed revision creates the
	// document; otherwise it must match the current revision exactly or
	// ErrRevisionMismatch is returned. The stored body receives the id
	// and the freshly minted revision. Reports whether the document was
	// created and its new revision.
	Put(
		ctx context.Context, collection, id, claimedRevision string,
		fields map[string]any,
	) (revision string, created bool, err error)

	// Delete removes the given revision of a document. ErrNotFound if
	// absent, ErrRevisionMismatch if the revision is stale.
	Delete(ctx context.Context, collection, id, revision string) error

	// List returns every document in a collection.
	List(ctx context.Context, collection string) ([]Document, error)
}

// Compile-time interface check.
var _ Store = (*store)(nil)

type store struct {
	log logrus.FieldLogger
	cfg *config.DatabaseConfig
	db  *gorm.DB
}

// NewStore creates a Store backed by the configured database driver.
func NewStore(
	log logrus.FieldLogger,
	cfg *config.DatabaseConfig,
) Store {
	return &store{
		log: log.WithField("component", "devstore-db"),
		cfg: cfg,
	}
}

// Start opens the database connection and runs migrations.
func (s *store) Start(ctx context.Context) error {
	var dialector gorm.Dialector

	gormCfg := &gorm.Config{
		Logger: logger.Discard,
	}

	switch s.cfg.Driver {
	case "sqlite":
		if err := ensureParentDir(s.cfg.SQLite.Path); err != nil {
			return err
		}

		dialector = sqlite.Open(s.cfg.SQLite.Path)
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			s.cfg.Postgres.Host,
			s.cfg.Postgres.Port,
			s.cfg.Postgres.User,
			s.cfg.Postgres.Password,
			s.cfg.Postgres.Database,
			s.cfg.Postgres.SSLMode,
		)
		dialector = postgres.Open(dsn)
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return fmt.Errorf("opening devstore database: %w", err)
	}

	s.db = db

	if err := s.db.WithContext(ctx).AutoMigrate(&Document{}); err != nil {
		return fmt.Errorf("running devstore migrations: %w", err)
	}

	s.log.WithField("driver", s.cfg.Driver).
		Info("Devstore database connected")

	return nil
}

// Stop closes the underlying database connection.
func (s *store) Stop() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db: %w", err)
	}

	return sqlDB.Close()
}

// Get returns the document or ErrNotFound.
func (s *store) Get(
	ctx context.Context, collection, id string,
) (*Document, error) {
	var doc Document
	if err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("getting document: %w", err)
	}

	return &doc, nil
}

// Put writes a document, enforcing the revision check.
func (s *store) Put(
	ctx context.Context, collection, id, claimedRevision string,
	fields map[string]any,
) (string, bool, error) {
	var current Document

	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&current).Error

	switch {
	case err == nil:
		if claimedRevision != current.Revision {
			return "", false, ErrRevisionMismatch
		}

		seq := current.Seq + 1
		revision := newRevision(seq)

		body, mErr := marshalBody(id, revision, fields)
		if mErr != nil {
			return "", false, mErr
		}

		// Conditional update on the old revision so concurrent writers
		// cannot both succeed.
		result := s.db.WithContext(ctx).
			Model(&Document{}).
			Where("collection = ? AND doc_id = ? AND revision = ?",
				collection, id, current.Revision).
			Updates(map[string]any{
				"seq":      seq,
				"revision": revision,
				"body":     body,
			})
		if result.Error != nil {
			return "", false, fmt.Errorf(
				"updating document: %w", result.Error,
			)
		}

		if result.RowsAffected == 0 {
			return "", false, ErrRevisionMismatch
		}

		return revision, false, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		if claimedRevision != "" {
			return "", false, ErrRevisionMismatch
		}

		revision := newRevision(1)

		body, mErr := marshalBody(id, revision, fields)
		if mErr != nil {
			return "", false, mErr
		}

		doc := Document{
			Collection: collection,
			DocID:      id,
			Seq:        1,
			Revision:   revision,
			Body:       body,
		}

		if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
			return "", false, fmt.Errorf("creating document: %w", err)
		}

		return revision, true, nil

	default:
		return "", false, fmt.Errorf("reading document: %w", err)
	}
}

// Delete removes the given revision of a document.
func (s *store) Delete(
	ctx context.Context, collection, id, revision string,
) error {
	result := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ? AND revision = ?",
			collection, id, revision).
		Delete(&Document{})
	if result.Error != nil {
		return fmt.Errorf("deleting document: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		return nil
	}

	// Distinguish absent from stale.
	if _, err := s.Get(ctx, collection, id); err != nil {
		return err
	}

	return ErrRevisionMismatch
}

// List returns every document in a collection.
func (s *store) List(
	ctx context.Context, collection string,
) ([]Document, error) {
	var docs []Document
	if err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("doc_id ASC").
		Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	return docs, nil
}

// ensureParentDir creates the directory holding the database file.
// In-memory databases have no parent.
func ensureParentDir(path string) error {
	if path == ":memory:" {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	return nil
}

// marshalBody injects the identity pair into the document fields.
func marshalBody(
	id, revision string, fields map[string]any,
) ([]byte, error) {
	fields["id"] = id
	fields["revision"] = revision

	body, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding document body: %w", err)
	}

	return body, nil
}

// revisionRandomBytes is the entropy appended to each revision token.
const revisionRandomBytes = 6

// newRevision mints an opaque revision token for the given sequence.
func newRevision(seq int) string {
	b := make([]byte, revisionRandomBytes)
	_, _ = rand.Read(b)

	return fmt.Sprintf("%d-%s", seq, hex.EncodeToString(b))
}
