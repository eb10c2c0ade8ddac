package credstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	session "github.com/urbanease/go-session"
)

// credentialModel is the Bun model for the single stored credential.
type credentialModel struct {
	bun.BaseModel `bun:"table:session_credentials"`

	ID           int64     `bun:"id,pk"`
	AccessToken  string    `bun:"access_token,notnull"`
	ExpiresAt    int64     `bun:"expires_at,notnull"` // epoch milliseconds
	RefreshToken string    `bun:"refresh_token"`
	UpdatedAt    time.Time `bun:"updated_at,default:current_timestamp"`
}

// Only one credential row ever exists; re-login overwrites it.
const credentialRowID = 1

// SQLiteStore persists the credential in a local SQLite database so the
// session survives application restarts.
type SQLiteStore struct {
	db     *bun.DB
	logger session.Logger
	now    func() time.Time
}

var _ session.CredentialStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the store at path. Use
// "file::memory:?cache=shared" for an ephemeral store.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	store := &SQLiteStore{
		db:     db,
		logger: session.NoopLogger{},
		now:    time.Now,
	}

	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// WithLogger sets the logger used for purge bookkeeping.
func (s *SQLiteStore) WithLogger(logger session.Logger) *SQLiteStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithClock injects a custom clock (useful for tests).
func (s *SQLiteStore) WithClock(clock func() time.Time) *SQLiteStore {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*credentialModel)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// Store implements session.CredentialStore.
func (s *SQLiteStore) Store(ctx context.Context, accessToken string, expiresIn time.Duration, refreshToken string) error {
	cred := session.NewCredential(accessToken, expiresIn, refreshToken, s.now())

	model := &credentialModel{
		ID:           credentialRowID,
		AccessToken:  cred.AccessToken,
		ExpiresAt:    cred.ExpiresAt,
		RefreshToken: cred.RefreshToken,
		UpdatedAt:    s.now(),
	}

	_, err := s.db.NewInsert().
		Model(model).
		On("CONFLICT (id) DO UPDATE").
		Set("access_token = EXCLUDED.access_token").
		Set("expires_at = EXCLUDED.expires_at").
		Set("refresh_token = EXCLUDED.refresh_token").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	return err
}

// ValidToken implements session.CredentialStore. An expired row is
// deleted as a side effect of the read.
func (s *SQLiteStore) ValidToken(ctx context.Context) (string, error) {
	cred, err := s.load(ctx)
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", nil
	}

	if !cred.Valid(s.now()) {
		s.logger.Debug("stored credential expired, purging")
		if err := s.Clear(ctx); err != nil {
			return "", err
		}
		return "", nil
	}

	return cred.AccessToken, nil
}

// RefreshToken implements session.CredentialStore.
func (s *SQLiteStore) RefreshToken(ctx context.Context) (string, error) {
	cred, err := s.load(ctx)
	if err != nil || cred == nil {
		return "", err
	}
	return cred.RefreshToken, nil
}

// Clear implements session.CredentialStore. Idempotent.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	_, err := s.db.NewDelete().
		Model((*credentialModel)(nil)).
		Where("id = ?", credentialRowID).
		Exec(ctx)
	return err
}

func (s *SQLiteStore) load(ctx context.Context) (*session.Credential, error) {
	var model credentialModel
	err := s.db.NewSelect().
		Model(&model).
		Where("id = ?", credentialRowID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &session.Credential{
		AccessToken:  model.AccessToken,
		ExpiresAt:    model.ExpiresAt,
		RefreshToken: model.RefreshToken,
	}, nil
}
