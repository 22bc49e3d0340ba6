package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SetAccountPasswordSQL recomputes the provider tag in the same statement as
// the hash write so the HasPassword/Provider invariant cannot be observed
// half-applied.
var SetAccountPasswordSQL = `UPDATE "accounts" AS "acc"
SET
	"password_hash" = ?,
	"has_password" = TRUE,
	"auth_provider" = CASE
		WHEN "acc"."provider_subject" IS NOT NULL AND "acc"."provider_subject" <> '' THEN 'hybrid'
		ELSE 'local'
	END,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"acc"."id" = ?
RETURNING *;`

// ConsumeVerificationSQL clears the token pair and flips the verified flag in
// a single conditional UPDATE. The store's per-row atomicity guarantees the
// token is consumed exactly once.
var ConsumeVerificationSQL = `UPDATE "accounts" AS "acc"
SET
	"is_email_verified" = TRUE,
	"verification_token" = NULL,
	"verification_expires_at" = NULL,
	"updated_at" = CURRENT_TIMESTAMP
WHERE
	"acc"."verification_token" = ?
AND "acc"."verification_expires_at" > ?
RETURNING *;`

type Accounts interface {
	repository.Repository[*Account]

	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByAccountID(ctx context.Context, id string) (*Account, error)
	GetByProviderSubject(ctx context.Context, subject string) (*Account, error)

	Register(ctx context.Context, account *Account) (*Account, error)
	RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error)
	Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
	Save(ctx context.Context, record *Account) (*Account, error)

	TrackAttemptedLogin(ctx context.Context, account *Account) error
	TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, account *Account) error
	TrackSuccessfulLogin(ctx context.Context, account *Account) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, account *Account) error

	SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) (*Account, error)
	SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) (*Account, error)

	StartVerification(ctx context.Context, id uuid.UUID, v EmailVerification) error
	ConsumeVerificationToken(ctx context.Context, token string) (*Account, error)

	UpdateRole(ctx context.Context, id uuid.UUID, role AccountRole) (*Account, error)
	ListAccounts(ctx context.Context, roles ...AccountRole) ([]*Account, error)
	HardDelete(ctx context.Context, id uuid.UUID) error
}

type accounts struct {
	repository.Repository[*Account]
	db *bun.DB
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
	}
}

func (a *accounts) GetByEmail(ctx context.Context, email string) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", NormalizeEmail(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"identifier": "email"})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) GetByAccountID(ctx context.Context, id string) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"identifier": "id"})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) GetByProviderSubject(ctx context.Context, subject string) (*Account, error) {
	record := &Account{}
	err := a.db.NewSelect().
		Model(record).
		Where("?TableAlias.provider_subject = ?", subject).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"identifier": "provider_subject"})
		}
		return nil, err
	}

	return record, nil
}

func (a *accounts) Register(ctx context.Context, account *Account) (*Account, error) {
	return a.RegisterTx(ctx, a.db, account)
}

func (a *accounts) RegisterTx(ctx context.Context, tx bun.IDB, account *Account) (*Account, error) {
	return a.CreateTx(ctx, tx, account)
}

func (a *accounts) Create(ctx context.Context, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	prepareAccountDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

// Save persists the record keyed by its own ID. The embedded Update stays
// available for criteria-driven writes.
func (a *accounts) Save(ctx context.Context, record *Account) (*Account, error) {
	return a.Repository.UpdateTx(ctx, a.db, record, repository.UpdateByID(record.ID.String()))
}

func (a *accounts) TrackSuccessfulLogin(ctx context.Context, account *Account) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, account)
}

func (a *accounts) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, account *Account) error {
	loggedInAt := time.Now()
	_, err := tx.NewRaw(`
		UPDATE "accounts" AS "acc"
		SET
			"loggedin_at" = ?,
			"login_attempt_at" = NULL,
			"login_attempts" = 0
		WHERE
			("acc".id = ?);
	`, loggedInAt, account.ID).Exec(ctx)

	return err
}

func (a *accounts) TrackAttemptedLogin(ctx context.Context, account *Account) error {
	return a.TrackAttemptedLoginTx(ctx, a.db, account)
}

func (a *accounts) TrackAttemptedLoginTx(ctx context.Context, tx bun.IDB, account *Account) error {
	criteria := []repository.UpdateCriteria{
		repository.UpdateByID(account.ID.String()),
	}

	record := &Account{}
	record.ID = account.ID
	record.LoginAttempts = account.LoginAttempts + 1
	now := time.Now()
	record.LoginAttemptAt = &now

	_, err := a.Repository.UpdateTx(ctx, tx, record, criteria...)

	return err
}

func (a *accounts) SetPassword(ctx context.Context, id uuid.UUID, passwordHash string) (*Account, error) {
	return a.SetPasswordTx(ctx, a.db, id, passwordHash)
}

func (a *accounts) SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, tx, SetAccountPasswordSQL, passwordHash, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return res[0], nil
}

func (a *accounts) StartVerification(ctx context.Context, id uuid.UUID, v EmailVerification) error {
	_, err := a.db.NewUpdate().
		Model((*Account)(nil)).
		Set("verification_token = ?", v.Token).
		Set("verification_expires_at = ?", v.ExpiresAt).
		Set("is_email_verified = ?", false).
		Set("updated_at = CURRENT_TIMESTAMP").
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (a *accounts) ConsumeVerificationToken(ctx context.Context, token string) (*Account, error) {
	res, err := a.Repository.RawTx(ctx, a.db, ConsumeVerificationSQL, token, time.Now())
	if err != nil {
		return nil, err
	}

	if len(res) > 0 {
		return res[0], nil
	}

	// nothing consumed: tell an expired token apart from an unknown one
	exists, err := a.db.NewSelect().
		Model((*Account)(nil)).
		Where("verification_token = ?", token).
		Exists(ctx)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrVerificationExpired
	}

	return nil, ErrVerificationInvalid
}

func (a *accounts) UpdateRole(ctx context.Context, id uuid.UUID, role AccountRole) (*Account, error) {
	record := &Account{
		ID:   id,
		Role: role,
	}

	return a.Repository.UpdateTx(ctx, a.db, record, repository.UpdateByID(id.String()))
}

func (a *accounts) ListAccounts(ctx context.Context, roles ...AccountRole) ([]*Account, error) {
	var records []*Account
	q := a.db.NewSelect().
		Model(&records).
		Order("created_at DESC")

	if len(roles) > 0 {
		q = q.Where("?TableAlias.account_role IN (?)", bun.In(roles))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

// HardDelete removes the record permanently. There is no soft-delete state;
// deletion is an admin-only, irreversible action.
func (a *accounts) HardDelete(ctx context.Context, id uuid.UUID) error {
	res, err := a.db.NewDelete().
		Model((*Account)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func prepareAccountDefaults(record *Account) {
	if record == nil {
		return
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	record.Email = NormalizeEmail(record.Email)

	if _, ok := ParseRole(record.Role); !ok {
		record.Role = RoleJobSeeker
	}

	record.RecomputeProvider()
}
