package account

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Verifications stores one-time code requests. The schema enforces a single
// live row per (account_id, purpose); SaveTx upserts against that key.
type Verifications interface {
	GetLiveTx(ctx context.Context, tx bun.IDB, purpose VerificationPurpose, accountID uuid.UUID) (*VerificationRequest, error)
	SaveTx(ctx context.Context, tx bun.IDB, record *VerificationRequest) error
	MarkCodeValidatedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	DeleteForAccountTx(ctx context.Context, tx bun.IDB, purpose VerificationPurpose, accountID uuid.UUID) error
}

type verifications struct {
	repository.Repository[*VerificationRequest]
	db *bun.DB
}

var _ Verifications = (*verifications)(nil)

func NewVerificationsRepository(db *bun.DB) Verifications {
	repo := repository.NewRepository[*VerificationRequest](db, repository.ModelHandlers[*VerificationRequest]{
		NewRecord: func() *VerificationRequest { return &VerificationRequest{} },
		GetID: func(r *VerificationRequest) uuid.UUID {
			if r == nil {
				return uuid.Nil
			}
			return r.ID
		},
		SetID: func(r *VerificationRequest, id uuid.UUID) {
			if r != nil {
				r.ID = id
			}
		},
	})

	return &verifications{Repository: repo, db: db}
}

func (v *verifications) GetLiveTx(ctx context.Context, tx bun.IDB, purpose VerificationPurpose, accountID uuid.UUID) (*VerificationRequest, error) {
	record := &VerificationRequest{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.account_id = ?", accountID).
		Where("?TableAlias.purpose = ?", purpose).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// SaveTx inserts the request or, when a live row already exists for the same
// (account, purpose), overwrites its code, secret key, validated flag and
// expiry in place. Replacing rather than duplicating keeps the one-live-row
// invariant under concurrent resends.
func (v *verifications) SaveTx(ctx context.Context, tx bun.IDB, record *VerificationRequest) error {
	_, err := tx.NewInsert().
		Model(record).
		On("CONFLICT (account_id, purpose) DO UPDATE").
		Set("code = EXCLUDED.code").
		Set("secret_key = EXCLUDED.secret_key").
		Set("code_validated = EXCLUDED.code_validated").
		Set("expires_at = EXCLUDED.expires_at").
		Exec(ctx)
	return err
}

func (v *verifications) MarkCodeValidatedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := tx.NewUpdate().
		Model((*VerificationRequest)(nil)).
		Set("code_validated = ?", true).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return repository.NewRecordNotFound()
	}

	return nil
}

func (v *verifications) DeleteForAccountTx(ctx context.Context, tx bun.IDB, purpose VerificationPurpose, accountID uuid.UUID) error {
	_, err := tx.NewDelete().
		Model((*VerificationRequest)(nil)).
		Where("account_id = ?", accountID).
		Where("purpose = ?", purpose).
		Exec(ctx)
	return err
}
