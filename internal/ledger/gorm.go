package ledger

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/core-coin/mailnet/internal/runtime"
)

// BalanceRow is a single principal's custodied UNIT balance, the
// gorm-mapped equivalent of a CBC20-style token account the teacher's
// internal/blockchain/ctn.go decodes transfers for off-chain — here the
// balance is owned and mutated directly, since this program is the chain
// logic rather than a client observing one.
type BalanceRow struct {
	Principal string `gorm:"column:principal;primaryKey"`
	Amount    uint64 `gorm:"column:amount;not null"`
}

func (BalanceRow) TableName() string { return "unit_balances" }

// GormLedger implements runtime.Custodian against a gorm.DB, taking a
// row-level lock on both sides of a transfer inside a single
// transaction — the persistent analogue of Memory's mutex.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) (*GormLedger, error) {
	if err := db.AutoMigrate(&BalanceRow{}); err != nil {
		return nil, errors.Wrap(err, "migrate unit_balances")
	}
	return &GormLedger{db: db}, nil
}

func (l *GormLedger) Balance(ctx context.Context, principal runtime.Principal) (uint64, error) {
	var row BalanceRow
	err := l.db.WithContext(ctx).Where("principal = ?", principal.Hex()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "load balance")
	}
	return row.Amount, nil
}

// Credit seeds a principal's balance, for bootstrap/demo use only.
func (l *GormLedger) Credit(ctx context.Context, principal runtime.Principal, amount uint64) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := lockedRow(tx, principal)
		if err != nil {
			return err
		}
		row.Amount += amount
		return tx.Save(row).Error
	})
}

func (l *GormLedger) Transfer(ctx context.Context, from, to, _ runtime.Principal, amount uint64) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fromRow, err := lockedRow(tx, from)
		if err != nil {
			return err
		}
		if fromRow.Amount < amount {
			return runtime.Asset(runtime.ErrInsufficientFunds)
		}
		toRow, err := lockedRow(tx, to)
		if err != nil {
			return err
		}

		fromRow.Amount -= amount
		toRow.Amount += amount

		if err := tx.Save(fromRow).Error; err != nil {
			return runtime.Asset(errors.Wrap(runtime.ErrTokenTransferFailed, err.Error()))
		}
		if err := tx.Save(toRow).Error; err != nil {
			return runtime.Asset(errors.Wrap(runtime.ErrTokenTransferFailed, err.Error()))
		}
		return nil
	})
}

// lockedRow fetches a balance row FOR UPDATE, creating it on first use —
// the gorm equivalent of Anchor's init_if_needed on a token account.
func lockedRow(tx *gorm.DB, principal runtime.Principal) (*BalanceRow, error) {
	var row BalanceRow
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("principal = ?", principal.Hex()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = BalanceRow{Principal: principal.Hex(), Amount: 0}
		if err := tx.Create(&row).Error; err != nil {
			return nil, runtime.WrapAsset(err, "create custody account")
		}
		return &row, nil
	}
	if err != nil {
		return nil, runtime.WrapAsset(err, "load custody account")
	}
	return &row, nil
}

var _ runtime.Custodian = (*GormLedger)(nil)
