// Package repository provides the gorm-backed mailer.Store and
// mailservice.Store implementation used by cmd/mailnet, generalizing the
// teacher's single-purpose Postgres repository into one that persists
// both program's account state side by side in the same database.
package repository

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/core-coin/mailnet/internal/mailer"
	"github.com/core-coin/mailnet/internal/mailservice"
	"github.com/core-coin/mailnet/internal/runtime"
	"github.com/core-coin/mailnet/pkg/logger"
)

// Row types mirror the domain structs but encode every runtime.Principal
// as its hex string, the same convention the teacher's models package
// uses for every address-shaped column (e.g. models.Wallet.Address) —
// runtime.Principal is a fixed-size byte array with no database/sql
// Scanner/Valuer of its own, so it cannot cross gorm's column boundary
// directly.

type mailerStateRow struct {
	Owner          string `gorm:"column:owner;primaryKey"`
	UnitMint       string `gorm:"column:unit_mint"`
	SendFee        uint64 `gorm:"column:send_fee"`
	OwnerClaimable uint64 `gorm:"column:owner_claimable"`
	Bump           uint8  `gorm:"column:bump"`
}

func (mailerStateRow) TableName() string { return "mailer_state" }

func toMailerStateRow(s *mailer.State) *mailerStateRow {
	return &mailerStateRow{
		Owner:          s.Owner.Hex(),
		UnitMint:       s.UnitMint.Hex(),
		SendFee:        s.SendFee,
		OwnerClaimable: s.OwnerClaimable,
		Bump:           s.Bump,
	}
}

func fromMailerStateRow(r *mailerStateRow) (*mailer.State, error) {
	owner, err := runtime.ParsePrincipal(r.Owner)
	if err != nil {
		return nil, fmt.Errorf("parse owner address: %w", err)
	}
	unitMint, err := runtime.ParsePrincipal(r.UnitMint)
	if err != nil {
		return nil, fmt.Errorf("parse unit mint address: %w", err)
	}
	return &mailer.State{
		Owner:          owner,
		UnitMint:       unitMint,
		SendFee:        r.SendFee,
		OwnerClaimable: r.OwnerClaimable,
		Bump:           r.Bump,
	}, nil
}

type recipientClaimRow struct {
	Recipient string `gorm:"column:recipient;primaryKey"`
	Amount    uint64 `gorm:"column:amount"`
	Timestamp int64  `gorm:"column:timestamp"`
	Bump      uint8  `gorm:"column:bump"`
}

func (recipientClaimRow) TableName() string { return "recipient_claims" }

func toRecipientClaimRow(c *mailer.Claim) *recipientClaimRow {
	return &recipientClaimRow{
		Recipient: c.Recipient.Hex(),
		Amount:    c.Amount,
		Timestamp: c.Timestamp,
		Bump:      c.Bump,
	}
}

func fromRecipientClaimRow(r *recipientClaimRow) (*mailer.Claim, error) {
	recipient, err := runtime.ParsePrincipal(r.Recipient)
	if err != nil {
		return nil, fmt.Errorf("parse recipient address: %w", err)
	}
	return &mailer.Claim{
		Recipient: recipient,
		Amount:    r.Amount,
		Timestamp: r.Timestamp,
		Bump:      r.Bump,
	}, nil
}

type mailServiceStateRow struct {
	Owner           string `gorm:"column:owner;primaryKey"`
	UnitMint        string `gorm:"column:unit_mint"`
	RegistrationFee uint64 `gorm:"column:registration_fee"`
	DelegationFee   uint64 `gorm:"column:delegation_fee"`
	Bump            uint8  `gorm:"column:bump"`
}

func (mailServiceStateRow) TableName() string { return "mail_service_state" }

func toMailServiceStateRow(s *mailservice.State) *mailServiceStateRow {
	return &mailServiceStateRow{
		Owner:           s.Owner.Hex(),
		UnitMint:        s.UnitMint.Hex(),
		RegistrationFee: s.RegistrationFee,
		DelegationFee:   s.DelegationFee,
		Bump:            s.Bump,
	}
}

func fromMailServiceStateRow(r *mailServiceStateRow) (*mailservice.State, error) {
	owner, err := runtime.ParsePrincipal(r.Owner)
	if err != nil {
		return nil, fmt.Errorf("parse owner address: %w", err)
	}
	unitMint, err := runtime.ParsePrincipal(r.UnitMint)
	if err != nil {
		return nil, fmt.Errorf("parse unit mint address: %w", err)
	}
	return &mailservice.State{
		Owner:           owner,
		UnitMint:        unitMint,
		RegistrationFee: r.RegistrationFee,
		DelegationFee:   r.DelegationFee,
		Bump:            r.Bump,
	}, nil
}

type delegationRow struct {
	Delegator   string `gorm:"column:delegator;primaryKey"`
	Delegate    string `gorm:"column:delegate"`
	HasDelegate bool   `gorm:"column:has_delegate"`
	Bump        uint8  `gorm:"column:bump"`
}

func (delegationRow) TableName() string { return "delegations" }

func toDelegationRow(d *mailservice.Delegation) *delegationRow {
	return &delegationRow{
		Delegator:   d.Delegator.Hex(),
		Delegate:    d.Delegate.Hex(),
		HasDelegate: d.HasDelegate,
		Bump:        d.Bump,
	}
}

func fromDelegationRow(r *delegationRow) (*mailservice.Delegation, error) {
	delegator, err := runtime.ParsePrincipal(r.Delegator)
	if err != nil {
		return nil, fmt.Errorf("parse delegator address: %w", err)
	}
	delegate, err := runtime.ParsePrincipal(r.Delegate)
	if err != nil {
		return nil, fmt.Errorf("parse delegate address: %w", err)
	}
	return &mailservice.Delegation{
		Delegator:   delegator,
		Delegate:    delegate,
		HasDelegate: r.HasDelegate,
		Bump:        r.Bump,
	}, nil
}

// PostgresDB implements mailer.Store and mailservice.Store against a
// single gorm connection.
type PostgresDB struct {
	log  *logger.Logger
	Conn *gorm.DB
}

func NewPostgresDB(user, password, dbname, host string, port int, log *logger.Logger) (*PostgresDB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		host, user, password, dbname, port)

	gLogger := gormLogger.New(
		stdLogger(),
		gormLogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %s", err)
	}

	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate program state: %s", err)
	}
	log.Info("Successfully connected to PostgreSQL!")
	return &PostgresDB{Conn: db, log: log}, nil
}

// AutoMigrate creates or updates the four account-kind tables this
// protocol persists. Exported so tests can run it against a throwaway
// sqlite connection the way NewPostgresDB runs it against Postgres.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&mailerStateRow{}, &recipientClaimRow{}, &mailServiceStateRow{}, &delegationRow{})
}

func stdLogger() *log.Logger {
	return log.New(os.Stdout, "\r\n", log.LstdFlags)
}

func (db *PostgresDB) Close() error {
	sqlDB, err := db.Conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %s", err)
	}
	return sqlDB.Close()
}

// --- mailer.Store ---

func (db *PostgresDB) LoadState(ctx context.Context) (*mailer.State, bool, error) {
	var row mailerStateRow
	err := db.Conn.WithContext(ctx).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load mailer state: %w", err)
	}
	state, err := fromMailerStateRow(&row)
	if err != nil {
		return nil, false, err
	}
	return state, true, nil
}

func (db *PostgresDB) CreateState(ctx context.Context, state *mailer.State) error {
	if err := db.Conn.WithContext(ctx).Create(toMailerStateRow(state)).Error; err != nil {
		return fmt.Errorf("create mailer state: %w", err)
	}
	return nil
}

func (db *PostgresDB) SaveState(ctx context.Context, state *mailer.State) error {
	if err := db.Conn.WithContext(ctx).Save(toMailerStateRow(state)).Error; err != nil {
		return fmt.Errorf("save mailer state: %w", err)
	}
	return nil
}

func (db *PostgresDB) LoadClaim(ctx context.Context, sender runtime.Principal) (*mailer.Claim, bool, error) {
	var row recipientClaimRow
	err := db.Conn.WithContext(ctx).Where("recipient = ?", sender.Hex()).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load recipient claim: %w", err)
	}
	claim, err := fromRecipientClaimRow(&row)
	if err != nil {
		return nil, false, err
	}
	return claim, true, nil
}

// SaveClaim is the Store's sole create-or-update entry point for a
// sender's claim — the engine always loads-or-initializes a Claim before
// calling this, never a separate CreateClaim. gorm's Save performs an
// UPDATE whenever the primary key is non-blank, which a hex address
// always is, so a first-ever claim for a sender needs an explicit
// upsert rather than Save to actually insert.
func (db *PostgresDB) SaveClaim(ctx context.Context, claim *mailer.Claim) error {
	row := toRecipientClaimRow(claim)
	err := db.Conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "recipient"}},
		UpdateAll: true,
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("save recipient claim: %w", err)
	}
	return nil
}

func (db *PostgresDB) ListClaims(ctx context.Context) ([]*mailer.Claim, error) {
	var rows []*recipientClaimRow
	if err := db.Conn.WithContext(ctx).Where("amount > 0").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list recipient claims: %w", err)
	}
	claims := make([]*mailer.Claim, 0, len(rows))
	for _, row := range rows {
		claim, err := fromRecipientClaimRow(row)
		if err != nil {
			return nil, err
		}
		claims = append(claims, claim)
	}
	return claims, nil
}

// --- mailservice.Store ---

func (db *PostgresDB) LoadMailServiceState(ctx context.Context) (*mailservice.State, bool, error) {
	var row mailServiceStateRow
	err := db.Conn.WithContext(ctx).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load mail service state: %w", err)
	}
	state, err := fromMailServiceStateRow(&row)
	if err != nil {
		return nil, false, err
	}
	return state, true, nil
}

func (db *PostgresDB) CreateMailServiceState(ctx context.Context, state *mailservice.State) error {
	if err := db.Conn.WithContext(ctx).Create(toMailServiceStateRow(state)).Error; err != nil {
		return fmt.Errorf("create mail service state: %w", err)
	}
	return nil
}

func (db *PostgresDB) SaveMailServiceState(ctx context.Context, state *mailservice.State) error {
	if err := db.Conn.WithContext(ctx).Save(toMailServiceStateRow(state)).Error; err != nil {
		return fmt.Errorf("save mail service state: %w", err)
	}
	return nil
}

func (db *PostgresDB) LoadDelegation(ctx context.Context, delegator runtime.Principal) (*mailservice.Delegation, bool, error) {
	var row delegationRow
	err := db.Conn.WithContext(ctx).Where("delegator = ?", delegator.Hex()).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load delegation: %w", err)
	}
	delegation, err := fromDelegationRow(&row)
	if err != nil {
		return nil, false, err
	}
	return delegation, true, nil
}

// SaveDelegation is the mailservice.Store's sole create-or-update entry
// point, for the same reason SaveClaim above needs an explicit upsert
// instead of gorm's Save.
func (db *PostgresDB) SaveDelegation(ctx context.Context, delegation *mailservice.Delegation) error {
	row := toDelegationRow(delegation)
	err := db.Conn.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "delegator"}},
		UpdateAll: true,
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("save delegation: %w", err)
	}
	return nil
}

// MailServiceStore adapts PostgresDB's MailService-prefixed methods to
// the unprefixed mailservice.Store interface, since both Store
// interfaces declare LoadState/CreateState/SaveState with different
// receivers and Go has no method overloading.
type MailServiceStore struct {
	db *PostgresDB
}

func NewMailServiceStore(db *PostgresDB) *MailServiceStore {
	return &MailServiceStore{db: db}
}

func (s *MailServiceStore) LoadState(ctx context.Context) (*mailservice.State, bool, error) {
	return s.db.LoadMailServiceState(ctx)
}

func (s *MailServiceStore) CreateState(ctx context.Context, state *mailservice.State) error {
	return s.db.CreateMailServiceState(ctx, state)
}

func (s *MailServiceStore) SaveState(ctx context.Context, state *mailservice.State) error {
	return s.db.SaveMailServiceState(ctx, state)
}

func (s *MailServiceStore) LoadDelegation(ctx context.Context, delegator runtime.Principal) (*mailservice.Delegation, bool, error) {
	return s.db.LoadDelegation(ctx, delegator)
}

func (s *MailServiceStore) SaveDelegation(ctx context.Context, delegation *mailservice.Delegation) error {
	return s.db.SaveDelegation(ctx, delegation)
}

var (
	_ mailer.Store      = (*PostgresDB)(nil)
	_ mailservice.Store = (*MailServiceStore)(nil)
)
