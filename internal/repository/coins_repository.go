package repository

import (
	"context"
	"fmt"

	"github.com/brandonhuynh1/eventwish-api/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const coinsColumns = `id, device_id, coins, is_unlocked, unlock_timestamp, unlock_duration,
	unlock_signature, last_reward_timestamp, created_at, updated_at`

const insertAccountIfMissing = `
	INSERT INTO coins_accounts (id, device_id, coins, is_unlocked, created_at, updated_at)
	VALUES ($1, $2, 0, FALSE, NOW(), NOW())
	ON CONFLICT (device_id) DO NOTHING`

type coinsRepository struct {
	db *sqlx.DB
}

// NewCoinsRepository creates a sqlx backed coins repository
func NewCoinsRepository(db *sqlx.DB) CoinsRepository {
	return &coinsRepository{db: db}
}

func (r *coinsRepository) GetOrCreate(ctx context.Context, deviceID string) (*models.CoinsAccount, error) {
	if _, err := r.db.ExecContext(ctx, insertAccountIfMissing, uuid.New().String(), deviceID); err != nil {
		return nil, fmt.Errorf("failed to create coins account: %w", err)
	}

	var acc models.CoinsAccount
	err := r.db.GetContext(ctx, &acc, "SELECT "+coinsColumns+" FROM coins_accounts WHERE device_id = $1", deviceID)
	if err != nil {
		return nil, translate(err)
	}
	return &acc, nil
}

// Mutate locks the account row, applies fn and writes the result back in
// one transaction. Nothing is written when fn fails.
func (r *coinsRepository) Mutate(ctx context.Context, deviceID string, create bool, fn AccountMutation) (*models.CoinsAccount, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if create {
		if _, err := tx.ExecContext(ctx, insertAccountIfMissing, uuid.New().String(), deviceID); err != nil {
			return nil, fmt.Errorf("failed to create coins account: %w", err)
		}
	}

	var acc models.CoinsAccount
	err = tx.GetContext(ctx, &acc, "SELECT "+coinsColumns+" FROM coins_accounts WHERE device_id = $1 FOR UPDATE", deviceID)
	if err != nil {
		return nil, translate(err)
	}

	record, err := fn(&acc)
	if err != nil {
		return nil, err
	}

	_, err = tx.NamedExecContext(ctx, `
		UPDATE coins_accounts SET
			coins = :coins,
			is_unlocked = :is_unlocked,
			unlock_timestamp = :unlock_timestamp,
			unlock_duration = :unlock_duration,
			unlock_signature = :unlock_signature,
			last_reward_timestamp = :last_reward_timestamp,
			updated_at = NOW()
		WHERE id = :id
	`, &acc)
	if err != nil {
		return nil, fmt.Errorf("failed to update coins account: %w", err)
	}

	if record != nil {
		if record.ID == "" {
			record.ID = uuid.New().String()
		}
		record.AccountID = acc.ID
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO reward_history (id, account_id, ad_unit_id, ad_name, coins_earned, device_info, timestamp)
			VALUES (:id, :account_id, :ad_unit_id, :ad_name, :coins_earned, :device_info, :timestamp)
		`, record)
		if err != nil {
			return nil, fmt.Errorf("failed to record reward: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit coins update: %w", err)
	}
	return &acc, nil
}

func (r *coinsRepository) RewardHistory(ctx context.Context, accountID string, limit int) ([]models.RewardRecord, error) {
	records := []models.RewardRecord{}
	err := r.db.SelectContext(ctx, &records, `
		SELECT id, account_id, ad_unit_id, ad_name, coins_earned, device_info, timestamp
		FROM reward_history
		WHERE account_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load reward history: %w", err)
	}
	return records, nil
}
