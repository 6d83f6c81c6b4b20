package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"stableJoin/internal/model"
)

// Store provides Postgres persistence for snapshots and join records.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertSnapshots inserts or updates pool snapshots keyed by pool and block.
func (s *Store) UpsertSnapshots(ctx context.Context, snapshots []model.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snapshot := range snapshots {
		tokensJSON, err := json.Marshal(snapshot.Tokens)
		if err != nil {
			return fmt.Errorf("marshal tokens: %w", err)
		}
		batch.Queue(`
			INSERT INTO pool_snapshots (
				chain_id, pool_id, pool_address, block_number, block_time, tokens_list,
				tokens, total_shares, swap_fee, amp, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
			ON CONFLICT (chain_id, pool_id, block_number)
			DO UPDATE SET
				pool_address = EXCLUDED.pool_address,
				block_time = EXCLUDED.block_time,
				tokens_list = EXCLUDED.tokens_list,
				tokens = EXCLUDED.tokens,
				total_shares = EXCLUDED.total_shares,
				swap_fee = EXCLUDED.swap_fee,
				amp = EXCLUDED.amp,
				updated_at = now()
		`,
			int64(snapshot.ChainID),
			snapshot.ID,
			snapshot.Address,
			int64(snapshot.BlockNumber),
			int64(snapshot.BlockTime),
			snapshot.TokensList,
			tokensJSON,
			snapshot.TotalShares,
			snapshot.SwapFee,
			snapshot.Amp,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshots {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// InsertJoinRecords appends built join payloads.
func (s *Store) InsertJoinRecords(ctx context.Context, records []model.JoinRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, record := range records {
		batch.Queue(`
			INSERT INTO join_records (
				chain_id, pool_id, pool_address, sender, amounts_in, slippage_bps,
				min_bpt_out, price_impact, tx_to, tx_data, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		`,
			int64(record.ChainID),
			record.PoolID,
			record.PoolAddress,
			record.Sender,
			record.AmountsIn,
			record.Slippage,
			record.MinBPTOut,
			record.PriceImpact,
			record.To,
			record.Data,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
