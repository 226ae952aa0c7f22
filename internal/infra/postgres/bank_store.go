package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"learning-friend-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// BankStore loads and saves question banks as JSONB rows in the subjects table.
type BankStore struct {
	pool *pgxpool.Pool
}

func NewBankStore(pool *pgxpool.Pool) *BankStore {
	return &BankStore{pool: pool}
}

func (s *BankStore) LoadBank(ctx context.Context, subjectID string) (domain.QuestionBank, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM subjects WHERE id=$1`, subjectID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuestionBank{}, domain.ErrSubjectNotFound
	}
	if err != nil {
		return domain.QuestionBank{}, fmt.Errorf("load bank: %w", err)
	}
	var bank domain.QuestionBank
	if err := json.Unmarshal(raw, &bank); err != nil {
		return domain.QuestionBank{}, fmt.Errorf("unmarshal bank: %w", err)
	}
	if bank.SubjectID == "" {
		bank.SubjectID = subjectID
	}
	return bank, nil
}

// SaveBank upserts a validated bank.
func (s *BankStore) SaveBank(ctx context.Context, bank domain.QuestionBank) error {
	if err := bank.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(bank)
	if err != nil {
		return fmt.Errorf("marshal bank: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO subjects (id, data, updated_at) VALUES ($1, $2::jsonb, now())
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		bank.SubjectID, string(data))
	if err != nil {
		return fmt.Errorf("save bank %s: %w", bank.SubjectID, err)
	}
	return nil
}

// CountBanks returns the number of stored subjects.
func (s *BankStore) CountBanks(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM subjects`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count banks: %w", err)
	}
	return n, nil
}
