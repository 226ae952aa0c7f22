package sqlstore

import (
	"context"
	"fmt"
	"time"

	"learning-friend-service/internal/domain"

	"github.com/uptrace/bun"
)

type progressRow struct {
	bun.BaseModel `bun:"table:progress_records"`

	ID          string    `bun:"id,pk"`
	StudentName string    `bun:"student_name,notnull"`
	Grade       int       `bun:"grade,notnull"`
	SubjectID   string    `bun:"subject_id,notnull"`
	Score       int       `bun:"score,notnull"`
	Total       int       `bun:"total,notnull"`
	Answers     []bool    `bun:"answers,type:jsonb,notnull"`
	CompletedAt time.Time `bun:"completed_at,notnull"`
}

// ProgressStore implements app.ProgressStore on a bun DB.
type ProgressStore struct {
	db *bun.DB
}

func NewProgressStore(db *bun.DB) *ProgressStore {
	return &ProgressStore{db: db}
}

func (s *ProgressStore) Save(ctx context.Context, records ...domain.ProgressRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]progressRow, 0, len(records))
	for _, r := range records {
		answers := r.Answers
		if answers == nil {
			answers = []bool{}
		}
		rows = append(rows, progressRow{
			ID:          r.ID,
			StudentName: r.StudentName,
			Grade:       r.Grade,
			SubjectID:   r.SubjectID,
			Score:       r.Score,
			Total:       r.Total,
			Answers:     answers,
			CompletedAt: r.CompletedAt.UTC(),
		})
	}
	if _, err := s.db.NewInsert().Model(&rows).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("save progress: %w", err)
	}
	return nil
}

func (s *ProgressStore) ListByStudent(ctx context.Context, student domain.Student) ([]domain.ProgressRecord, error) {
	var rows []progressRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("student_name = ?", student.Name).
		Where("grade = ?", student.Grade).
		OrderExpr("completed_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	out := make([]domain.ProgressRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ProgressRecord{
			ID:          row.ID,
			StudentName: row.StudentName,
			Grade:       row.Grade,
			SubjectID:   row.SubjectID,
			Score:       row.Score,
			Total:       row.Total,
			Answers:     row.Answers,
			CompletedAt: row.CompletedAt,
		})
	}
	return out, nil
}
