package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sfms-dev/facility_bot/internal/model"
	"github.com/sfms-dev/facility_bot/internal/repository/base"
)

type BorrowerRepository struct {
	*base.Repository
}

func NewBorrowerRepository(pool *pgxpool.Pool) *BorrowerRepository {
	return &BorrowerRepository{Repository: base.NewRepository(pool)}
}

// SaveProfile upserts the last borrower used in a chat.
func (r *BorrowerRepository) SaveProfile(ctx context.Context, chatID int64, p model.BorrowerProfile) error {
	_, err := r.ExecAffected(ctx, `
		INSERT INTO borrower_profiles (chat_id, student_id, faculty, phone, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (chat_id) DO UPDATE
		SET student_id = EXCLUDED.student_id,
		    faculty = EXCLUDED.faculty,
		    phone = EXCLUDED.phone,
		    updated_at = EXCLUDED.updated_at
	`, chatID, p.StudentID, p.Faculty, p.Phone, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save borrower profile: %w", err)
	}
	return nil
}

func (r *BorrowerRepository) Profile(ctx context.Context, chatID int64) (model.BorrowerProfile, bool, error) {
	var p model.BorrowerProfile
	err := r.QueryRow(ctx, `
		SELECT student_id, faculty, phone, updated_at
		FROM borrower_profiles
		WHERE chat_id = $1
	`, chatID).Scan(&p.StudentID, &p.Faculty, &p.Phone, &p.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return model.BorrowerProfile{}, false, nil
		}
		return model.BorrowerProfile{}, false, fmt.Errorf("get borrower profile: %w", err)
	}
	return p, true, nil
}
