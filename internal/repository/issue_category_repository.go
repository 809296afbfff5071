package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/network-ticketing/internal/domain"
)

// IssueCategoryRepository is the category directory.
type IssueCategoryRepository interface {
	Create(ctx context.Context, category *domain.IssueCategory) error
	Update(ctx context.Context, category *domain.IssueCategory) error
	GetByID(ctx context.Context, id int64) (*domain.IssueCategory, error)
	ListActive(ctx context.Context) ([]domain.IssueCategory, error)
	ListAll(ctx context.Context) ([]domain.IssueCategory, error)
}

type issueCategoryRepository struct {
	pool *pgxpool.Pool
}

// NewIssueCategoryRepository builds repository.
func NewIssueCategoryRepository(pool *pgxpool.Pool) IssueCategoryRepository {
	return &issueCategoryRepository{pool: pool}
}

func (r *issueCategoryRepository) Create(ctx context.Context, category *domain.IssueCategory) error {
	const query = `
        INSERT INTO issue_categories (code, name, description, sla_hours, active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		category.Code,
		category.Name,
		category.Description,
		category.SLAHours,
		category.Active,
	).Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
}

func (r *issueCategoryRepository) Update(ctx context.Context, category *domain.IssueCategory) error {
	const query = `
        UPDATE issue_categories SET code=$1, name=$2, description=$3, sla_hours=$4, active=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		category.Code,
		category.Name,
		category.Description,
		category.SLAHours,
		category.Active,
		category.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueCategoryRepository) GetByID(ctx context.Context, id int64) (*domain.IssueCategory, error) {
	const query = `
        SELECT id, code, name, description, sla_hours, active, created_at, updated_at
        FROM issue_categories WHERE id=$1`
	var category domain.IssueCategory
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Code,
		&category.Name,
		&category.Description,
		&category.SLAHours,
		&category.Active,
		&category.CreatedAt,
		&category.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *issueCategoryRepository) ListActive(ctx context.Context) ([]domain.IssueCategory, error) {
	return r.list(ctx, `
        SELECT id, code, name, description, sla_hours, active, created_at, updated_at
        FROM issue_categories WHERE active ORDER BY id ASC`)
}

func (r *issueCategoryRepository) ListAll(ctx context.Context) ([]domain.IssueCategory, error) {
	return r.list(ctx, `
        SELECT id, code, name, description, sla_hours, active, created_at, updated_at
        FROM issue_categories ORDER BY id ASC`)
}

func (r *issueCategoryRepository) list(ctx context.Context, query string) ([]domain.IssueCategory, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.IssueCategory
	for rows.Next() {
		var category domain.IssueCategory
		if err := rows.Scan(
			&category.ID,
			&category.Code,
			&category.Name,
			&category.Description,
			&category.SLAHours,
			&category.Active,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, category)
	}
	return result, rows.Err()
}
