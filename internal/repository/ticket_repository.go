package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/network-ticketing/internal/domain"
)

const ticketColumns = `id, reference, customer_id, assigned_engineer_id, assigned_by_manager_id,
       issue_category_id, description, status, priority, sla_start_time, sla_due_time,
       sla_status, sla_alert_sent, resolution_summary, ai_resolution, closed_by, closed_at,
       created_at, last_updated_at, version`

// TicketRepository encapsulates ticket persistence. Update applies optimistic
// locking on the version column: a stale write fails with pgx.ErrNoRows.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]domain.Ticket, error)
	ListByEngineer(ctx context.Context, engineerID int64) ([]domain.Ticket, error)
	ListByStatusNot(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error)
	ListAll(ctx context.Context) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (customer_id, assigned_engineer_id, assigned_by_manager_id, issue_category_id,
            description, status, priority, sla_start_time, sla_due_time, sla_status, sla_alert_sent,
            resolution_summary, ai_resolution)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, last_updated_at, version`
	return r.pool.QueryRow(ctx, query,
		ticket.CustomerID,
		ticket.AssignedEngineerID,
		ticket.AssignedByManagerID,
		ticket.CategoryID,
		ticket.Description,
		ticket.Status,
		nullableString(string(ticket.Priority)),
		ticket.SLAStartTime,
		ticket.SLADueTime,
		ticket.SLAStatus,
		ticket.SLAAlertSent,
		ticket.ResolutionSummary,
		ticket.AIResolution,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.LastUpdatedAt, &ticket.Version)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET reference=$1, assigned_engineer_id=$2, assigned_by_manager_id=$3,
            description=$4, status=$5, priority=$6, sla_start_time=$7, sla_due_time=$8,
            sla_status=$9, sla_alert_sent=$10, resolution_summary=$11, ai_resolution=$12,
            closed_by=$13, closed_at=$14, last_updated_at=$15, version=version+1
        WHERE id=$16 AND version=$17`
	cmd, err := r.pool.Exec(ctx, query,
		nullableString(ticket.Reference),
		ticket.AssignedEngineerID,
		ticket.AssignedByManagerID,
		ticket.Description,
		ticket.Status,
		nullableString(string(ticket.Priority)),
		ticket.SLAStartTime,
		ticket.SLADueTime,
		ticket.SLAStatus,
		ticket.SLAAlertSent,
		ticket.ResolutionSummary,
		ticket.AIResolution,
		nullableString(string(ticket.ClosedBy)),
		ticket.ClosedAt,
		ticket.LastUpdatedAt,
		ticket.ID,
		ticket.Version,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	ticket.Version++
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE customer_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, query, customerID)
}

func (r *ticketRepository) ListByEngineer(ctx context.Context, engineerID int64) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE assigned_engineer_id=$1 ORDER BY created_at DESC`
	return r.list(ctx, query, engineerID)
}

func (r *ticketRepository) ListByStatusNot(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE status<>$1 ORDER BY created_at ASC`
	return r.list(ctx, query, status)
}

func (r *ticketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at ASC`
	return r.list(ctx, query)
}

func (r *ticketRepository) list(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	var reference, priority, resolution, aiResolution, closedBy *string
	if err := row.Scan(
		&ticket.ID,
		&reference,
		&ticket.CustomerID,
		&ticket.AssignedEngineerID,
		&ticket.AssignedByManagerID,
		&ticket.CategoryID,
		&ticket.Description,
		&ticket.Status,
		&priority,
		&ticket.SLAStartTime,
		&ticket.SLADueTime,
		&ticket.SLAStatus,
		&ticket.SLAAlertSent,
		&resolution,
		&aiResolution,
		&closedBy,
		&ticket.ClosedAt,
		&ticket.CreatedAt,
		&ticket.LastUpdatedAt,
		&ticket.Version,
	); err != nil {
		return err
	}
	if reference != nil {
		ticket.Reference = *reference
	}
	if priority != nil {
		ticket.Priority = domain.TicketPriority(*priority)
	}
	if resolution != nil {
		ticket.ResolutionSummary = *resolution
	}
	if aiResolution != nil {
		ticket.AIResolution = *aiResolution
	}
	if closedBy != nil {
		ticket.ClosedBy = domain.ClosedBy(*closedBy)
	}
	return nil
}

func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
