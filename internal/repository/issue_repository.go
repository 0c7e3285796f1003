package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/whybepb/campus-fixit/internal/domain"
)

// IssueFilter captures listing parameters. All populated fields are
// combined conjunctively; ReportedBy is how the service pins non-admin
// callers to their own issues.
type IssueFilter struct {
	ReportedBy *string
	Status     *domain.IssueStatus
	Category   *domain.IssueCategory
	Priority   *domain.IssuePriority
	Search     *string
	Limit      int
	Offset     int
}

// IssueStats aggregates counts for the admin dashboard.
type IssueStats struct {
	Total      int64
	ByStatus   map[domain.IssueStatus]int64
	ByCategory map[domain.IssueCategory]int64
	ByPriority map[domain.IssuePriority]int64
	Recent     []domain.Issue
}

// IssueRepository encapsulates issue persistence.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	Update(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	Count(ctx context.Context, filter IssueFilter) (int64, error)
	Stats(ctx context.Context) (*IssueStats, error)
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueSelect = `
        SELECT i.id, i.title, i.description, i.category, i.priority, i.status, i.location,
               i.images, i.reported_by, i.assigned_to, i.admin_remarks, i.resolved_at,
               i.created_at, i.updated_at,
               r.name, r.email, r.student_id,
               a.name, a.email
        FROM issues i
        JOIN users r ON r.id = i.reported_by
        LEFT JOIN users a ON a.id = i.assigned_to`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (title, description, category, priority, status, location, images, reported_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Priority,
		issue.Status,
		issue.Location,
		issue.Images,
		issue.ReportedBy,
	).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt)
}

func (r *issueRepository) Update(ctx context.Context, issue *domain.Issue) error {
	const query = `
        UPDATE issues
        SET title=$1, description=$2, category=$3, priority=$4, status=$5, location=$6,
            images=$7, assigned_to=$8, admin_remarks=$9, resolved_at=$10, updated_at=NOW()
        WHERE id=$11
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Priority,
		issue.Status,
		issue.Location,
		issue.Images,
		issue.AssignedTo,
		issue.AdminRemarks,
		issue.ResolvedAt,
		issue.ID,
	).Scan(&issue.UpdatedAt)
	return err
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := issueSelect + ` WHERE i.id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	issue, err := scanIssueRow(row)
	if err != nil {
		return nil, err
	}
	return issue, nil
}

func (r *issueRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM issues WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func issueFilterClauses(filter IssueFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReportedBy != nil {
		args = append(args, *filter.ReportedBy)
		clauses = append(clauses, fmt.Sprintf("i.reported_by=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("i.status=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("i.category=$%d", len(args)))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("i.priority=$%d", len(args)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.TrimSpace(*filter.Search) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(i.title ILIKE %s OR i.description ILIKE %s OR i.location ILIKE %s)",
			placeholder, placeholder, placeholder))
	}
	return clauses, args
}

func (r *issueRepository) List(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	clauses, args := issueFilterClauses(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	// Sort order is fixed: newest first.
	query := fmt.Sprintf(`%s WHERE %s ORDER BY i.created_at DESC LIMIT %d OFFSET %d`,
		issueSelect, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) Count(ctx context.Context, filter IssueFilter) (int64, error) {
	clauses, args := issueFilterClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM issues i WHERE %s`, strings.Join(clauses, " AND "))

	var total int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *issueRepository) Stats(ctx context.Context) (*IssueStats, error) {
	stats := &IssueStats{
		ByStatus:   make(map[domain.IssueStatus]int64),
		ByCategory: make(map[domain.IssueCategory]int64),
		ByPriority: make(map[domain.IssuePriority]int64),
	}

	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM issues`).Scan(&stats.Total); err != nil {
		return nil, err
	}

	if err := r.groupCount(ctx, `SELECT status, COUNT(*) FROM issues GROUP BY status`, func(key string, count int64) {
		stats.ByStatus[domain.IssueStatus(key)] = count
	}); err != nil {
		return nil, err
	}
	if err := r.groupCount(ctx, `SELECT category, COUNT(*) FROM issues GROUP BY category`, func(key string, count int64) {
		stats.ByCategory[domain.IssueCategory(key)] = count
	}); err != nil {
		return nil, err
	}
	if err := r.groupCount(ctx, `SELECT priority, COUNT(*) FROM issues GROUP BY priority`, func(key string, count int64) {
		stats.ByPriority[domain.IssuePriority(key)] = count
	}); err != nil {
		return nil, err
	}

	recent, err := r.List(ctx, IssueFilter{Limit: 5})
	if err != nil {
		return nil, err
	}
	stats.Recent = recent

	return stats, nil
}

func (r *issueRepository) groupCount(ctx context.Context, query string, assign func(key string, count int64)) error {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		assign(key, count)
	}
	return rows.Err()
}

type issueRow interface {
	Scan(dest ...any) error
}

func scanIssueRow(row issueRow) (*domain.Issue, error) {
	var issue domain.Issue
	var reporter domain.UserRef
	var assigneeName, assigneeEmail *string

	if err := row.Scan(
		&issue.ID,
		&issue.Title,
		&issue.Description,
		&issue.Category,
		&issue.Priority,
		&issue.Status,
		&issue.Location,
		&issue.Images,
		&issue.ReportedBy,
		&issue.AssignedTo,
		&issue.AdminRemarks,
		&issue.ResolvedAt,
		&issue.CreatedAt,
		&issue.UpdatedAt,
		&reporter.Name,
		&reporter.Email,
		&reporter.StudentID,
		&assigneeName,
		&assigneeEmail,
	); err != nil {
		return nil, err
	}

	reporter.ID = issue.ReportedBy
	issue.Reporter = &reporter
	if issue.AssignedTo != nil && assigneeName != nil && assigneeEmail != nil {
		issue.Assignee = &domain.UserRef{
			ID:    *issue.AssignedTo,
			Name:  *assigneeName,
			Email: *assigneeEmail,
		}
	}
	return &issue, nil
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	var result []domain.Issue
	for rows.Next() {
		issue, err := scanIssueRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *issue)
	}
	return result, rows.Err()
}
