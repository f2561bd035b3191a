package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/spec-kit/servicehub-platform/internal/domain"
	"github.com/spec-kit/servicehub-platform/pkg/util"
)

// InvoiceFilter captures invoice search parameters.
type InvoiceFilter struct {
	Status *domain.InvoiceStatus
	Limit  int
	Offset int
}

// PaymentFilter captures payment search parameters.
type PaymentFilter struct {
	InvoiceID *string
	Limit     int
	Offset    int
}

// InvoiceRepository encapsulates invoice and payment persistence.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *domain.Invoice) error
	UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus) error
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]domain.Invoice, error)
	Count(ctx context.Context, filter InvoiceFilter) (int, error)
	CountCreatedToday(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) (map[domain.InvoiceStatus]int, error)
	SumTotalByStatus(ctx context.Context, status domain.InvoiceStatus) (decimal.Decimal, error)
	Delete(ctx context.Context, id string) error
	ListDueBefore(ctx context.Context, asOf time.Time, statuses []domain.InvoiceStatus) ([]domain.Invoice, error)
	AddPayment(ctx context.Context, payment *domain.Payment) error
	GetPaymentByID(ctx context.Context, id string) (*domain.Payment, error)
	ListPayments(ctx context.Context, invoiceID string) ([]domain.Payment, error)
	ListPaymentsFiltered(ctx context.Context, filter PaymentFilter) ([]domain.Payment, error)
	CountPayments(ctx context.Context, filter PaymentFilter) (int, error)
}

type invoiceRepository struct {
	pool *pgxpool.Pool
}

// NewInvoiceRepository returns a Postgres-backed implementation.
func NewInvoiceRepository(pool *pgxpool.Pool) InvoiceRepository {
	return &invoiceRepository{pool: pool}
}

const invoiceColumns = `id, reference, status, issue_date, due_date, subtotal, tax_rate,
               tax_amount, total, notes, created_by_id, created_at, updated_at`

// Create inserts the invoice and its lines in one transaction.
func (r *invoiceRepository) Create(ctx context.Context, invoice *domain.Invoice) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO invoices (reference, status, issue_date, due_date, subtotal, tax_rate, tax_amount, total, notes, created_by_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, query,
		invoice.Reference,
		invoice.Status,
		invoice.IssueDate,
		invoice.DueDate,
		invoice.Subtotal,
		invoice.TaxRate,
		invoice.TaxAmount,
		invoice.Total,
		invoice.Notes,
		invoice.CreatedByID,
	).Scan(&invoice.ID, &invoice.CreatedAt, &invoice.UpdatedAt); err != nil {
		return err
	}

	const lineQuery = `
        INSERT INTO invoice_lines (invoice_id, description, quantity, unit_price, total, ticket_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	for i := range invoice.Lines {
		line := &invoice.Lines[i]
		line.InvoiceID = invoice.ID
		if err := tx.QueryRow(ctx, lineQuery,
			line.InvoiceID,
			line.Description,
			line.Quantity,
			line.UnitPrice,
			line.Total,
			line.TicketID,
		).Scan(&line.ID); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, id string, status domain.InvoiceStatus) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE invoices SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE id=$1`, invoiceColumns)
	var invoice domain.Invoice
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&invoice.ID,
		&invoice.Reference,
		&invoice.Status,
		&invoice.IssueDate,
		&invoice.DueDate,
		&invoice.Subtotal,
		&invoice.TaxRate,
		&invoice.TaxAmount,
		&invoice.Total,
		&invoice.Notes,
		&invoice.CreatedByID,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	); err != nil {
		return nil, err
	}

	lines, err := r.listLines(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	invoice.Lines = lines

	payments, err := r.ListPayments(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	invoice.Payments = payments

	return &invoice, nil
}

func (r *invoiceRepository) listLines(ctx context.Context, invoiceID string) ([]domain.InvoiceLine, error) {
	const query = `
        SELECT id, invoice_id, description, quantity, unit_price, total, ticket_id
        FROM invoice_lines WHERE invoice_id=$1 ORDER BY id`
	rows, err := r.pool.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.InvoiceLine
	for rows.Next() {
		var line domain.InvoiceLine
		if err := rows.Scan(
			&line.ID,
			&line.InvoiceID,
			&line.Description,
			&line.Quantity,
			&line.UnitPrice,
			&line.Total,
			&line.TicketID,
		); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func invoiceWhere(filter InvoiceFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func (r *invoiceRepository) List(ctx context.Context, filter InvoiceFilter) ([]domain.Invoice, error) {
	where, args := invoiceWhere(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = util.DefaultPageLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		invoiceColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvoices(rows)
}

func (r *invoiceRepository) Count(ctx context.Context, filter InvoiceFilter) (int, error) {
	where, args := invoiceWhere(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM invoices WHERE %s`, where)
	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *invoiceRepository) CountCreatedToday(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM invoices WHERE created_at >= date_trunc('day', NOW())`
	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *invoiceRepository) CountByStatus(ctx context.Context) (map[domain.InvoiceStatus]int, error) {
	const query = `SELECT status, COUNT(*) FROM invoices GROUP BY status`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[domain.InvoiceStatus]int)
	for rows.Next() {
		var status domain.InvoiceStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		result[status] = count
	}
	return result, rows.Err()
}

func (r *invoiceRepository) SumTotalByStatus(ctx context.Context, status domain.InvoiceStatus) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(total), 0) FROM invoices WHERE status=$1`
	var sum decimal.Decimal
	if err := r.pool.QueryRow(ctx, query, status).Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (r *invoiceRepository) Delete(ctx context.Context, id string) error {
	// lines and payments cascade via FK
	cmd, err := r.pool.Exec(ctx, `DELETE FROM invoices WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *invoiceRepository) ListDueBefore(ctx context.Context, asOf time.Time, statuses []domain.InvoiceStatus) ([]domain.Invoice, error) {
	args := []any{asOf}
	placeholders := make([]string, len(statuses))
	for i, status := range statuses {
		args = append(args, status)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE due_date < $1 AND status IN (%s) ORDER BY due_date`,
		invoiceColumns, strings.Join(placeholders, ","))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanInvoices(rows)
}

func (r *invoiceRepository) AddPayment(ctx context.Context, payment *domain.Payment) error {
	const query = `
        INSERT INTO payments (invoice_id, amount, method, reference, paid_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		payment.InvoiceID,
		payment.Amount,
		payment.Method,
		payment.Reference,
		payment.PaidAt,
	).Scan(&payment.ID, &payment.CreatedAt)
}

func (r *invoiceRepository) GetPaymentByID(ctx context.Context, id string) (*domain.Payment, error) {
	const query = `
        SELECT id, invoice_id, amount, method, reference, paid_at, created_at
        FROM payments WHERE id=$1`
	var payment domain.Payment
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&payment.ID,
		&payment.InvoiceID,
		&payment.Amount,
		&payment.Method,
		&payment.Reference,
		&payment.PaidAt,
		&payment.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *invoiceRepository) ListPayments(ctx context.Context, invoiceID string) ([]domain.Payment, error) {
	id := invoiceID
	return r.ListPaymentsFiltered(ctx, PaymentFilter{InvoiceID: &id, Limit: -1})
}

func paymentWhere(filter PaymentFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.InvoiceID != nil {
		args = append(args, *filter.InvoiceID)
		clauses = append(clauses, fmt.Sprintf("invoice_id=$%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func (r *invoiceRepository) ListPaymentsFiltered(ctx context.Context, filter PaymentFilter) ([]domain.Payment, error) {
	where, args := paymentWhere(filter)

	query := fmt.Sprintf(`
        SELECT id, invoice_id, amount, method, reference, paid_at, created_at
        FROM payments WHERE %s ORDER BY created_at DESC`, where)
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var payment domain.Payment
		if err := rows.Scan(
			&payment.ID,
			&payment.InvoiceID,
			&payment.Amount,
			&payment.Method,
			&payment.Reference,
			&payment.PaidAt,
			&payment.CreatedAt,
		); err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

func (r *invoiceRepository) CountPayments(ctx context.Context, filter PaymentFilter) (int, error) {
	where, args := paymentWhere(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM payments WHERE %s`, where)
	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanInvoices(rows pgx.Rows) ([]domain.Invoice, error) {
	var result []domain.Invoice
	for rows.Next() {
		var invoice domain.Invoice
		if err := rows.Scan(
			&invoice.ID,
			&invoice.Reference,
			&invoice.Status,
			&invoice.IssueDate,
			&invoice.DueDate,
			&invoice.Subtotal,
			&invoice.TaxRate,
			&invoice.TaxAmount,
			&invoice.Total,
			&invoice.Notes,
			&invoice.CreatedByID,
			&invoice.CreatedAt,
			&invoice.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, invoice)
	}
	return result, rows.Err()
}
