package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/securemail-server/internal/model"
)

var _ model.ApprovalStore = (*ApprovalRepository)(nil)

type ApprovalRepository struct {
	db *Connection
}

func NewApprovalRepository(db *Connection) *ApprovalRepository {
	return &ApprovalRepository{
		db: db,
	}
}

const approvalColumns = `id, email_id, sender_id, receiver_id, photo_key, status, created_at, decided_at`

func scanApproval(row interface{ Scan(...any) error }) (model.ApprovalRequest, error) {
	var (
		request model.ApprovalRequest
		status  string
	)
	err := row.Scan(
		&request.ID, &request.EmailID, &request.SenderID, &request.ReceiverID, &request.PhotoKey,
		&status, &request.CreatedAt, &request.DecidedAt,
	)
	request.Status = model.ApprovalStatus(status)
	return request, err
}

func (r *ApprovalRepository) Create(ctx context.Context, request model.ApprovalRequest) (model.ApprovalRequest, error) {
	query := `INSERT INTO verification_requests (id, email_id, sender_id, receiver_id, photo_key, status, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + approvalColumns

	saved, err := scanApproval(r.db.conn(ctx).QueryRowContext(ctx, query,
		request.ID, request.EmailID, request.SenderID, request.ReceiverID, request.PhotoKey,
		string(request.Status), request.CreatedAt,
	))
	if err != nil {
		return model.ApprovalRequest{}, fmt.Errorf("failed to create verification request: %w", err)
	}

	return saved, nil
}

func (r *ApprovalRepository) GetByID(ctx context.Context, id uuid.UUID) (model.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM verification_requests WHERE id = $1`

	request, err := scanApproval(r.db.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ApprovalRequest{}, model.ErrNotFound
		}
		return model.ApprovalRequest{}, fmt.Errorf("failed to get verification request: %w", err)
	}

	return request, nil
}

func (r *ApprovalRepository) Decide(ctx context.Context, id uuid.UUID, status model.ApprovalStatus, at time.Time) (bool, error) {
	query := `UPDATE verification_requests SET status = $2, decided_at = $3
			  WHERE id = $1 AND status = 'pending'`

	res, err := r.db.conn(ctx).ExecContext(ctx, query, id, string(status), at)
	if err != nil {
		return false, fmt.Errorf("failed to decide verification request: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to decide verification request: %w", err)
	}

	return n == 1, nil
}

func (r *ApprovalRepository) Latest(ctx context.Context, emailID, receiverID uuid.UUID) (model.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM verification_requests
			  WHERE email_id = $1 AND receiver_id = $2
			  ORDER BY created_at DESC LIMIT 1`

	request, err := scanApproval(r.db.conn(ctx).QueryRowContext(ctx, query, emailID, receiverID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ApprovalRequest{}, model.ErrNotFound
		}
		return model.ApprovalRequest{}, fmt.Errorf("failed to get latest verification request: %w", err)
	}

	return request, nil
}

func (r *ApprovalRepository) ListPendingBySender(ctx context.Context, senderID uuid.UUID) ([]model.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM verification_requests
			  WHERE sender_id = $1 AND status = 'pending'
			  ORDER BY created_at DESC`

	rows, err := r.db.conn(ctx).QueryContext(ctx, query, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	defer rows.Close()

	requests := make([]model.ApprovalRequest, 0)
	for rows.Next() {
		request, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan verification request: %w", err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}

	return requests, nil
}
