package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"praman/internal/verification"
	"praman/pkg/platform/sentinel"
)

// PostgresStore persists verification records in PostgreSQL. Consent, the
// audit trail, and verified data are JSONB columns; attempt counting and
// status transitions use a conditional update on the version column so
// concurrent writers cannot lose updates.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed store. The *sql.DB is
// expected to use the pgx stdlib driver.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `
	id, user_id, type, status, provider, ref_id, masked_id,
	otp_sent_at, otp_expires_at, otp_attempts,
	consent, verified_data, verified_at, failure_reason,
	compliance_flags, audit_log, version, created_at, updated_at`

// Create inserts a new record at version 1.
func (s *PostgresStore) Create(ctx context.Context, record *verification.Record) error {
	consent, auditLog, verifiedData, flags, err := marshalJSONColumns(record)
	if err != nil {
		return err
	}

	record.Version = 1
	query := `
		INSERT INTO verification_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	_, err = s.db.ExecContext(ctx, query,
		record.ID, record.UserID, string(record.Type), string(record.Status),
		record.Provider, record.RefID, record.MaskedID,
		record.OTPSentAt, record.OTPExpiresAt, record.OTPAttempts,
		consent, verifiedData, record.VerifiedAt, record.FailureReason,
		flags, auditLog, record.Version, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification record: %w", err)
	}
	return nil
}

// Update applies a conditional write keyed on the version the caller read.
func (s *PostgresStore) Update(ctx context.Context, record *verification.Record) error {
	consent, auditLog, verifiedData, flags, err := marshalJSONColumns(record)
	if err != nil {
		return err
	}

	query := `
		UPDATE verification_records SET
			status = $1, provider = $2, ref_id = $3, masked_id = $4,
			otp_sent_at = $5, otp_expires_at = $6, otp_attempts = $7,
			consent = $8, verified_data = $9, verified_at = $10,
			failure_reason = $11, compliance_flags = $12, audit_log = $13,
			version = version + 1, updated_at = $14
		WHERE id = $15 AND version = $16
	`
	res, err := s.db.ExecContext(ctx, query,
		string(record.Status), record.Provider, record.RefID, record.MaskedID,
		record.OTPSentAt, record.OTPExpiresAt, record.OTPAttempts,
		consent, verifiedData, record.VerifiedAt,
		record.FailureReason, flags, auditLog, record.UpdatedAt,
		record.ID, record.Version,
	)
	if err != nil {
		return fmt.Errorf("update verification record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update verification record: %w", err)
	}
	if affected == 0 {
		// Either the row is gone or a concurrent writer bumped the version.
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM verification_records WHERE id = $1)`, record.ID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check verification record: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	record.Version++
	return nil
}

// FindLatest returns the most recently created record for (userID, typ).
func (s *PostgresStore) FindLatest(ctx context.Context, userID string, typ verification.Type) (*verification.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM verification_records
		WHERE user_id = $1 AND type = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	return s.queryOne(ctx, query, userID, string(typ))
}

// FindByID returns the record with the given ID.
func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*verification.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM verification_records
		WHERE id = $1
	`
	return s.queryOne(ctx, query, id)
}

// FindByRefID returns the user's record bound to the given reference.
func (s *PostgresStore) FindByRefID(ctx context.Context, userID, refID string) (*verification.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM verification_records
		WHERE user_id = $1 AND ref_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	return s.queryOne(ctx, query, userID, refID)
}

// FindVerified returns the user's verified record for typ.
func (s *PostgresStore) FindVerified(ctx context.Context, userID string, typ verification.Type) (*verification.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM verification_records
		WHERE user_id = $1 AND type = $2 AND status = 'verified'
		ORDER BY created_at DESC
		LIMIT 1
	`
	return s.queryOne(ctx, query, userID, string(typ))
}

// ListStaleOTPSent returns otp_sent records whose OTP expired before cutoff.
func (s *PostgresStore) ListStaleOTPSent(ctx context.Context, cutoff time.Time, limit int) ([]*verification.Record, error) {
	query := `
		SELECT ` + recordColumns + `
		FROM verification_records
		WHERE status = 'otp_sent' AND otp_expires_at < $1
		ORDER BY otp_expires_at ASC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale records: %w", err)
	}
	defer rows.Close()

	var out []*verification.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// Health pings the database.
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) queryOne(ctx context.Context, query string, args ...any) (*verification.Record, error) {
	record, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return record, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*verification.Record, error) {
	var (
		record       verification.Record
		id           uuid.UUID
		typ, status  string
		consent      []byte
		verifiedData []byte
		flags        []byte
		auditLog     []byte
	)
	err := row.Scan(
		&id, &record.UserID, &typ, &status, &record.Provider,
		&record.RefID, &record.MaskedID,
		&record.OTPSentAt, &record.OTPExpiresAt, &record.OTPAttempts,
		&consent, &verifiedData, &record.VerifiedAt, &record.FailureReason,
		&flags, &auditLog, &record.Version, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.ID = id
	record.Type = verification.Type(typ)
	record.Status = verification.Status(status)

	if err := json.Unmarshal(consent, &record.Consent); err != nil {
		return nil, fmt.Errorf("decode consent: %w", err)
	}
	if len(auditLog) > 0 {
		if err := json.Unmarshal(auditLog, &record.AuditLog); err != nil {
			return nil, fmt.Errorf("decode audit log: %w", err)
		}
	}
	if len(verifiedData) > 0 && string(verifiedData) != "null" {
		record.VerifiedData = &verification.VerifiedData{}
		if err := json.Unmarshal(verifiedData, record.VerifiedData); err != nil {
			return nil, fmt.Errorf("decode verified data: %w", err)
		}
	}
	if len(flags) > 0 && string(flags) != "null" {
		if err := json.Unmarshal(flags, &record.ComplianceFlags); err != nil {
			return nil, fmt.Errorf("decode compliance flags: %w", err)
		}
	}
	return &record, nil
}

func marshalJSONColumns(record *verification.Record) (consent, auditLog, verifiedData, flags []byte, err error) {
	if consent, err = json.Marshal(record.Consent); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode consent: %w", err)
	}
	if auditLog, err = json.Marshal(record.AuditLog); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode audit log: %w", err)
	}
	if verifiedData, err = json.Marshal(record.VerifiedData); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode verified data: %w", err)
	}
	if flags, err = json.Marshal(record.ComplianceFlags); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("encode compliance flags: %w", err)
	}
	return consent, auditLog, verifiedData, flags, nil
}
