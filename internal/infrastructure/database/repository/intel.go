package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"sentinel-lab/internal/domain/models"
	"sentinel-lab/pkg/logger"
)

// IntelRepository archives extracted intelligence in PostgreSQL, one
// row per captured entity. The archive is append-only; the session
// store remains the source of truth for live conversations.
type IntelRepository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewIntelRepository creates an intelligence archive repository
func NewIntelRepository(pool *pgxpool.Pool, log *logger.Logger) *IntelRepository {
	return &IntelRepository{
		pool:   pool,
		logger: log.WithComponent("intel-repository"),
	}
}

const createIntelTable = `
CREATE TABLE IF NOT EXISTS intel_records (
	id          UUID PRIMARY KEY,
	session_id  TEXT        NOT NULL,
	scam_type   TEXT        NOT NULL,
	entity_kind TEXT        NOT NULL,
	entity      TEXT        NOT NULL,
	ifsc        TEXT,
	bank_name   TEXT,
	captured_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_intel_records_session ON intel_records (session_id);
CREATE INDEX IF NOT EXISTS idx_intel_records_kind ON intel_records (entity_kind);
`

// EnsureSchema creates the archive table when it does not exist
func (r *IntelRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createIntelTable); err != nil {
		return fmt.Errorf("failed to create intel schema: %w", err)
	}
	return nil
}

// SaveRecords appends every entity from a per-turn delta. Inserts are
// batched; duplicates across turns are acceptable, the archive keeps
// the raw capture history.
func (r *IntelRepository) SaveRecords(ctx context.Context, sessionID string, scamType models.ScamType, delta models.Intelligence) error {
	if delta.IsEmpty() {
		return nil
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}

	const insert = `
		INSERT INTO intel_records (id, session_id, scam_type, entity_kind, entity, ifsc, bank_name, captured_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	queue := func(kind, entity, ifsc, bankName string) {
		batch.Queue(insert, uuid.New(), sessionID, string(scamType), kind, entity, ifsc, bankName, now)
	}

	for _, v := range delta.UPIIDs {
		queue("upi_id", v, "", "")
	}
	for _, acc := range delta.BankAccounts {
		queue("bank_account", acc.AccountNumber, acc.IFSC, acc.BankName)
	}
	for _, v := range delta.PhoneNumbers {
		queue("phone_number", v, "", "")
	}
	for _, v := range delta.URLs {
		queue("url", v, "", "")
	}
	for _, v := range delta.Amounts {
		queue("amount", v, "", "")
	}
	for _, v := range delta.Emails {
		queue("email", v, "", "")
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert intel record: %w", err)
		}
	}

	r.logger.Debug().
		Str("session_id", sessionID).
		Int("records", batch.Len()).
		Msg("intel records archived")

	return nil
}

// CountByKind returns per-kind totals across the whole archive
func (r *IntelRepository) CountByKind(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT entity_kind, COUNT(*) FROM intel_records GROUP BY entity_kind`)
	if err != nil {
		return nil, fmt.Errorf("failed to query intel counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("failed to scan intel count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}

// ListBySession returns the capture history for one session, oldest
// first.
func (r *IntelRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]IntelRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, scam_type, entity_kind, entity, COALESCE(ifsc, ''), COALESCE(bank_name, ''), captured_at
		FROM intel_records
		WHERE session_id = $1
		ORDER BY captured_at ASC
		LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query intel records: %w", err)
	}
	defer rows.Close()

	var records []IntelRecord
	for rows.Next() {
		var rec IntelRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.ScamType, &rec.EntityKind, &rec.Entity, &rec.IFSC, &rec.BankName, &rec.CapturedAt); err != nil {
			return nil, fmt.Errorf("failed to scan intel record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// IntelRecord is one archived entity capture
type IntelRecord struct {
	ID         uuid.UUID `json:"id"`
	SessionID  string    `json:"session_id"`
	ScamType   string    `json:"scam_type"`
	EntityKind string    `json:"entity_kind"`
	Entity     string    `json:"entity"`
	IFSC       string    `json:"ifsc,omitempty"`
	BankName   string    `json:"bank_name,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}
