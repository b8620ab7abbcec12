// SPDX-License-Identifier: Apache-2.0

package repository

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/credentia/credential-runtime/internal/auth"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInvalidExaminerName = errors.New("invalid examiner name")

type ExaminerRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

type CreatedExaminer struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Token string    `json:"token"`
}

type ExaminerRecord struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewExaminerRepository(pool *pgxpool.Pool, logger *slog.Logger) *ExaminerRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &ExaminerRepository{
		pool:   pool,
		logger: logger,
	}
}

// ResolveExaminer maps a bearer token to an examiner identity.
func (r *ExaminerRepository) ResolveExaminer(ctx context.Context, bearerToken string) (auth.Examiner, bool, error) {
	if bearerToken == "" {
		return auth.Examiner{}, false, nil
	}
	tokenHash := sha256Hex(bearerToken)

	var examiner auth.Examiner
	err := r.pool.QueryRow(ctx,
		`SELECT id, name
		 FROM examiners
		 WHERE token_hash=$1 AND revoked_at IS NULL`,
		tokenHash,
	).Scan(&examiner.ID, &examiner.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.Examiner{}, false, nil
		}
		r.logger.Error("resolve examiner failed", "error", err)
		return auth.Examiner{}, false, err
	}

	return examiner, true, nil
}

func (r *ExaminerRepository) CreateExaminer(ctx context.Context, name string) (CreatedExaminer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return CreatedExaminer{}, ErrInvalidExaminerName
	}

	token, tokenHash, err := generateExaminerToken()
	if err != nil {
		r.logger.Error("generate examiner token failed", "error", err)
		return CreatedExaminer{}, err
	}

	examinerID := uuid.New()
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO examiners (id, name, token_hash)
		VALUES ($1, $2, $3)
	`,
		examinerID,
		name,
		tokenHash,
	); err != nil {
		r.logger.Error("create examiner failed", "name", name, "error", err)
		return CreatedExaminer{}, err
	}

	return CreatedExaminer{
		ID:    examinerID,
		Name:  name,
		Token: token,
	}, nil
}

func (r *ExaminerRepository) ListExaminers(ctx context.Context) ([]ExaminerRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, created_at
		FROM examiners
		WHERE revoked_at IS NULL
		ORDER BY created_at DESC
	`)
	if err != nil {
		r.logger.Error("list examiners query failed", "error", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]ExaminerRecord, 0, 16)
	for rows.Next() {
		var record ExaminerRecord
		if err := rows.Scan(&record.ID, &record.Name, &record.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (r *ExaminerRepository) RevokeExaminer(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE examiners
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL
	`, id)
	if err != nil {
		r.logger.Error("revoke examiner failed", "examiner_id", id, "error", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func generateExaminerToken() (string, string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	token := "ex_live_" + hex.EncodeToString(raw)
	return token, sha256Hex(token), nil
}

func sha256Hex(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}
