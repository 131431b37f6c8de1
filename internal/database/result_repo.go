package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ydkdan6/ocrtext/internal/models"
)

var (
	ErrResultNotFound = errors.New("result not found")

	// ErrPersistenceFailed means both insert strategies failed, or the
	// recovery path could not read back the row it wrote.
	ErrPersistenceFailed = errors.New("failed to save OCR result")
)

// ReadErrorPolicy names what ListResultsByUser does when the store errors.
type ReadErrorPolicy int

const (
	// ReadErrorEmpty degrades a failed history read to an empty list so the
	// dashboard is never blocked on a read error.
	ReadErrorEmpty ReadErrorPolicy = iota
	// ReadErrorPropagate surfaces the store error to the caller.
	ReadErrorPropagate
)

func (p ReadErrorPolicy) resolve(results []models.OCRResult, err error) ([]models.OCRResult, error) {
	if err == nil {
		return results, nil
	}
	if p == ReadErrorPropagate {
		return nil, err
	}
	return []models.OCRResult{}, nil
}

type insertStrategy func(ctx context.Context, req *models.SaveResultRequest) (*models.OCRResult, error)

// resultWriter is a two-strategy writer: the primary insert runs under the
// caller's row-level identity; the recovery strategy is attempted only when
// the primary is rejected.
type resultWriter struct {
	primary  insertStrategy
	recovery insertStrategy
}

func (w *resultWriter) save(ctx context.Context, req *models.SaveResultRequest) (*models.OCRResult, error) {
	result, err := w.primary(ctx, req)
	if err == nil {
		return result, nil
	}
	return w.recovery(ctx, req)
}

// SaveResult persists one extraction and returns the stored row, including
// the server-assigned id and created_at.
func (db *DB) SaveResult(ctx context.Context, req *models.SaveResultRequest) (*models.OCRResult, error) {
	w := &resultWriter{
		primary:  db.insertResult,
		recovery: db.insertResultPrivileged,
	}
	return w.save(ctx, req)
}

// insertResult is the direct insert, subject to the ocr_results row policy.
func (db *DB) insertResult(ctx context.Context, req *models.SaveResultRequest) (*models.OCRResult, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := setUserContext(ctx, tx, req.UserID); err != nil {
		return nil, err
	}

	result := &models.OCRResult{}
	err = tx.QueryRow(ctx, `
		INSERT INTO ocr_results (user_id, image_url, extracted_text, file_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, image_url, extracted_text, file_name, created_at
	`, req.UserID, req.ImageURL, req.ExtractedText, req.FileName).Scan(
		&result.ID, &result.UserID, &result.ImageURL,
		&result.ExtractedText, &result.FileName, &result.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

// insertResultPrivileged calls the SECURITY DEFINER procedure, then reads
// back the newest row for the user to recover the server-assigned fields.
// The read-back races with concurrent inserts for the same user; that is a
// known limitation inherited from the original fallback design.
func (db *DB) insertResultPrivileged(ctx context.Context, req *models.SaveResultRequest) (*models.OCRResult, error) {
	var inserted bool
	err := db.Pool.QueryRow(ctx,
		`SELECT insert_ocr_result($1, $2, $3, $4)`,
		req.UserID, req.ImageURL, req.ExtractedText, req.FileName,
	).Scan(&inserted)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}
	if !inserted {
		return nil, fmt.Errorf("%w: privileged insert reported no effect", ErrPersistenceFailed)
	}

	result, err := db.latestResultForUser(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: could not read back saved result: %v", ErrPersistenceFailed, err)
	}
	return result, nil
}

func (db *DB) latestResultForUser(ctx context.Context, userID string) (*models.OCRResult, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := setUserContext(ctx, tx, userID); err != nil {
		return nil, err
	}

	result := &models.OCRResult{}
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, image_url, extracted_text, file_name, created_at
		FROM ocr_results
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, userID).Scan(
		&result.ID, &result.UserID, &result.ImageURL,
		&result.ExtractedText, &result.FileName, &result.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

// ListResultsByUser returns the user's extraction history, newest first.
// Store errors are handled per the configured ReadErrorPolicy.
func (db *DB) ListResultsByUser(ctx context.Context, userID string) ([]models.OCRResult, error) {
	return db.onReadError.resolve(db.listResults(ctx, userID))
}

func (db *DB) listResults(ctx context.Context, userID string) ([]models.OCRResult, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := setUserContext(ctx, tx, userID); err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, user_id, image_url, extracted_text, file_name, created_at
		FROM ocr_results
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.OCRResult
	for rows.Next() {
		result := models.OCRResult{}
		err := rows.Scan(
			&result.ID, &result.UserID, &result.ImageURL,
			&result.ExtractedText, &result.FileName, &result.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	if results == nil {
		results = []models.OCRResult{}
	}

	return results, nil
}

// GetResultByID retrieves a single result owned by the given user
func (db *DB) GetResultByID(ctx context.Context, id, userID string) (*models.OCRResult, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := setUserContext(ctx, tx, userID); err != nil {
		return nil, err
	}

	result := &models.OCRResult{}
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, image_url, extracted_text, file_name, created_at
		FROM ocr_results
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(
		&result.ID, &result.UserID, &result.ImageURL,
		&result.ExtractedText, &result.FileName, &result.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

// setUserContext binds the row-level-security identity for the transaction.
func setUserContext(ctx context.Context, tx pgx.Tx, userID string) error {
	_, err := tx.Exec(ctx, `SELECT set_config('app.user_id', $1, true)`, userID)
	return err
}
