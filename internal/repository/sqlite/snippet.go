package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/arefin/snippetbin/internal/apperror"
	"github.com/arefin/snippetbin/internal/model"
	"github.com/arefin/snippetbin/internal/repository"
)

// compile-time check that *DB implements repository.SnippetRepository
var _ repository.SnippetRepository = (*DB)(nil)

// snippetColumns is the SELECT list shared by GetByID and List. The LEFT JOIN
// resolves the owner's username; COALESCE keeps it an empty string for
// ownerless snippets instead of NULL.
const snippetColumns = `
	s.id, s.code, COALESCE(s.owner_id, 0), COALESCE(u.username, ''),
	s.created_at, s.updated_at
	FROM snippets s
	LEFT JOIN users u ON u.id = s.owner_id`

// Create inserts a new snippet and fills in its database-assigned ID and
// timestamps. A zero OwnerID is stored as NULL.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	now := time.Now().UTC()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	owner := sql.NullInt64{Int64: snippet.OwnerID, Valid: snippet.OwnerID != 0}

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO snippets (code, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?)`,
		snippet.Code,
		owner,
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new snippet id: %w", err)
	}
	snippet.ID = id

	// Resolve the owner's username for the caller's serialized response.
	if snippet.OwnerID != 0 && snippet.Owner == "" {
		err := db.conn.QueryRowContext(ctx,
			`SELECT username FROM users WHERE id = ?`, snippet.OwnerID,
		).Scan(&snippet.Owner)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("sqlite: resolving snippet owner: %w", err)
		}
	}

	return nil
}

// GetByID retrieves a single snippet. Returns apperror.ErrNotFound if no row
// matches.
func (db *DB) GetByID(ctx context.Context, id int64) (*model.Snippet, error) {
	var s model.Snippet

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` WHERE s.id = ?`, id,
	).Scan(
		&s.ID,
		&s.Code,
		&s.OwnerID,
		&s.Owner,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", strconv.FormatInt(id, 10))
		}
		return nil, fmt.Errorf("sqlite: getting snippet %d: %w", id, err)
	}

	return &s, nil
}

// List returns every snippet ordered by ID, which is creation order.
func (db *DB) List(ctx context.Context) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+` ORDER BY s.id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	defer rows.Close()

	snippets := []model.Snippet{}
	for rows.Next() {
		var s model.Snippet
		if err := rows.Scan(
			&s.ID, &s.Code, &s.OwnerID, &s.Owner,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// Update replaces the code of an existing snippet. ID, owner, and created_at
// are immutable. Returns apperror.ErrNotFound if the snippet doesn't exist.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	snippet.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets SET code = ?, updated_at = ? WHERE id = ?`,
		snippet.Code,
		snippet.UpdatedAt,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %d: %w", snippet.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", strconv.FormatInt(snippet.ID, 10))
	}

	return nil
}

// Delete removes a snippet by ID. Returns apperror.ErrNotFound if it doesn't
// exist.
func (db *DB) Delete(ctx context.Context, id int64) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", strconv.FormatInt(id, 10))
	}

	return nil
}
