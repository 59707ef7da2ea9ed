package repository

import (
	"context"

	"github.com/peterfiasco/easylawBe-sub000/internal/domain"
)

// NoteRepository stores audit notes. Append is a single INSERT, so concurrent
// appends to the same request never overwrite each other.
type NoteRepository interface {
	Append(ctx context.Context, note *domain.Note) error
	ListByRequest(ctx context.Context, requestID string) ([]domain.Note, error)
}

type noteRepository struct {
	db DB
}

// NewNoteRepository builds repository.
func NewNoteRepository(db DB) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Append(ctx context.Context, note *domain.Note) error {
	const query = `
        INSERT INTO request_notes (request_id, message, author_id, origin)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		note.RequestID,
		note.Message,
		note.AuthorID,
		note.Origin,
	).Scan(&note.ID, &note.CreatedAt)
}

func (r *noteRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.Note, error) {
	const query = `
        SELECT id, request_id, message, author_id, origin, created_at
        FROM request_notes WHERE request_id=$1 ORDER BY seq ASC`
	rows, err := r.db.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Note
	for rows.Next() {
		var note domain.Note
		if err := rows.Scan(
			&note.ID,
			&note.RequestID,
			&note.Message,
			&note.AuthorID,
			&note.Origin,
			&note.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, note)
	}
	return result, rows.Err()
}
