package feedback

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"
)

type Repository interface {
	Create(ctx context.Context, f *Feedback) error
	List(ctx context.Context, limit int) ([]Feedback, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Create(ctx context.Context, f *Feedback) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	query := `INSERT INTO feedback (id, name, email, message, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, f.ID, f.Name, f.Email, f.Message, f.CreatedAt)
	return err
}

// List returns the newest feedback first.
func (r *postgresRepo) List(ctx context.Context, limit int) ([]Feedback, error) {
	query := `SELECT id, name, email, message, created_at FROM feedback ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Feedback
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.ID, &f.Name, &f.Email, &f.Message, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

type memoryRepo struct {
	mu      sync.RWMutex
	entries []Feedback
}

// NewMemoryRepository keeps feedback in process memory. It is used when no
// database is configured.
func NewMemoryRepository() Repository {
	return &memoryRepo{}
}

func (r *memoryRepo) Create(ctx context.Context, f *Feedback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	r.entries = append(r.entries, *f)
	return nil
}

func (r *memoryRepo) List(ctx context.Context, limit int) ([]Feedback, error) {
	r.mu.RLock()
	out := make([]Feedback, len(r.entries))
	copy(out, r.entries)
	r.mu.RUnlock()

	// Newest first; equal timestamps keep the latest insert first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
