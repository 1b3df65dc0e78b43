package diagnosis

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"medica-diagnosis/internal/agent"
	"medica-diagnosis/internal/prediction"
)

var ErrSessionNotFound = errors.New("session not found")

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	query := `SELECT id, form, field_errors, request, result, selection, created_at, updated_at FROM diagnostic_sessions WHERE id = $1`

	row := r.db.QueryRowContext(ctx, query, id)

	var s Session
	var formJSON, errorsJSON, requestJSON, resultJSON, selectionJSON []byte

	err := row.Scan(
		&s.ID,
		&formJSON,
		&errorsJSON,
		&requestJSON,
		&resultJSON,
		&selectionJSON,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(formJSON, &s.Form); err != nil {
		return nil, fmt.Errorf("failed to unmarshal form: %w", err)
	}
	if len(errorsJSON) > 0 {
		if err := json.Unmarshal(errorsJSON, &s.FieldErrors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal field errors: %w", err)
		}
	}
	if len(requestJSON) > 0 {
		var req agent.PredictRequest
		if err := json.Unmarshal(requestJSON, &req); err != nil {
			return nil, fmt.Errorf("failed to unmarshal request: %w", err)
		}
		s.Request = &req
	}
	if len(resultJSON) > 0 {
		var res prediction.Result
		if err := json.Unmarshal(resultJSON, &res); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}
		s.Result = &res
	}
	if len(selectionJSON) > 0 {
		if err := json.Unmarshal(selectionJSON, &s.Selection); err != nil {
			return nil, fmt.Errorf("failed to unmarshal selection: %w", err)
		}
	}

	return &s, nil
}

// nullableJSON marshals v as JSON text, mapping a nil pointer to SQL NULL.
// JSON is passed as a string so lib/pq does not encode it as bytea.
func nullableJSON[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *postgresRepo) Save(ctx context.Context, s *Session) error {
	formJSON, err := json.Marshal(s.Form)
	if err != nil {
		return err
	}
	errorsJSON, err := json.Marshal(s.FieldErrors)
	if err != nil {
		return err
	}
	requestJSON, err := nullableJSON(s.Request)
	if err != nil {
		return err
	}
	resultJSON, err := nullableJSON(s.Result)
	if err != nil {
		return err
	}
	selectionJSON, err := json.Marshal(s.Selection)
	if err != nil {
		return err
	}

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.UpdatedAt = time.Now()

	query := `
		INSERT INTO diagnostic_sessions (id, form, field_errors, request, result, selection, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			form = $2,
			field_errors = $3,
			request = $4,
			result = $5,
			selection = $6,
			updated_at = $8
	`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, string(formJSON), string(errorsJSON), requestJSON, resultJSON, string(selectionJSON), s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM diagnostic_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

type memoryRepo struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewMemoryRepository keeps sessions in process memory. It is used when no
// database is configured.
func NewMemoryRepository() Repository {
	return &memoryRepo{sessions: make(map[uuid.UUID]*Session)}
}

func (r *memoryRepo) GetByID(ctx context.Context, id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.clone(), nil
}

func (r *memoryRepo) Save(ctx context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.UpdatedAt = time.Now()
	r.sessions[s.ID] = s.clone()
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}
