package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/todo-api/internal/utils"
)

// Todo mirrors the 'todos' table. UserID is zero for orphaned rows (the FK
// is SET NULL so todos survive owner deletion), but orphans are unreachable
// through the owner-scoped queries below.
type Todo struct {
	ID          string
	UserID      uint64
	Name        string
	Description *string
	Done        bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TodoPatch carries a partial update. Nil fields keep their stored value.
type TodoPatch struct {
	Name        *string
	Description *string
	Done        *bool
}

type TodoRepo struct{ DB *sql.DB }

func NewTodoRepo(db *sql.DB) *TodoRepo { return &TodoRepo{DB: db} }

const todoColumns = "id, COALESCE(user_id,0), name, description, done, created_at, updated_at"

func scanTodo(row *sql.Row) (Todo, error) {
	var t Todo
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.Done, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// List returns all todos owned by ownerID. Ids are time-ordered UUIDv7
// material, so descending id order is newest-first.
func (r *TodoRepo) List(ctx context.Context, ownerID uint64) ([]Todo, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE user_id=? ORDER BY id DESC",
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	todos := []Todo{}
	for rows.Next() {
		var t Todo
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Description, &t.Done, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// Get fetches one todo by id, scoped to its owner. A row owned by someone
// else reads exactly like a missing row.
func (r *TodoRepo) Get(ctx context.Context, ownerID uint64, id string) (Todo, error) {
	t, err := scanTodo(r.DB.QueryRowContext(ctx,
		"SELECT "+todoColumns+" FROM todos WHERE id=? AND user_id=? LIMIT 1",
		id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Todo{}, ErrTodoNotFound
		}
		return Todo{}, err
	}
	return t, nil
}

// Create inserts a todo with a generated id and returns the stored row.
func (r *TodoRepo) Create(ctx context.Context, ownerID uint64, name string, description *string) (Todo, error) {
	id := utils.NewTodoID()
	if _, err := r.DB.ExecContext(ctx,
		"INSERT INTO todos (id, user_id, name, description) VALUES (?,?,?,?)",
		id, ownerID, name, description); err != nil {
		return Todo{}, err
	}
	return r.Get(ctx, ownerID, id)
}

// Update applies the non-nil fields of patch to the owner's todo and
// returns the updated row. An all-nil patch is a no-op read.
func (r *TodoRepo) Update(ctx context.Context, ownerID uint64, id string, patch TodoPatch) (Todo, error) {
	sets := []string{}
	args := []any{}
	if patch.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, *patch.Name)
	}
	if patch.Description != nil {
		sets = append(sets, "description=?")
		args = append(args, *patch.Description)
	}
	if patch.Done != nil {
		sets = append(sets, "done=?")
		args = append(args, *patch.Done)
	}
	if len(sets) == 0 {
		return r.Get(ctx, ownerID, id)
	}

	// Existence is checked first: UPDATE reports zero affected rows both for
	// missing rows and for writes that change nothing, so RowsAffected alone
	// cannot distinguish not-found from a no-op.
	if _, err := r.Get(ctx, ownerID, id); err != nil {
		return Todo{}, err
	}
	args = append(args, id, ownerID)
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE todos SET "+strings.Join(sets, ", ")+" WHERE id=? AND user_id=?",
		args...); err != nil {
		return Todo{}, err
	}
	return r.Get(ctx, ownerID, id)
}

// Delete removes the owner's todo. Deleting a foreign or missing id is
// ErrTodoNotFound either way.
func (r *TodoRepo) Delete(ctx context.Context, ownerID uint64, id string) error {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM todos WHERE id=? AND user_id=?", id, ownerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTodoNotFound
	}
	return nil
}
