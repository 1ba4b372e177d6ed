package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/hci-todo/internal/models"
	"github.com/pkg/errors"
)

// ========================
// REPOSITORY STRUCT
// ========================

type TodoRepo struct {
	DB *sql.DB
}

func NewTodoRepo(db *sql.DB) *TodoRepo {
	return &TodoRepo{DB: db}
}

// ========================
// LIST ALL TODOS
// ========================

func (r *TodoRepo) List(ctx context.Context) ([]models.Todo, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT id, name, is_complete FROM todos ORDER BY id")
	if err != nil {
		return nil, errors.Wrap(err, "TodoRepo.List")
	}
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		var t models.Todo
		if err := rows.Scan(&t.ID, &t.Name, &t.IsComplete); err != nil {
			return nil, errors.Wrap(err, "TodoRepo.List scan")
		}
		todos = append(todos, t)
	}
	return todos, errors.Wrap(rows.Err(), "TodoRepo.List rows")
}

// ========================
// GET TODO BY ID
// ========================

func (r *TodoRepo) GetByID(ctx context.Context, id int) (*models.Todo, error) {
	var t models.Todo
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, is_complete
		 FROM todos
		 WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &t.IsComplete)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "TodoRepo.GetByID")
	}
	return &t, nil
}

// ========================
// CREATE TODO
// ========================

func (r *TodoRepo) Create(ctx context.Context, name string, isComplete bool) (*models.Todo, error) {
	t := models.Todo{Name: name, IsComplete: isComplete}
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO todos (name, is_complete)
		 VALUES ($1, $2)
		 RETURNING id`,
		name, isComplete,
	).Scan(&t.ID)
	if err != nil {
		return nil, errors.Wrap(err, "TodoRepo.Create")
	}
	return &t, nil
}

// ========================
// UPDATE TODO BY ID
// ========================

func (r *TodoRepo) Update(ctx context.Context, id int, name string, isComplete bool) (*models.Todo, error) {
	t := models.Todo{Name: name, IsComplete: isComplete}
	err := r.DB.QueryRowContext(ctx,
		`UPDATE todos
		 SET name = $1, is_complete = $2
		 WHERE id = $3
		 RETURNING id`,
		name, isComplete, id,
	).Scan(&t.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "TodoRepo.Update")
	}
	return &t, nil
}

// ========================
// DELETE TODO BY ID
// ========================

func (r *TodoRepo) Delete(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM todos WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "TodoRepo.Delete")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "TodoRepo.Delete rows affected")
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
