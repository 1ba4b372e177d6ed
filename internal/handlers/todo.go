package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/crucial707/hci-todo/internal/metrics"
	"github.com/crucial707/hci-todo/internal/repo"
	"github.com/go-chi/chi/v5"
)

type TodoHandler struct {
	Repo repo.TodoStore
}

type todoInput struct {
	Name       string `json:"name" validate:"required,max=1000"`
	IsComplete bool   `json:"isComplete"`
}

// todoID reads the {id} URL param. A malformed id is answered like a missing todo.
func todoID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		JSONError(w, "todo not found", http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func readTodoInput(w http.ResponseWriter, r *http.Request) (todoInput, bool) {
	var input todoInput
	if !decodeJSON(w, r, &input) {
		return input, false
	}
	if strings.TrimSpace(input.Name) == "" {
		input.Name = ""
	}
	return input, validateInput(w, input)
}

//
// ==========================
// List Todos
// ==========================
//

func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := h.Repo.List(r.Context())
	if err != nil {
		internalError(w, r, "list todos", err)
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

//
// ==========================
// Get Todo By ID
// ==========================
//

func (h *TodoHandler) GetTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}

	todo, err := h.Repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "todo not found", http.StatusNotFound)
			return
		}
		internalError(w, r, "get todo", err)
		return
	}

	writeJSON(w, http.StatusOK, todo)
}

//
// ==========================
// Create Todo
// ==========================
//

func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	input, ok := readTodoInput(w, r)
	if !ok {
		return
	}

	todo, err := h.Repo.Create(r.Context(), input.Name, input.IsComplete)
	if err != nil {
		internalError(w, r, "create todo", err)
		return
	}

	metrics.IncTodo("create")
	w.Header().Set("Location", "/todoitems/"+strconv.Itoa(todo.ID))
	writeJSON(w, http.StatusCreated, todo)
}

//
// ==========================
// Update Todo (full replace)
// ==========================
//

func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}
	input, ok := readTodoInput(w, r)
	if !ok {
		return
	}

	if _, err := h.Repo.Update(r.Context(), id, input.Name, input.IsComplete); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "todo not found", http.StatusNotFound)
			return
		}
		internalError(w, r, "update todo", err)
		return
	}

	metrics.IncTodo("update")
	w.WriteHeader(http.StatusNoContent)
}

//
// ==========================
// Delete Todo
// ==========================
//

func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := todoID(w, r)
	if !ok {
		return
	}

	if err := h.Repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			JSONError(w, "todo not found", http.StatusNotFound)
			return
		}
		internalError(w, r, "delete todo", err)
		return
	}

	metrics.IncTodo("delete")
	w.WriteHeader(http.StatusNoContent)
}
