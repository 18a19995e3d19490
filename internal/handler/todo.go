package handler

import (
	"context"
	"errors"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/todo-api/internal/apierr"
	"github.com/iliyamo/todo-api/internal/middleware"
	"github.com/iliyamo/todo-api/internal/queue"
	"github.com/iliyamo/todo-api/internal/repository"
)

// maxTodoNameLen matches the column bound on todos.name.
const maxTodoNameLen = 30

// TodoHandler bundles dependencies for todo CRUD endpoints. Every
// operation is scoped to the authenticated owner; RequireAuth runs before
// any of these handlers, so an identity is always present.
type TodoHandler struct {
	Todos  repository.TodoStore
	Events queue.Publisher
	Logger *zap.SugaredLogger
}

func NewTodoHandler(todos repository.TodoStore, events queue.Publisher, logger *zap.SugaredLogger) *TodoHandler {
	return &TodoHandler{Todos: todos, Events: events, Logger: logger}
}

// ----- DTOs -----

type createTodoReq struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// updateTodoReq distinguishes absent fields from zero values: only fields
// present in the payload are applied.
type updateTodoReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Done        *bool   `json:"done"`
}

type todoResp struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Done        bool    `json:"done"`
}

func toTodoResp(t repository.Todo) todoResp {
	return todoResp{ID: t.ID, Name: t.Name, Description: t.Description, Done: t.Done}
}

func validateTodoName(name string) error {
	if name == "" {
		return apierr.Validation("Name is required.")
	}
	if utf8.RuneCountInString(name) > maxTodoNameLen {
		return apierr.Validation("Name must be at most 30 characters.")
	}
	return nil
}

// publish emits a change event for a todo after its mutation committed.
// It runs detached with its own deadline: a dead broker must never slow
// down or fail the request that triggered the event.
func (h *TodoHandler) publish(topic string, ev queue.TodoEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.Events.Publish(ctx, topic, ev); err != nil {
			h.Logger.Warnw("todo event publish failed", "topic", topic, "type", ev.Type, "error", err)
		}
	}()
}

// List handles GET /todos/ and returns the owner's todos, newest first.
func (h *TodoHandler) List(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	todos, err := h.Todos.List(ctx, u.ID)
	if err != nil {
		return err
	}
	out := make([]todoResp, 0, len(todos))
	for _, t := range todos {
		out = append(out, toTodoResp(t))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /todos/:id/. Foreign and missing ids are both 404.
func (h *TodoHandler) Get(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Todos.Get(ctx, u.ID, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			return apierr.NotFound()
		}
		return err
	}
	return c.JSON(http.StatusOK, toTodoResp(t))
}

// Create handles POST /todos/.
func (h *TodoHandler) Create(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)

	var req createTodoReq
	if err := c.Bind(&req); err != nil {
		return apierr.Validation("Invalid request body.")
	}
	if err := validateTodoName(req.Name); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Todos.Create(ctx, u.ID, req.Name, req.Description)
	if err != nil {
		return err
	}
	h.publish(t.ID, queue.NewCreatedEvent(t))
	return c.JSON(http.StatusOK, toTodoResp(t))
}

// Update handles PUT and PATCH /todos/:id/ as a partial update: absent
// fields keep their stored values.
func (h *TodoHandler) Update(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)

	var req updateTodoReq
	if err := c.Bind(&req); err != nil {
		return apierr.Validation("Invalid request body.")
	}
	if req.Name != nil {
		if err := validateTodoName(*req.Name); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Todos.Update(ctx, u.ID, c.Param("id"), repository.TodoPatch{
		Name:        req.Name,
		Description: req.Description,
		Done:        req.Done,
	})
	if err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			return apierr.NotFound()
		}
		return err
	}
	h.publish(t.ID, queue.NewUpdatedEvent(t))
	return c.JSON(http.StatusOK, toTodoResp(t))
}

// Delete handles DELETE /todos/:id/.
func (h *TodoHandler) Delete(c echo.Context) error {
	u, _ := middleware.CurrentUser(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id := c.Param("id")
	if err := h.Todos.Delete(ctx, u.ID, id); err != nil {
		if errors.Is(err, repository.ErrTodoNotFound) {
			return apierr.NotFound()
		}
		return err
	}
	h.publish(id, queue.NewDeletedEvent(id))
	return c.NoContent(http.StatusNoContent)
}
