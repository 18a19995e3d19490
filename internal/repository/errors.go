// Package repository contains data access logic separated from HTTP
// handlers. Sentinel errors defined here let higher layers distinguish
// failure scenarios without inspecting driver errors: a handler translates
// ErrTodoNotFound into a 404 while ErrEmailExists becomes a 409.
package repository

import "errors"

// ErrTokenNotFound is returned when no active credential matches a key, or
// when a revoke call matches no (user, key) pair.
var ErrTokenNotFound = errors.New("token not found")

// ErrTodoNotFound is returned when a todo is absent or belongs to another
// owner. The two cases are intentionally indistinguishable so that owner
// scoping never confirms the existence of foreign rows.
var ErrTodoNotFound = errors.New("todo not found")
