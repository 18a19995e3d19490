// Package router builds the route table at process start. Every handler
// holds explicit references to the stores it needs; there is no global
// registry, so the full HTTP surface is visible in one place here.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/todo-api/internal/handler"
	"github.com/iliyamo/todo-api/internal/middleware"
)

// Register wires all routes onto the Echo instance. TokenAuth is installed
// globally (an invalid key must fail even on public routes), while
// RequireAuth/RequireAdmin guard only the endpoints that need an identity.
func Register(e *echo.Echo, accounts *handler.AccountHandler, todos *handler.TodoHandler) {
	e.GET("/healthz", handler.Health)

	a := e.Group("/accounts")
	a.GET("/", accounts.Profile, middleware.RequireAuth)
	a.POST("/register", accounts.Register)
	a.POST("/login", accounts.Login)
	a.POST("/google-auth", accounts.GoogleAuth)
	a.GET("/logout", accounts.Logout, middleware.RequireAuth)
	a.GET("/users", accounts.ListUsers, middleware.RequireAdmin)

	t := e.Group("/todos", middleware.RequireAuth)
	t.GET("/", todos.List)
	t.POST("/", todos.Create)
	t.GET("/:id/", todos.Get)
	t.PUT("/:id/", todos.Update)
	t.PATCH("/:id/", todos.Update)
	t.DELETE("/:id/", todos.Delete)
}
