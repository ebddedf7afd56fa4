package handler

import (
	todoapp "github.com/freelancedesk/backend/internal/application/todo"
	"github.com/gin-gonic/gin"
)

// TodoHandler handles todo endpoints
type TodoHandler struct {
	BaseHandler
	todoService *todoapp.TodoService
}

// NewTodoHandler creates a new todo handler
func NewTodoHandler(todoService *todoapp.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// RegisterRoutes registers todo routes
func (h *TodoHandler) RegisterRoutes(rg *gin.RouterGroup) {
	todos := rg.Group("/todos")
	{
		todos.POST("", h.Create)
		todos.GET("", h.List)
		todos.GET("/:id", h.Get)
		todos.PUT("/:id", h.Update)
		todos.POST("/:id/toggle", h.Toggle)
		todos.DELETE("/:id", h.Delete)
	}
}

// Create godoc
// @ID createTodo
// @Summary Create a todo
// @Tags todos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body todo.CreateTodoRequest true "Todo data"
// @Success 201 {object} APIResponse[todo.Todo]
// @Failure 400 {object} ErrorResponse
// @Router /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req todoapp.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	t, err := h.todoService.CreateTodo(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, t)
}

// List godoc
// @ID listTodos
// @Summary List todos
// @Tags todos
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param done query bool false "Filter by completion"
// @Param project_id query string false "Filter by project"
// @Success 200 {object} APIResponse[[]todo.Todo]
// @Router /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter todoapp.TodoListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.todoService.ListTodos(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get godoc
// @ID getTodo
// @Summary Get a todo by ID
// @Tags todos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Todo ID"
// @Success 200 {object} APIResponse[todo.Todo]
// @Failure 404 {object} ErrorResponse
// @Router /todos/{id} [get]
func (h *TodoHandler) Get(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	t, err := h.todoService.GetTodo(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, t)
}

// Update godoc
// @ID updateTodo
// @Summary Update a todo
// @Tags todos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Todo ID"
// @Param request body todo.UpdateTodoRequest true "Fields to update"
// @Success 200 {object} APIResponse[todo.Todo]
// @Failure 404 {object} ErrorResponse
// @Router /todos/{id} [put]
func (h *TodoHandler) Update(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	var req todoapp.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	t, err := h.todoService.UpdateTodo(c.Request.Context(), userID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, t)
}

// Toggle godoc
// @ID toggleTodo
// @Summary Flip a todo's completion flag
// @Tags todos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Todo ID"
// @Success 200 {object} APIResponse[todo.Todo]
// @Failure 404 {object} ErrorResponse
// @Router /todos/{id}/toggle [post]
func (h *TodoHandler) Toggle(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	t, err := h.todoService.ToggleTodo(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, t)
}

// Delete godoc
// @ID deleteTodo
// @Summary Delete a todo
// @Tags todos
// @Produce json
// @Security BearerAuth
// @Param id path string true "Todo ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse
// @Router /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	id, ok := h.parseIDParam(c)
	if !ok {
		return
	}

	if err := h.todoService.DeleteTodo(c.Request.Context(), userID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
