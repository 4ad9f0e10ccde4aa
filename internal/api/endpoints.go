package api

import (
	"context"
	"net/http"
	"net/url"

	"taskdeck/internal/model"
)

// SignIn exchanges an email/password for a bearer token.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.doForm(ctx, "/auth/signin", form, &resp); err != nil {
		return "", err
	}
	if resp.AccessToken == "" {
		return "", &DecodeError{Err: errNoToken}
	}
	return resp.AccessToken, nil
}

// SignUp registers a new account. The caller signs in separately.
func (c *Client) SignUp(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	return c.do(ctx, http.MethodPost, "/auth/signup", body, nil)
}

// ListTodos fetches the full task list in server order.
func (c *Client) ListTodos(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "/todos/", nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateTodo creates a task and returns it with the server-assigned id.
func (c *Client) CreateTodo(ctx context.Context, title string) (model.Task, error) {
	body := map[string]any{"title": title, "completed": false}
	var t model.Task
	if err := c.do(ctx, http.MethodPost, "/todos/", body, &t); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

// ToggleTodo flips a task's completed flag server-side.
func (c *Client) ToggleTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/todos/"+url.PathEscape(id)+"/toggle", nil, nil)
}

// DeleteTodo removes a task server-side.
func (c *Client) DeleteTodo(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), nil, nil)
}

// ChatResponse is one assistant turn as the server reports it.
type ChatResponse struct {
	ConversationID int64            `json:"conversation_id"`
	Response       string           `json:"response"`
	ToolCalls      []model.ToolCall `json:"tool_calls"`
	RequestID      string           `json:"request_id"`
}

// Chat sends one user message to the assistant. conversationID is nil on
// the first turn; the server assigns one and echoes it thereafter.
func (c *Client) Chat(ctx context.Context, userID string, conversationID *int64, message string) (ChatResponse, error) {
	body := map[string]any{
		"conversation_id": conversationID,
		"message":         message,
	}
	var resp ChatResponse
	path := "/api/" + url.PathEscape(userID) + "/chat"
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return ChatResponse{}, err
	}
	return resp, nil
}
