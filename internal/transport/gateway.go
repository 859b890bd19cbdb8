package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"gentle-ai/client/internal/model"
)

// Gateway defines the logical surface of the remote chat service. The session
// store depends on this interface, not on the HTTP client, which allows the
// store to be tested against a mock.
type Gateway interface {
	ListChats(ctx context.Context) ([]model.Chat, error)
	CreateChat(ctx context.Context, title string) (*model.Chat, error)
	FetchChat(ctx context.Context, chatID string) ([]model.Message, error)
	SendMessage(ctx context.Context, chatID, content, modelID string) (*SendResult, error)
	DeleteChat(ctx context.Context, chatID string) error
	ListModels(ctx context.Context) ([]model.ModelInfo, error)
	Health(ctx context.Context) error
}

// SendResult is the outcome of one send call. OK reports whether the gateway
// produced an assistant reply. When OK is false the gateway may still have
// stored the user turn; UserMessage is set in that case and Err carries the
// gateway's explanation. This is returned as a value, not an error, so the
// caller can apply its partial-failure policy.
type SendResult struct {
	OK               bool
	UserMessage      *model.Message
	AssistantMessage *model.Message
	Err              string
}

// TransportError is an HTTP-level failure talking to the gateway: the request
// never completed, or the gateway answered with a non-2xx status.
type TransportError struct {
	Status  int // Zero when the request never got a response.
	Message string
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("gateway returned status %d: %s", e.Status, e.Message)
}

type client struct {
	http    *http.Client
	baseURL string
}

// NewClient returns a Gateway backed by the HTTP service at baseURL. The
// timeout bounds every call, including the send call that waits for the
// assistant's full reply.
func NewClient(baseURL string, timeout time.Duration) Gateway {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// envelope holds the fields every gateway response shares.
type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type sendMessageRequest struct {
	Message string `json:"message" validate:"required,min=1"`
	Model   string `json:"model,omitempty"`
}

type createChatRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// doJSON performs one request against the gateway and decodes the body into
// out. A non-2xx status becomes a *TransportError carrying the body's `error`
// field when one is present. The body of a non-2xx response is not decoded
// into out: callers see either a success payload or an error, never both.
func (c *client) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("could not marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("could not create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Status: resp.StatusCode, Message: fmt.Sprintf("could not read response body: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env envelope
		message := http.StatusText(resp.StatusCode)
		if jsonErr := json.Unmarshal(data, &env); jsonErr == nil && env.Error != "" {
			message = env.Error
		}
		return &TransportError{Status: resp.StatusCode, Message: message}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &TransportError{Status: resp.StatusCode, Message: fmt.Sprintf("could not decode response: %v", err)}
		}
	}
	return nil
}

// appFailure turns a 2xx `success:false` body into a *TransportError. The
// send call is the single exception to this rule; see SendMessage.
func appFailure(env envelope) error {
	if env.Success {
		return nil
	}
	message := env.Error
	if message == "" {
		message = "gateway reported failure without detail"
	}
	return &TransportError{Status: http.StatusOK, Message: message}
}

func (c *client) ListChats(ctx context.Context) ([]model.Chat, error) {
	var resp struct {
		envelope
		Chats []model.Chat `json:"chats"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/chats", nil, &resp); err != nil {
		return nil, err
	}
	if err := appFailure(resp.envelope); err != nil {
		return nil, err
	}
	return resp.Chats, nil
}

func (c *client) CreateChat(ctx context.Context, title string) (*model.Chat, error) {
	payload := createChatRequest{Title: title}
	if err := validateRequest(payload); err != nil {
		return nil, err
	}
	var resp struct {
		envelope
		Chat *model.Chat `json:"chat"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/chats", payload, &resp); err != nil {
		return nil, err
	}
	if err := appFailure(resp.envelope); err != nil {
		return nil, err
	}
	if resp.Chat == nil {
		return nil, &TransportError{Status: http.StatusOK, Message: "gateway returned no chat"}
	}
	return resp.Chat, nil
}

func (c *client) FetchChat(ctx context.Context, chatID string) ([]model.Message, error) {
	var resp struct {
		envelope
		Messages []model.Message `json:"messages"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/chats/"+chatID, nil, &resp); err != nil {
		return nil, err
	}
	if err := appFailure(resp.envelope); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// SendMessage posts one user turn and waits for the assistant's reply in the
// same call. A 2xx `success:false` body is not an error here: it means the
// assistant could not answer, and the result carries the stored user turn
// plus the gateway's explanation for the caller to apply.
func (c *client) SendMessage(ctx context.Context, chatID, content, modelID string) (*SendResult, error) {
	payload := sendMessageRequest{Message: content, Model: modelID}
	if err := validateRequest(payload); err != nil {
		return nil, err
	}
	var resp struct {
		envelope
		UserMessage      *model.Message `json:"user_message"`
		AssistantMessage *model.Message `json:"assistant_message"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/chats/"+chatID+"/messages", payload, &resp); err != nil {
		return nil, err
	}
	return &SendResult{
		OK:               resp.Success,
		UserMessage:      resp.UserMessage,
		AssistantMessage: resp.AssistantMessage,
		Err:              resp.Error,
	}, nil
}

func (c *client) DeleteChat(ctx context.Context, chatID string) error {
	var resp envelope
	if err := c.doJSON(ctx, http.MethodDelete, "/chats/"+chatID, nil, &resp); err != nil {
		return err
	}
	return appFailure(resp)
}

func (c *client) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	var resp struct {
		envelope
		Models []model.ModelInfo `json:"models"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/models", nil, &resp); err != nil {
		return nil, err
	}
	if err := appFailure(resp.envelope); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

func (c *client) Health(ctx context.Context) error {
	var resp envelope
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &resp); err != nil {
		return err
	}
	return appFailure(resp)
}
