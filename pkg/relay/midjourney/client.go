package midjourney

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const DefaultBaseUrl = "https://api.goapi.ai/api/v1/task"

type Submitter interface {
	Submit(ctx context.Context, prompt string) (string, error)
}

type StatusFetcher interface {
	Status(ctx context.Context, taskID string) (*Task, error)
}

// Client talks to the goapi.ai task API.
type Client struct {
	apiKey     string
	baseUrl    string
	httpClient *http.Client
}

type ClientOptions struct {
	ApiKey     string
	BaseUrl    string
	HttpClient *http.Client
}

var (
	_ Submitter     = (*Client)(nil)
	_ StatusFetcher = (*Client)(nil)
)

func NewClient(opts ClientOptions) *Client {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.HttpClient == nil {
		opts.HttpClient = http.DefaultClient
	}

	return &Client{
		apiKey:     opts.ApiKey,
		baseUrl:    strings.TrimRight(opts.BaseUrl, "/"),
		httpClient: opts.HttpClient,
	}
}

func (c *Client) Submit(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	body, err := json.Marshal(newImagineRequest(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to marshal imagine request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseUrl, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create submit request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	envelope, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
	}

	if envelope.Data.TaskID == "" {
		return "", fmt.Errorf("%w: no task id in response", ErrSubmissionFailed)
	}

	return envelope.Data.TaskID, nil
}

func (c *Client) Status(ctx context.Context, taskID string) (*Task, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseUrl+"/"+url.PathEscape(taskID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create status request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	envelope, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStatusFailed, err)
	}

	task := envelope.Data.toTask()
	if task.ID == "" {
		task.ID = taskID
	}

	return task, nil
}

func (c *Client) do(req *http.Request) (*taskEnvelope, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, truncate(body, 256))
	}

	var envelope taskEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if envelope.Code != successCode {
		return nil, fmt.Errorf("unexpected response code %d: %s", envelope.Code, envelope.Message)
	}

	return &envelope, nil
}

func newImagineRequest(prompt string) *imagineRequest {
	return &imagineRequest{
		Model:    modelMidjourney,
		TaskType: taskTypeImagine,
		Input: imagineInput{
			Prompt:          prompt,
			AspectRatio:     aspectRatio,
			ProcessMode:     processModeFast,
			SkipPromptCheck: false,
		},
		Config: taskConfig{
			ServiceMode: serviceModePrivate,
			// webhooks are never used, the provider is polled instead
			WebhookConfig: webhookConfig{},
		},
	}
}

func truncate(body []byte, n int) string {
	if len(body) <= n {
		return string(body)
	}
	return string(body[:n]) + "..."
}
