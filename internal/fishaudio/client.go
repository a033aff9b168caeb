// Package fishaudio provides an HTTP client for the Fish Audio API.
//
// The client covers speech synthesis, transcription, account credits and
// voice-model management. It does not retry failed requests.
package fishaudio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public Fish Audio API endpoint.
const DefaultBaseURL = "https://api.fish.audio"

// API endpoints and paths.
const (
	apiTTS     = "/v1/tts"
	apiASR     = "/v1/asr"
	apiCredits = "/wallet/self/api-credit"
	apiModel   = "/model"
)

// HTTP headers.
const (
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	headerAccept        = "Accept"
	headerModel         = "model"
	contentTypeJSON     = "application/json"
)

// Error messages.
const (
	errTextCannotBeEmpty    = "text cannot be empty"
	errModelIDCannotBeEmpty = "model id cannot be empty"
	errTitleCannotBeEmpty   = "title cannot be empty"
	errNoVoiceSamples       = "at least one voice sample is required"
	errNoAudio              = "audio data cannot be empty"
	errFmtAPIError          = "fish audio API error (%s): %s"
)

// Static errors.
var (
	ErrTextEmpty      = errors.New(errTextCannotBeEmpty)
	ErrModelIDEmpty   = errors.New(errModelIDCannotBeEmpty)
	ErrTitleEmpty     = errors.New(errTitleCannotBeEmpty)
	ErrNoVoiceSamples = errors.New(errNoVoiceSamples)
	ErrAudioEmpty     = errors.New(errNoAudio)
)

// APIError is returned for any 4xx or 5xx response. Message carries the
// server-provided detail when one could be decoded, the raw body otherwise.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf(errFmtAPIError, e.Status, e.Message)
}

// apiErrorBody covers the error shapes the API returns.
type apiErrorBody struct {
	Detail  any    `json:"detail"`
	Message string `json:"message"`
}

// Client represents a client for the Fish Audio HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates and configures a Fish Audio client. The baseURL should
// include the protocol (e.g., "https://api.fish.audio"); an empty value
// selects DefaultBaseURL. A zero timeout leaves requests unbounded.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GenerateSpeech sends a synthesis request and returns the raw audio bytes.
// The model is sent in the "model" header; an empty model lets the server
// pick its default.
func (c *Client) GenerateSpeech(ctx context.Context, req TTSRequest, model string) ([]byte, error) {
	if req.Text == "" {
		return nil, ErrTextEmpty
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	headers := map[string]string{headerContentType: contentTypeJSON}
	if model != "" {
		headers[headerModel] = model
	}

	resp, err := c.do(ctx, http.MethodPost, apiTTS, nil, bytes.NewReader(body), headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	return audioData, nil
}

// Transcribe uploads audio to the ASR endpoint and returns the decoded JSON
// response.
func (c *Client) Transcribe(ctx context.Context, req ASRRequest) (map[string]any, error) {
	if len(req.Audio.Data) == 0 {
		return nil, ErrAudioEmpty
	}

	form := NewForm()
	form.AddFile("audio", req.Audio)
	form.AddField("language", req.Language)

	if req.IgnoreTimestamps {
		form.AddField("ignore_timestamps", "true")
	}

	var result map[string]any

	err := c.doMultipart(ctx, http.MethodPost, apiASR, form, &result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// GetCredits returns the account API credit balance.
func (c *Client) GetCredits(ctx context.Context) (map[string]any, error) {
	var result map[string]any

	err := c.doJSON(ctx, http.MethodGet, apiCredits, nil, &result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ListModels fetches one page of voice models.
func (c *Client) ListModels(ctx context.Context, query PageQuery) (*ModelPage, error) {
	var page ModelPage

	err := c.doJSON(ctx, http.MethodGet, apiModel, query.Values(), &page)
	if err != nil {
		return nil, err
	}

	return &page, nil
}

// GetModel fetches a single voice model.
func (c *Client) GetModel(ctx context.Context, id string) (map[string]any, error) {
	if id == "" {
		return nil, ErrModelIDEmpty
	}

	var result map[string]any

	err := c.doJSON(ctx, http.MethodGet, apiModel+"/"+url.PathEscape(id), nil, &result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// DeleteModel deletes a voice model.
func (c *Client) DeleteModel(ctx context.Context, id string) error {
	if id == "" {
		return ErrModelIDEmpty
	}

	resp, err := c.do(ctx, http.MethodDelete, apiModel+"/"+url.PathEscape(id), nil, http.NoBody, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

// CreateModel uploads voice samples and creates a new voice model.
func (c *Client) CreateModel(ctx context.Context, req CreateModelRequest) (map[string]any, error) {
	if req.Title == "" {
		return nil, ErrTitleEmpty
	}

	if len(req.Voices) == 0 {
		return nil, ErrNoVoiceSamples
	}

	form := NewForm()
	form.AddField("title", req.Title)
	form.AddField("description", req.Description)
	form.AddField("visibility", req.Visibility)
	form.AddList("tags", req.Tags)

	for _, voice := range req.Voices {
		form.AddFile("voices", voice)
	}

	if req.CoverImage != nil {
		form.AddFile("cover_image", *req.CoverImage)
	}

	var result map[string]any

	err := c.doMultipart(ctx, http.MethodPost, apiModel, form, &result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

// CheckCredentials verifies the API key by requesting the credit balance.
func (c *Client) CheckCredentials(ctx context.Context) error {
	_, err := c.GetCredits(ctx)
	if err != nil {
		return fmt.Errorf("credential check failed for %s: %w", c.baseURL, err)
	}

	return nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, query url.Values, dest any) error {
	resp, err := c.do(ctx, method, endpoint, query, http.NoBody, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeJSON(resp.Body, dest)
}

func (c *Client) doMultipart(ctx context.Context, method, endpoint string, form *Form, dest any) error {
	body, contentType, err := form.Encode()
	if err != nil {
		return err
	}

	headers := map[string]string{headerContentType: contentType}

	resp, err := c.do(ctx, method, endpoint, nil, body, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeJSON(resp.Body, dest)
}

// do sends one request and returns the response when the status is 2xx.
// The caller owns the response body.
func (c *Client) do(
	ctx context.Context,
	method, endpoint string,
	query url.Values,
	body io.Reader,
	headers map[string]string,
) (*http.Response, error) {
	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerAccept, contentTypeJSON)

	if c.apiKey != "" {
		httpReq.Header.Set(headerAuthorization, "Bearer "+c.apiKey)
	}

	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to %s %s: %w", method, endpoint, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()

		return nil, parseErrorResponse(resp)
	}

	return resp, nil
}

// parseErrorResponse decodes a structured error from the service, falling
// back to the raw body so diagnostic information is preserved.
func parseErrorResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Message:    strings.TrimSpace(string(raw)),
	}

	var errorBody apiErrorBody

	if json.Unmarshal(raw, &errorBody) == nil {
		switch detail := errorBody.Detail.(type) {
		case string:
			if detail != "" {
				apiErr.Message = detail
			}
		case nil:
			if errorBody.Message != "" {
				apiErr.Message = errorBody.Message
			}
		default:
			encoded, marshalErr := json.Marshal(detail)
			if marshalErr == nil {
				apiErr.Message = string(encoded)
			}
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}

	return apiErr
}

func decodeJSON(body io.Reader, dest any) error {
	if dest == nil {
		return nil
	}

	err := json.NewDecoder(body).Decode(dest)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
