package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Sepehrmasihpour/seshat-backend/internal/domain"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/errors"
	"github.com/Sepehrmasihpour/seshat-backend/pkg/logger"
)

// Client talks to the Telegram Bot API. Every call decodes the vendor's
// {ok, result|description} envelope and surfaces a non-ok response as an
// external error carrying the vendor's description text.
type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// New creates a Telegram Bot API client. baseURL is normally
// https://api.telegram.org and is injectable for tests.
func New(token, baseURL string, log *logger.Logger) *Client {
	return &Client{
		token:      token,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 90 * time.Second},
		logger:     log,
	}
}

// envelope is the shape every Bot API method responds with
type envelope struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// Message is the subset of a Telegram message the backend cares about
type Message struct {
	MessageID int   `json:"message_id"`
	Poll      *Poll `json:"poll,omitempty"`
}

// Poll is a Telegram poll with its option tallies
type Poll struct {
	ID              string       `json:"id"`
	Question        string       `json:"question"`
	Options         []PollOption `json:"options"`
	TotalVoterCount int          `json:"total_voter_count"`
	IsClosed        bool         `json:"is_closed"`
}

// PollOption is one poll answer with its tally
type PollOption struct {
	Text       string `json:"text"`
	VoterCount int    `json:"voter_count"`
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
}

// call posts form values to a Bot API method and decodes the envelope into out
func (c *Client) call(ctx context.Context, method string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), strings.NewReader(params.Encode()))
	if err != nil {
		return errors.NewInternalError("failed to build Telegram request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("method", method).Error("Telegram request failed")
		return errors.NewExternalError("Telegram request failed", err)
	}
	defer resp.Body.Close()

	return c.decode(method, resp.Body, out)
}

// callMultipart posts a multipart body to a Bot API method
func (c *Client) callMultipart(ctx context.Context, method string, body *bytes.Buffer, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL(method), body)
	if err != nil {
		return errors.NewInternalError("failed to build Telegram request", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("method", method).Error("Telegram request failed")
		return errors.NewExternalError("Telegram request failed", err)
	}
	defer resp.Body.Close()

	return c.decode(method, resp.Body, out)
}

func (c *Client) decode(method string, body io.Reader, out interface{}) error {
	var env envelope
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		return errors.NewExternalError("failed to decode Telegram response", err)
	}

	if !env.OK {
		desc := env.Description
		if desc == "" {
			desc = "unknown error occurred"
		}
		c.logger.WithFields(map[string]interface{}{
			"method":      method,
			"description": desc,
		}).Warn("Telegram API returned an error")
		return errors.NewExternalError(desc, nil)
	}

	if out != nil && len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return errors.NewExternalError("failed to decode Telegram result", err)
		}
	}
	return nil
}

// sendMethod maps a media kind to its Bot API method and payload field
func sendMethod(kind domain.MediaKind) (method, field string) {
	if kind == domain.MediaText {
		return "sendMessage", "text"
	}
	k := string(kind)
	return "send" + strings.ToUpper(k[:1]) + k[1:], k
}

// SendMedia sends text, or media referenced by URL / Telegram file_id, to a chat
func (c *Client) SendMedia(ctx context.Context, kind domain.MediaKind, chatID, payload, caption string) (*Message, error) {
	method, field := sendMethod(kind)

	params := url.Values{}
	params.Set("chat_id", chatID)
	params.Set(field, payload)
	if caption != "" && kind != domain.MediaText {
		params.Set("caption", caption)
	}

	var msg Message
	if err := c.call(ctx, method, params, &msg); err != nil {
		return nil, err
	}

	c.logger.WithFields(map[string]interface{}{
		"method":  method,
		"chat_id": chatID,
	}).Debug("Sent media via bot")
	return &msg, nil
}

// SendMediaUpload sends an uploaded file to a chat as multipart form data
func (c *Client) SendMediaUpload(ctx context.Context, kind domain.MediaKind, chatID, filename string, media io.Reader, caption string) (*Message, error) {
	method, field := sendMethod(kind)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("chat_id", chatID); err != nil {
		return nil, errors.NewInternalError("failed to build multipart body", err)
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return nil, errors.NewInternalError("failed to build multipart body", err)
		}
	}
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return nil, errors.NewInternalError("failed to build multipart body", err)
	}
	if _, err := io.Copy(part, media); err != nil {
		return nil, errors.NewInternalError("failed to read media upload", err)
	}
	if err := w.Close(); err != nil {
		return nil, errors.NewInternalError("failed to build multipart body", err)
	}

	var msg Message
	if err := c.callMultipart(ctx, method, &buf, w.FormDataContentType(), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetFile resolves a file_id to a download path on Telegram's file server
func (c *Client) GetFile(ctx context.Context, fileID string) (string, error) {
	params := url.Values{}
	params.Set("file_id", fileID)

	var result struct {
		FileID   string `json:"file_id"`
		FilePath string `json:"file_path"`
	}
	if err := c.call(ctx, "getFile", params, &result); err != nil {
		return "", err
	}
	if result.FilePath == "" {
		return "", errors.NewExternalError("Telegram returned no file path", nil)
	}
	return result.FilePath, nil
}

// DownloadFile fetches the raw bytes behind a previously resolved file path
func (c *Client) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	fileURL := fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, filePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, errors.NewInternalError("failed to build file download request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewExternalError("file download failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewExternalError(fmt.Sprintf("file download failed with status %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewExternalError("file download failed", err)
	}
	return data, nil
}

// SetChatPhoto uploads new photo bytes as the chat's photo
func (c *Client) SetChatPhoto(ctx context.Context, chatID string, photo []byte) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("chat_id", chatID); err != nil {
		return errors.NewInternalError("failed to build multipart body", err)
	}
	part, err := w.CreateFormFile("photo", "photo.jpg")
	if err != nil {
		return errors.NewInternalError("failed to build multipart body", err)
	}
	if _, err := part.Write(photo); err != nil {
		return errors.NewInternalError("failed to build multipart body", err)
	}
	if err := w.Close(); err != nil {
		return errors.NewInternalError("failed to build multipart body", err)
	}

	return c.callMultipart(ctx, "setChatPhoto", &buf, w.FormDataContentType(), nil)
}

// SendPoll posts a poll and returns the message carrying it
func (c *Client) SendPoll(ctx context.Context, chatID, question string, options []string, anonymous bool) (*Message, error) {
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return nil, errors.NewInternalError("failed to encode poll options", err)
	}

	params := url.Values{}
	params.Set("chat_id", chatID)
	params.Set("question", question)
	params.Set("options", string(optionsJSON))
	params.Set("is_anonymous", fmt.Sprintf("%t", anonymous))

	var msg Message
	if err := c.call(ctx, "sendPoll", params, &msg); err != nil {
		return nil, err
	}
	if msg.Poll == nil {
		return nil, errors.NewExternalError("Telegram returned no poll", nil)
	}
	return &msg, nil
}

// StopPoll closes a poll and returns its final tallies
func (c *Client) StopPoll(ctx context.Context, chatID string, messageID int) (*Poll, error) {
	params := url.Values{}
	params.Set("chat_id", chatID)
	params.Set("message_id", fmt.Sprintf("%d", messageID))

	var poll Poll
	if err := c.call(ctx, "stopPoll", params, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

// GetUpdates fetches raw bot updates; the result is passed through unparsed
func (c *Client) GetUpdates(ctx context.Context, offset, timeout int, allowedUpdates []string) (json.RawMessage, error) {
	params := url.Values{}
	if offset != 0 {
		params.Set("offset", fmt.Sprintf("%d", offset))
	}
	if timeout > 0 {
		params.Set("timeout", fmt.Sprintf("%d", timeout))
	}
	if len(allowedUpdates) > 0 {
		allowedJSON, err := json.Marshal(allowedUpdates)
		if err != nil {
			return nil, errors.NewInternalError("failed to encode allowed updates", err)
		}
		params.Set("allowed_updates", string(allowedJSON))
	}

	var result json.RawMessage
	if err := c.call(ctx, "getUpdates", params, &result); err != nil {
		return nil, err
	}
	return result, nil
}
