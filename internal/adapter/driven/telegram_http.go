package driven

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mlhkhariom/streamgate/internal/storedfile"
)

// TelegramHTTPAdapter implements the BlobStore port using HTTP calls to the
// Telegram Bot API. Uploaded files are posted as documents to a dedicated
// chat; the returned file_id is the retrieval key and the message_id is kept
// for deletion. Retrieval is two round trips (getFile resolves the file_id
// to a short-lived path, then the path is downloaded), hidden behind
// FetchByHandle.
type TelegramHTTPAdapter struct {
	baseURL    string
	token      string
	chatID     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewTelegramHTTPAdapter creates a new HTTP adapter for the Telegram Bot API.
// baseURL should point to the API root (e.g., https://api.telegram.org).
// An empty token or chat id leaves the adapter unconfigured: every call
// fails fast with storedfile.ErrUnconfigured without touching the network.
func NewTelegramHTTPAdapter(baseURL, token, chatID string, logger *slog.Logger) *TelegramHTTPAdapter {
	return &TelegramHTTPAdapter{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		chatID:  chatID,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

func (a *TelegramHTTPAdapter) configured() error {
	if a.token == "" || a.chatID == "" {
		return fmt.Errorf("%w: bot token and chat id are required", storedfile.ErrUnconfigured)
	}
	return nil
}

func (a *TelegramHTTPAdapter) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", a.baseURL, a.token, method)
}

func (a *TelegramHTTPAdapter) fileURL(filePath string) string {
	return fmt.Sprintf("%s/file/bot%s/%s", a.baseURL, a.token, filePath)
}

// apiEnvelope is the common Bot API response wrapper.
type apiEnvelope struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func quoteEscaper() *strings.Replacer {
	return strings.NewReplacer("\\", "\\\\", `"`, `\"`)
}

// Upload posts the bytes as a document to the configured chat and returns
// the handle needed to fetch or delete them later.
func (a *TelegramHTTPAdapter) Upload(ctx context.Context, fileName, mimeType string, data []byte) (storedfile.RemoteHandle, error) {
	if err := a.configured(); err != nil {
		return storedfile.RemoteHandle{}, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("chat_id", a.chatID); err != nil {
		return storedfile.RemoteHandle{}, fmt.Errorf("failed to build upload request: %w", err)
	}

	// CreateFormFile hardcodes application/octet-stream; build the part by
	// hand so the original MIME type survives the round trip.
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="document"; filename="%s"`, quoteEscaper().Replace(fileName)))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	header.Set("Content-Type", mimeType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return storedfile.RemoteHandle{}, fmt.Errorf("failed to build upload request: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return storedfile.RemoteHandle{}, fmt.Errorf("failed to build upload request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return storedfile.RemoteHandle{}, fmt.Errorf("failed to build upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.methodURL("sendDocument"), &body)
	if err != nil {
		return storedfile.RemoteHandle{}, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	a.logger.Debug("uploading document to telegram", "file_name", fileName, "size", len(data))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error("telegram upload failed", "file_name", fileName, "error", err)
		return storedfile.RemoteHandle{}, fmt.Errorf("%w: %v", storedfile.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	envelope, err := decodeEnvelope(resp)
	if err != nil {
		a.logger.Error("telegram upload rejected", "file_name", fileName, "error", err)
		return storedfile.RemoteHandle{}, fmt.Errorf("%w: %v", storedfile.ErrUploadFailed, err)
	}

	var result struct {
		MessageID int64 `json:"message_id"`
		Document  struct {
			FileID string `json:"file_id"`
		} `json:"document"`
	}
	if err := json.Unmarshal(envelope.Result, &result); err != nil {
		return storedfile.RemoteHandle{}, fmt.Errorf("%w: failed to decode upload response: %v", storedfile.ErrUploadFailed, err)
	}
	if result.Document.FileID == "" {
		return storedfile.RemoteHandle{}, fmt.Errorf("%w: api did not return a file id", storedfile.ErrUploadFailed)
	}

	a.logger.Info("document uploaded to telegram", "file_name", fileName, "message_id", result.MessageID)

	return storedfile.RemoteHandle{
		FileID:    result.Document.FileID,
		MessageID: result.MessageID,
	}, nil
}

// FetchByHandle retrieves the bytes stored under the handle: getFile resolves
// the file_id to a download path, then the path is fetched.
func (a *TelegramHTTPAdapter) FetchByHandle(ctx context.Context, h storedfile.RemoteHandle) ([]byte, error) {
	if err := a.configured(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("file_id", h.FileID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.methodURL("getFile")+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create getFile request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error("telegram getFile failed", "file_id", h.FileID, "error", err)
		return nil, fmt.Errorf("%w: %v", storedfile.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	envelope, err := decodeEnvelope(resp)
	if err != nil {
		a.logger.Error("telegram getFile rejected", "file_id", h.FileID, "error", err)
		return nil, fmt.Errorf("%w: %v", storedfile.ErrRemoteUnavailable, err)
	}

	var result struct {
		FilePath string `json:"file_path"`
	}
	if err := json.Unmarshal(envelope.Result, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode getFile response: %v", storedfile.ErrRemoteUnavailable, err)
	}
	if result.FilePath == "" {
		return nil, fmt.Errorf("%w: api did not return a file path", storedfile.ErrRemoteUnavailable)
	}

	dlReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.fileURL(result.FilePath), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	dlResp, err := a.httpClient.Do(dlReq)
	if err != nil {
		a.logger.Error("telegram download failed", "file_id", h.FileID, "error", err)
		return nil, fmt.Errorf("%w: %v", storedfile.ErrRemoteUnavailable, err)
	}
	defer dlResp.Body.Close()

	if dlResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: download returned status %d", storedfile.ErrRemoteUnavailable, dlResp.StatusCode)
	}

	data, err := io.ReadAll(dlResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storedfile.ErrRemoteUnavailable, err)
	}

	return data, nil
}

// Delete removes the remote object by deleting the chat message that
// carries it.
func (a *TelegramHTTPAdapter) Delete(ctx context.Context, h storedfile.RemoteHandle) error {
	if err := a.configured(); err != nil {
		return err
	}

	params := url.Values{}
	params.Set("chat_id", a.chatID)
	params.Set("message_id", strconv.FormatInt(h.MessageID, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.methodURL("deleteMessage")+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create deleteMessage request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Error("telegram deleteMessage failed", "message_id", h.MessageID, "error", err)
		return fmt.Errorf("%w: %v", storedfile.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if _, err := decodeEnvelope(resp); err != nil {
		a.logger.Error("telegram deleteMessage rejected", "message_id", h.MessageID, "error", err)
		return fmt.Errorf("%w: %v", storedfile.ErrRemoteUnavailable, err)
	}

	a.logger.Info("remote document deleted", "message_id", h.MessageID)

	return nil
}

// Ping checks if the Bot API is reachable with the configured credentials.
func (a *TelegramHTTPAdapter) Ping(ctx context.Context) error {
	if err := a.configured(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.methodURL("getMe"), nil)
	if err != nil {
		return fmt.Errorf("failed to create ping request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", storedfile.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	if _, err := decodeEnvelope(resp); err != nil {
		return fmt.Errorf("%w: %v", storedfile.ErrRemoteUnavailable, err)
	}

	return nil
}

// SetHTTPClient allows replacing the default HTTP client.
// Useful for testing with custom transports or timeouts.
func (a *TelegramHTTPAdapter) SetHTTPClient(client *http.Client) {
	a.httpClient = client
}

// decodeEnvelope reads a Bot API response and returns the envelope, turning
// non-2xx statuses and ok=false payloads into errors.
func decodeEnvelope(resp *http.Response) (apiEnvelope, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiEnvelope{}, fmt.Errorf("failed to read response: %v", err)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return apiEnvelope{}, fmt.Errorf("api returned status %d: %s", resp.StatusCode, string(body))
	}

	if resp.StatusCode != http.StatusOK || !envelope.OK {
		desc := envelope.Description
		if desc == "" {
			desc = string(body)
		}
		return apiEnvelope{}, fmt.Errorf("api returned status %d: %s", resp.StatusCode, desc)
	}

	return envelope, nil
}
