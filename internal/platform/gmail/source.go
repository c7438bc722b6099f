// Package gmail implements the mail.Source boundary against the Gmail REST
// API. It reads a previously granted access token from the credential store;
// acquiring and refreshing that token is owned by the external OAuth flow.
package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"startask/internal/domain"
	"startask/internal/mail"
	"startask/internal/platform/logger"
	"startask/internal/store"
)

// DefaultBaseURL is the Gmail REST API base.
const DefaultBaseURL = "https://gmail.googleapis.com/gmail/v1"

// CredentialName is the credential-store row the source reads its access
// token from.
const CredentialName = "mail_oauth"

// starredQuery selects the items the pipeline processes.
const starredQuery = "is:starred"

const defaultTimeout = 30 * time.Second

// ErrRequestFailed indicates a Gmail API call failed for a reason other
// than authentication.
var ErrRequestFailed = errors.New("gmail request failed")

// credential is the stored payload written by the external OAuth flow.
type credential struct {
	AccessToken string `json:"access_token"`
	ReauthURL   string `json:"reauth_url"`
}

// Source fetches starred messages and applies the handled side effects.
type Source struct {
	httpClient       *http.Client
	baseURL          string
	credentials      store.StateStore
	reauthURL        string
	processedLabelID string
	logger           *slog.Logger
}

var _ mail.Source = (*Source)(nil)

// Option customizes the Source.
type Option func(*Source)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Source) {
		s.httpClient = client
	}
}

// WithBaseURL overrides the API base URL, mainly for tests.
func WithBaseURL(base string) Option {
	return func(s *Source) {
		s.baseURL = base
	}
}

// NewSource creates a Gmail-backed mail source. reauthURL is where the
// operator is sent when the stored credential is missing or rejected;
// processedLabelID may be empty, in which case handled items are only
// unstarred.
func NewSource(
	credentials store.StateStore,
	reauthURL string,
	processedLabelID string,
	log *slog.Logger,
	opts ...Option,
) (*Source, error) {
	if credentials == nil {
		return nil, errors.New("credential store cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Source{
		httpClient:       &http.Client{Timeout: defaultTimeout},
		baseURL:          DefaultBaseURL,
		credentials:      credentials,
		reauthURL:        reauthURL,
		processedLabelID: processedLabelID,
		logger:           log.With(slog.String("component", "gmail_source")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// messageRef is one entry of a message list response.
type messageRef struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

type listResponse struct {
	Messages []messageRef `json:"messages"`
}

// messagePart mirrors the Gmail payload tree.
type messagePart struct {
	MimeType string `json:"mimeType"`
	Headers  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"headers"`
	Body struct {
		Data string `json:"data"`
	} `json:"body"`
	Parts []*messagePart `json:"parts"`
}

type messageResponse struct {
	ID       string       `json:"id"`
	ThreadID string       `json:"threadId"`
	Payload  *messagePart `json:"payload"`
}

// FetchStarred returns up to maxResults starred items in source order.
func (s *Source) FetchStarred(ctx context.Context, maxResults int) ([]domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	token, err := s.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("q", starredQuery)
	query.Set("maxResults", strconv.Itoa(maxResults))

	var list listResponse
	if err := s.get(ctx, token, "/users/me/messages?"+query.Encode(), &list); err != nil {
		return nil, err
	}

	items := make([]domain.Item, 0, len(list.Messages))
	for _, ref := range list.Messages {
		var msg messageResponse
		if err := s.get(ctx, token, "/users/me/messages/"+url.PathEscape(ref.ID)+"?format=full", &msg); err != nil {
			return nil, fmt.Errorf("fetch message %s: %w", ref.ID, err)
		}
		items = append(items, itemFromMessage(&msg))
	}

	log.Debug("fetched starred messages", slog.Int("count", len(items)))
	return items, nil
}

// MarkHandled removes the star and, when a processed label is configured,
// applies it. The caller treats failures as best-effort.
func (s *Source) MarkHandled(ctx context.Context, itemID string) error {
	token, err := s.accessToken(ctx)
	if err != nil {
		return err
	}

	body := struct {
		AddLabelIDs    []string `json:"addLabelIds,omitempty"`
		RemoveLabelIDs []string `json:"removeLabelIds"`
	}{
		RemoveLabelIDs: []string{"STARRED"},
	}
	if s.processedLabelID != "" {
		body.AddLabelIDs = []string{s.processedLabelID}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: marshal modify request: %v", ErrRequestFailed, err)
	}

	path := "/users/me/messages/" + url.PathEscape(itemID) + "/modify"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return s.checkStatus(resp)
}

// accessToken reads the stored OAuth credential. A missing row means the
// operator has never authorized the source.
func (s *Source) accessToken(ctx context.Context) (string, error) {
	raw, err := s.credentials.Credential(ctx, CredentialName)
	if err != nil {
		if errors.Is(err, store.ErrCredentialNotFound) {
			return "", &mail.AuthRequiredError{ReauthURL: s.reauthURL}
		}
		return "", fmt.Errorf("%w: read credential: %v", ErrRequestFailed, err)
	}

	var cred credential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil || cred.AccessToken == "" {
		return "", &mail.AuthRequiredError{ReauthURL: s.reauthOrDefault(cred.ReauthURL)}
	}
	return cred.AccessToken, nil
}

func (s *Source) reauthOrDefault(fromCredential string) string {
	if fromCredential != "" {
		return fromCredential
	}
	return s.reauthURL
}

// get issues an authenticated GET and decodes the JSON response.
func (s *Source) get(ctx context.Context, token, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := s.checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrRequestFailed, err)
	}
	return nil
}

// checkStatus maps a rejected token to the auth-required signal so the
// scheduler surfaces the reauth URL instead of a generic error record.
func (s *Source) checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &mail.AuthRequiredError{ReauthURL: s.reauthURL}
	}

	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, excerpt)
}

// itemFromMessage flattens a Gmail message into the pipeline's item shape.
func itemFromMessage(msg *messageResponse) domain.Item {
	item := domain.Item{
		ID:         msg.ID,
		ThreadRef:  msg.ThreadID,
		SourceLink: "https://mail.google.com/mail/u/0/#inbox/" + msg.ThreadID,
	}
	if msg.Payload == nil {
		return item
	}

	for _, header := range msg.Payload.Headers {
		switch header.Name {
		case "From":
			item.Sender = header.Value
		case "Subject":
			item.Subject = header.Value
		}
	}

	if body, ok := mail.FindTextBody(partTree(msg.Payload)); ok {
		item.Body = body
	}
	return item
}

// partTree converts the wire payload into the part tree searched by
// mail.FindTextBody, decoding each leaf's base64url content.
func partTree(p *messagePart) *mail.Part {
	if p == nil {
		return nil
	}

	part := &mail.Part{MIMEType: p.MimeType}
	if p.Body.Data != "" {
		if decoded, err := decodeBody(p.Body.Data); err == nil {
			part.Content = decoded
		}
	}
	for _, child := range p.Parts {
		part.Children = append(part.Children, partTree(child))
	}
	return part
}

// decodeBody handles both padded and unpadded base64url payloads; the API
// serves unpadded but stored fixtures are often padded.
func decodeBody(data string) (string, error) {
	if decoded, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(decoded), nil
	}
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
