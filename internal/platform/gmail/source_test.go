package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"startask/internal/mail"
	"startask/internal/store"
)

// fakeCredentials implements store.StateStore; only Credential is exercised.
type fakeCredentials struct {
	payload string
	err     error
}

var _ store.StateStore = (*fakeCredentials)(nil)

func (f *fakeCredentials) Running(ctx context.Context) (bool, error)        { return false, nil }
func (f *fakeCredentials) SetRunning(ctx context.Context, r bool) error     { return nil }
func (f *fakeCredentials) LastRunAt(ctx context.Context) (time.Time, error) { return time.Time{}, nil }
func (f *fakeCredentials) SetLastRunAt(ctx context.Context, t time.Time) error {
	return nil
}
func (f *fakeCredentials) RequestTrigger(ctx context.Context) error { return nil }
func (f *fakeCredentials) ConsumeTrigger(ctx context.Context) (bool, error) {
	return false, nil
}
func (f *fakeCredentials) Credential(ctx context.Context, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.payload, nil
}

func encode(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func validCredential() *fakeCredentials {
	return &fakeCredentials{payload: `{"access_token":"tok-123"}`}
}

func newTestSource(t *testing.T, creds *fakeCredentials, handler http.HandlerFunc) *Source {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	source, err := NewSource(creds, "https://startask.example.com/oauth", "Label_Processed", nil,
		WithBaseURL(server.URL),
		WithHTTPClient(server.Client()))
	require.NoError(t, err)
	return source
}

func TestSource_FetchStarred(t *testing.T) {
	t.Parallel()

	t.Run("fetches and flattens starred messages", func(t *testing.T) {
		t.Parallel()

		handler := func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

			switch r.URL.Path {
			case "/users/me/messages":
				assert.Equal(t, "is:starred", r.URL.Query().Get("q"))
				assert.Equal(t, "25", r.URL.Query().Get("maxResults"))
				_ = json.NewEncoder(w).Encode(map[string]any{
					"messages": []map[string]string{{"id": "m1", "threadId": "t1"}},
				})
			case "/users/me/messages/m1":
				assert.Equal(t, "full", r.URL.Query().Get("format"))
				_ = json.NewEncoder(w).Encode(map[string]any{
					"id":       "m1",
					"threadId": "t1",
					"payload": map[string]any{
						"mimeType": "multipart/alternative",
						"headers": []map[string]string{
							{"name": "From", "value": "alice@example.com"},
							{"name": "Subject", "value": "Renew passport"},
						},
						"parts": []map[string]any{
							{"mimeType": "text/html", "body": map[string]string{"data": encode("<p>hi</p>")}},
							{"mimeType": "text/plain", "body": map[string]string{"data": encode("Expires in 3 weeks")}},
						},
					},
				})
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}

		source := newTestSource(t, validCredential(), handler)
		items, err := source.FetchStarred(context.Background(), 25)
		require.NoError(t, err)

		require.Len(t, items, 1)
		assert.Equal(t, "m1", items[0].ID)
		assert.Equal(t, "t1", items[0].ThreadRef)
		assert.Equal(t, "alice@example.com", items[0].Sender)
		assert.Equal(t, "Renew passport", items[0].Subject)
		assert.Equal(t, "Expires in 3 weeks", items[0].Body)
		assert.Equal(t, "https://mail.google.com/mail/u/0/#inbox/t1", items[0].SourceLink)
	})

	t.Run("missing credential requires reauthentication", func(t *testing.T) {
		t.Parallel()

		source := newTestSource(t,
			&fakeCredentials{err: store.ErrCredentialNotFound},
			func(w http.ResponseWriter, r *http.Request) {
				t.Error("no API call expected without a credential")
			})

		_, err := source.FetchStarred(context.Background(), 10)

		var authErr *mail.AuthRequiredError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, "https://startask.example.com/oauth", authErr.ReauthURL)
	})

	t.Run("rejected token requires reauthentication", func(t *testing.T) {
		t.Parallel()

		source := newTestSource(t, validCredential(),
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			})

		_, err := source.FetchStarred(context.Background(), 10)

		var authErr *mail.AuthRequiredError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("malformed credential payload requires reauthentication", func(t *testing.T) {
		t.Parallel()

		source := newTestSource(t,
			&fakeCredentials{payload: "not-json"},
			func(w http.ResponseWriter, r *http.Request) {
				t.Error("no API call expected without a usable token")
			})

		_, err := source.FetchStarred(context.Background(), 10)

		var authErr *mail.AuthRequiredError
		require.ErrorAs(t, err, &authErr)
	})

	t.Run("server errors are request failures", func(t *testing.T) {
		t.Parallel()

		source := newTestSource(t, validCredential(),
			func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			})

		_, err := source.FetchStarred(context.Background(), 10)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrRequestFailed)
	})
}

func TestSource_MarkHandled(t *testing.T) {
	t.Parallel()

	t.Run("unstars and labels the message", func(t *testing.T) {
		t.Parallel()

		var captured map[string][]string
		source := newTestSource(t, validCredential(),
			func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/users/me/messages/m1/modify", r.URL.Path)
				require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
				_ = json.NewEncoder(w).Encode(map[string]string{"id": "m1"})
			})

		require.NoError(t, source.MarkHandled(context.Background(), "m1"))
		assert.Equal(t, []string{"STARRED"}, captured["removeLabelIds"])
		assert.Equal(t, []string{"Label_Processed"}, captured["addLabelIds"])
	})

	t.Run("omits label when none configured", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var captured map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			assert.NotContains(t, captured, "addLabelIds")
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "m1"})
		}))
		t.Cleanup(server.Close)

		source, err := NewSource(validCredential(), "https://startask.example.com/oauth", "", nil,
			WithBaseURL(server.URL), WithHTTPClient(server.Client()))
		require.NoError(t, err)

		require.NoError(t, source.MarkHandled(context.Background(), "m1"))
	})
}

func TestNewSource_RequiresCredentialStore(t *testing.T) {
	t.Parallel()

	_, err := NewSource(nil, "", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credential store")
}
