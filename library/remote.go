package library

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	vitrine "github.com/atlas-moltbot/vitrine-de-imagens"
)

// RemoteStore talks to the library endpoint over HTTP:
// GET lists, POST upserts, DELETE ?id= removes.
type RemoteStore struct {
	endpoint string
	client   *http.Client
}

// NewRemoteStore creates a store for the endpoint URL. client may be nil.
func NewRemoteStore(endpoint string, client *http.Client) *RemoteStore {
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteStore{endpoint: endpoint, client: client}
}

// RemoteError is a non-2xx answer from the library endpoint.
type RemoteError struct {
	Op      string
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("library %s: HTTP %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("library %s: HTTP %d", e.Op, e.Status)
}

// StatusCode returns the HTTP status code.
func (e *RemoteError) StatusCode() int { return e.Status }

// List fetches all items, newest first.
func (s *RemoteStore) List(ctx context.Context) ([]vitrine.LibraryItem, error) {
	var items []vitrine.LibraryItem
	if err := s.do(ctx, "list", http.MethodGet, s.endpoint, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Save upserts item.
func (s *RemoteStore) Save(ctx context.Context, item vitrine.LibraryItem) error {
	if item.ID == "" {
		return ErrInvalidItem
	}
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("library save: %w", err)
	}
	return s.do(ctx, "save", http.MethodPost, s.endpoint, body, nil)
}

// Delete removes the item with id.
func (s *RemoteStore) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidItem
	}
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return fmt.Errorf("library delete: %w", err)
	}
	q := u.Query()
	q.Set("id", id)
	u.RawQuery = q.Encode()
	return s.do(ctx, "delete", http.MethodDelete, u.String(), nil, nil)
}

func (s *RemoteStore) do(ctx context.Context, op, method, target string, body []byte, out any) error {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, r)
	if err != nil {
		return fmt.Errorf("library %s: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("library %s: %w", op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("library %s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		_ = json.Unmarshal(data, &e)
		msg := e.Error
		if e.Details != "" {
			msg += " (" + e.Details + ")"
		}
		return &RemoteError{Op: op, Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("library %s: decode: %w", op, err)
	}
	return nil
}
