package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"financas/internal/ledger"
)

// Client talks to the two cloud blob endpoints: load the last saved
// snapshot for the authenticated caller, and upsert the full snapshot.
// The cloud is opaque from the core's perspective; this client is the only
// piece that knows its wire shape.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type loadResponse struct {
	Data *struct {
		State ledger.Snapshot `json:"state"`
	} `json:"data"`
}

// Load fetches the caller's last saved snapshot. Returns found=false when
// the cloud has none.
func (c *Client) Load(ctx context.Context) (ledger.Snapshot, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/sync/load", nil)
	if err != nil {
		return ledger.Snapshot{}, false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return ledger.Snapshot{}, false, fmt.Errorf("cloud load: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ledger.Snapshot{}, false, fmt.Errorf("cloud load: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotBytes))
	if err != nil {
		return ledger.Snapshot{}, false, fmt.Errorf("cloud load: read body: %w", err)
	}
	var parsed loadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ledger.Snapshot{}, false, fmt.Errorf("cloud load: decode: %w", err)
	}
	if parsed.Data == nil {
		return ledger.Snapshot{}, false, nil
	}
	return parsed.Data.State, true, nil
}

// maxSnapshotBytes caps cloud payloads at the reference 5 MB.
const maxSnapshotBytes = 5 << 20

// Save upserts the full snapshot for the authenticated caller. Idempotent;
// last write wins on conflict.
func (c *Client) Save(ctx context.Context, snap ledger.Snapshot) error {
	payload, err := json.Marshal(map[string]ledger.Snapshot{"state": snap})
	if err != nil {
		return fmt.Errorf("cloud save: encode: %w", err)
	}
	if len(payload) > maxSnapshotBytes {
		return fmt.Errorf("cloud save: payload %d bytes exceeds cap", len(payload))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/sync/save", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cloud save: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("cloud save: unexpected status %d", resp.StatusCode)
	}
	return nil
}
