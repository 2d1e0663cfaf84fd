package loadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/highscore/internal/domain/model"
)

// client talks to the highscore HTTP API.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type saveBody struct {
	Name   string `json:"name"`
	Score  int64  `json:"score"`
	Secret string `json:"secret,omitempty"`
}

type saveResult struct {
	Accepted bool `json:"accepted"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// save posts one submission and reports whether it was kept.
func (c *client) save(ctx context.Context, table string, sub model.Submission) (bool, error) {
	payload, err := json.Marshal(saveBody{Name: sub.Name, Score: sub.Score, Secret: sub.Token})
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/highscore/save/"+url.PathEscape(table), bytes.NewReader(payload))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	var out saveResult
	if err := c.do(req, &out); err != nil {
		return false, err
	}
	return out.Accepted, nil
}

// table fetches the ranked entries of table.
func (c *client) table(ctx context.Context, table string) ([]model.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/highscore/"+url.PathEscape(table), http.NoBody)
	if err != nil {
		return nil, err
	}
	var out model.Table
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Entries, nil
}

func (c *client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e errorBody
		if json.Unmarshal(body, &e) == nil && e.Code != "" {
			return fmt.Errorf("%s %s: %d %s: %s", req.Method, req.URL.Path, resp.StatusCode, e.Code, e.Message)
		}
		return fmt.Errorf("%s %s: %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
