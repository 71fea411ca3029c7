package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/boddenberg/bepit-bfa-go/internal/domain"
)

// ============================================================
// HTTP helpers for POST, PATCH, DELETE, RPC and counts
// ============================================================

func (c *Client) doPost(ctx context.Context, table string, data map[string]any) ([]byte, error) {
	return c.doWrite(ctx, http.MethodPost, table, data, "return=representation")
}

// doUpsert inserts or merges on the primary key.
func (c *Client) doUpsert(ctx context.Context, table string, data map[string]any) ([]byte, error) {
	return c.doWrite(ctx, http.MethodPost, table+"?on_conflict=id", data,
		"resolution=merge-duplicates,return=representation")
}

// doPatch updates the rows matched by path and returns them.
func (c *Client) doPatch(ctx context.Context, path string, data map[string]any) ([]byte, error) {
	return c.doWrite(ctx, http.MethodPatch, path, data, "return=representation")
}

// doRPC calls a Postgres function exposed under /rest/v1/rpc.
func (c *Client) doRPC(ctx context.Context, fn string, args map[string]any) ([]byte, error) {
	return c.doWrite(ctx, http.MethodPost, "rpc/"+fn, args, "")
}

func (c *Client) doWrite(ctx context.Context, method, path string, data any, prefer string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	jsonBody, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, prefer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: write request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusConflict {
		return nil, &domain.ErrConflict{Message: fmt.Sprintf("%s: %s", path, string(body))}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if derr := postgrestError(body); derr != nil {
			return nil, derr
		}
		c.logger.Warn("supabase: write non-2xx",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("supabase %s %s returned %d: %s", method, path, resp.StatusCode, string(body))
	}

	c.logger.Debug("supabase: write OK",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)
	return body, nil
}

func (c *Client) doDelete(ctx context.Context, path string) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	c.setHeaders(req, "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: DELETE request failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := readBody(resp)
		c.logger.Warn("supabase: DELETE non-2xx",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return fmt.Errorf("supabase DELETE returned %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("supabase: DELETE OK", zap.String("path", path))
	return nil
}

// doCount asks PostgREST for an exact count and reads it from Content-Range
// ("0-0/42" or "*/0").
func (c *Client) doCount(ctx context.Context, path string) (int64, error) {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, endpoint, nil)
	if err != nil {
		return 0, err
	}
	c.setHeaders(req, "count=exact")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: count request failed", zap.String("path", path), zap.Error(err))
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("supabase count %s returned %d", path, resp.StatusCode)
	}
	return parseContentRange(resp.Header.Get("Content-Range"))
}

func parseContentRange(h string) (int64, error) {
	idx := strings.LastIndex(h, "/")
	if idx < 0 || idx == len(h)-1 {
		return 0, fmt.Errorf("invalid content-range %q", h)
	}
	total := h[idx+1:]
	if total == "*" {
		return 0, fmt.Errorf("content-range without total: %q", h)
	}
	return strconv.ParseInt(total, 10, 64)
}

func readBody(resp *http.Response) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ============================================================
// PostgREST filter helpers
// ============================================================

// literal quotes a value for use inside PostgREST in.(...), or=(...) and
// array literals, then URL-escapes it.
func literal(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return url.QueryEscape(`"` + v + `"`)
}

// wildcard builds the value of an ilike filter: *term*. Characters that
// PostgREST reserves in logic trees are stripped; ok is false when nothing
// is left, since "**" would match every row.
func wildcard(term string) (string, bool) {
	term = strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case ',', '(', ')', '*', '"', '\\', '.', ':':
			return -1
		}
		return r
	}, term))
	if term == "" {
		return "", false
	}
	return url.QueryEscape("*" + term + "*"), true
}

func inList(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = literal(id)
	}
	return "in.(" + strings.Join(quoted, ",") + ")"
}

// postgrestError maps the Postgres error code PostgREST echoes in a failed
// response body to a domain error. Returns nil for anything else.
func postgrestError(body []byte) error {
	var pe struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &pe); err != nil {
		return nil
	}
	switch pe.Code {
	case "22P02":
		return &domain.ErrValidation{Field: "id", Message: "invalid identifier"}
	case "23503":
		return &domain.ErrValidation{Field: "reference", Message: "referenced row does not exist"}
	case "23505":
		return &domain.ErrConflict{Message: pe.Message}
	}
	return nil
}

func isDomainError(err error) bool {
	var nf *domain.ErrNotFound
	var val *domain.ErrValidation
	var conflict *domain.ErrConflict
	return errors.As(err, &nf) || errors.As(err, &val) || errors.As(err, &conflict)
}

func isEmpty(body []byte) bool {
	t := bytes.TrimSpace(body)
	return len(t) == 0 || string(t) == "[]" || string(t) == "null"
}
