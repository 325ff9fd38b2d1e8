// Package backend is the client for the scan backend's job and result endpoints.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	rverrors "reconview/pkg/errors"
	"reconview/pkg/logger"
	"reconview/pkg/results"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"

	envelopeSuccess = "success"
	maxBodyBytes    = 32 << 20
)

// ScanStatus is the data of a successful status poll.
type ScanStatus struct {
	ScanStatus string `json:"scan_status"`
	Progress   int    `json:"progress"`
	StartTime  string `json:"start_time,omitempty"`
	EndTime    string `json:"end_time,omitempty"`
}

// Client talks to the backend over HTTP.
type Client interface {
	StartScan(ctx context.Context, target string, tools []string) (string, error)
	GetStatus(ctx context.Context, scanID string) (ScanStatus, error)
	GetResults(ctx context.Context, scanID string) ([]results.Record, error)
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	ScanID  string          `json:"scan_id"`
	Data    json.RawMessage `json:"data"`
}

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	HTTP      *http.Client
	Logger    *logger.Logger
}

type httpClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    *logger.Logger
}

func NewClient(opts Options) Client {
	hc := opts.HTTP
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "reconview"
	}
	return &httpClient{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		userAgent: ua,
		http:      hc,
		logger:    log,
	}
}

func (c *httpClient) StartScan(ctx context.Context, target string, tools []string) (string, error) {
	form := url.Values{}
	form.Set("target", target)
	for _, t := range tools {
		form.Add("tools", t)
	}

	var env envelope
	err := c.logger.LogRequest("start_scan", func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/start_scan", strings.NewReader(form.Encode()))
		if err != nil {
			return rverrors.NewTransportError("start_scan", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		env, err = c.do(req, "start_scan")
		return err
	})
	if err != nil {
		return "", err
	}
	if env.ScanID == "" {
		return "", rverrors.NewBackendError("start_scan", "backend did not return a scan id", http.StatusOK)
	}
	return env.ScanID, nil
}

func (c *httpClient) GetStatus(ctx context.Context, scanID string) (ScanStatus, error) {
	var status ScanStatus
	err := c.logger.LogRequest("scan_status", func() error {
		env, err := c.get(ctx, "/scan_status/"+url.PathEscape(scanID), "scan_status")
		if err != nil {
			return err
		}
		if err := json.Unmarshal(env.Data, &status); err != nil {
			return rverrors.NewTransportError("scan_status", fmt.Errorf("decode status data: %w", err))
		}
		return nil
	})
	return status, err
}

func (c *httpClient) GetResults(ctx context.Context, scanID string) ([]results.Record, error) {
	var records []results.Record
	err := c.logger.LogRequest("get_results", func() error {
		env, err := c.get(ctx, "/get_results/"+url.PathEscape(scanID), "get_results")
		if err != nil {
			return err
		}
		if err := json.Unmarshal(env.Data, &records); err != nil {
			return rverrors.NewTransportError("get_results", fmt.Errorf("decode result records: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []results.Record{}
	}
	return records, nil
}

func (c *httpClient) get(ctx context.Context, path, op string) (envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return envelope{}, rverrors.NewTransportError(op, err)
	}
	return c.do(req, op)
}

// do sends req and unwraps the {status, message, ...} envelope. Unreadable
// responses are transport errors; readable non-success envelopes are backend
// errors carrying the backend's message.
func (c *httpClient) do(req *http.Request, op string) (envelope, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, rverrors.NewTransportError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return envelope{}, rverrors.NewTransportError(op, fmt.Errorf("read body: %w", err))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return envelope{}, rverrors.NewTransportError(op, fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err))
	}
	if env.Status != envelopeSuccess {
		return envelope{}, rverrors.NewBackendError(op, env.Message, resp.StatusCode)
	}
	return env, nil
}
