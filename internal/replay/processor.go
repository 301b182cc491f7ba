package replay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/2beens/formcheck/internal/coach"
	"github.com/2beens/formcheck/internal/engine"
	"github.com/2beens/formcheck/internal/pose"
	"github.com/2beens/formcheck/internal/session"
	"github.com/2beens/formcheck/internal/telemetry/tracing"
	"github.com/2beens/formcheck/pkg"
)

// Processor runs frames through one session, in process or remotely.
type Processor interface {
	Process(ctx context.Context, f *pose.Frame) (engine.Output, error)
	Summary(ctx context.Context) (session.Summary, bool, error)
	Close(ctx context.Context) error
}

var (
	_ Processor = (*LocalProcessor)(nil)
	_ Processor = (*RemoteClient)(nil)
)

type LocalProcessor struct {
	engine *engine.Engine
}

func NewLocalProcessor(e *engine.Engine) *LocalProcessor {
	return &LocalProcessor{engine: e}
}

func (p *LocalProcessor) Process(_ context.Context, f *pose.Frame) (engine.Output, error) {
	return p.engine.ProcessFrame(f), nil
}

func (p *LocalProcessor) Summary(context.Context) (session.Summary, bool, error) {
	s, complete := p.engine.Summary()
	return s, complete, nil
}

func (p *LocalProcessor) Close(context.Context) error {
	return nil
}

// RemoteClient drives a session on a running service over its HTTP API.
type RemoteClient struct {
	baseURL    string
	httpClient *http.Client
	session    coach.SessionInfo
}

func NewRemoteClient(
	ctx context.Context,
	baseURL string,
	httpClient *http.Client,
	cfg engine.SessionConfig,
) (_ *RemoteClient, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "replay.remote.new_session")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	c := &RemoteClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
	if err := c.do(ctx, http.MethodPost, "/sessions", cfg, http.StatusCreated, &c.session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return c, nil
}

func (c *RemoteClient) SessionID() string {
	return c.session.ID
}

func (c *RemoteClient) Process(ctx context.Context, f *pose.Frame) (engine.Output, error) {
	var out engine.Output
	err := c.do(ctx, http.MethodPost, "/sessions/"+c.session.ID+"/frames", f, http.StatusOK, &out)
	return out, err
}

func (c *RemoteClient) Summary(ctx context.Context) (session.Summary, bool, error) {
	var rec coach.SummaryRecord
	if err := c.do(ctx, http.MethodGet, "/sessions/"+c.session.ID+"/summary", nil, http.StatusOK, &rec); err != nil {
		return session.Summary{}, false, err
	}
	return rec.Summary, rec.Complete, nil
}

// Close deletes the remote session. The service keeps its summary.
func (c *RemoteClient) Close(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+c.session.ID, nil, http.StatusOK, nil)
}

func (c *RemoteClient) do(ctx context.Context, method, path string, reqBody any, expectStatus int, respBody any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", pkg.ContentType.JSON)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != expectStatus {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	if respBody == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
