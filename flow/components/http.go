package components

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rakunlabs/flow"
	"github.com/rakunlabs/flow/variant"
	"github.com/worldline-go/klient"
)

// Output port indices for HTTPRequest, matching the teacher's selection-based
// routing convention (error / success / always).
const (
	HTTPError flow.PortID = iota
	HTTPSuccess
	HTTPAlways
)

// HTTPRequest issues an HTTP request built from a templated URL and body,
// using worldline-go/klient the same way the teacher's http_request node
// does, and routes the response to the error/success/always output ports
// by status code.
type HTTPRequest struct {
	In flow.PortID

	URLTmpl    string
	Method     string
	BodyTmpl   string
	Headers    map[string]string
	Timeout    time.Duration
	Retry      bool
	httpClient *klient.Client
}

func (c *HTTPRequest) Kind() flow.ComponentKind { return flow.Lazy }
func (c *HTTPRequest) Inputs() *flow.Ports      { return flow.NewPorts([]flow.Port{{ID: c.In}}) }
func (c *HTTPRequest) Outputs() *flow.Ports {
	return flow.NewPorts([]flow.Port{{ID: HTTPError}, {ID: HTTPSuccess}, {ID: HTTPAlways}})
}

func (c *HTTPRequest) client() (*klient.Client, error) {
	if c.httpClient != nil {
		return c.httpClient, nil
	}

	opts := []klient.OptionClientFn{
		klient.WithDisableBaseURLCheck(true),
		klient.WithDisableEnvValues(true),
		klient.WithDisableRetry(!c.Retry),
	}

	client, err := klient.New(opts...)
	if err != nil {
		return nil, err
	}
	c.httpClient = client
	return client, nil
}

func (c *HTTPRequest) Run(ctx *flow.Context) (flow.Signal, error) {
	for _, pkg := range ctx.ReceiveAll(c.In) {
		if err := c.fire(ctx, pkg); err != nil {
			return flow.Continue, fmt.Errorf("components: http_request: %w", err)
		}
	}
	return flow.Continue, nil
}

func (c *HTTPRequest) fire(ctx *flow.Context, pkg flow.Package) error {
	data := toPlain(pkg)

	url, err := renderTemplate(c.URLTmpl, data)
	if err != nil {
		return fmt.Errorf("url template: %w", err)
	}

	method := strings.ToUpper(c.Method)
	if method == "" {
		method = "GET"
	}

	var body io.Reader
	if c.BodyTmpl != "" {
		rendered, err := renderTemplate(c.BodyTmpl, data)
		if err != nil {
			return fmt.Errorf("body template: %w", err)
		}
		body = strings.NewReader(rendered)
	} else if method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	reqCtx, cancel := contextWithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.Headers {
		req.Header.Set(k, v)
	}

	client, err := c.client()
	if err != nil {
		return fmt.Errorf("build client: %w", err)
	}

	resp, err := client.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var parsed any
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		parsed = string(respBody)
	}

	headers := make(map[string]any, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	out, err := variant.FromAny(map[string]any{
		"response":    parsed,
		"status_code": float64(resp.StatusCode),
		"headers":     headers,
	})
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	ctx.Send(HTTPAlways, out)
	switch {
	case resp.StatusCode >= 400:
		ctx.Send(HTTPError, out)
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		ctx.Send(HTTPSuccess, out)
	}
	return nil
}
