package inference

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type Protocol string

const (
	ProtocolV1 Protocol = "v1"
	ProtocolV2 Protocol = "v2"
)

// Endpoint addresses a ready model behind the cluster ingress.
type Endpoint struct {
	// Address is the scheme://host[:port] of the ingress
	Address string `json:"address"`
	// Host is sent as the Host header so the ingress can route to the service
	Host      string   `json:"host,omitempty"`
	ModelName string   `json:"modelName"`
	Protocol  Protocol `json:"protocol"`
}

func (e Endpoint) PredictURL() (string, error) {
	base := strings.TrimSuffix(NormalizeURL(e.Address), "/")
	switch e.protocol() {
	case ProtocolV1:
		return fmt.Sprintf("%s/v1/models/%s:predict", base, e.ModelName), nil
	case ProtocolV2:
		return fmt.Sprintf("%s/v2/models/%s/infer", base, e.ModelName), nil
	}
	return "", fmt.Errorf("unsupported inference protocol %q", e.Protocol)
}

func (e Endpoint) ExplainURL() (string, error) {
	base := strings.TrimSuffix(NormalizeURL(e.Address), "/")
	switch e.protocol() {
	case ProtocolV1:
		return fmt.Sprintf("%s/v1/models/%s:explain", base, e.ModelName), nil
	case ProtocolV2:
		return "", fmt.Errorf("explain is not part of the v2 inference protocol")
	}
	return "", fmt.Errorf("unsupported inference protocol %q", e.Protocol)
}

func (e Endpoint) protocol() Protocol {
	if e.Protocol == "" {
		return ProtocolV1
	}
	return e.Protocol
}

// StatusError is returned when the serving endpoint answers with a non 2xx code.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inference failed: status=%d body=%s", e.Code, e.Body)
}

// Client issues one-shot predict and explain calls. It never retries.
type Client struct {
	http *http.Client
}

func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{http: hc}
}

func (c *Client) Predict(ctx context.Context, ep Endpoint, payload []byte) (*Response, error) {
	url, err := ep.PredictURL()
	if err != nil {
		return nil, err
	}
	return c.post(ctx, url, ep.Host, payload)
}

func (c *Client) Explain(ctx context.Context, ep Endpoint, payload []byte) (*Response, error) {
	url, err := ep.ExplainURL()
	if err != nil {
		return nil, err
	}
	return c.post(ctx, url, ep.Host, payload)
}

func (c *Client) post(ctx context.Context, url, host string, payload []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if host != "" {
		req.Host = host
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

// NormalizeURL prefixes raw with http:// when it carries no scheme.
func NormalizeURL(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "http://" + raw
}
