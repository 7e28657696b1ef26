package oauth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultMaxResponseBytes caps provider response bodies.
const DefaultMaxResponseBytes int64 = 1 << 20

// OutboundRequest is one call to a provider.
type OutboundRequest struct {
	URL     string
	Method  Method
	Body    url.Values // form body, POST only
	Timeout time.Duration
}

// OutboundResponse carries what the exchange step inspects.
type OutboundResponse struct {
	StatusCode int
	Body       []byte
}

// Success reports a 2xx status.
func (r *OutboundResponse) Success() bool {
	return r != nil && r.StatusCode/100 == 2
}

// Sender performs outbound calls. Implementations must honour
// OutboundRequest.Timeout and must not retry.
type Sender interface {
	Send(ctx context.Context, req OutboundRequest) (*OutboundResponse, error)
}

// HTTPSender is the net/http Sender.
type HTTPSender struct {
	client  HTTPClient
	maxBody int64
}

// NewHTTPSender wraps client; nil means a fresh http.Client. Timeouts come
// from each request's context, not from the client.
func NewHTTPSender(client HTTPClient, maxBody int64) *HTTPSender {
	if client == nil {
		client = &http.Client{}
	}
	if maxBody <= 0 {
		maxBody = DefaultMaxResponseBytes
	}
	return &HTTPSender{client: client, maxBody: maxBody}
}

// Send implements Sender.
func (s *HTTPSender) Send(ctx context.Context, req OutboundRequest) (*OutboundResponse, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var body io.Reader
	if req.Method == MethodPost {
		body = strings.NewReader(req.Body.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(req.Method), req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Method == MethodPost {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	return &OutboundResponse{StatusCode: resp.StatusCode, Body: data}, nil
}

// serviceURL joins base and the trimmed service path and appends args to
// any query base already carries.
func serviceURL(base, service string, args url.Values) string {
	u := base + "/" + strings.Trim(service, `\/`)
	if len(args) == 0 {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + args.Encode()
}
