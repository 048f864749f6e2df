// Package graphql sends query documents to a GraphQL endpoint over HTTP.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"gqlfuzz/internal/httpclient"
)

// maxBodySize caps how much of a response body is decoded.
var maxBodySize int64 = 10 << 20

// Sender delivers one query and returns the decoded response.
type Sender interface {
	Send(ctx context.Context, query string) Response
}

// Response is a decoded GraphQL response body. A failed exchange is
// represented by a single "error" member holding the failure description.
type Response map[string]interface{}

// failure marks the "error" member of a sentinel. Decoded bodies only ever
// hold plain strings, so a server sending {"error": "..."} is not mistaken
// for a failed exchange. It marshals as a plain string.
type failure string

// ErrorResponse builds the sentinel returned when the exchange itself failed.
func ErrorResponse(err error) Response {
	return Response{"error": failure(err.Error())}
}

// HasErrors reports whether the server returned a GraphQL errors member.
func (r Response) HasErrors() bool {
	_, ok := r["errors"]
	return ok
}

// HasData reports whether the server returned a data member.
func (r Response) HasData() bool {
	_, ok := r["data"]
	return ok
}

// Errors returns the raw errors member.
func (r Response) Errors() interface{} {
	return r["errors"]
}

// TransportError returns the failure description of a sentinel response.
func (r Response) TransportError() (string, bool) {
	if r.HasErrors() || r.HasData() {
		return "", false
	}
	msg, ok := r["error"].(failure)
	return string(msg), ok
}

// Transport posts {"query": ...} bodies to a single endpoint.
type Transport struct {
	client   *httpclient.Client
	endpoint string
}

// NewTransport creates a Transport bound to endpoint. Authentication headers
// come from the client.
func NewTransport(client *httpclient.Client, endpoint string) *Transport {
	return &Transport{
		client:   client,
		endpoint: endpoint,
	}
}

type requestBody struct {
	Query string `json:"query"`
}

// Send posts query and decodes the JSON response. It never fails: network,
// timeout and decoding problems come back as an ErrorResponse.
func (t *Transport) Send(ctx context.Context, query string) Response {
	payload, err := json.Marshal(requestBody{Query: query})
	if err != nil {
		return ErrorResponse(fmt.Errorf("encode request: %w", err))
	}

	resp, err := t.client.Post(ctx, t.endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return ErrorResponse(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return ErrorResponse(fmt.Errorf("read response: %w", err))
	}
	if int64(len(body)) > maxBodySize {
		return ErrorResponse(fmt.Errorf("response (status %d) exceeds %d bytes", resp.StatusCode, maxBodySize))
	}

	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return ErrorResponse(fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err))
	}
	obj, ok := decoded.(map[string]interface{})
	if !ok {
		return ErrorResponse(fmt.Errorf("response (status %d) is not a JSON object", resp.StatusCode))
	}
	return Response(obj)
}
