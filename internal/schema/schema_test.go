package schema

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"gqlfuzz/internal/graphql"
	"gqlfuzz/internal/logger"
	"gqlfuzz/internal/payloads"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) graphql.Response {
	t.Helper()
	var resp graphql.Response
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	return resp
}

type stubSender struct {
	resp    graphql.Response
	queries []string
}

func (s *stubSender) Send(ctx context.Context, query string) graphql.Response {
	s.queries = append(s.queries, query)
	return s.resp
}

func TestParse(t *testing.T) {
	resp := decode(t, `{"data":{"__schema":{
		"queryType":{"name":"Query"},
		"mutationType":null,
		"types":[
			{"name":"Query","fields":[{"name":"user"},{"name":"users"}]},
			{"name":"String","fields":null},
			{"name":"__Type","fields":[{"name":"kind"}]}
		]}}}`)

	doc, err := Parse(resp)
	require.NoError(t, err)

	assert.Equal(t, "Query", doc.QueryType)
	assert.Empty(t, doc.MutationType)
	require.Len(t, doc.Types, 3)
	assert.Equal(t, []FieldDescriptor{{Name: "user"}, {Name: "users"}}, doc.Types[0].Fields)
	assert.NotNil(t, doc.Types[1].Fields)
	assert.Empty(t, doc.Types[1].Fields)
	assert.True(t, doc.Types[2].IsMeta())
	assert.False(t, doc.Types[0].IsMeta())
	assert.Equal(t, 3, doc.FieldCount())
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "No data", raw: `{"error":"connection refused"}`},
		{name: "No __schema", raw: `{"data":{}}`},
		{name: "No types", raw: `{"data":{"__schema":{}}}`},
		{name: "Nameless type", raw: `{"data":{"__schema":{"types":[{"fields":[]}]}}}`},
		{name: "Type is not an object", raw: `{"data":{"__schema":{"types":["User"]}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse(decode(t, tt.raw))
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Nil(t, doc)
		})
	}
}

func TestDiscoverer_Discover(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		resp      graphql.Response
		wantErr   bool
		wantTypes int
	}{
		{
			name:      "Success",
			raw:       `{"data":{"__schema":{"types":[{"name":"User","fields":[{"name":"id"},{"name":"name"}]}]}}}`,
			wantTypes: 1,
		},
		{
			name:    "GraphQL errors",
			raw:     `{"errors":[{"message":"introspection is disabled"}]}`,
			wantErr: true,
		},
		{
			name:    "Errors win over data",
			raw:     `{"data":{"__schema":{"types":[]}},"errors":[{"message":"partial"}]}`,
			wantErr: true,
		},
		{
			name:    "Transport failure",
			resp:    graphql.ErrorResponse(errors.New("dial tcp 127.0.0.1:1: connect: connection refused")),
			wantErr: true,
		},
		{
			name:    "No schema in data",
			raw:     `{"data":{}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.resp
			if resp == nil {
				resp = decode(t, tt.raw)
			}
			sender := &stubSender{resp: resp}
			doc, err := NewDiscoverer(sender, logger.NewNop()).Discover(context.Background())

			require.Len(t, sender.queries, 1)
			assert.Equal(t, payloads.GraphQLQueries.Introspection, sender.queries[0])

			if tt.wantErr {
				var discErr *DiscoveryError
				assert.True(t, errors.As(err, &discErr))
				assert.Nil(t, doc)
				return
			}
			require.NoError(t, err)
			assert.Len(t, doc.Types, tt.wantTypes)
		})
	}
}

func TestDiscoveryError_CarriesGraphQLErrors(t *testing.T) {
	sender := &stubSender{resp: decode(t, `{"errors":[{"message":"introspection is disabled"}]}`)}
	_, err := NewDiscoverer(sender, logger.NewNop()).Discover(context.Background())

	var discErr *DiscoveryError
	require.True(t, errors.As(err, &discErr))
	assert.NotNil(t, discErr.Errors)
	assert.Contains(t, err.Error(), "introspection is disabled")
}
