package fuzzer

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"gqlfuzz/internal/graphql"
	"gqlfuzz/internal/httpclient"
	"gqlfuzz/internal/logger"
	"gqlfuzz/internal/reporter"
	"gqlfuzz/internal/schema"

	gographql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const targetSDL = `
	schema {
		query: Query
	}

	type Query {
		hello: String!
		user(id: ID!): User
	}

	type User {
		id: ID!
		name: String!
	}
`

type rootResolver struct{}

func (*rootResolver) Hello() string { return "world" }

func (*rootResolver) User(args struct{ ID gographql.ID }) *userResolver {
	return &userResolver{id: args.ID}
}

type userResolver struct{ id gographql.ID }

func (u *userResolver) ID() gographql.ID { return u.id }
func (u *userResolver) Name() string     { return "alice" }

func newTarget(t *testing.T, opts ...gographql.SchemaOpt) *httptest.Server {
	t.Helper()
	s := gographql.MustParseSchema(targetSDL, &rootResolver{}, opts...)
	server := httptest.NewServer(&relay.Handler{Schema: s})
	t.Cleanup(server.Close)
	return server
}

func newTransport(t *testing.T, endpoint string) *graphql.Transport {
	t.Helper()
	client := httpclient.NewClient(logger.NewNop(), httpclient.ClientOptions{
		Timeout:     5 * time.Second,
		AuthHeaders: map[string]string{"Authorization": "Bearer test"},
	})
	t.Cleanup(client.CloseIdleConnections)
	return graphql.NewTransport(client, endpoint)
}

func TestEndToEnd_AgainstGraphQLServer(t *testing.T) {
	server := newTarget(t)
	transport := newTransport(t, server.URL)

	var console bytes.Buffer
	rep := reporter.New(logger.NewNop(), &console)
	runner := NewRunner(transport, NewRandPicker(2024), rep, logger.NewNop(), Options{Iterations: 15, Depth: 2, KeepRecords: true})

	res, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Query", res.Schema.QueryType)
	names := make(map[string]int)
	for _, td := range res.Schema.Types {
		names[td.Name] = len(td.Fields)
	}
	assert.Equal(t, 2, names["Query"])
	assert.Equal(t, 2, names["User"])
	assert.Contains(t, names, "__Type")
	assert.Equal(t, 0, names["String"], "scalars come back with null fields")

	// Type names are never fields of the root type and every query carries an
	// irritant, so the server must reject all of them.
	require.Len(t, res.Records, 15)
	for _, rec := range res.Records {
		assert.Equal(t, reporter.Error, rec.Classification, rec.Query)
		assert.True(t, rec.Response.HasErrors(), rec.Query)
		_, failed := rec.Response.TransportError()
		assert.False(t, failed)
	}

	s := rep.Summary()
	assert.Equal(t, 15, s.Errors)
	assert.Zero(t, s.TransportFailures)
	assert.NotEmpty(t, s.Clusters)
	assert.Contains(t, console.String(), "Type: error")
}

func TestEndToEnd_IntrospectionDisabled(t *testing.T) {
	server := newTarget(t, gographql.DisableIntrospection())
	transport := newTransport(t, server.URL)

	runner := NewRunner(transport, NewRandPicker(1), reporter.New(logger.NewNop(), &bytes.Buffer{}), logger.NewNop(), Options{Iterations: 3, Depth: 1})
	res, err := runner.Run(context.Background())

	var discErr *schema.DiscoveryError
	assert.True(t, errors.As(err, &discErr))
	assert.Nil(t, res)
}

func TestEndToEnd_UnreachableTarget(t *testing.T) {
	server := httptest.NewServer(nil)
	url := server.URL
	server.Close()

	runner := NewRunner(newTransport(t, url), NewRandPicker(1), reporter.New(logger.NewNop(), &bytes.Buffer{}), logger.NewNop(), Options{Iterations: 3, Depth: 1})
	_, err := runner.Run(context.Background())

	var discErr *schema.DiscoveryError
	assert.True(t, errors.As(err, &discErr))
}
