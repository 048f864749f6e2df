package discovery

import (
	"context"
	"strings"

	"gqlfuzz/internal/graphql"
	"gqlfuzz/internal/httpclient"
	"gqlfuzz/internal/logger"
	"gqlfuzz/internal/payloads"
)

// GraphQLFinder is responsible for discovering and confirming GraphQL endpoints.
type GraphQLFinder struct {
	client *httpclient.Client // HTTP client for making requests; carries the auth headers.
	log    *logger.Logger     // Logger for outputting messages.
	paths  []string
}

// NewGraphQLFinder creates a new instance of GraphQLFinder.
func NewGraphQLFinder(client *httpclient.Client, log *logger.Logger) *GraphQLFinder {
	return &GraphQLFinder{
		client: client,
		log:    log,
		paths:  payloads.CommonGraphQLPaths,
	}
}

// FindEndpoint probes target itself and then the common GraphQL paths under it.
// It returns the first URL that answers {__typename} with a data or errors
// member, or an empty string if none does.
func (f *GraphQLFinder) FindEndpoint(ctx context.Context, target string) string {
	base := strings.TrimRight(target, "/")
	f.log.Info("Starting GraphQL endpoint discovery for %s...", base)

	candidates := make([]string, 0, len(f.paths)+1)
	candidates = append(candidates, target)
	for _, path := range f.paths {
		candidates = append(candidates, base+path)
	}

	for _, testURL := range candidates {
		if ctx.Err() != nil {
			return ""
		}
		f.log.Debug("GraphQL Finder: Probing path: %s", testURL)

		resp := graphql.NewTransport(f.client, testURL).Send(ctx, payloads.GraphQLQueries.Probe)
		if resp.HasData() || resp.HasErrors() {
			f.log.Success("GraphQL endpoint confirmed at: %s", testURL)
			return testURL
		}
	}

	f.log.Info("No GraphQL endpoint found for %s.", base)
	return ""
}
