package schema

import (
	"context"
	"errors"
	"fmt"

	"gqlfuzz/internal/graphql"
	"gqlfuzz/internal/logger"
	"gqlfuzz/internal/payloads"
)

// DiscoveryError means no schema could be obtained; a run cannot continue without one.
type DiscoveryError struct {
	Errors interface{} // GraphQL errors member, when the server returned one.
	Err    error
}

func (e *DiscoveryError) Error() string {
	if e.Errors != nil {
		return fmt.Sprintf("schema discovery failed: %v", e.Errors)
	}
	return fmt.Sprintf("schema discovery failed: %v", e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// Discoverer issues the introspection query.
type Discoverer struct {
	sender graphql.Sender
	log    logger.Leveled
}

// NewDiscoverer creates a Discoverer sending through sender.
func NewDiscoverer(sender graphql.Sender, log logger.Leveled) *Discoverer {
	return &Discoverer{sender: sender, log: log}
}

// Discover introspects the endpoint. A response carrying errors, a transport
// failure or an unparsable result all yield a *DiscoveryError.
func (d *Discoverer) Discover(ctx context.Context) (*Document, error) {
	resp := d.sender.Send(ctx, payloads.GraphQLQueries.Introspection)

	if resp.HasErrors() {
		d.log.Error("Failed to discover schema: %v", resp.Errors())
		return nil, &DiscoveryError{Errors: resp.Errors(), Err: errors.New("introspection returned errors")}
	}
	if msg, failed := resp.TransportError(); failed {
		d.log.Error("Failed to discover schema: %s", msg)
		return nil, &DiscoveryError{Err: errors.New(msg)}
	}

	doc, err := Parse(resp)
	if err != nil {
		d.log.Error("Failed to discover schema: %v", err)
		return nil, &DiscoveryError{Err: err}
	}

	d.log.Info("Schema discovery successful.")
	d.log.Info("Schema has %d types and %d fields (query type %q, mutation type %q)",
		len(doc.Types), doc.FieldCount(), doc.QueryType, doc.MutationType)
	return doc, nil
}
