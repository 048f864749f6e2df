package reporter

import (
	"fmt"

	"gqlfuzz/internal/graphql"

	"github.com/agext/levenshtein"
)

const (
	// similarityThreshold groups messages that differ only in names or literals.
	similarityThreshold = 0.75
	// maxCompareLen bounds the cost of each distance computation.
	maxCompareLen = 200
	// maxClusterQueries is how many example queries a cluster keeps.
	maxClusterQueries = 3
)

// ErrorCluster groups near-identical error messages.
type ErrorCluster struct {
	Message string   `json:"message"`
	Count   int      `json:"count"`
	Queries []string `json:"queries"`
}

// Summary aggregates the records of one run.
type Summary struct {
	Total             int            `json:"total"`
	Valid             int            `json:"valid"`
	Errors            int            `json:"errors"`
	TransportFailures int            `json:"transport_failures"`
	SlowestQuery      string         `json:"slowest_query,omitempty"`
	SlowestSeconds    float64        `json:"slowest_seconds"`
	Clusters          []ErrorCluster `json:"error_clusters"`
}

func newSummary() *Summary {
	return &Summary{Clusters: make([]ErrorCluster, 0)}
}

func (s *Summary) add(rec Record) {
	s.Total++
	if rec.Classification == Valid {
		s.Valid++
	} else {
		s.Errors++
	}
	if rec.ElapsedSeconds > s.SlowestSeconds || s.SlowestQuery == "" {
		s.SlowestSeconds = rec.ElapsedSeconds
		s.SlowestQuery = rec.Query
	}

	if msg, failed := rec.Response.TransportError(); failed {
		s.TransportFailures++
		s.cluster(msg, rec.Query)
		return
	}
	for _, msg := range errorMessages(rec.Response) {
		s.cluster(msg, rec.Query)
	}
}

func (s *Summary) cluster(msg, query string) {
	probe := truncate(msg)
	for i := range s.Clusters {
		c := &s.Clusters[i]
		if levenshtein.Similarity(probe, truncate(c.Message), nil) >= similarityThreshold {
			c.Count++
			if len(c.Queries) < maxClusterQueries {
				c.Queries = append(c.Queries, query)
			}
			return
		}
	}
	s.Clusters = append(s.Clusters, ErrorCluster{Message: msg, Count: 1, Queries: []string{query}})
}

func errorMessages(resp graphql.Response) []string {
	list, ok := resp.Errors().([]interface{})
	if !ok {
		if resp.HasErrors() {
			return []string{fmt.Sprint(resp.Errors())}
		}
		return nil
	}
	msgs := make([]string, 0, len(list))
	for _, e := range list {
		if obj, ok := e.(map[string]interface{}); ok {
			if m, ok := obj["message"].(string); ok {
				msgs = append(msgs, m)
				continue
			}
		}
		msgs = append(msgs, fmt.Sprint(e))
	}
	return msgs
}

func truncate(s string) string {
	if len(s) > maxCompareLen {
		return s[:maxCompareLen]
	}
	return s
}
