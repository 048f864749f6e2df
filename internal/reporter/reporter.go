package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"gqlfuzz/internal/graphql"
	"gqlfuzz/internal/logger"

	"github.com/charmbracelet/lipgloss"
)

// Record is the outcome of one fuzz iteration.
type Record struct {
	Query          string           `json:"query"`
	Classification Classification   `json:"response_type"`
	ElapsedSeconds float64          `json:"response_time"`
	Response       graphql.Response `json:"response"`
}

// Reporter classifies responses, logs them and prints a block per record.
// It is safe for concurrent use; blocks are never interleaved.
type Reporter struct {
	log     logger.Leveled
	out     io.Writer
	mu      sync.Mutex
	summary *Summary

	validStyle lipgloss.Style
	errorStyle lipgloss.Style
}

// New creates a Reporter printing to out.
func New(log logger.Leveled, out io.Writer) *Reporter {
	r := lipgloss.NewRenderer(out)
	return &Reporter{
		log:        log,
		out:        out,
		summary:    newSummary(),
		validStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		errorStyle: r.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
	}
}

// Report classifies resp, emits the log entries and console block, and returns the record.
func (r *Reporter) Report(query string, resp graphql.Response, elapsed time.Duration) Record {
	rec := Record{
		Query:          query,
		Classification: Classify(resp),
		ElapsedSeconds: elapsed.Seconds(),
		Response:       resp,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if resp.HasErrors() {
		r.log.Error("Error in response: %v", resp.Errors())
	} else if msg, failed := resp.TransportError(); failed {
		r.log.Info("No GraphQL response received: %s", msg)
	} else {
		r.log.Info("Valid response received.")
	}

	r.log.Debugw("fuzz record",
		"query", rec.Query,
		"response_type", string(rec.Classification),
		"response_time", rec.ElapsedSeconds,
		"response", map[string]interface{}(rec.Response),
	)

	r.print(rec)
	r.summary.add(rec)
	return rec
}

func (r *Reporter) print(rec Record) {
	style := r.errorStyle
	if rec.Classification == Valid {
		style = r.validStyle
	}
	raw, err := json.Marshal(rec.Response)
	if err != nil {
		raw = []byte(fmt.Sprint(rec.Response))
	}
	fmt.Fprintf(r.out, "\nQuery: %s\nType: %s\nTime: %.4fs\nResponse: %s\n",
		rec.Query, style.Render(string(rec.Classification)), rec.ElapsedSeconds, raw)
}

// Summary returns a copy of the aggregate over every record reported so far.
func (r *Reporter) Summary() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := *r.summary
	s.Clusters = make([]ErrorCluster, len(r.summary.Clusters))
	for i, c := range r.summary.Clusters {
		c.Queries = append([]string(nil), c.Queries...)
		s.Clusters[i] = c
	}
	return s
}

// PrintSummary writes a short triage overview to the console.
func (r *Reporter) PrintSummary() {
	s := r.Summary()

	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "\nIterations: %d  valid: %s  error: %s  transport failures: %d\n",
		s.Total, r.validStyle.Render(fmt.Sprint(s.Valid)), r.errorStyle.Render(fmt.Sprint(s.Errors)), s.TransportFailures)
	if s.SlowestQuery != "" {
		fmt.Fprintf(r.out, "Slowest: %.4fs %s\n", s.SlowestSeconds, s.SlowestQuery)
	}
	for _, c := range s.Clusters {
		fmt.Fprintf(r.out, "  [%dx] %s\n", c.Count, c.Message)
	}
}
