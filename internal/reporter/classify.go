package reporter

import "gqlfuzz/internal/graphql"

// Classification tags a response for triage.
type Classification string

const (
	Valid Classification = "valid"
	Error Classification = "error"
)

// Classify derives the classification from the response shape alone.
// A data member suggests valid, but an errors member always wins. A body with
// neither (including transport failures) is an error.
func Classify(resp graphql.Response) Classification {
	class := Error
	if resp.HasData() {
		class = Valid
	}
	if resp.HasErrors() {
		class = Error
	}
	return class
}
