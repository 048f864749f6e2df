package payloads

// CommonGraphQLPaths contains a list of commonly used paths for GraphQL endpoints.
var CommonGraphQLPaths = []string{
	"/graphql",
	"/api/graphql",
	"/graphql/v1",
	"/graphql/v2",
	"/api",
	"/query",
	"/graph",
	"/graphql.php",
	"/graphql.json",
}

// GraphQLQueries contains the fixed queries sent outside the fuzz loop.
var GraphQLQueries = struct {
	// Probe is a minimal query used to confirm an endpoint speaks GraphQL.
	Probe string
	// Introspection asks for the root operation types and every type's field names.
	Introspection string
}{
	Probe: `{__typename}`,
	Introspection: `
    {
      __schema {
        queryType { name }
        mutationType { name }
        types {
          name
          fields {
            name
          }
        }
      }
    }
    `,
}

// Irritants are appended to synthesized queries, one per iteration.
var Irritants = []string{
	`"`,
	`'`,
	`;`,
	`{}`,
	`[]`,
	`null`,
	`true`,
	`false`,
	`123456789`,
}
