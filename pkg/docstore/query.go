package docstore

// Clause operators understood by the store's query endpoint.
const (
	// OpGTE matches field values greater than or equal to Value.
	OpGTE = "gte"

	// OpLT matches field values strictly less than Value.
	OpLT = "lt"

	// OpIn matches documents whose field equals (or, for array fields,
	// contains) any of Values.
	OpIn = "in"
)

// Clause is one filter condition. Clauses in a Query are combined with
// logical AND; the Values of an OpIn clause are combined with logical OR.
type Clause struct {
	Field  string   `json:"field"`
	Op     string   `json:"op"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

// Query is the structure accepted by the store's query endpoint. An empty
// clause list matches every document in the collection. Include names the
// optional sub-structures the read path should attach to each result; it
// never filters.
type Query struct {
	Clauses []Clause `json:"clauses,omitempty"`
	Include []string `json:"include,omitempty"`
}
