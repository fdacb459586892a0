package models

// NeighborResult holds concepts directly connected to a given concept plus their relations.
type NeighborResult struct {
	Concepts  []Concept  `json:"concepts"`
	Relations []Relation `json:"relations"`
}

// TraverseResult holds a subgraph discovered by BFS traversal.
type TraverseResult struct {
	Concepts  []Concept  `json:"concepts"`
	Relations []Relation `json:"relations"`
}

// ContextResult holds a concept with its immediate neighborhood.
type ContextResult struct {
	Concept   Concept    `json:"concept"`
	Neighbors []Concept  `json:"neighbors"`
	Relations []Relation `json:"relations"`
}

// PathResult holds a shortest path between two concepts.
type PathResult struct {
	Concepts  []Concept  `json:"concepts"`
	Relations []Relation `json:"relations"`
	Hops      int        `json:"hops"`
	Found     bool       `json:"found"`
}
