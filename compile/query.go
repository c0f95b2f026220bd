package compile

import (
	"encoding/json"
)

// Kind classifies a compiled aggregation descriptor.
type Kind string

const (
	// KindMetric computes a single numeric value over documents.
	KindMetric Kind = "metricAgg"
	// KindBucket partitions documents into groups.
	KindBucket Kind = "bucketAgg"
	// KindFilter restricts the documents its children see.
	KindFilter Kind = "filterAgg"
	// KindPipeline is computed from other aggregations' outputs.
	KindPipeline Kind = "pipelineAgg"
)

// Query is one node of the compiled aggregation-query tree. Params
// carries the aggregation body keyed by parameter name, with the
// reserved key "type" naming the aggregation type. Produced once per
// successful compilation and immutable afterwards.
type Query struct {
	ID       string
	Kind     Kind
	Params   map[string]interface{}
	Children []*Query
}

// NodeCount returns the number of descriptors in the tree.
func (q *Query) NodeCount() int {
	count := 1
	for _, child := range q.Children {
		count += child.NodeCount()
	}
	return count
}

// TreeDepth returns the height of the descriptor tree.
func (q *Query) TreeDepth() int {
	max := 0
	for _, child := range q.Children {
		if d := child.TreeDepth(); d > max {
			max = d
		}
	}
	return max + 1
}

// Child returns the direct child with the given ID, or nil.
func (q *Query) Child(id string) *Query {
	for _, child := range q.Children {
		if child.ID == id {
			return child
		}
	}
	return nil
}

// ToDSL renders the descriptor as the store's native aggregation
// body: {"<aggType>": {params...}, "aggs": {childID: {...}}}.
func (q *Query) ToDSL() map[string]interface{} {
	aggType, _ := q.Params["type"].(string)

	body := make(map[string]interface{}, len(q.Params))
	for key, value := range q.Params {
		if key == "type" {
			continue
		}
		body[key] = value
	}

	doc := map[string]interface{}{aggType: body}
	if len(q.Children) > 0 {
		children := make(map[string]interface{}, len(q.Children))
		for _, child := range q.Children {
			children[child.ID] = child.ToDSL()
		}
		doc["aggs"] = children
	}
	return doc
}

// MarshalDSL renders the full aggregation document rooted at q.
// encoding/json emits map keys in sorted order, so repeated marshaling
// of the same tree yields byte-identical output.
func (q *Query) MarshalDSL() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"aggs": map[string]interface{}{q.ID: q.ToDSL()},
	})
}
