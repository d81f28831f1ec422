package vectorstore

import "github.com/qdrant/go-client/qdrant"

// buildFilter converts a Filter (a flat conjunction of equality
// constraints) into the Qdrant wire filter. Returns nil for an empty
// filter, which Qdrant treats as "match everything."
func buildFilter(filter Filter) *qdrant.Filter {
	if len(filter) == 0 {
		return nil
	}
	conditions := make([]*qdrant.Condition, 0, len(filter))
	for key, value := range filter {
		conditions = append(conditions, &qdrant.Condition{
			ConditionOneOf: &qdrant.Condition_Field{
				Field: &qdrant.FieldCondition{
					Key: key,
					Match: &qdrant.Match{
						MatchValue: &qdrant.Match_Keyword{Keyword: value},
					},
				},
			},
		})
	}
	return &qdrant.Filter{Must: conditions}
}
