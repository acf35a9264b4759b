package types

// Relation names an optional related-entity expansion the backend can attach
// to a product response. The set is closed; both ends must agree on it.
type Relation string

const (
	RelationManufacturer         Relation = "manufacturer"
	RelationDetails              Relation = "details"
	RelationManufacturerProducts Relation = "manufacturer.products"
)

var knownRelations = map[Relation]struct{}{
	RelationManufacturer:         {},
	RelationDetails:              {},
	RelationManufacturerProducts: {},
}

func (r Relation) Valid() bool {
	_, ok := knownRelations[r]
	return ok
}

// RelationStrings converts relations to the wire form used in the "mappers"
// request field.
func RelationStrings(relations []Relation) []string {
	out := make([]string, 0, len(relations))
	for _, rel := range relations {
		out = append(out, string(rel))
	}
	return out
}
