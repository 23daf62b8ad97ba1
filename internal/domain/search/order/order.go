package order

// Sort is the result ordering selected by the user.
type Sort string

// Sort constants.
const (
	// Relevance orders by computed score, highest first.
	Relevance Sort = "relevance"
	Newest    Sort = "newest"
	Oldest    Sort = "oldest"
)

// IsValid checks if the sort is one of the supported values.
func (s Sort) IsValid() bool {
	return s == Relevance || s == Newest || s == Oldest
}

// Parse returns the Sort for s, or false when s is not a known ordering.
func Parse(s string) (Sort, bool) {
	v := Sort(s)
	return v, v.IsValid()
}
