package xdr

// Filter narrows the alert search server-side.
type Filter struct {
	Field    string   `json:"field"`
	Operator string   `json:"operator"`
	Value    []string `json:"value"`
}

// Sort orders the alert search results. The API's direction key is
// "keyword", not "direction".
type Sort struct {
	Field   string `json:"field"`
	Keyword string `json:"keyword"`
}

// RequestData is the inner search request body.
type RequestData struct {
	Filters    []Filter `json:"filters"`
	SearchFrom int      `json:"search_from"`
	SearchTo   int      `json:"search_to"`
	Sort       Sort     `json:"sort"`
}

// RequestPayload is the full POST body for one page request.
type RequestPayload struct {
	RequestData RequestData `json:"request_data"`
}

// defaultFilters returns the fixed severity filter present in every request.
func defaultFilters() []Filter {
	return []Filter{
		{
			Field:    "severity",
			Operator: "in",
			Value:    []string{"low", "medium", "high"},
		},
	}
}

// BuildPayload constructs the request body for the window [start, end).
// The default severity filter always comes first; extra filters are
// appended in the order given, since order affects server-side evaluation.
// Pure function, safe for concurrent use.
func BuildPayload(start, end int, extra ...Filter) RequestPayload {
	filters := defaultFilters()
	filters = append(filters, extra...)

	return RequestPayload{
		RequestData: RequestData{
			Filters:    filters,
			SearchFrom: start,
			SearchTo:   end,
			Sort: Sort{
				Field:   "creation_time",
				Keyword: "desc",
			},
		},
	}
}
