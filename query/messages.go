package query

import "github.com/thehariompandey/Resturant-Inspection-Automation-System/core"

const TypeListResponses = "inspection.query.responses.list"

// ListResponsesMessage lists every response when RestaurantID is empty.
type ListResponsesMessage struct {
	Filter core.ResponseFilter
}

func (ListResponsesMessage) Type() string { return TypeListResponses }

func (ListResponsesMessage) Validate() error {
	return nil
}
