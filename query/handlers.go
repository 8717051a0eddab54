package query

import (
	"context"
	"strings"

	"github.com/thehariompandey/Resturant-Inspection-Automation-System/core"
)

type ListResponsesQuery struct {
	reader core.ResponseReader
}

func NewListResponsesQuery(reader core.ResponseReader) *ListResponsesQuery {
	return &ListResponsesQuery{reader: reader}
}

func (q *ListResponsesQuery) Query(ctx context.Context, msg ListResponsesMessage) ([]core.Response, error) {
	if q == nil || q.reader == nil {
		return nil, core.InternalError("query: response reader is required")
	}
	filter := msg.Filter
	filter.RestaurantID = strings.TrimSpace(filter.RestaurantID)
	responses, err := q.reader.ListResponses(ctx, filter)
	if err != nil {
		return nil, core.MapError(err)
	}
	if responses == nil {
		responses = []core.Response{}
	}
	return responses, nil
}
