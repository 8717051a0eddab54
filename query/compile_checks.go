package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/thehariompandey/Resturant-Inspection-Automation-System/core"
)

var _ gocmd.Querier[ListResponsesMessage, []core.Response] = (*ListResponsesQuery)(nil)
