package sqlstore

import "github.com/thehariompandey/Resturant-Inspection-Automation-System/core"

var (
	_ core.CatalogReader  = (*CatalogStore)(nil)
	_ core.CatalogReader  = (*CachedCatalogReader)(nil)
	_ core.ResponseStore  = (*ResponseStore)(nil)
	_ core.ResponseReader = (*ResponseStore)(nil)
)
