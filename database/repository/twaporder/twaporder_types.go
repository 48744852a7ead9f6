package twaporder

import (
	"errors"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/database"
	"github.com/volatiletech/null"
)

// timeLayout is fixed width so text columns sort chronologically
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

var (
	errInstanceIsNil = errors.New("database instance is nil")
	errOrderIsNil    = errors.New("TWAP order is nil")
)

// Store is a SQL backed TWAP order store supporting sqlite3 and postgres
type Store struct {
	db *database.Instance
}

// orderRow mirrors a twap_orders row
type orderRow struct {
	ID         string
	Base       string
	Quote      string
	Side       string
	TotalSize  string
	NumSlices  int
	DurationNS int64
	PriceType  string
	LimitPrice null.String
	Status     string
	CreatedAt  string
	UpdatedAt  string
	FinishedAt null.String
}
