package twap

import (
	"context"
	"errors"
	"time"

	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/currency"
	exchange "github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges"
	"github.com/Rohoe/CB-Advanced-Terminal-CLI-sub001/exchanges/order"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidParameters is returned when order parameters are rejected
	// before any slice is attempted
	ErrInvalidParameters = errors.New("invalid TWAP parameters")
	// ErrInsufficientBalance is returned by the balance gate when a slice
	// cannot be funded
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrSubmissionRejected is returned when the exchange refuses a slice order
	ErrSubmissionRejected = errors.New("order submission rejected")
	// ErrPriceUnavailable is returned when a slice price cannot be resolved
	ErrPriceUnavailable = errors.New("price unavailable")
	// ErrPriceUnfavourable is returned when the market has moved through the
	// limit price
	ErrPriceUnfavourable = errors.New("price unfavourable against limit")
	// ErrOrderNotFound is returned by trackers for unknown identifiers
	ErrOrderNotFound = errors.New("TWAP order not found")
	// ErrPersistence wraps tracker write failures that halt an execution
	ErrPersistence = errors.New("TWAP order persistence failure")

	errOrderIsNil         = errors.New("TWAP order is nil")
	errScheduleIsNil      = errors.New("schedule is nil")
	errDuplicateOrder     = errors.New("TWAP order already exists")
	errTrackerIsNil       = errors.New("tracker is nil")
	errExchangeIsNil      = errors.New("exchange is nil")
	errBalanceGateIsNil   = errors.New("balance gate is nil")
	errOrderAlreadyFinal  = errors.New("TWAP order has already finished")
	errScheduleMismatched = errors.New("schedule does not match order")
)

// PriceType selects how each slice is priced
type PriceType string

// Price types
const (
	PriceLimit PriceType = "limit"
	PriceBid   PriceType = "bid"
	PriceAsk   PriceType = "ask"
	PriceMid   PriceType = "mid"
)

// Status is the lifecycle state of a TWAP order
type Status string

// TWAP order states
const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// FailureReason is the reason code recorded against a failed slice
type FailureReason string

// Failed slice reasons
const (
	ReasonInsufficientBalance FailureReason = "insufficient_balance"
	ReasonSubmissionRejected  FailureReason = "submission_rejected"
	ReasonPriceUnavailable    FailureReason = "price_unavailable"
	ReasonPriceUnfavourable   FailureReason = "price_unfavorable"
)

// Params defines the operator supplied parameters of a TWAP order
type Params struct {
	Pair       currency.Pair       `json:"market"`
	Side       order.Side          `json:"side"`
	TotalSize  decimal.Decimal     `json:"totalSize"`
	NumSlices  int                 `json:"numSlices"`
	Duration   time.Duration       `json:"duration"`
	PriceType  PriceType           `json:"priceType"`
	LimitPrice decimal.NullDecimal `json:"limitPrice"`
}

// Limits are operator configured bounds applied on top of the basic checks.
// Zero values are unbounded.
type Limits struct {
	MaxSlices   int
	MinDuration time.Duration
	MaxDuration time.Duration
}

// Slice is one scheduled sub order
type Slice struct {
	Index int
	Size  decimal.Decimal
	// Interval is the wait after this slice before the next, zero on the
	// final slice
	Interval time.Duration
}

// Schedule is the planned set of slices for an order
type Schedule struct {
	Slices   []Slice
	Interval time.Duration
	Product  *exchange.ProductDetail
}

// PlacedSlice records a slice order accepted by the exchange
type PlacedSlice struct {
	SliceIndex int             `json:"sliceIndex"`
	OrderID    string          `json:"orderID"`
	Size       decimal.Decimal `json:"size"`
	Price      decimal.Decimal `json:"price"`
	Time       time.Time       `json:"time"`
}

// FailedSlice records a slice that could not be placed
type FailedSlice struct {
	SliceIndex int             `json:"sliceIndex"`
	Reason     FailureReason   `json:"reason"`
	Detail     string          `json:"detail,omitempty"`
	Size       decimal.Decimal `json:"size"`
	Time       time.Time       `json:"time"`
}

// Order is the aggregate record of one TWAP execution
type Order struct {
	ID string `json:"id"`
	Params
	Orders       []PlacedSlice `json:"orders"`
	FailedSlices []FailedSlice `json:"failedSlices"`
	Status       Status        `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	FinishedAt   time.Time     `json:"finishedAt,omitempty"`
}

// Statistics summarises the fills of a TWAP order
type Statistics struct {
	TWAPID         string          `json:"twapID"`
	TargetSize     decimal.Decimal `json:"targetSize"`
	TotalFilled    decimal.Decimal `json:"totalFilled"`
	TotalValue     decimal.Decimal `json:"totalValue"`
	TotalFees      decimal.Decimal `json:"totalFees"`
	VWAP           decimal.Decimal `json:"vwap"`
	CompletionRate decimal.Decimal `json:"completionRate"`
	NumFills       int             `json:"numFills"`
	MakerFills     int             `json:"makerFills"`
	TakerFills     int             `json:"takerFills"`
	PlacedSlices   int             `json:"placedSlices"`
	FailedSlices   int             `json:"failedSlices"`
	FirstFill      time.Time       `json:"firstFill,omitempty"`
	LastFill       time.Time       `json:"lastFill,omitempty"`
}

// Tracker persists TWAP order snapshots. Save must complete or fail before
// the next slice is attempted.
type Tracker interface {
	Create(ctx context.Context, o *Order) (string, error)
	Save(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
}

// Store extends Tracker with listing, deletion and fill storage
type Store interface {
	Tracker
	List(ctx context.Context) ([]*Order, error)
	Delete(ctx context.Context, id string) error
	SaveFills(ctx context.Context, id string, fills []exchange.Fill) error
	GetFills(ctx context.Context, id string) ([]exchange.Fill, error)
}

// Exchange is the exchange surface needed to execute slices
type Exchange interface {
	exchange.OrderBookFetcher
	exchange.OrderSubmitter
}
