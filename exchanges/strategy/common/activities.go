package common

import (
	"time"

	"github.com/gofrs/uuid"
)

// Activities publishes the progress of one execution on a buffered channel.
// A full buffer drops the report rather than stalling the execution. It is
// not safe for concurrent use.
type Activities struct {
	id         uuid.UUID
	strategy   string
	simulation bool
	reporter   chan *Report
	verbose    bool
}

// NewActivities returns an Activities holder for the execution id
func NewActivities(strategy string, id uuid.UUID, simulation bool) (*Activities, error) {
	if strategy == "" {
		return nil, errStrategyDescriptionIsEmpty
	}
	if id.IsNil() {
		return nil, ErrInvalidUUID
	}
	return &Activities{
		id:         id,
		strategy:   strategy,
		simulation: simulation,
		reporter:   make(chan *Report, defaultReporterBuffer),
	}, nil
}

// GetReporter hands out the report channel. Wait reports are only published
// when verbose is set.
func (a *Activities) GetReporter(verbose bool) (<-chan *Report, error) {
	if a == nil {
		return nil, errActivitiesIsNil
	}
	if a.reporter == nil {
		return nil, ErrReporterIsNil
	}
	a.verbose = verbose
	return a.reporter, nil
}

// IsSimulation reports whether orders go to a paper exchange
func (a *Activities) IsSimulation() bool {
	return a != nil && a.simulation
}

func (a *Activities) publish(reason Reason, action interface{}) {
	if a == nil || a.reporter == nil {
		return
	}
	select {
	case a.reporter <- &Report{
		ID:       a.id,
		Strategy: a.strategy,
		Action:   action,
		Reason:   reason,
		Time:     time.Now(),
	}:
	default:
	}
}

// finish publishes the last report and closes the channel. Later calls are
// no-ops.
func (a *Activities) finish(reason Reason, action interface{}) {
	if a == nil || a.reporter == nil {
		return
	}
	select {
	case a.reporter <- &Report{
		ID:       a.id,
		Strategy: a.strategy,
		Action:   action,
		Finished: true,
		Reason:   reason,
		Time:     time.Now(),
	}:
	default:
	}
	close(a.reporter)
	a.reporter = nil
}

// ReportStart publishes the order description before the first slice
func (a *Activities) ReportStart(description string) {
	if description != "" {
		a.publish(Start, MessageAction{Message: description})
	}
}

// ReportSlicePlaced publishes a slice accepted by the exchange
func (a *Activities) ReportSlicePlaced(action SliceAction) {
	a.publish(SlicePlaced, action)
}

// ReportSliceFailed publishes a slice that was not placed and why
func (a *Activities) ReportSliceFailed(action SliceAction) {
	a.publish(SliceFailed, action)
}

// ReportWait publishes the time left until the next slice
func (a *Activities) ReportWait(next time.Time) {
	if a == nil || !a.verbose || next.IsZero() {
		return
	}
	a.publish(Wait, WaitAction{Until: time.Until(next).String()})
}

// ReportInfo publishes a free form progress message
func (a *Activities) ReportInfo(message string) {
	a.publish(Info, MessageAction{Message: message})
}

// ReportComplete publishes the final status and closes the channel
func (a *Activities) ReportComplete(status string) {
	a.finish(Complete, CompleteAction{Status: status})
}

// ReportFatalError closes the channel with the error that halted execution
func (a *Activities) ReportFatalError(err error) {
	if err != nil {
		a.finish(FatalError, ErrorAction{Error: err})
	}
}

// ReportContextDone closes the channel after cancellation
func (a *Activities) ReportContextDone(err error) {
	a.finish(ContextDone, ErrorAction{Error: err})
}
