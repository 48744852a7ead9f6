package common

import (
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewActivities(t *testing.T) {
	t.Parallel()
	_, err := NewActivities("", uuid.Nil, false)
	if !errors.Is(err, errStrategyDescriptionIsEmpty) {
		t.Fatalf("received: '%v' but expected: '%v'", err, errStrategyDescriptionIsEmpty)
	}

	_, err = NewActivities("TWAP", uuid.Nil, false)
	if !errors.Is(err, ErrInvalidUUID) {
		t.Fatalf("received: '%v' but expected: '%v'", err, ErrInvalidUUID)
	}

	act, err := NewActivities("TWAP", uuid.Must(uuid.NewV4()), true)
	require.NoError(t, err)
	assert.True(t, act.IsSimulation())
}

func TestActivitiesReporting(t *testing.T) {
	t.Parallel()
	var nilAct *Activities
	_, err := nilAct.GetReporter(false)
	assert.ErrorIs(t, err, errActivitiesIsNil)
	assert.NotPanics(t, func() { nilAct.ReportInfo("nothing") })

	id := uuid.Must(uuid.NewV4())
	act, err := NewActivities("TWAP", id, false)
	require.NoError(t, err)

	ch, err := act.GetReporter(false)
	require.NoError(t, err)

	act.ReportStart("")
	act.ReportStart("BUY 1 BTC-USD")
	act.ReportSlicePlaced(SliceAction{Index: 0, OrderID: "abc", Size: "0.1", Price: "50000"})
	act.ReportSliceFailed(SliceAction{Index: 1, Size: "0.1", Reason: "insufficient_balance"})
	act.ReportWait(time.Now().Add(time.Minute)) // not verbose, dropped
	act.ReportComplete("completed")
	act.ReportInfo("after close") // dropped

	var reports []*Report
	for r := range ch {
		reports = append(reports, r)
	}
	require.Len(t, reports, 4)
	assert.Equal(t, Start, reports[0].Reason)
	assert.Equal(t, SlicePlaced, reports[1].Reason)
	assert.Equal(t, SliceFailed, reports[2].Reason)
	assert.Equal(t, Complete, reports[3].Reason)
	assert.True(t, reports[3].Finished)
	assert.Equal(t, id, reports[3].ID)

	_, err = act.GetReporter(false)
	assert.ErrorIs(t, err, ErrReporterIsNil)
}

func TestActivitiesFatalError(t *testing.T) {
	t.Parallel()
	act, err := NewActivities("TWAP", uuid.Must(uuid.NewV4()), false)
	require.NoError(t, err)
	ch, err := act.GetReporter(true)
	require.NoError(t, err)

	act.ReportFatalError(nil)
	act.ReportFatalError(errors.New("disk full"))
	r, ok := <-ch
	require.True(t, ok)
	assert.Equal(t, FatalError, r.Reason)
	_, ok = <-ch
	assert.False(t, ok)
}
