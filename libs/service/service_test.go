package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testService struct {
	BaseService
}

func newTestService() *testService {
	ts := &testService{}
	ts.BaseService = *NewBaseService(nil, "TestService", ts)
	return ts
}

func TestBaseServiceStartStop(t *testing.T) {
	ts := newTestService()

	require.ErrorIs(t, ts.Stop(), ErrNotStarted)

	require.NoError(t, ts.Start())
	require.True(t, ts.IsRunning())
	require.ErrorIs(t, ts.Start(), ErrAlreadyStarted)

	require.NoError(t, ts.Stop())
	require.False(t, ts.IsRunning())
	require.ErrorIs(t, ts.Stop(), ErrAlreadyStopped)
	require.Error(t, ts.Start())

	select {
	case <-ts.Quit():
	default:
		t.Fatal("quit channel should be closed after Stop")
	}
}
