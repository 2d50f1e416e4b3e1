package client

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/RezaEskandarii/gohire/internal/clock"
	"github.com/RezaEskandarii/gohire/internal/logger"
	"github.com/RezaEskandarii/gohire/internal/state"
	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/internal/store/memory"
	"github.com/RezaEskandarii/gohire/types"
	"github.com/RezaEskandarii/gohire/types/config"
	"github.com/stretchr/testify/require"
)

const owner = "recruiter"

var fixtureNow = time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC)

type fixture struct {
	clock    *clock.Fixed
	ops      *memory.OperationStore
	handlers *config.HandlerRegistry
	executor *OperationExecutor
	manager  *OperationManager
}

// newFixture wires a manager and executor over the in-memory ledger. A nil s uses the ledger itself.
func newFixture(t *testing.T, cfg ExecutorConfig, s store.OperationStore) *fixture {
	t.Helper()
	f := &fixture{
		clock:    clock.NewFixed(fixtureNow),
		handlers: config.NewHandlerRegistry(),
	}
	f.ops = memory.NewOperationStore(f.clock)
	if s == nil {
		s = f.ops
	}
	f.executor = NewOperationExecutor(s, f.handlers, cfg, f.clock, logger.Discard())
	f.manager = NewOperationManager(s, f.handlers, f.executor, f.clock, logger.Discard())
	t.Cleanup(f.executor.Shutdown)
	return f
}

func (f *fixture) register(t *testing.T, opType types.OperationType, fn config.ItemHandlerFunc) {
	t.Helper()
	require.NoError(t, f.handlers.Register(opType.String(), fn))
}

func notificationRequest(targets ...int64) types.CreateOperationRequest {
	params, _ := json.Marshal(types.SendNotificationParams{Channel: "email", Subject: "hello", Body: "hi"})
	return types.CreateOperationRequest{
		OperationType:   types.OperationSendNotification,
		TargetIDs:       targets,
		TargetType:      types.TargetCandidate,
		OperationParams: params,
	}
}

func (f *fixture) operation(t *testing.T, id int64) *types.Operation {
	t.Helper()
	op, err := f.ops.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, op)
	return op
}

func (f *fixture) items(t *testing.T, id int64) []types.OperationItem {
	t.Helper()
	items, err := f.ops.ListItems(context.Background(), id, 1000)
	require.NoError(t, err)
	return items
}

func itemStatuses(items []types.OperationItem) []state.ItemStatus {
	out := make([]state.ItemStatus, len(items))
	for i, it := range items {
		out[i] = it.Status
	}
	return out
}

func requireCountersConsistent(t *testing.T, op *types.Operation) {
	t.Helper()
	require.Equal(t, op.ProcessedCount, op.SuccessCount+op.FailedCount)
	require.LessOrEqual(t, op.ProcessedCount, op.TargetCount)
}
