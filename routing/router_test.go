package routing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcrew/agent"
	"github.com/hupe1980/agentcrew/core"
	"github.com/hupe1980/agentcrew/internal/testutil"
)

// behaviorUnit executes a scripted behavior so routing paths can be exercised
// without real agents.
type behaviorUnit struct {
	name string
	fn   func(ctx context.Context, ec *core.ExecutionContext, input map[string]any) (core.AgentResult, error)
}

func (u behaviorUnit) Name() string { return u.name }

func (u behaviorUnit) Execute(ctx context.Context, ec *core.ExecutionContext, input map[string]any) (core.AgentResult, error) {
	return u.fn(ctx, ec, input)
}

func newRouterFixture(t *testing.T, name string, fn func(ctx context.Context, ec *core.ExecutionContext, input map[string]any) (core.AgentResult, error)) *AgentRouter {
	t.Helper()

	catalog := agent.NewCatalog()
	catalog.MustRegister(agent.Registration{
		Name: name,
		New:  func(agent.UnitDeps) core.AgentUnit { return behaviorUnit{name: name, fn: fn} },
	})

	factory := agent.NewInstanceFactory(catalog, testutil.NewContextBuilder().Build())

	return NewAgentRouter(factory)
}

func TestAgentRouter_Success(t *testing.T) {
	router := newRouterFixture(t, "analysis", func(_ context.Context, _ *core.ExecutionContext, _ map[string]any) (core.AgentResult, error) {
		return core.NewAgentResult("analysis", map[string]any{"summary": "fine"}), nil
	})

	res, err := router.Route(context.Background(), "analysis", nil)

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "fine", res.Data["summary"])
}

func TestAgentRouter_UnknownAgent(t *testing.T) {
	router := newRouterFixture(t, "analysis", func(_ context.Context, _ *core.ExecutionContext, _ map[string]any) (core.AgentResult, error) {
		return core.NewAgentResult("analysis", nil), nil
	})

	_, err := router.Route(context.Background(), "nope", nil)

	require.Error(t, err)
	assert.True(t, core.IsUnknownAgent(err))
}

func TestAgentRouter_UnitErrorBecomesFailedResult(t *testing.T) {
	router := newRouterFixture(t, "analysis", func(_ context.Context, _ *core.ExecutionContext, _ map[string]any) (core.AgentResult, error) {
		return core.AgentResult{}, errors.New("backend down")
	})

	res, err := router.Route(context.Background(), "analysis", nil)

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "backend down")
	assert.Contains(t, res.Error, `agent "analysis" execution failed`)
}

func TestAgentRouter_PanicBecomesFailedResult(t *testing.T) {
	router := newRouterFixture(t, "analysis", func(_ context.Context, _ *core.ExecutionContext, _ map[string]any) (core.AgentResult, error) {
		panic("nil map write")
	})

	res, err := router.Route(context.Background(), "analysis", nil)

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "panic")
	assert.Contains(t, res.Error, "nil map write")
}

func TestAgentRouter_DeliveryErrorPropagates(t *testing.T) {
	deliveryErr := &core.NotificationDeliveryError{Kind: core.EventAgentThinking, Err: errors.New("socket closed")}
	router := newRouterFixture(t, "analysis", func(_ context.Context, _ *core.ExecutionContext, _ map[string]any) (core.AgentResult, error) {
		return core.AgentResult{}, deliveryErr
	})

	_, err := router.Route(context.Background(), "analysis", nil)

	require.Error(t, err)
	assert.True(t, core.IsNotificationDelivery(err))
}

func TestAgentRouter_NormalizesBareResult(t *testing.T) {
	router := newRouterFixture(t, "analysis", func(_ context.Context, _ *core.ExecutionContext, _ map[string]any) (core.AgentResult, error) {
		return core.AgentResult{Success: false}, nil
	})

	res, err := router.Route(context.Background(), "analysis", nil)

	require.NoError(t, err)
	assert.Equal(t, "analysis", res.AgentName)
	assert.NotEmpty(t, res.Error)
}
