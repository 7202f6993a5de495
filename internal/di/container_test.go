package di

import (
	"context"
	"reflect"
	"testing"

	"tacticsboard-auth/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type registryProbe struct {
	Name string
}

type cleanupProbe struct {
	cleaned bool
}

func (p *cleanupProbe) Cleanup(ctx context.Context) error {
	p.cleaned = true
	return nil
}

func TestContainer_RegisterAndResolve(t *testing.T) {
	c := NewContainer(logger.NewTestLogger())

	probe := &registryProbe{Name: "probe"}
	require.NoError(t, c.Register(probe))

	// Pointer registrations are stored under the element type.
	resolved, err := c.Resolve(reflect.TypeOf(registryProbe{}))
	require.NoError(t, err)
	assert.Same(t, probe, resolved)
}

func TestContainer_ResolveUnknownType(t *testing.T) {
	c := NewContainer(logger.NewTestLogger())

	_, err := c.Resolve(reflect.TypeOf(registryProbe{}))
	assert.Error(t, err)
}

func TestContainer_FactoryResolvesLazilyAndOnce(t *testing.T) {
	c := NewContainer(logger.NewTestLogger())

	calls := 0
	probeType := reflect.TypeOf(registryProbe{})
	require.NoError(t, c.RegisterFactory(probeType, func() (interface{}, error) {
		calls++
		return &registryProbe{Name: "from-factory"}, nil
	}))
	assert.Equal(t, 0, calls, "factory must not run at registration time")

	first, err := c.Resolve(probeType)
	require.NoError(t, err)
	second, err := c.Resolve(probeType)
	require.NoError(t, err)

	assert.Equal(t, 1, calls, "resolved instance is memoized")
	assert.Same(t, first, second)
}

func TestGetService_ValueRegistration(t *testing.T) {
	c := NewContainer(logger.NewTestLogger())

	require.NoError(t, c.Register(registryProbe{Name: "by-value"}))

	got, err := GetService[registryProbe](c)
	require.NoError(t, err)
	assert.Equal(t, "by-value", got.Name)
}

func TestContainer_CleanupRunsRegisteredCleaners(t *testing.T) {
	c := NewContainer(logger.NewTestLogger())

	probe := &cleanupProbe{}
	require.NoError(t, c.Register(probe))

	require.NoError(t, c.Cleanup(context.Background()))

	assert.True(t, probe.cleaned)

	// The registry is cleared, nothing resolves anymore.
	_, err := c.Resolve(reflect.TypeOf(cleanupProbe{}))
	assert.Error(t, err)
}

func TestContainer_HealthBeforeInitialization(t *testing.T) {
	c := NewContainer(logger.NewTestLogger())

	// Without connections there is nothing to fail.
	assert.NoError(t, c.HealthCheck(context.Background()))
	assert.False(t, c.CacheHealthy(context.Background()))
	assert.Nil(t, c.GetAuthModule())
}
