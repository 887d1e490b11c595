package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Addr string
}

type testService struct {
	cfg *testConfig
}

func newTestService(cfg *testConfig) *testService {
	return &testService{cfg: cfg}
}

func TestContainer_ProvideAndInvoke(t *testing.T) {
	c := New()

	require.NoError(t, c.Provide(func() *testConfig {
		return &testConfig{Addr: ":8080"}
	}))
	require.NoError(t, c.Provide(newTestService))

	var got *testService
	require.NoError(t, c.Invoke(func(s *testService) {
		got = s
	}))
	require.NotNil(t, got)
	assert.Equal(t, ":8080", got.cfg.Addr, "注入的服务应该拿到构造好的配置")
}

func TestContainer_ProvideValue(t *testing.T) {
	c := New()

	cfg := &testConfig{Addr: ":9090"}
	require.NoError(t, c.ProvideValue(cfg))
	require.NoError(t, c.Provide(newTestService))

	var got *testService
	require.NoError(t, c.Invoke(func(s *testService) {
		got = s
	}))
	require.NotNil(t, got)
	assert.Same(t, cfg, got.cfg, "注入的值应该就是注册的那个实例")
}

func TestContainer_ProvideValueNil(t *testing.T) {
	c := New()
	assert.Error(t, c.ProvideValue(nil), "nil值不应该被接受")
}
