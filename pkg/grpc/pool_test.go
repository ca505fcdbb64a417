package grpc

import (
	"context"
	"net"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func startHealthServer(t *testing.T) *bufconn.Listener {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, health.NewServer())
	go func() {
		_ = s.Serve(lis)
	}()
	t.Cleanup(s.Stop)
	return lis
}

func bufDialer(lis *bufconn.Listener) grpc.DialOption {
	return grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})
}

func TestPool_ReusesConnection(t *testing.T) {
	p := NewPool()
	defer p.Close()

	a, err := p.GetConnection("passthrough:///a")
	require.NoError(t, err)
	b, err := p.GetConnection("passthrough:///a")
	require.NoError(t, err)
	c, err := p.GetConnection("passthrough:///c")
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 2, p.Len())
}

func TestPool_ReplacesClosedConnection(t *testing.T) {
	p := NewPool()
	defer p.Close()

	a, err := p.GetConnection("passthrough:///a")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := p.GetConnection("passthrough:///a")
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.Equal(t, 1, p.Len())
}

func TestPool_InterceptorsAndDialOptions(t *testing.T) {
	lis := startHealthServer(t)
	var calls atomic.Int32
	counter := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		calls.Add(1)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
	p := NewPool(WithInterceptor(counter), WithDialOptions(bufDialer(lis)))
	defer p.Close()

	conn, err := p.GetConnection("passthrough:///bufnet")
	require.NoError(t, err)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	assert.Equal(t, int32(1), calls.Load())
}

func TestPool_Close(t *testing.T) {
	p := NewPool()
	_, err := p.GetConnection("passthrough:///a")
	require.NoError(t, err)
	_, err = p.GetConnection("passthrough:///b")
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.Equal(t, 0, p.Len())
}
