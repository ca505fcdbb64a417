package grpc

import (
	"context"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/JoeShih716/go-mem-account/pkg/metrics"
)

// LoggingInterceptor 記錄每個請求的方法、狀態碼與耗時
// Internal / Unknown 用 Error，其餘失敗用 Warn，成功用 Debug
func LoggingInterceptor(log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		entry := log.WithFields(logrus.Fields{
			"method":   info.FullMethod,
			"code":     code.String(),
			"duration": time.Since(start),
		})
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			entry = entry.WithField("peer", p.Addr.String())
		}
		switch code {
		case codes.OK:
			entry.Debug("rpc handled")
		case codes.Internal, codes.Unknown:
			entry.WithError(err).Error("rpc failed")
		default:
			entry.WithError(err).Warn("rpc failed")
		}
		return resp, err
	}
}

// RecoveryInterceptor handler panic 時記錄堆疊並回傳 codes.Internal，不讓整個程序結束
func RecoveryInterceptor(log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.WithFields(logrus.Fields{
					"method": info.FullMethod,
					"panic":  r,
					"stack":  string(debug.Stack()),
				}).Error("rpc panicked")
				resp, err = nil, status.Errorf(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

// MetricsInterceptor 記錄每個請求的耗時到 Prometheus
func MetricsInterceptor(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.ObserveRPC(info.FullMethod, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}

// RateLimiter 依來源位址各自限流
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	log      logrus.FieldLogger
}

// maxLimiters 超過時整個重建，避免來源位址無限增長
const maxLimiters = 10000

// NewRateLimiter rps <= 0 時不限流
func NewRateLimiter(rps float64, burst int, log logrus.FieldLogger) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
		log:      log,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.limiters[key]
	if !ok {
		if len(rl.limiters) >= maxLimiters {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// Unary 超過限制時回傳 codes.ResourceExhausted
func (rl *RateLimiter) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if rl.rate <= 0 {
			return handler(ctx, req)
		}
		key := peerKey(ctx)
		if !rl.limiter(key).Allow() {
			if rl.log != nil {
				rl.log.WithFields(logrus.Fields{
					"peer":   key,
					"method": info.FullMethod,
				}).Warn("rate limit exceeded")
			}
			return nil, status.Errorf(codes.ResourceExhausted, "rate limit exceeded for %s", key)
		}
		return handler(ctx, req)
	}
}

// peerKey 來源主機 (不含 port)，同一台主機的多條連線共用一個 limiter
func peerKey(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	addr := p.Addr.String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
