package connectivity

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/admindata/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// HTTPProber reports online when GET {base}/ping answers 2xx.
type HTTPProber struct {
	url    string
	client *http.Client
}

func NewHTTPProber(baseURL string, client *http.Client) *HTTPProber {
	if client == nil {
		client = http.DefaultClient
	}
	url := ""
	if baseURL != "" {
		url = strings.TrimRight(baseURL, "/") + "/ping"
	}
	return &HTTPProber{url: url, client: client}
}

func (p *HTTPProber) Probe(ctx context.Context) error {
	if p.url == "" {
		return fmt.Errorf("%w: no server url", common.ErrSignalUnavailable)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrSignalUnavailable, err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: ping status %d", common.ErrUnavailable, resp.StatusCode)
	}
	return nil
}

// GRPCHealthProber queries the standard gRPC health service.
type GRPCHealthProber struct {
	conn    *grpc.ClientConn
	client  healthpb.HealthClient
	service string
}

// NewGRPCHealthProber connects lazily to addr. service may be empty to ask
// for the overall server health.
func NewGRPCHealthProber(addr, service string, opts ...grpc.DialOption) (*GRPCHealthProber, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	return &GRPCHealthProber{conn: conn, client: healthpb.NewHealthClient(conn), service: service}, nil
}

func (p *GRPCHealthProber) Probe(ctx context.Context) error {
	resp, err := p.client.Check(ctx, &healthpb.HealthCheckRequest{Service: p.service})
	if err != nil {
		return mapHealthError(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: health status %s", common.ErrUnavailable, resp.GetStatus())
	}
	return nil
}

func (p *GRPCHealthProber) Close() error {
	return p.conn.Close()
}

func mapHealthError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %w", common.ErrNetworkFailure, err)
	}
	switch st.Code() {
	case codes.Unimplemented:
		// the server does not expose health checks
		return fmt.Errorf("%w: %s", common.ErrSignalUnavailable, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", common.ErrNetworkFailure, st.Message())
	default:
		return fmt.Errorf("%w: %s", common.ErrUnavailable, st.Message())
	}
}
