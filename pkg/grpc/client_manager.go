package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/example/shopdesk/pkg/config"
	"github.com/example/shopdesk/pkg/discovery"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// OrderAdminClient calls the order admin service over an existing
// connection. A non-empty token is sent as a bearer credential.
type OrderAdminClient struct {
	cc    grpc.ClientConnInterface
	token string
}

func NewOrderAdminClient(cc grpc.ClientConnInterface, token string) *OrderAdminClient {
	return &OrderAdminClient{cc: cc, token: token}
}

func (c *OrderAdminClient) outgoing(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
}

func (c *OrderAdminClient) byID(ctx context.Context, method string, id uint64) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(c.outgoing(ctx), method, wrapperspb.UInt64(id), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderAdminClient) GetOrder(ctx context.Context, id uint64) (*structpb.Struct, error) {
	return c.byID(ctx, methodGetOrder, id)
}

func (c *OrderAdminClient) DeliverOrder(ctx context.Context, id uint64) (*structpb.Struct, error) {
	return c.byID(ctx, methodDeliverOrder, id)
}

func (c *OrderAdminClient) CancelOrder(ctx context.Context, id uint64) (*structpb.Struct, error) {
	return c.byID(ctx, methodCancelOrder, id)
}

func (c *OrderAdminClient) ListOrders(ctx context.Context, filter map[string]interface{}) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(filter)
	if err != nil {
		return nil, fmt.Errorf("invalid filter: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(c.outgoing(ctx), methodListOrders, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClientManager owns the connection to the order service. The address is
// resolved through etcd when discovery is available and falls back to the
// configured server address otherwise.
type ClientManager struct {
	config    *config.Config
	discovery *discovery.ServiceDiscovery
	logger    *zap.Logger

	orderConn   *grpc.ClientConn
	orderClient *OrderAdminClient
}

func NewClientManager(cfg *config.Config, logger *zap.Logger, disc *discovery.ServiceDiscovery) *ClientManager {
	return &ClientManager{
		config:    cfg,
		discovery: disc,
		logger:    logger,
	}
}

// Connect opens the order service connection. token is attached to every call.
func (m *ClientManager) Connect(ctx context.Context, token string) error {
	target := m.config.Server.Addr()

	if m.discovery != nil {
		dctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		instances, err := m.discovery.Discover(dctx, m.config.Server.Name)
		if err == nil {
			target = instances[0].Addr()
			m.logger.Info("Discovered order service", zap.String("address", target))
		} else {
			m.logger.Info("Using default address for order service",
				zap.String("address", target),
				zap.Error(err))
		}
	}

	m.logger.Info("Connecting to order service", zap.String("target", target))

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("failed to connect to order service: %w", err)
	}

	m.orderConn = conn
	m.orderClient = NewOrderAdminClient(conn, token)
	return nil
}

func (m *ClientManager) OrderClient() *OrderAdminClient {
	return m.orderClient
}

func (m *ClientManager) Close() error {
	if m.orderConn == nil {
		return nil
	}
	if err := m.orderConn.Close(); err != nil {
		return fmt.Errorf("order connection close error: %w", err)
	}
	return nil
}
