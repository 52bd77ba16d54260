package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/example/shopdesk/pkg/auth"
	"github.com/example/shopdesk/pkg/models"
	"github.com/example/shopdesk/pkg/order"
	"github.com/example/shopdesk/pkg/repository"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// OrderService is the part of the order service exposed over gRPC.
type OrderService interface {
	Detail(ctx context.Context, id uint64) (*order.Detail, error)
	List(ctx context.Context, filter repository.OrderFilter) ([]models.Order, error)
	Deliver(ctx context.Context, actor auth.Identity, id uint64) (*models.Order, error)
	Cancel(ctx context.Context, actor auth.Identity, id uint64) (*models.Order, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, id auth.Identity, capability auth.Capability) error
}

type Identifier interface {
	Identify(header string) (auth.Identity, error)
}

// OrderServer serves back-office order operations to internal tooling.
// Callers authenticate with the same bearer tokens as the HTTP gateway,
// passed in the "authorization" metadata key.
type OrderServer struct {
	orders OrderService
	authz  Authorizer
	tokens Identifier
	logger *zap.Logger
}

func NewOrderServer(orders OrderService, authz Authorizer, tokens Identifier, logger *zap.Logger) *OrderServer {
	return &OrderServer{
		orders: orders,
		authz:  authz,
		tokens: tokens,
		logger: logger.Named("order-admin"),
	}
}

// NewServer builds a gRPC server with the order admin, health and
// reflection services registered.
func NewServer(srv *OrderServer) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(srv.logRequests))
	RegisterOrderAdminServer(s, srv)

	hs := health.NewServer()
	hs.SetServingStatus(OrderAdminServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)

	reflection.Register(s)
	return s
}

// Serve listens on addr and blocks until the server stops.
func Serve(s *grpc.Server, addr string, logger *zap.Logger) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	logger.Info("Order service started", zap.String("address", addr))
	return s.Serve(lis)
}

func (s *OrderServer) logRequests(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	s.logger.Info("RPC",
		zap.String("method", info.FullMethod),
		zap.String("code", status.Code(err).String()),
		zap.Duration("latency", time.Since(start)))
	return resp, err
}

func (s *OrderServer) authorize(ctx context.Context, capability auth.Capability) (auth.Identity, error) {
	var header string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("authorization"); len(values) > 0 {
			header = values[0]
		}
	}

	id, err := s.tokens.Identify(header)
	if err != nil {
		return auth.Identity{}, err
	}
	if err := s.authz.Authorize(ctx, id, capability); err != nil {
		return auth.Identity{}, err
	}
	return id, nil
}

func (s *OrderServer) GetOrder(ctx context.Context, req *wrapperspb.UInt64Value) (*structpb.Struct, error) {
	if _, err := s.authorize(ctx, auth.ViewOrder); err != nil {
		return nil, s.fail(err)
	}
	detail, err := s.orders.Detail(ctx, req.GetValue())
	if err != nil {
		return nil, s.fail(err)
	}
	return toStruct(detail)
}

// ListOrders accepts optional "user_id", "status", "limit" and "offset"
// fields and replies with {"orders": [...]}, newest first.
func (s *OrderServer) ListOrders(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if _, err := s.authorize(ctx, auth.ViewOrder); err != nil {
		return nil, s.fail(err)
	}

	var filter repository.OrderFilter
	fields := req.GetFields()
	if v, ok := fields["user_id"]; ok {
		n, err := wholeNumber("user_id", v)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, status.Error(codes.InvalidArgument, "user_id must be positive")
		}
		uid := uint64(n)
		filter.UserID = &uid
	}
	if v, ok := fields["status"]; ok {
		filter.Status = models.OrderStatus(v.GetStringValue())
		if !filter.Status.Valid() {
			return nil, status.Errorf(codes.InvalidArgument, "unknown status %q", v.GetStringValue())
		}
	}
	if v, ok := fields["limit"]; ok {
		n, err := wholeNumber("limit", v)
		if err != nil {
			return nil, err
		}
		filter.Limit = int(n)
	}
	if v, ok := fields["offset"]; ok {
		n, err := wholeNumber("offset", v)
		if err != nil {
			return nil, err
		}
		filter.Offset = int(n)
	}

	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, s.fail(err)
	}
	return toStruct(map[string]interface{}{"orders": orders})
}

// wholeNumber reads a non-negative integral number field. Struct numbers are
// float64, so anything past 2^53 has already lost precision.
func wholeNumber(name string, v *structpb.Value) (int64, error) {
	num, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a number", name)
	}
	n := num.NumberValue
	if math.IsNaN(n) || n < 0 || n != math.Trunc(n) || n > 1<<53 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a non-negative integer", name)
	}
	return int64(n), nil
}

func (s *OrderServer) DeliverOrder(ctx context.Context, req *wrapperspb.UInt64Value) (*structpb.Struct, error) {
	id, err := s.authorize(ctx, auth.DeliverOrder)
	if err != nil {
		return nil, s.fail(err)
	}
	o, err := s.orders.Deliver(ctx, id, req.GetValue())
	if err != nil {
		return nil, s.fail(err)
	}
	return toStruct(o)
}

func (s *OrderServer) CancelOrder(ctx context.Context, req *wrapperspb.UInt64Value) (*structpb.Struct, error) {
	id, err := s.authorize(ctx, auth.CancelOrder)
	if err != nil {
		return nil, s.fail(err)
	}
	o, err := s.orders.Cancel(ctx, id, req.GetValue())
	if err != nil {
		return nil, s.fail(err)
	}
	return toStruct(o)
}

// toStruct renders v through its JSON encoding so the wire shape matches
// the HTTP API.
func toStruct(v interface{}) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode reply")
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, status.Error(codes.Internal, "failed to encode reply")
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to encode reply")
	}
	return out, nil
}

func (s *OrderServer) fail(err error) error {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, models.ErrEmptyBasket):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, models.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, models.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case models.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, models.ErrInvalidTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		s.logger.Error("Order admin request failed", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}
