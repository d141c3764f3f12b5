package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"entitlement-gate/internal/server/interceptors"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "entitlement.v1.AuthorizationService"

// AuthorizeMethod is the full method name of Authorize.
const AuthorizeMethod = "/" + ServiceName + "/Authorize"

// AuthorizationServer is the server API for AuthorizationService.
// Requests are a google.protobuf.Struct with account_id and device_id; responses a google.protobuf.BoolValue.
type AuthorizationServer interface {
	Authorize(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error)
}

// ServiceDesc describes AuthorizationService over well-known types, so no generated stubs are needed.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthorizationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Authorize", Handler: authorizeHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "entitlement/v1/authorization.proto",
}

// RegisterAuthorizationServer registers srv on s.
func RegisterAuthorizationServer(s grpc.ServiceRegistrar, srv AuthorizationServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func authorizeHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		// Undecodable payloads are answered false with OK, like every other rejection.
		in = &structpb.Struct{}
	}
	if interceptor == nil {
		return srv.(AuthorizationServer).Authorize(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: AuthorizeMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthorizationServer).Authorize(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// GRPCServer implements AuthorizationServer over a Checker.
type GRPCServer struct {
	gate Checker
}

// NewGRPCServer returns a GRPCServer over gate.
func NewGRPCServer(gate Checker) *GRPCServer {
	return &GRPCServer{gate: gate}
}

// Authorize never returns an error; every failure is BoolValue(false).
func (s *GRPCServer) Authorize(ctx context.Context, req *structpb.Struct) (*wrapperspb.BoolValue, error) {
	ctx = interceptors.WithTransport(ctx, interceptors.TransportGRPC)
	fields := req.GetFields()
	allowed := s.gate.Check(ctx, fieldValue(fields, "account_id"), fieldValue(fields, "device_id"))
	return wrapperspb.Bool(allowed), nil
}

func fieldValue(fields map[string]*structpb.Value, name string) any {
	v, ok := fields[name]
	if !ok || v == nil {
		return nil
	}
	return v.AsInterface()
}

// AuthorizationClient calls AuthorizationService.
type AuthorizationClient struct {
	cc grpc.ClientConnInterface
}

// NewAuthorizationClient returns a client over cc.
func NewAuthorizationClient(cc grpc.ClientConnInterface) *AuthorizationClient {
	return &AuthorizationClient{cc: cc}
}

// Authorize sends accountID and deviceID and returns the decision.
func (c *AuthorizationClient) Authorize(ctx context.Context, accountID, deviceID string, opts ...grpc.CallOption) (bool, error) {
	req, err := structpb.NewStruct(map[string]interface{}{"account_id": accountID, "device_id": deviceID})
	if err != nil {
		return false, err
	}
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, AuthorizeMethod, req, out, opts...); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}
