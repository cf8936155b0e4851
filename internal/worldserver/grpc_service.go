package worldserver

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/cory-johannsen/lilwins/internal/world"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "lilwins.world.v1.WorldService"

// Full method names.
const (
	MethodGrow       = "/" + ServiceName + "/Grow"
	MethodStats      = "/" + ServiceName + "/Stats"
	MethodSave       = "/" + ServiceName + "/Save"
	MethodReset      = "/" + ServiceName + "/Reset"
	MethodListWorlds = "/" + ServiceName + "/ListWorlds"
)

// WorldServiceServer is the server API for WorldService. Every message is a
// google.protobuf.Struct.
//
// Requests carry "profile" (a UUID string) and "world"; Grow also reads an
// optional "habit".
type WorldServiceServer interface {
	Grow(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Stats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Save(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Reset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListWorlds(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterWorldServiceServer registers srv with s.
func RegisterWorldServiceServer(s grpc.ServiceRegistrar, srv WorldServiceServer) {
	s.RegisterService(&WorldService_ServiceDesc, srv)
}

func unaryHandler(method string, call func(WorldServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(WorldServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(WorldServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// WorldService_ServiceDesc is the grpc.ServiceDesc for WorldService.
var WorldService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WorldServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Grow", Handler: unaryHandler(MethodGrow, WorldServiceServer.Grow)},
		{MethodName: "Stats", Handler: unaryHandler(MethodStats, WorldServiceServer.Stats)},
		{MethodName: "Save", Handler: unaryHandler(MethodSave, WorldServiceServer.Save)},
		{MethodName: "Reset", Handler: unaryHandler(MethodReset, WorldServiceServer.Reset)},
		{MethodName: "ListWorlds", Handler: unaryHandler(MethodListWorlds, WorldServiceServer.ListWorlds)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "lilwins/world/v1/world.proto",
}

// WorldServiceClient is the client API for WorldService.
type WorldServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewWorldServiceClient wraps cc.
func NewWorldServiceClient(cc grpc.ClientConnInterface) *WorldServiceClient {
	return &WorldServiceClient{cc: cc}
}

func (c *WorldServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// Grow calls WorldService.Grow.
func (c *WorldServiceClient) Grow(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGrow, in, opts...)
}

// Stats calls WorldService.Stats.
func (c *WorldServiceClient) Stats(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodStats, in, opts...)
}

// Save calls WorldService.Save.
func (c *WorldServiceClient) Save(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodSave, in, opts...)
}

// Reset calls WorldService.Reset.
func (c *WorldServiceClient) Reset(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodReset, in, opts...)
}

// ListWorlds calls WorldService.ListWorlds.
func (c *WorldServiceClient) ListWorlds(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodListWorlds, in, opts...)
}

// Service implements WorldServiceServer on top of a Manager.
type Service struct {
	mgr    *Manager
	logger *zap.Logger
}

// NewService creates a Service.
//
// Precondition: mgr and logger must be non-nil.
func NewService(mgr *Manager, logger *zap.Logger) *Service {
	return &Service{mgr: mgr, logger: logger.Named("grpc")}
}

// Grow implements WorldServiceServer. The response has "placed" false when
// the world is full; otherwise it describes the placement.
func (s *Service) Grow(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	profile, worldID, err := target(in)
	if err != nil {
		return nil, err
	}
	habit := in.GetFields()["habit"].GetStringValue()
	res, err := s.mgr.Grow(ctx, profile, worldID, habit)
	if err != nil {
		return nil, s.toStatus("grow", err)
	}
	if res == nil {
		return structpb.NewStruct(map[string]any{"placed": false, "world": worldID})
	}
	return structpb.NewStruct(map[string]any{
		"placed":   true,
		"world":    worldID,
		"kind":     res.Kind,
		"category": res.Category,
		"name":     res.Name,
		"coord":    []any{res.Coord.X, res.Coord.Y},
		"x":        res.X,
		"z":        res.Z,
	})
}

// Stats implements WorldServiceServer.
func (s *Service) Stats(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	profile, worldID, err := target(in)
	if err != nil {
		return nil, err
	}
	st, err := s.mgr.Stats(ctx, profile, worldID)
	if err != nil {
		return nil, s.toStatus("stats", err)
	}
	return statsStruct(worldID, st)
}

// Save implements WorldServiceServer.
func (s *Service) Save(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	profile, worldID, err := target(in)
	if err != nil {
		return nil, err
	}
	if err := s.mgr.Save(ctx, profile, worldID); err != nil {
		return nil, s.toStatus("save", err)
	}
	return structpb.NewStruct(map[string]any{"world": worldID, "saved": true})
}

// Reset implements WorldServiceServer.
func (s *Service) Reset(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	profile, worldID, err := target(in)
	if err != nil {
		return nil, err
	}
	if err := s.mgr.Reset(ctx, profile, worldID); err != nil {
		return nil, s.toStatus("reset", err)
	}
	return structpb.NewStruct(map[string]any{"world": worldID, "reset": true})
}

// ListWorlds implements WorldServiceServer.
func (s *Service) ListWorlds(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	var worlds []any
	for _, w := range s.mgr.Worlds() {
		worlds = append(worlds, map[string]any{
			"id":       w.ID,
			"name":     w.Name,
			"topology": w.Topology,
			"radius":   w.Radius,
			"scripted": w.Scripted,
		})
	}
	return structpb.NewStruct(map[string]any{"worlds": worlds})
}

func statsStruct(worldID string, st world.Stats) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"world":      worldID,
		"cells":      st.Cells,
		"structures": st.Structures,
		"buildings":  st.Buildings,
		"roads":      st.Roads,
	})
}

// target extracts the profile and world fields of a request.
func target(in *structpb.Struct) (uuid.UUID, string, error) {
	fields := in.GetFields()
	profile, err := uuid.Parse(fields["profile"].GetStringValue())
	if err != nil {
		return uuid.Nil, "", status.Errorf(codes.InvalidArgument, "profile must be a UUID: %v", err)
	}
	worldID := fields["world"].GetStringValue()
	if worldID == "" {
		return uuid.Nil, "", status.Error(codes.InvalidArgument, "world must not be empty")
	}
	return profile, worldID, nil
}

func (s *Service) toStatus(op string, err error) error {
	if errors.Is(err, ErrUnknownWorld) {
		return status.Error(codes.NotFound, err.Error())
	}
	s.logger.Error("world operation failed", zap.String("op", op), zap.Error(err))
	return status.Errorf(codes.Internal, "%s failed", op)
}
