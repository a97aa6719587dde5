package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/solatis/smartplaylist/internal/core/auth"
	"github.com/solatis/smartplaylist/internal/playlist"
	"github.com/solatis/smartplaylist/internal/types"
)

// Fully qualified names of the playlist RPC service.
const (
	ServiceName         = "smartplaylist.v1.PlaylistService"
	EvaluateMethod      = "/" + ServiceName + "/Evaluate"
	RefreshMethod       = "/" + ServiceName + "/Refresh"
	ListPlaylistsMethod = "/" + ServiceName + "/ListPlaylists"
)

// PlaylistServer is the server API for the playlist RPC service.
// Messages are well-known protobuf types: requests carry the playlist ID in
// a StringValue, evaluation responses are Structs.
type PlaylistServer interface {
	Evaluate(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Refresh(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListPlaylists(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
}

// ServiceDesc describes the playlist RPC service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PlaylistServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Evaluate",
			Handler: unaryHandler(EvaluateMethod, func(srv PlaylistServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
				return srv.Evaluate(ctx, in)
			}),
		},
		{
			MethodName: "Refresh",
			Handler: unaryHandler(RefreshMethod, func(srv PlaylistServer, ctx context.Context, in *wrapperspb.StringValue) (any, error) {
				return srv.Refresh(ctx, in)
			}),
		},
		{
			MethodName: "ListPlaylists",
			Handler: unaryHandler(ListPlaylistsMethod, func(srv PlaylistServer, ctx context.Context, in *emptypb.Empty) (any, error) {
				return srv.ListPlaylists(ctx, in)
			}),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "smartplaylist/v1/playlist.proto",
}

// unaryHandler adapts a typed method to grpc.MethodHandler, the shape
// protoc-gen-go-grpc generates per method.
func unaryHandler[Req any, PReq interface {
	*Req
}](fullMethod string, call func(PlaylistServer, context.Context, PReq) (any, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PlaylistServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PlaylistServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// GRPCHandler serves PlaylistServer on top of PlaylistService.
type GRPCHandler struct {
	service *PlaylistService
}

var _ PlaylistServer = (*GRPCHandler)(nil)

// NewGRPCHandler wraps service for registration with ServiceDesc.
func NewGRPCHandler(service *PlaylistService) *GRPCHandler {
	return &GRPCHandler{service: service}
}

// Evaluate returns the current contents of a playlist without persisting.
func (h *GRPCHandler) Evaluate(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	return h.run(ctx, req, false)
}

// Refresh evaluates a playlist and persists the result.
func (h *GRPCHandler) Refresh(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	return h.run(ctx, req, true)
}

func (h *GRPCHandler) run(ctx context.Context, req *wrapperspb.StringValue, persist bool) (*structpb.Struct, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		return nil, status.Error(codes.Internal, "missing user_id in context")
	}

	id, err := types.ParsePlaylistID(req.GetValue())
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid playlist ID %q: %v", req.GetValue(), err)
	}

	ctx, cancel := context.WithTimeout(ctx, h.service.cfg.RequestTimeout)
	defer cancel()

	def, err := h.service.store.GetPlaylist(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	if def.User != userID {
		return nil, toStatus(ErrNotOwner)
	}

	res, err := h.service.EvaluateDefinition(ctx, def, Options{Persist: persist})
	if err != nil {
		return nil, toStatus(err)
	}
	return resultStruct(res)
}

// ListPlaylists returns the caller's playlists.
func (h *GRPCHandler) ListPlaylists(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	userID := auth.UserIDFromContext(ctx)
	if userID == "" {
		return nil, status.Error(codes.Internal, "missing user_id in context")
	}

	ctx, cancel := context.WithTimeout(ctx, h.service.cfg.RequestTimeout)
	defer cancel()

	defs, err := h.service.ListPlaylists(ctx, userID)
	if err != nil {
		return nil, toStatus(err)
	}

	entries := make([]any, 0, len(defs))
	for _, def := range defs {
		entries = append(entries, definitionMap(def))
	}
	list, err := structpb.NewList(entries)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return list, nil
}

func resultStruct(res *Result) (*structpb.Struct, error) {
	items := make([]any, len(res.Items))
	for i, id := range res.Items {
		items[i] = string(id)
	}
	s, err := structpb.NewStruct(map[string]any{
		"playlist_id": string(res.PlaylistID),
		"name":        res.Name,
		"order":       res.Order,
		"max_items":   res.MaxItems,
		"matched":     res.Matched,
		"item_ids":    items,
		"duration_ms": res.Duration.Milliseconds(),
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return s, nil
}

func definitionMap(def playlist.Definition) map[string]any {
	return map[string]any{
		"id":        string(def.ID),
		"name":      def.Name,
		"order":     def.Order.Name,
		"max_items": def.MaxItems,
		"sets":      len(def.ExpressionSets),
	}
}

// PlaylistClient is the client API for the playlist RPC service.
type PlaylistClient struct {
	cc grpc.ClientConnInterface
}

// NewPlaylistClient wraps a client connection.
func NewPlaylistClient(cc grpc.ClientConnInterface) *PlaylistClient {
	return &PlaylistClient{cc: cc}
}

func (c *PlaylistClient) Evaluate(ctx context.Context, id types.PlaylistID, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, EvaluateMethod, wrapperspb.String(string(id)), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PlaylistClient) Refresh(ctx context.Context, id types.PlaylistID, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, RefreshMethod, wrapperspb.String(string(id)), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PlaylistClient) ListPlaylists(ctx context.Context, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, ListPlaylistsMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
