// Package api exposes fiscal runs over gRPC with a JSON codec.
package api

import (
	"context"

	apperrors "github.com/louisbranch/cabinet/internal/platform/errors"
	"github.com/louisbranch/cabinet/internal/platform/errors/i18n"
	"github.com/louisbranch/cabinet/internal/services/fiscal/storage"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "cabinet.fiscal.v1.FiscalService"

// LocaleHeader carries the caller's preferred locale for error messages.
const LocaleHeader = "accept-language"

// RunService is the run surface served over gRPC.
type RunService interface {
	CreateRun(ctx context.Context, entityID string, fiscalYear int) (storage.RunRecord, error)
	RegenerateRun(ctx context.Context, runID string) (storage.RunRecord, error)
	GetRun(ctx context.Context, runID string) (storage.RunRecord, error)
	ListRunTasks(ctx context.Context, runID, filter string) ([]storage.TaskRecord, error)
}

type server struct {
	service RunService
}

// Register adds the fiscal service to s.
func Register(s grpc.ServiceRegistrar, service RunService) {
	s.RegisterService(&serviceDesc, &server{service: service})
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateRun", Handler: unary(func(s *server, ctx context.Context, req *CreateRunRequest) (any, error) {
			run, err := s.service.CreateRun(ctx, req.EntityID, req.FiscalYear)
			if err != nil {
				return nil, err
			}
			return runFromRecord(run), nil
		})},
		{MethodName: "RegenerateRun", Handler: unary(func(s *server, ctx context.Context, req *RunRequest) (any, error) {
			run, err := s.service.RegenerateRun(ctx, req.RunID)
			if err != nil {
				return nil, err
			}
			return runFromRecord(run), nil
		})},
		{MethodName: "GetRun", Handler: unary(func(s *server, ctx context.Context, req *RunRequest) (any, error) {
			run, err := s.service.GetRun(ctx, req.RunID)
			if err != nil {
				return nil, err
			}
			return runFromRecord(run), nil
		})},
		{MethodName: "ListRunTasks", Handler: unary(func(s *server, ctx context.Context, req *ListRunTasksRequest) (any, error) {
			tasks, err := s.service.ListRunTasks(ctx, req.RunID, req.Filter)
			if err != nil {
				return nil, err
			}
			return ListRunTasksResponse{Tasks: tasksFromRecords(tasks)}, nil
		})},
	},
}

// unary adapts a typed handler to grpc.MethodDesc. Errors leave as gRPC
// statuses localized for the caller.
func unary[Req any](call func(*server, context.Context, *Req) (any, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		handler := func(ctx context.Context, in any) (any, error) {
			resp, err := call(srv.(*server), ctx, in.(*Req))
			if err != nil {
				return nil, apperrors.StatusFor(err, callerLocale(ctx))
			}
			return resp, nil
		}
		if interceptor == nil {
			return handler(ctx, req)
		}
		fullMethod, _ := grpc.Method(ctx)
		return interceptor(ctx, req, &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}, handler)
	}
}

func callerLocale(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return i18n.BaseLocale
	}
	values := md.Get(LocaleHeader)
	if len(values) == 0 {
		return i18n.BaseLocale
	}
	return i18n.Match(values[0])
}
