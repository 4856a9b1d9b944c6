package node

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tuplespace/internal/space"
	"tuplespace/internal/tuple"
	"tuplespace/internal/wire"
)

// Server implements the TupleSpace gRPC service.
type Server struct {
	wire.UnimplementedTupleSpaceServer
	space     *space.Space
	nodeID    string
	startTime time.Time
	logger    *zap.Logger
}

// NewServer creates a new gRPC server instance.
func NewServer(sp *space.Space, nodeID string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		space:     sp,
		nodeID:    nodeID,
		startTime: time.Now(),
		logger:    logger,
	}
}

// Out handles Out requests.
func (s *Server) Out(ctx context.Context, req *wire.OutRequest) (*wire.OutResponse, error) {
	tuples, err := wire.ToTuples(req.Tuples)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	s.space.OutMany(tuples...)
	s.logger.Debug("out", zap.Int("tuples", len(tuples)))
	return &wire.OutResponse{Stored: uint32(len(tuples))}, nil
}

// In handles In requests. The call blocks until a match is removed or the
// caller goes away.
func (s *Server) In(ctx context.Context, req *wire.TupleMessage) (*wire.TupleMessage, error) {
	return s.retrieve(ctx, req, s.space.InContext)
}

// Read handles Read requests.
func (s *Server) Read(ctx context.Context, req *wire.TupleMessage) (*wire.TupleMessage, error) {
	return s.retrieve(ctx, req, s.space.ReadContext)
}

func (s *Server) retrieve(ctx context.Context, req *wire.TupleMessage,
	submit func(context.Context, *tuple.Tuple) (*space.Pending, error)) (*wire.TupleMessage, error) {
	pattern, err := req.Tuple.ToTuple()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	pending, err := submit(ctx, pattern)
	if err != nil {
		return nil, toStatus(err)
	}
	result, err := pending.Result()
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.TupleMessage{Tuple: wire.FromTuple(result)}, nil
}

// Health returns health status (operability endpoint).
func (s *Server) Health(ctx context.Context, req *wire.HostRequest) (*wire.HealthResponse, error) {
	stats := s.space.Stats()
	return &wire.HealthResponse{
		HostId:        s.nodeID,
		Stored:        uint64(stats.Stored),
		Pending:       uint64(stats.Pending),
		Messages:      uint64(stats.Messages),
		UptimeSeconds: uint64(time.Since(s.startTime).Seconds()),
	}, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, space.ErrCapacity):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, space.ErrClosed):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
