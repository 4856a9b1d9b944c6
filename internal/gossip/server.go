package gossip

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"tuplespace/internal/wire"
)

// Server implements the PeerExchange gRPC service over a Router.
type Server struct {
	wire.UnimplementedPeerExchangeServer
	router *Router
	logger *zap.Logger
}

// NewServer creates a new peer exchange server.
func NewServer(router *Router, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{router: router, logger: logger}
}

// Advertise returns the ids this host offers.
func (s *Server) Advertise(ctx context.Context, req *wire.HostRequest) (*wire.IDList, error) {
	return &wire.IDList{
		FromId: s.router.ID(),
		Ids:    IDsToWire(s.router.Advertise()),
	}, nil
}

// Digest returns a summary of the advertised ids.
func (s *Server) Digest(ctx context.Context, req *wire.HostRequest) (*wire.DigestResponse, error) {
	return &wire.DigestResponse{
		HostId: s.router.ID(),
		Digest: s.router.Digest(),
	}, nil
}

// Missing returns the ids in the request this host does not know.
func (s *Server) Missing(ctx context.Context, req *wire.IDList) (*wire.IDList, error) {
	ids, err := IDsFromWire(req.Ids)
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.IDList{
		FromId: s.router.ID(),
		Ids:    IDsToWire(s.router.Missing(ids)),
	}, nil
}

// Fetch returns the messages for the requested ids that are still known.
func (s *Server) Fetch(ctx context.Context, req *wire.IDList) (*wire.MessageList, error) {
	ids, err := IDsFromWire(req.Ids)
	if err != nil {
		return nil, toStatus(err)
	}
	return &wire.MessageList{
		FromId:   s.router.ID(),
		Messages: MessagesToWire(s.router.Fetch(ids)),
	}, nil
}

// Deliver accepts messages pushed by a peer.
func (s *Server) Deliver(ctx context.Context, req *wire.MessageList) (*wire.DeliverResponse, error) {
	msgs, err := MessagesFromWire(req.Messages)
	if err != nil {
		s.logger.Warn("rejected delivery", zap.String("from", req.FromId), zap.Error(err))
		return nil, toStatus(err)
	}
	accepted := s.router.Deliver(msgs)
	if accepted > 0 {
		s.logger.Debug("received gossip",
			zap.String("from", req.FromId),
			zap.Int("messages", len(msgs)),
			zap.Int("accepted", accepted))
	}
	return &wire.DeliverResponse{Accepted: uint32(accepted)}, nil
}

func toStatus(err error) error {
	if errors.Is(err, wire.ErrMalformed) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
