package gossip

import (
	"fmt"

	"github.com/google/uuid"

	"tuplespace/internal/wire"
)

// IDsToWire converts message ids to their 16-byte wire form.
func IDsToWire(ids []uuid.UUID) [][]byte {
	out := make([][]byte, 0, len(ids))
	for _, id := range ids {
		b := id
		out = append(out, b[:])
	}
	return out
}

// IDsFromWire parses wire ids. An id that is not 16 bytes is malformed.
func IDsFromWire(raw [][]byte) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for i, b := range raw {
		id, err := uuid.FromBytes(b)
		if err != nil {
			return nil, fmt.Errorf("%w: id %d: %v", wire.ErrMalformed, i, err)
		}
		out = append(out, id)
	}
	return out, nil
}

// MessagesToWire converts messages for transmission.
func MessagesToWire(msgs []Message) []*wire.Message {
	out := make([]*wire.Message, 0, len(msgs))
	for _, m := range msgs {
		id := m.ID
		hops := m.HopCount
		if hops < 0 {
			hops = 0
		}
		out = append(out, &wire.Message{
			Id:       id[:],
			HopCount: uint32(hops),
			Tuple:    wire.FromTuple(m.Tuple),
		})
	}
	return out
}

// MessagesFromWire decodes received messages. Each decoded message owns a
// fresh tuple.
func MessagesFromWire(raw []*wire.Message) ([]Message, error) {
	out := make([]Message, 0, len(raw))
	for i, w := range raw {
		if w == nil {
			return nil, fmt.Errorf("%w: message %d is empty", wire.ErrMalformed, i)
		}
		id, err := uuid.FromBytes(w.Id)
		if err != nil {
			return nil, fmt.Errorf("%w: message %d: %v", wire.ErrMalformed, i, err)
		}
		t, err := w.Tuple.ToTuple()
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		out = append(out, Message{ID: id, HopCount: int(w.HopCount), Tuple: t})
	}
	return out, nil
}
