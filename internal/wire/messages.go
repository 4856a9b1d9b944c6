package wire

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field is one tuple position.
type Field struct {
	Kind   uint32  // 1
	Formal bool    // 2
	Int    int64   // 3, zigzag
	Float  float64 // 4
	Str    string  // 5
	Bool   bool    // 6
	Bytes  []byte  // 7
}

func (m *Field) MarshalWire() []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(m.Kind))
	b = appendBool(b, 2, m.Formal)
	b = appendSint64(b, 3, m.Int)
	b = appendDouble(b, 4, m.Float)
	b = appendString(b, 5, m.Str)
	b = appendBool(b, 6, m.Bool)
	b = appendBytes(b, 7, m.Bytes)
	return b
}

func (m *Field) UnmarshalWire(b []byte) error {
	*m = Field{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(num, typ, b)
			m.Kind = uint32(v)
			return n, err
		case 2:
			v, n, err := consumeVarint(num, typ, b)
			m.Formal = v != 0
			return n, err
		case 3:
			v, n, err := consumeVarint(num, typ, b)
			m.Int = protowire.DecodeZigZag(v)
			return n, err
		case 4:
			v, n, err := consumeFixed64(num, typ, b)
			m.Float = math.Float64frombits(v)
			return n, err
		case 5:
			v, n, err := consumeString(num, typ, b)
			m.Str = v
			return n, err
		case 6:
			v, n, err := consumeVarint(num, typ, b)
			m.Bool = v != 0
			return n, err
		case 7:
			v, n, err := consumeBytes(num, typ, b)
			m.Bytes = v
			return n, err
		}
		return 0, nil
	})
}

// Tuple is a tuple with its leasing as Unix seconds plus nanoseconds, the
// layout of google.protobuf.Timestamp. Both zero is no leasing.
type Tuple struct {
	LeasingSeconds int64    // 1, zigzag
	Fields         []*Field // 2
	LeasingNanos   int32    // 3, in [0, 1e9)
}

func (m *Tuple) MarshalWire() []byte {
	var b []byte
	b = appendSint64(b, 1, m.LeasingSeconds)
	for _, f := range m.Fields {
		b = appendBytesAlways(b, 2, f.MarshalWire())
	}
	b = appendVarint(b, 3, uint64(m.LeasingNanos))
	return b
}

func (m *Tuple) UnmarshalWire(b []byte) error {
	*m = Tuple{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeVarint(num, typ, b)
			m.LeasingSeconds = protowire.DecodeZigZag(v)
			return n, err
		case 2:
			f := new(Field)
			n, err := consumeMessage(num, typ, b, f)
			m.Fields = append(m.Fields, f)
			return n, err
		case 3:
			v, n, err := consumeVarint(num, typ, b)
			m.LeasingNanos = int32(v)
			return n, err
		}
		return 0, nil
	})
}

// Message is a gossip envelope.
type Message struct {
	Id       []byte // 1, 16-byte UUID
	HopCount uint32 // 2
	Tuple    *Tuple // 3
}

func (m *Message) MarshalWire() []byte {
	var b []byte
	b = appendBytes(b, 1, m.Id)
	b = appendVarint(b, 2, uint64(m.HopCount))
	if m.Tuple != nil {
		b = appendBytesAlways(b, 3, m.Tuple.MarshalWire())
	}
	return b
}

func (m *Message) UnmarshalWire(b []byte) error {
	*m = Message{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeBytes(num, typ, b)
			m.Id = v
			return n, err
		case 2:
			v, n, err := consumeVarint(num, typ, b)
			m.HopCount = uint32(v)
			return n, err
		case 3:
			m.Tuple = new(Tuple)
			return consumeMessage(num, typ, b, m.Tuple)
		}
		return 0, nil
	})
}

// IDList carries the sender and a list of message ids. It is the request
// of Missing and Fetch and the response of Advertise and Missing.
type IDList struct {
	FromId string   // 1
	Ids    [][]byte // 2
}

func (m *IDList) MarshalWire() []byte {
	var b []byte
	b = appendString(b, 1, m.FromId)
	for _, id := range m.Ids {
		b = appendBytesAlways(b, 2, id)
	}
	return b
}

func (m *IDList) UnmarshalWire(b []byte) error {
	*m = IDList{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeString(num, typ, b)
			m.FromId = v
			return n, err
		case 2:
			v, n, err := consumeBytes(num, typ, b)
			m.Ids = append(m.Ids, v)
			return n, err
		}
		return 0, nil
	})
}

// MessageList carries the sender and a batch of messages. It is the
// response of Fetch and the request of Deliver.
type MessageList struct {
	FromId   string     // 1
	Messages []*Message // 2
}

func (m *MessageList) MarshalWire() []byte {
	var b []byte
	b = appendString(b, 1, m.FromId)
	for _, msg := range m.Messages {
		b = appendBytesAlways(b, 2, msg.MarshalWire())
	}
	return b
}

func (m *MessageList) UnmarshalWire(b []byte) error {
	*m = MessageList{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeString(num, typ, b)
			m.FromId = v
			return n, err
		case 2:
			msg := new(Message)
			n, err := consumeMessage(num, typ, b, msg)
			m.Messages = append(m.Messages, msg)
			return n, err
		}
		return 0, nil
	})
}

// HostRequest identifies the calling host.
type HostRequest struct {
	FromId string // 1
}

func (m *HostRequest) MarshalWire() []byte {
	return appendString(nil, 1, m.FromId)
}

func (m *HostRequest) UnmarshalWire(b []byte) error {
	*m = HostRequest{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			v, n, err := consumeString(num, typ, b)
			m.FromId = v
			return n, err
		}
		return 0, nil
	})
}

// DigestResponse carries a summary of the responder's advertised ids.
type DigestResponse struct {
	HostId string // 1
	Digest uint64 // 2, fixed64
}

func (m *DigestResponse) MarshalWire() []byte {
	var b []byte
	b = appendString(b, 1, m.HostId)
	b = appendFixed64(b, 2, m.Digest)
	return b
}

func (m *DigestResponse) UnmarshalWire(b []byte) error {
	*m = DigestResponse{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch num {
		case 1:
			v, n, err := consumeString(num, typ, b)
			m.HostId = v
			return n, err
		case 2:
			v, n, err := consumeFixed64(num, typ, b)
			m.Digest = v
			return n, err
		}
		return 0, nil
	})
}

// DeliverResponse reports how many delivered messages were new.
type DeliverResponse struct {
	Accepted uint32 // 1
}

func (m *DeliverResponse) MarshalWire() []byte {
	return appendVarint(nil, 1, uint64(m.Accepted))
}

func (m *DeliverResponse) UnmarshalWire(b []byte) error {
	*m = DeliverResponse{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			v, n, err := consumeVarint(num, typ, b)
			m.Accepted = uint32(v)
			return n, err
		}
		return 0, nil
	})
}

// OutRequest inserts tuples into the remote space.
type OutRequest struct {
	Tuples []*Tuple // 1
}

func (m *OutRequest) MarshalWire() []byte {
	var b []byte
	for _, t := range m.Tuples {
		b = appendBytesAlways(b, 1, t.MarshalWire())
	}
	return b
}

func (m *OutRequest) UnmarshalWire(b []byte) error {
	*m = OutRequest{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			t := new(Tuple)
			n, err := consumeMessage(num, typ, b, t)
			m.Tuples = append(m.Tuples, t)
			return n, err
		}
		return 0, nil
	})
}

// OutResponse reports how many tuples were stored.
type OutResponse struct {
	Stored uint32 // 1
}

func (m *OutResponse) MarshalWire() []byte {
	return appendVarint(nil, 1, uint64(m.Stored))
}

func (m *OutResponse) UnmarshalWire(b []byte) error {
	*m = OutResponse{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			v, n, err := consumeVarint(num, typ, b)
			m.Stored = uint32(v)
			return n, err
		}
		return 0, nil
	})
}

// TupleMessage carries a single tuple: the pattern of In and Read, and
// the tuple they resolve to.
type TupleMessage struct {
	Tuple *Tuple // 1
}

func (m *TupleMessage) MarshalWire() []byte {
	if m.Tuple == nil {
		return nil
	}
	return appendBytesAlways(nil, 1, m.Tuple.MarshalWire())
}

func (m *TupleMessage) UnmarshalWire(b []byte) error {
	*m = TupleMessage{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == 1 {
			m.Tuple = new(Tuple)
			return consumeMessage(num, typ, b, m.Tuple)
		}
		return 0, nil
	})
}

// HealthResponse describes the state of a host.
type HealthResponse struct {
	HostId        string // 1
	Stored        uint64 // 2
	Pending       uint64 // 3
	Messages      uint64 // 4
	UptimeSeconds uint64 // 5
}

func (m *HealthResponse) MarshalWire() []byte {
	var b []byte
	b = appendString(b, 1, m.HostId)
	b = appendVarint(b, 2, m.Stored)
	b = appendVarint(b, 3, m.Pending)
	b = appendVarint(b, 4, m.Messages)
	b = appendVarint(b, 5, m.UptimeSeconds)
	return b
}

func (m *HealthResponse) UnmarshalWire(b []byte) error {
	*m = HealthResponse{}
	return decode(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		var dst *uint64
		switch num {
		case 1:
			v, n, err := consumeString(num, typ, b)
			m.HostId = v
			return n, err
		case 2:
			dst = &m.Stored
		case 3:
			dst = &m.Pending
		case 4:
			dst = &m.Messages
		case 5:
			dst = &m.UptimeSeconds
		default:
			return 0, nil
		}
		v, n, err := consumeVarint(num, typ, b)
		*dst = v
		return n, err
	})
}
