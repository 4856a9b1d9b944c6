package wire

import (
	"errors"
	"testing"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"tuplespace/internal/tuple"
)

func TestTuple_RoundTrip(t *testing.T) {
	leasing := time.Unix(1_700_000_000, 42)
	orig := tuple.New(leasing,
		tuple.Int(-7),
		tuple.Float(2.5),
		tuple.String("hi"),
		tuple.Bool(true),
		tuple.Bytes([]byte{0, 1, 2}),
		tuple.Formal(tuple.KindString),
		tuple.Int(0),
		tuple.Bool(false),
	)

	var decoded Tuple
	if err := decoded.UnmarshalWire(FromTuple(orig).MarshalWire()); err != nil {
		t.Fatalf("UnmarshalWire failed: %v", err)
	}
	got, err := decoded.ToTuple()
	if err != nil {
		t.Fatalf("ToTuple failed: %v", err)
	}
	if !got.Equal(orig) {
		t.Errorf("Expected %v, got %v", orig, got)
	}
	if !got.Leasing().Equal(leasing) {
		t.Errorf("Expected leasing %v, got %v", leasing, got.Leasing())
	}
}

func TestTuple_ZeroLeasingStaysZero(t *testing.T) {
	orig := tuple.Template(tuple.Int(10), tuple.Formal(tuple.KindString))

	var decoded Tuple
	if err := decoded.UnmarshalWire(FromTuple(orig).MarshalWire()); err != nil {
		t.Fatalf("UnmarshalWire failed: %v", err)
	}
	got, err := decoded.ToTuple()
	if err != nil {
		t.Fatalf("ToTuple failed: %v", err)
	}
	if !got.Leasing().IsZero() {
		t.Errorf("Expected zero leasing, got %v", got.Leasing())
	}
}

func TestTuple_LeasingOutsideNanosecondRange(t *testing.T) {
	for _, leasing := range []time.Time{
		time.Date(3000, 1, 1, 0, 0, 0, 123, time.UTC),
		time.Date(1500, 6, 1, 12, 0, 0, 0, time.UTC),
	} {
		var decoded Tuple
		if err := decoded.UnmarshalWire(FromTuple(tuple.New(leasing, tuple.Int(1))).MarshalWire()); err != nil {
			t.Fatalf("UnmarshalWire failed: %v", err)
		}
		got, err := decoded.ToTuple()
		if err != nil {
			t.Fatalf("ToTuple failed: %v", err)
		}
		if !got.Leasing().Equal(leasing) {
			t.Errorf("Expected leasing %v, got %v", leasing, got.Leasing())
		}
	}

	if got, _ := (&Tuple{LeasingSeconds: time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC).Unix()}).ToTuple(); got.Expired(time.Now()) {
		t.Errorf("Expected a far-future leasing to be live, got %v", got.Leasing())
	}
}

func TestTuple_LeasingNanosOutOfRange(t *testing.T) {
	for _, nanos := range []int32{-1, 1_000_000_000} {
		w := &Tuple{LeasingSeconds: 1, LeasingNanos: nanos}
		if _, err := w.ToTuple(); !errors.Is(err, ErrMalformed) {
			t.Errorf("Expected ErrMalformed for nanos %d, got %v", nanos, err)
		}
	}
}

func TestTuple_UnknownKindRejected(t *testing.T) {
	w := &Tuple{Fields: []*Field{{Kind: 99}}}
	if _, err := w.ToTuple(); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed, got %v", err)
	}

	w = &Tuple{Fields: []*Field{{Kind: 0}}}
	if _, err := w.ToTuple(); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed for invalid kind, got %v", err)
	}
}

func TestDecode_Truncated(t *testing.T) {
	msg := &Message{Id: make([]byte, 16), HopCount: 3}
	b := msg.MarshalWire()

	var out Message
	if err := out.UnmarshalWire(b[:len(b)-1]); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed for truncated input, got %v", err)
	}
}

func TestDecode_WrongWireType(t *testing.T) {
	// Field 2 of Message is a varint; send it as bytes.
	b := protowire.AppendTag(nil, 2, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("x"))

	var out Message
	if err := out.UnmarshalWire(b); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed, got %v", err)
	}
}

func TestDecode_SkipsUnknownFields(t *testing.T) {
	b := protowire.AppendTag(nil, 42, protowire.BytesType)
	b = protowire.AppendString(b, "future")
	b = append(b, (&HostRequest{FromId: "node1"}).MarshalWire()...)

	var out HostRequest
	if err := out.UnmarshalWire(b); err != nil {
		t.Fatalf("UnmarshalWire failed: %v", err)
	}
	if out.FromId != "node1" {
		t.Errorf("Expected FromId node1, got %q", out.FromId)
	}
}

func TestIDList_KeepsEmptyAndOrder(t *testing.T) {
	in := &IDList{FromId: "a", Ids: [][]byte{{1}, {}, {3}}}

	var out IDList
	if err := out.UnmarshalWire(in.MarshalWire()); err != nil {
		t.Fatalf("UnmarshalWire failed: %v", err)
	}
	if len(out.Ids) != 3 {
		t.Fatalf("Expected 3 ids, got %d", len(out.Ids))
	}
	if out.Ids[0][0] != 1 || len(out.Ids[1]) != 0 || out.Ids[2][0] != 3 {
		t.Errorf("Unexpected ids %v", out.Ids)
	}
}

func TestCodec_RejectsForeignTypes(t *testing.T) {
	c := codec{}
	if _, err := c.Marshal(struct{}{}); err == nil {
		t.Error("Expected error marshaling a non-wire value")
	}
	if err := c.Unmarshal(nil, &struct{}{}); err == nil {
		t.Error("Expected error unmarshaling into a non-wire value")
	}
	if c.Name() != Name {
		t.Errorf("Expected codec name %q, got %q", Name, c.Name())
	}
}
