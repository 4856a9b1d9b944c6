// Package wire defines the messages and gRPC services exchanged between
// tuple space hosts and their clients. Messages are encoded in the
// protobuf wire format and travel through a gRPC codec registered under
// the "tswire" content subtype. The schema is recorded in
// api/tuplespace.proto.
package wire
