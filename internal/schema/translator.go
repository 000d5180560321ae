package schema

import (
	"fmt"
	"io"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"qpsdriver/internal/scenario"
)

// DecodeError is returned when scenario JSON cannot be turned into a batch.
type DecodeError struct {
	Code    codes.Code
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to convert json to binary: errcode=%d msg=%s", uint32(e.Code), e.Message)
}

// GRPCStatus lets status.FromError and status.Code classify the error.
func (e *DecodeError) GRPCStatus() *status.Status {
	return status.New(e.Code, e.Message)
}

func decodeErr(code codes.Code, err error) *DecodeError {
	return &DecodeError{Code: code, Message: err.Error()}
}

// Translator converts scenario JSON into a scenario.Batch in two stages:
// JSON to canonical binary against the resolved message type, then binary
// to the structured batch. A batch is returned only if both succeed.
type Translator struct {
	pool    *Pool
	typeURL string
	log     logrus.FieldLogger
}

// NewTranslator returns a translator for grpc.testing.Scenarios documents.
// A nil logger discards diagnostics.
func NewTranslator(pool *Pool, log logrus.FieldLogger) *Translator {
	if pool == nil {
		pool = DefaultPool()
	}
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}
	return &Translator{pool: pool, typeURL: TypeURL(ScenariosMessage), log: log}
}

// TypeURL returns the type URL documents are decoded as.
func (t *Translator) TypeURL() string { return t.typeURL }

// JSONToBinary validates the JSON against the schema and returns its
// canonical binary encoding. Both proto and lowerCamel field names are
// accepted; unknown fields are rejected.
func (t *Translator) JSONToBinary(data []byte) ([]byte, error) {
	m, err := t.pool.New(t.typeURL)
	if err != nil {
		return nil, decodeErr(codes.NotFound, err)
	}
	if err := protojson.Unmarshal(data, m); err != nil {
		return nil, decodeErr(codes.InvalidArgument, err)
	}
	bin, err := proto.MarshalOptions{Deterministic: true}.Marshal(m)
	if err != nil {
		return nil, decodeErr(codes.Internal, err)
	}
	return bin, nil
}

// DecodeBinary parses canonical binary into a validated batch.
func (t *Translator) DecodeBinary(bin []byte) (*scenario.Batch, error) {
	m, err := t.pool.New(t.typeURL)
	if err != nil {
		return nil, decodeErr(codes.NotFound, err)
	}
	if err := proto.Unmarshal(bin, m); err != nil {
		return nil, decodeErr(codes.Internal, errors.Wrap(err, "parse binary scenarios"))
	}
	if err := checkEnums(m); err != nil {
		return nil, decodeErr(codes.InvalidArgument, err)
	}

	batch := batchFromMessage(m)
	if err := batch.Validate(); err != nil {
		return nil, decodeErr(codes.FailedPrecondition, err)
	}
	return batch, nil
}

// Decode runs both stages. On failure the offending JSON is logged once.
func (t *Translator) Decode(data []byte) (*scenario.Batch, error) {
	bin, err := t.JSONToBinary(data)
	if err == nil {
		var batch *scenario.Batch
		batch, err = t.DecodeBinary(bin)
		if err == nil {
			t.log.WithField("scenarios", batch.Len()).Debug("Decoded scenario batch")
			return batch, nil
		}
	}

	var de *DecodeError
	if errors.As(err, &de) {
		t.log.WithFields(logrus.Fields{
			"errcode": uint32(de.Code),
			"msg":     de.Message,
			"json":    string(data),
		}).Error("Failed to convert json to binary")
	}
	return nil, err
}

// Encode renders a batch as JSON with proto field names. Decoding the
// output yields an equal batch.
func (t *Translator) Encode(batch *scenario.Batch) ([]byte, error) {
	m := batchToMessage(t.pool, batch)
	out, err := protojson.MarshalOptions{UseProtoNames: true, Multiline: true}.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "encode scenarios")
	}
	return out, nil
}
