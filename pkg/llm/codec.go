package llm

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

const jsonCodecName = "json"

// jsonCodec implements grpc's encoding.Codec so the sidecar connection can
// exchange plain JSON frames instead of protobuf-generated messages. There
// is no .proto schema for this service in this deployment, and grpc-go's
// codec registry is the documented extension point for exactly this case.
type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
