package llm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const generateMethod = "/cleo.llm.v1.LLMService/Generate"

var generateStreamDesc = &grpc.StreamDesc{
	StreamName:    "Generate",
	ServerStreams: true,
}

// GRPCClient implements Client by calling the LLM sidecar over a local gRPC
// connection. The sidecar has no protobuf schema in this deployment, so
// messages are marshaled with the package's json codec (see codec.go)
// instead of a generated proto.Message — grpc-go's codec registry is a
// documented extension point for transports with no IDL compiler available.
// Uses insecure (plaintext) transport: the sidecar always runs on localhost
// alongside the server process.
type GRPCClient struct {
	conn  *grpc.ClientConn
	model string
}

// NewGRPCClient dials the sidecar at addr (e.g. "localhost:50051").
// model defaults to GEMINI_MODEL if set, else a fixed fallback.
func NewGRPCClient(addr string) (*GRPCClient, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(jsonCodecName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM sidecar client for %s: %w", addr, err)
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.5-flash"
	}
	slog.Info("LLM sidecar client configured", "addr", addr, "model", model)

	return &GRPCClient{conn: conn, model: model}, nil
}

// Generate opens a server-streaming call and relays chunks onto a channel.
// The returned channel is closed when the stream completes; a transport
// or decode error is delivered as a final ChunkTypeError chunk.
func (c *GRPCClient) Generate(ctx context.Context, input *GenerateInput) (<-chan Chunk, error) {
	req := *input
	if req.Model == "" {
		req.Model = c.model
	}

	stream, err := c.conn.NewStream(ctx, generateStreamDesc, generateMethod)
	if err != nil {
		return nil, fmt.Errorf("failed to open generate stream: %w", err)
	}
	if err := stream.SendMsg(&req); err != nil {
		return nil, fmt.Errorf("failed to send generate request: %w", err)
	}
	if err := stream.CloseSend(); err != nil {
		return nil, fmt.Errorf("failed to close send side: %w", err)
	}

	ch := make(chan Chunk, 32)
	go func() {
		defer close(ch)
		for {
			var chunk Chunk
			err := stream.RecvMsg(&chunk)
			if err == io.EOF {
				return
			}
			if err != nil {
				select {
				case ch <- Chunk{Type: ChunkTypeError, ErrorMessage: err.Error()}:
				case <-ctx.Done():
				}
				return
			}
			select {
			case ch <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// Close releases the underlying gRPC connection.
func (c *GRPCClient) Close() error {
	return c.conn.Close()
}
