package transport

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
)

// RegisterCodec registers the frame codec with gRPC's global codec
// registry. It must be called once, before any server starts or client
// dials.
func RegisterCodec() {
	encoding.RegisterCodec(frameCodec{})
}

// Client dials a single peer node and ships raw Frame bytes to it.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to a peer's transport service at addr. The connection
// uses insecure transport credentials; this module has no TLS material
// of its own to offer.
func Dial(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(frameCodec{})),
	)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Send delivers a raw frame to the peer and waits for its acknowledgement.
func (c *Client) Send(ctx context.Context, data []byte) error {
	var ack Ack
	if err := c.conn.Invoke(ctx, "/memvfs.Transport/Send", &Frame{Data: data}, &ack); err != nil {
		return fmt.Errorf("sending frame: %w", err)
	}
	return nil
}

// Close tears down the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
