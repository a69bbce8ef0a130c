// Command vfsnode wires a volatile vfs.Root up to a gRPC transport
// listener and a cron-scheduled stats sweep: the minimal node harness
// for this module.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"strings"

	"google.golang.org/grpc"

	"github.com/tinysqlio/memvfs/cluster"
	"github.com/tinysqlio/memvfs/config"
	"github.com/tinysqlio/memvfs/maintenance"
	"github.com/tinysqlio/memvfs/transport"
	"github.com/tinysqlio/memvfs/vfs"
	"github.com/tinysqlio/memvfs/wire"
)

var (
	flagConfig = flag.String("config", "", "path to a YAML config file (optional, defaults apply otherwise)")
	flagGRPC   = flag.String("grpc", ":9091", "gRPC listen address for the transport service (empty to disable)")
	flagPeers  = flag.String("peers", "", "comma-separated list of peer node addresses to register in this node's server list")
)

// node bundles a Root with the transport handler for inbound
// wire.Message frames. The handler decodes and logs each frame; it does
// not apply frames to the Root.
type node struct {
	id      cluster.NodeID
	root    *vfs.Root
	servers cluster.ServerList
}

func newNode(root *vfs.Root) *node {
	return &node{id: cluster.NewNodeID(), root: root}
}

// HandleFrame decodes an inbound frame's header and logs what it saw.
// A real deployment would dispatch on msg.Type() into a per-message-kind
// handler; this module has no SQL engine behind it to dispatch into.
func (n *node) HandleFrame(_ context.Context, data []byte) error {
	msg := wire.NewMessage()
	if len(data) < wire.HeaderSize {
		return newShortFrameError(len(data))
	}
	copy(msg.HeaderRecvStart(), data[:wire.HeaderSize])
	if err := msg.HeaderRecvDone(); err != nil {
		return err
	}
	body, err := msg.BodyRecvStart()
	if err != nil {
		return err
	}
	copy(body, data[wire.HeaderSize:])

	log.Printf("vfsnode %s: received frame type=%d flags=%d words=%d", n.id, msg.Type(), msg.Flags(), msg.Words())
	return nil
}

func newShortFrameError(n int) error {
	return fmt.Errorf("vfsnode: frame of %d bytes shorter than header size %d", n, wire.HeaderSize)
}

func main() {
	flag.Parse()

	cfg := config.Default()
	if *flagConfig != "" {
		loaded, err := config.Load(*flagConfig)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
		cfg = loaded
	}

	root := vfs.NewRoot(nil)
	n := newNode(root)

	if p := strings.TrimSpace(*flagPeers); p != "" {
		for _, addr := range strings.Split(p, ",") {
			n.servers = append(n.servers, cluster.Server{ID: n.id.Uint64(), Address: addr})
		}
	}

	sched, err := maintenance.New(root, cfg.Maintenance.Schedule, cfg.Maintenance.Interval, maintenance.StatsSweep(nil), nil)
	if err != nil {
		log.Fatalf("building maintenance scheduler: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	transport.RegisterCodec()

	if *flagGRPC == "" {
		select {}
	}

	lis, err := net.Listen("tcp", *flagGRPC)
	if err != nil {
		log.Fatalf("gRPC listen error: %v", err)
	}
	gs := grpc.NewServer()
	transport.RegisterService(gs, n)
	log.Printf("vfsnode %s listening on %s", n.id, *flagGRPC)
	if err := gs.Serve(lis); err != nil {
		log.Fatalf("gRPC serve error: %v", err)
	}
}
