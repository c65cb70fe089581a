package graph

import (
	"log"
	"os"

	"github.com/Lint111/VBVS--VIXEN-sub013/connect"
	"github.com/Lint111/VBVS--VIXEN-sub013/node"
	"github.com/Lint111/VBVS--VIXEN-sub013/topology"
	"github.com/Lint111/VBVS--VIXEN-sub013/typesys"
)

// CoreContext carries the process-wide state a Graph needs at
// construction: the type registry, the logger, and the allocation-
// tracking toggle. Passing it explicitly keeps the core free of hidden
// globals; several graphs may share one context.
type CoreContext struct {
	Types  *typesys.Registry
	Logger *log.Logger

	// AllocationTracking is resolved from ENABLE_ALLOCATION_TRACKING
	// exactly once, at context construction.
	AllocationTracking bool
}

// NewCoreContext builds a CoreContext with the standard type registry,
// the default logger, and the allocation-tracking toggle read from the
// environment.
func NewCoreContext() *CoreContext {
	return &CoreContext{
		Types:              typesys.NewRegistry(),
		Logger:             log.Default(),
		AllocationTracking: os.Getenv("ENABLE_ALLOCATION_TRACKING") != "",
	}
}

// NewWithContext creates a Graph bound to ctx. The context's
// AllocationTracking toggle arms the tracker unless cfg explicitly
// enables it already.
func NewWithContext(ctx *CoreContext, cfg Config) *Graph {
	if ctx.AllocationTracking {
		cfg.EnableAllocationTracking = true
	}
	return &Graph{
		cfg:        cfg,
		types:      ctx.Types,
		nodes:      make(map[node.Handle]*nodeEntry),
		topo:       topology.New(),
		conns:      connect.NewRegistry(ctx.Types),
		nodeExecNS: make(map[node.Handle]int64),
	}
}
