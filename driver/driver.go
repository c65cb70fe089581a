// Package driver defines the GPU backend seam the render-graph core
// compiles against: command submission, resource creation, descriptor
// pooling, presentation, and the fence/semaphore primitives FrameSync
// owns. Concrete backends live outside the core and plug in through
// driver registration; the in-tree null package is the reference
// implementation the core's own tests run against.
package driver

import (
	"errors"
	"log"
	"sync"
)

// Driver loads and unloads an underlying backend implementation.
type Driver interface {
	// Open initializes the driver. If it succeeds, further calls
	// with the same receiver have no effect and must return the
	// same GPU instance. Open is not safe for parallel execution.
	Open() (GPU, error)

	// Name returns the name of the driver. It must not cause the
	// driver to be opened.
	Name() string

	// Close deinitializes the driver. Closing a driver that is not
	// open has no effect. Close is not safe for parallel execution.
	Close()
}

// ErrNoDevice means that no suitable device could be found.
var ErrNoDevice = errors.New("driver: no suitable device found")

// ErrNoHostMemory means that host memory could not be allocated.
var ErrNoHostMemory = errors.New("driver: out of host memory")

// ErrNoDeviceMemory means that device memory could not be allocated.
var ErrNoDeviceMemory = errors.New("driver: out of device memory")

// ErrFatal means that the backing device is in an unrecoverable state.
// Everything created through this GPU must be destroyed before the
// driver can be reopened. The orchestrator does not inspect this error;
// a lost device is reported to it through Graph.OnDeviceLost.
var ErrFatal = errors.New("driver: fatal error")

// Drivers returns the registered Drivers. Backends register themselves
// from init, so callers select one by importing its package for side
// effects and matching on Name.
func Drivers() []Driver {
	mu.Lock()
	defer mu.Unlock()
	drv := make([]Driver, len(drivers))
	copy(drv, drivers)
	return drv
}

// Register registers a Driver. Implementations call Register exactly
// once, from an init function. A driver whose name is already taken
// replaces the earlier registration.
func Register(drv Driver) {
	mu.Lock()
	defer mu.Unlock()
	for i := range drivers {
		if drivers[i].Name() == drv.Name() {
			drivers[i] = drv
			log.Printf("[!] driver '%s' replaced", drv.Name())
			return
		}
	}
	drivers = append(drivers, drv)
	log.Printf("driver '%s' registered", drv.Name())
}

var (
	mu      sync.Mutex
	drivers = make([]Driver, 0, 1)
)
