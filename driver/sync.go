package driver

// Fence is a CPU-observable GPU/CPU synchronization primitive. The core
// never polls a Fence directly; FrameSync owns a fixed-size array of
// them (one per frame-in-flight slot) and waits on one through the
// caller-supplied framesync.WaitFunc. The
// type exists chiefly so Fence can be a registered TypeRegistry tag
// flowing through node slots (e.g. a node that explicitly exposes the
// fence it waits on to a diagnostics consumer).
type Fence interface {
	Destroyer
}

// Semaphore is a GPU-side synchronization primitive ordering queue
// operations without CPU involvement (image-available and
// render-complete semaphores in FrameSync).
type Semaphore interface {
	Destroyer
}
