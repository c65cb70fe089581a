package driver

import "errors"

// ErrCannotPresent means that the driver and/or device do not
// support presentation.
var ErrCannotPresent = errors.New("presentation not supported")

// ErrSurface represents an error related to a specific presentation
// surface. It usually indicates that a surface misconfiguration is
// preventing correct operation.
var ErrSurface = errors.New("surface-related error")

// ErrSwapchain represents an error related to a specific swapchain.
// This error usually indicates that changes to the surface made the
// swapchain unusable. Graph.Execute reports any error from its
// AcquireImage or Present callback to the caller as a
// corerr.SwapchainOutOfDate error; it does not schedule a re-Compile
// itself.
var ErrSwapchain = errors.New("swapchain-related error")

// ErrNoBackbuffer means that all available backbuffers were acquired.
// Backbuffers are released during presentation.
var ErrNoBackbuffer = errors.New("all backbuffers in use")

// Surface is the minimal presentation target a Presenter needs: a
// source of the current drawable size. Window-system integration
// (platform event pumps, input, surface creation) is an external
// collaborator and out of scope for the core; callers hand in whatever
// concrete Surface their windowing layer produces.
type Surface interface {
	// Size returns the current drawable width and height, in pixels.
	Size() (width, height int)
}

// Presenter is the interface that a GPU may implement to enable
// presentation on a display.
type Presenter interface {
	// NewSwapchain creates a new swapchain targeting surf.
	// Only one swapchain can be associated with a specific Surface at
	// a time.
	NewSwapchain(surf Surface, imageCount int) (Swapchain, error)
}

// Swapchain is the interface that defines a n-buffered swapchain for
// presentation. Presentation works similarly to commands, such that it
// only takes effect after calling GPU.Commit. To present, one calls
// the Next and Present methods of the swapchain and then commits the
// command buffer(s) that it targets for execution. As a limitation,
// only one Next/Present pair can be recorded in a single Commit.
type Swapchain interface {
	Destroyer

	// Views returns the list of image views that comprise the
	// swapchain. This value remains unchanged as long as Destroy or
	// Recreate are not called.
	Views() []ImageView

	// Next returns the index of the next writable image view. cb
	// must be the first command buffer that will access the image's
	// contents.
	Next(cb CmdBuffer) (int, error)

	// Present presents the image view identified by index. cb must
	// be the last command buffer that will write to the image.
	Present(index int, cb CmdBuffer) error

	// Recreate recreates the swapchain. It is meant to be called in
	// response to an ErrSwapchain error.
	Recreate() error

	// Format returns the image views' PixelFmt.
	Format() PixelFmt
}
