package driver

// GPU is the main interface to an underlying driver implementation.
// It is used to create other types and to execute commands. A GPU is
// obtained from a call to Driver.Open.
//
// This interface omits shader and render-pass construction, and a
// pipeline is created only from an opaque backend-specific state value
// (NewPipeline): format-level rendering correctness for a specific
// graphics API is out of scope for the core (see the module's
// Non-goals). What remains is exactly the surface the core's
// components need: command buffer submission, descriptor set
// allocation (DescriptorCache), and resource creation (BudgetManager/
// StagingPool).
type GPU interface {
	// Driver returns the Driver that owns the GPU.
	Driver() Driver

	// Commit commits a batch of command buffers to the GPU for
	// execution. Wait operations defined in a command buffer apply
	// to the batch as a whole, so the order of command buffers in
	// cb is meaningful. This method sends the result to ch when all
	// commands complete execution. Command buffers in cb cannot be
	// used for recording until then.
	Commit(cb []CmdBuffer, ch chan<- error)

	// NewCmdBuffer creates a new command buffer.
	NewCmdBuffer() (CmdBuffer, error)

	// NewDescHeap creates a new descriptor heap.
	NewDescHeap(ds []Descriptor) (DescHeap, error)

	// NewDescTable creates a new descriptor table.
	NewDescTable(dh []DescHeap) (DescTable, error)

	// NewPipeline creates an opaque compiled pipeline object from a
	// backend-specific state value. The core never inspects state;
	// it only tracks the returned handle's lifetime.
	NewPipeline(state any) (Pipeline, error)

	// NewBuffer creates a new buffer.
	NewBuffer(size int64, visible bool, usg Usage) (Buffer, error)

	// NewImage creates a new image.
	NewImage(pf PixelFmt, size Dim3D, layers, levels, samples int, usg Usage) (Image, error)

	// NewSampler creates a new Sampler.
	NewSampler(spln *Sampling) (Sampler, error)

	// Limits returns the implementation limits. They are immutable
	// for the lifetime of the GPU.
	Limits() Limits
}

// Destroyer is the interface that wraps the Destroy method. Types that
// implement this interface may hold external memory not managed by
// GC, so Destroy must be called explicitly to release it.
type Destroyer interface {
	Destroy()
}

// CmdBuffer is the interface that defines a command buffer. Commands
// are recorded into command buffers and later committed to the GPU
// for execution via GPU.Commit. The core only ever records the
// data-transfer block (staging uploads/downloads and descriptor-set
// layout transitions); it never records draw or dispatch commands,
// since those belong to concrete node implementations outside this
// module's scope.
//
// Usage:
//  1. call Begin to prepare the command buffer for recording.
//  2. call BeginBlit, then any of Copy*/Fill/Barrier/Transition, then
//     EndBlit. Steps 2 may repeat.
//  3. call End and, if it succeeds, GPU.Commit.
//
// Begin*/End* pairs must not be nested and must always be closed
// before another Begin* and prior to the final End call.
type CmdBuffer interface {
	Destroyer

	// IsRecording reports whether the command buffer is between a
	// successful Begin and a matching End.
	IsRecording() bool

	// Begin prepares the command buffer for recording.
	Begin() error

	// BeginBlit begins data transfer. If wait is set, transfer only
	// starts when all previously recorded commands in the same
	// command buffer are done executing. Copy/fill commands may run
	// in parallel.
	BeginBlit(wait bool)

	// EndBlit ends the current data transfer.
	EndBlit()

	// CopyBuffer copies data between buffers. Must only be called
	// during data transfer.
	CopyBuffer(param *BufferCopy)

	// CopyImage copies data between images. Must only be called
	// during data transfer.
	CopyImage(param *ImageCopy)

	// CopyBufToImg copies data from a buffer to an image. Must only
	// be called during data transfer.
	CopyBufToImg(param *BufImgCopy)

	// CopyImgToBuf copies data from an image to a buffer. Must only
	// be called during data transfer.
	CopyImgToBuf(param *BufImgCopy)

	// Fill fills a buffer range with copies of a byte value. Must
	// only be called during data transfer. off and size must be
	// aligned to 4 bytes.
	Fill(buf Buffer, off int64, value byte, size int64)

	// Barrier inserts a number of global barriers in the command
	// buffer.
	Barrier(b []Barrier)

	// Transition inserts a number of image layout transitions in
	// the command buffer.
	Transition(t []Transition)

	// End ends command recording and prepares the command buffer
	// for execution. New recordings are not allowed until the
	// command buffer is executed or reset. Upon failure, the
	// command buffer is reset.
	End() error

	// Reset discards all recorded commands from the command buffer.
	Reset() error
}

// BufferCopy describes the parameters of a copy command that copies
// data from one buffer to another.
type BufferCopy struct {
	From    Buffer
	FromOff int64
	To      Buffer
	ToOff   int64
	Size    int64
}

// ImageCopy describes the parameters of a copy command that copies
// data from one image to another.
type ImageCopy struct {
	From      Image
	FromOff   Off3D
	FromLayer int
	FromLevel int
	To        Image
	ToOff     Off3D
	ToLayer   int
	ToLevel   int
	Size      Dim3D
	Layers    int
}

// BufImgCopy describes the parameters of a copy command that copies
// data between a buffer and an image. BufOff must be aligned to 512
// bytes. Stride[0] must be aligned to 256 bytes.
type BufImgCopy struct {
	Buf    Buffer
	BufOff int64
	// Stride specifies the addressing of image data in the buffer,
	// in pixels. Stride[0] is the row length, Stride[1] the image
	// height.
	Stride [2]int64
	Img    Image
	ImgOff Off3D
	Layer  int
	Level  int
	Size   Dim3D
	// DepthCopy selects the depth or stencil aspect to copy; only
	// used if Img has a combined depth/stencil format.
	DepthCopy bool
}

// Sync is the type of a synchronization scope.
type Sync int

// Synchronization scopes.
const (
	SVertexInput Sync = 1 << iota
	SVertexShading
	SFragmentShading
	SComputeShading
	SColorOutput
	SDSOutput
	SDraw
	SResolve
	SCopy
	SAll
	SNone Sync = 0
)

// Access is the type of a memory access scope.
type Access int

// Memory access scopes.
const (
	AVertexBufRead Access = 1 << iota
	AIndexBufRead
	AColorRead
	AColorWrite
	ADSRead
	ADSWrite
	AResolveRead
	AResolveWrite
	ACopyRead
	ACopyWrite
	AShaderRead
	AShaderWrite
	AAnyRead
	AAnyWrite
	ANone Access = 0
)

// Layout is the type of an image layout.
type Layout int

// Image layouts.
const (
	LUndefined Layout = iota
	LCommon
	LColorTarget
	LDSTarget
	LDSRead
	LResolveSrc
	LResolveDst
	LCopySrc
	LCopyDst
	LShaderRead
	LPresent
)

// Barrier represents a synchronization barrier.
type Barrier struct {
	SyncBefore   Sync
	SyncAfter    Sync
	AccessBefore Access
	AccessAfter  Access
}

// Transition represents a layout transition on a specific image
// subresource.
type Transition struct {
	Barrier

	LayoutBefore Layout
	LayoutAfter  Layout
	Img          Image
	Layer        int
	Layers       int
	Level        int
	Levels       int
}

// Stage is a mask of programmable shader stages referenced by a
// Descriptor. The core never compiles or binds shaders itself; the
// mask is opaque metadata forwarded to DescHeap creation.
type Stage int

// Stages.
const (
	SVertex Stage = 1 << iota
	SFragment
	SCompute
)

// DescType is the type of a descriptor.
type DescType int

// Descriptor types.
const (
	// Read/write buffer.
	DBuffer DescType = iota
	// Read/write image.
	DImage
	// Constant buffer.
	DConstant
	// Sampled texture.
	DTexture
	// Texture sampler.
	DSampler
)

// Descriptor describes data for use in shaders.
type Descriptor struct {
	Type   DescType
	Stages Stage
	Nr     int
	Len    int
}

// DescHeap is the interface that defines a set of descriptors for use
// in programmable pipeline stages.
type DescHeap interface {
	Destroyer

	// New creates enough storage for n copies of each descriptor.
	// All copies from a previous call to New are invalidated unless
	// n equals the current Count, in which case it is a no-op.
	// Calling New(0) frees all storage.
	New(n int) error

	// SetBuffer updates the buffer ranges referred to by the given
	// descriptor of the given heap copy. The descriptor must be of
	// type DBuffer or DConstant. Buffer ranges must be aligned to
	// 256 bytes.
	SetBuffer(cpy, nr, start int, buf []Buffer, off, size []int64)

	// SetImage updates the image views referred to by the given
	// descriptor of the given heap copy. The descriptor must be of
	// type DImage or DTexture.
	SetImage(cpy, nr, start int, iv []ImageView)

	// SetSampler updates the samplers referred to by the given
	// descriptor of the given heap copy. The descriptor must be of
	// type DSampler.
	SetSampler(cpy, nr, start int, splr []Sampler)

	// Count returns the number of heap copies created by New.
	Count() int
}

// DescTable is the interface that defines the bindings between a
// number of descriptor heaps and the shaders in a pipeline.
type DescTable interface {
	Destroyer
}

// Pipeline is an opaque, driver-created pipeline handle. The core
// tracks its lifetime as a TypeRegistry resource but never inspects
// or builds its state.
type Pipeline interface {
	Destroyer
}

// Usage is a mask indicating valid uses for a resource.
type Usage int

// Usage flags for Buffer and Image.
const (
	// The resource can be read in shaders.
	UShaderRead Usage = 1 << iota
	// The resource can be written in shaders.
	UShaderWrite
	// The resource can provide constant data for shaders. Valid
	// only for Buffer.
	UShaderConst
	// The resource can be sampled in shaders. Valid only for Image.
	UShaderSample
	// The resource can be used as a copy source.
	UCopySrc
	// The resource can be used as a copy destination.
	UCopyDst
	// The resource can be used for any purpose.
	UGeneric Usage = 1<<iota - 1
)

// Buffer is the interface that defines a GPU buffer. The size of the
// buffer is fixed; a larger buffer requires creating a new one and
// copying the data explicitly.
type Buffer interface {
	Destroyer

	// Visible returns whether the buffer is host visible. Non-
	// visible memory cannot be accessed by the CPU.
	Visible() bool

	// Bytes returns a slice of length Cap referring to the
	// underlying data. If the buffer is not host visible, it
	// returns nil. The slice is valid for the lifetime of the
	// buffer.
	Bytes() []byte

	// Cap returns the capacity of the buffer in bytes, which may be
	// greater than the size requested at creation. This value is
	// immutable.
	Cap() int64
}

// PixelFmt describes the format of a pixel.
type PixelFmt int

// Internal format bit. All internal formats have this bit set;
// client code must not create images using internal formats.
const FInternal PixelFmt = 1 << 31

// IsInternal returns whether f is an internal format.
func (f PixelFmt) IsInternal() bool { return f&FInternal == FInternal }

// Pixel formats.
const (
	// Color, 8-bit channels.
	RGBA8un PixelFmt = iota
	RGBA8n
	RGBA8sRGB
	BGRA8un
	BGRA8sRGB
	RG8un
	RG8n
	R8un
	R8n
	// Color, 16-bit channels.
	RGBA16Float
	RG16Float
	R16Float
	// Color, 32-bit channels.
	RGBA32Float
	RG32Float
	R32Float
	// Depth/Stencil.
	D16Unorm
	D32Float
	S8ui
	D24unS8ui
	D32fS8ui
)

// Size returns the size in bytes of one pixel of format f, or 0 for
// an unrecognized or block-compressed format (none of which are
// registered here).
func (f PixelFmt) Size() int {
	switch f {
	case R8un, R8n, S8ui:
		return 1
	case RG8un, RG8n, R16Float, D16Unorm:
		return 2
	case RGBA8un, RGBA8n, RGBA8sRGB, BGRA8un, BGRA8sRGB, RG16Float, R32Float, D32Float, D24unS8ui:
		return 4
	case RGBA16Float, RG32Float, D32fS8ui:
		return 8
	case RGBA32Float:
		return 16
	default:
		return 0
	}
}

// Dim3D is a three-dimensional size.
type Dim3D struct {
	Width, Height, Depth int
}

// Off3D is a three-dimensional offset.
type Off3D struct {
	X, Y, Z int
}

// Image is the interface that defines a GPU image. Direct access to
// image memory is not provided; copying data from the CPU to an
// image requires a staging buffer.
type Image interface {
	Destroyer

	// NewView creates a new image view. Its type must be valid
	// according to the image from which it is created and the
	// parameters given. All views created from a given image must
	// be destroyed before the image itself is destroyed.
	NewView(typ ViewType, layer, layers, level, levels int) (ImageView, error)
}

// ViewType is the type of a resource view.
type ViewType int

// View types.
const (
	IView1D ViewType = iota
	IView2D
	IView3D
	IViewCube
	IView1DArray
	IView2DArray
	IViewCubeArray
	IView2DMS
	IView2DMSArray
)

// ImageView is the interface that defines a typed view of an Image
// resource.
type ImageView interface {
	Destroyer

	// Image returns the Image this view was created from.
	Image() Image
}

// Filter is the type of sampler filters.
type Filter int

// Filters.
const (
	FNearest Filter = iota
	FLinear
	// FNoMipmap forces mip level 0 to be used. Only valid as the
	// mip filter of a sampler.
	FNoMipmap
)

// AddrMode is the type of sampler address modes.
type AddrMode int

// Address modes.
const (
	AWrap AddrMode = iota
	AMirror
	AClamp
)

// CmpFunc is a comparison function used by samplers.
type CmpFunc int

// Comparison functions.
const (
	CNever CmpFunc = iota
	CLess
	CEqual
	CLessEqual
	CGreater
	CNotEqual
	CGreaterEqual
	CAlways
)

// Sampler is the interface that defines an image sampler.
type Sampler interface {
	Destroyer
}

// Sampling describes image sampler state.
type Sampling struct {
	Min      Filter
	Mag      Filter
	Mipmap   Filter
	AddrU    AddrMode
	AddrV    AddrMode
	AddrW    AddrMode
	MaxAniso int
	Cmp      CmpFunc
	MinLOD   float32
	MaxLOD   float32
}

// Limits describes implementation limits. These may vary across
// drivers and devices.
type Limits struct {
	// Maximum width of 1D images.
	MaxImage1D int
	// Maximum width and height of 2D images.
	MaxImage2D int
	// Maximum width and height of cube images.
	MaxImageCube int
	// Maximum width, height and depth of 3D images.
	MaxImage3D int
	// Maximum number of layers in an image.
	MaxLayers int

	// Maximum number of descriptor heaps in a descriptor table.
	MaxDescHeaps int
	// Maximum number of buffer descriptors in a descriptor table.
	MaxDBuffer int
	// Maximum number of image descriptors in a descriptor table.
	MaxDImage int
	// Maximum number of constant descriptors in a descriptor table.
	MaxDConstant int
	// Maximum number of texture descriptors in a descriptor table.
	MaxDTexture int
	// Maximum number of sampler descriptors in a descriptor table.
	MaxDSampler int
	// Maximum range of buffer descriptors.
	MaxDBufferRange int64
	// Maximum range of constant descriptors.
	MaxDConstantRange int64
}
