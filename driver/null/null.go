// Package null implements an in-process driver.Driver backed entirely
// by Go slices and maps. It performs no host or device allocation
// beyond ordinary Go heap objects created during resource creation
// (Setup/Compile phases) and command recording (CopyBuffer and Fill
// each record one closure); Commit allocates nothing. It serves the
// core's own tests.
package null

import (
	"sync"

	"github.com/Lint111/VBVS--VIXEN-sub013/driver"
)

func init() {
	driver.Register(&nullDriver{})
}

type nullDriver struct {
	mu   sync.Mutex
	gpu  *GPU
	open bool
}

func (d *nullDriver) Open() (driver.GPU, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		d.gpu = newGPU()
		d.gpu.drv = d
		d.open = true
	}
	return d.gpu, nil
}

func (d *nullDriver) Name() string { return "null" }

func (d *nullDriver) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
	d.gpu = nil
}

// GPU is the null driver's in-process implementation of driver.GPU.
type GPU struct {
	drv    *nullDriver
	limits driver.Limits
}

func newGPU() *GPU {
	return &GPU{
		limits: driver.Limits{
			MaxImage1D:        16384,
			MaxImage2D:        16384,
			MaxImageCube:      16384,
			MaxImage3D:        2048,
			MaxLayers:         2048,
			MaxDescHeaps:      8,
			MaxDBuffer:        1 << 20,
			MaxDImage:         1 << 20,
			MaxDConstant:      1 << 16,
			MaxDTexture:       1 << 20,
			MaxDSampler:       4096,
			MaxDBufferRange:   1 << 30,
			MaxDConstantRange: 1 << 16,
		},
	}
}

func (g *GPU) Driver() driver.Driver { return g.drv }

// Commit executes every recorded command synchronously and reports
// completion on ch. Real drivers commit asynchronously; the null
// driver resolves immediately since there is no device queue to wait
// on, which keeps tests deterministic.
func (g *GPU) Commit(cb []driver.CmdBuffer, ch chan<- error) {
	var err error
	for _, c := range cb {
		nc, ok := c.(*cmdBuffer)
		if !ok {
			continue
		}
		if e := nc.execute(); e != nil && err == nil {
			err = e
		}
	}
	if ch != nil {
		ch <- err
	}
}

func (g *GPU) NewCmdBuffer() (driver.CmdBuffer, error) {
	return &cmdBuffer{}, nil
}

func (g *GPU) NewDescHeap(ds []driver.Descriptor) (driver.DescHeap, error) {
	descs := make([]driver.Descriptor, len(ds))
	copy(descs, ds)
	return &descHeap{descs: descs}, nil
}

func (g *GPU) NewDescTable(dh []driver.DescHeap) (driver.DescTable, error) {
	heaps := make([]driver.DescHeap, len(dh))
	copy(heaps, dh)
	return &descTable{heaps: heaps}, nil
}

func (g *GPU) NewPipeline(state any) (driver.Pipeline, error) {
	return &pipeline{state: state}, nil
}

func (g *GPU) NewBuffer(size int64, visible bool, usg driver.Usage) (driver.Buffer, error) {
	b := &buffer{size: size, visible: visible, usage: usg}
	if visible {
		b.data = make([]byte, size)
	}
	return b, nil
}

func (g *GPU) NewImage(pf driver.PixelFmt, size driver.Dim3D, layers, levels, samples int, usg driver.Usage) (driver.Image, error) {
	return &image{pf: pf, size: size, layers: layers, levels: levels, samples: samples, usage: usg}, nil
}

func (g *GPU) NewSampler(spln *driver.Sampling) (driver.Sampler, error) {
	s := &sampler{}
	if spln != nil {
		s.sampling = *spln
	}
	return s, nil
}

func (g *GPU) Limits() driver.Limits { return g.limits }
