package null

import "github.com/Lint111/VBVS--VIXEN-sub013/driver"

type buffer struct {
	size    int64
	visible bool
	usage   driver.Usage
	data    []byte
}

func (b *buffer) Destroy() { *b = buffer{} }

func (b *buffer) Visible() bool { return b.visible }

func (b *buffer) Bytes() []byte { return b.data }

func (b *buffer) Cap() int64 { return b.size }

type image struct {
	pf      driver.PixelFmt
	size    driver.Dim3D
	layers  int
	levels  int
	samples int
	usage   driver.Usage
	views   []*imageView
}

func (im *image) Destroy() { *im = image{} }

func (im *image) NewView(typ driver.ViewType, layer, layers, level, levels int) (driver.ImageView, error) {
	v := &imageView{img: im, typ: typ, layer: layer, layers: layers, level: level, levels: levels}
	im.views = append(im.views, v)
	return v, nil
}

type imageView struct {
	img    *image
	typ    driver.ViewType
	layer  int
	layers int
	level  int
	levels int
}

func (v *imageView) Destroy() { *v = imageView{} }

func (v *imageView) Image() driver.Image { return v.img }

type sampler struct {
	sampling driver.Sampling
}

func (s *sampler) Destroy() { *s = sampler{} }

type pipeline struct {
	state any
}

func (p *pipeline) Destroy() { p.state = nil }
