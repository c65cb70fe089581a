package null

import "github.com/Lint111/VBVS--VIXEN-sub013/driver"

// descCopy holds one heap copy's worth of bound resources, indexed by
// descriptor number then array element.
type descCopy struct {
	buffers  map[int][]driver.Buffer
	images   map[int][]driver.ImageView
	samplers map[int][]driver.Sampler
}

type descHeap struct {
	descs []driver.Descriptor
	cpys  []descCopy
}

func (h *descHeap) Destroy() { *h = descHeap{} }

func (h *descHeap) New(n int) error {
	if n == len(h.cpys) {
		return nil
	}
	if n == 0 {
		h.cpys = nil
		return nil
	}
	h.cpys = make([]descCopy, n)
	for i := range h.cpys {
		h.cpys[i] = descCopy{
			buffers:  make(map[int][]driver.Buffer),
			images:   make(map[int][]driver.ImageView),
			samplers: make(map[int][]driver.Sampler),
		}
	}
	return nil
}

func (h *descHeap) SetBuffer(cpy, nr, start int, buf []driver.Buffer, off, size []int64) {
	c := &h.cpys[cpy]
	s := c.buffers[nr]
	if len(s) < start+len(buf) {
		grown := make([]driver.Buffer, start+len(buf))
		copy(grown, s)
		s = grown
	}
	copy(s[start:], buf)
	c.buffers[nr] = s
}

func (h *descHeap) SetImage(cpy, nr, start int, iv []driver.ImageView) {
	c := &h.cpys[cpy]
	s := c.images[nr]
	if len(s) < start+len(iv) {
		grown := make([]driver.ImageView, start+len(iv))
		copy(grown, s)
		s = grown
	}
	copy(s[start:], iv)
	c.images[nr] = s
}

func (h *descHeap) SetSampler(cpy, nr, start int, splr []driver.Sampler) {
	c := &h.cpys[cpy]
	s := c.samplers[nr]
	if len(s) < start+len(splr) {
		grown := make([]driver.Sampler, start+len(splr))
		copy(grown, s)
		s = grown
	}
	copy(s[start:], splr)
	c.samplers[nr] = s
}

func (h *descHeap) Count() int { return len(h.cpys) }

type descTable struct {
	heaps []driver.DescHeap
}

func (t *descTable) Destroy() { *t = descTable{} }
