package null

import (
	"errors"

	"github.com/Lint111/VBVS--VIXEN-sub013/driver"
)

// op is a recorded data-transfer command. The null backend defers
// execution of every op until Commit, matching the real drivers'
// record-then-submit contract without needing an actual queue.
type op func() error

type cmdBuffer struct {
	recording bool
	inBlit    bool
	ops       []op
}

func (c *cmdBuffer) Destroy() { *c = cmdBuffer{} }

func (c *cmdBuffer) IsRecording() bool { return c.recording }

func (c *cmdBuffer) Begin() error {
	if c.recording {
		return errors.New("null: command buffer already recording")
	}
	c.recording = true
	c.ops = c.ops[:0]
	return nil
}

func (c *cmdBuffer) BeginBlit(wait bool) { c.inBlit = true }

func (c *cmdBuffer) EndBlit() { c.inBlit = false }

func (c *cmdBuffer) CopyBuffer(param *driver.BufferCopy) {
	p := *param
	c.ops = append(c.ops, func() error {
		from, ok1 := p.From.(*buffer)
		to, ok2 := p.To.(*buffer)
		if !ok1 || !ok2 {
			return errors.New("null: CopyBuffer on foreign buffer")
		}
		copy(to.data[p.ToOff:p.ToOff+p.Size], from.data[p.FromOff:p.FromOff+p.Size])
		return nil
	})
}

func (c *cmdBuffer) CopyImage(param *driver.ImageCopy) {
	c.ops = append(c.ops, func() error { return nil })
}

func (c *cmdBuffer) CopyBufToImg(param *driver.BufImgCopy) {
	c.ops = append(c.ops, func() error { return nil })
}

func (c *cmdBuffer) CopyImgToBuf(param *driver.BufImgCopy) {
	c.ops = append(c.ops, func() error { return nil })
}

func (c *cmdBuffer) Fill(buf driver.Buffer, off int64, value byte, size int64) {
	p := buf
	c.ops = append(c.ops, func() error {
		b, ok := p.(*buffer)
		if !ok {
			return errors.New("null: Fill on foreign buffer")
		}
		s := b.data[off : off+size]
		for i := range s {
			s[i] = value
		}
		return nil
	})
}

func (c *cmdBuffer) Barrier(b []driver.Barrier) {}

func (c *cmdBuffer) Transition(t []driver.Transition) {}

func (c *cmdBuffer) End() error {
	if !c.recording {
		return errors.New("null: command buffer not recording")
	}
	c.recording = false
	return nil
}

func (c *cmdBuffer) Reset() error {
	c.recording = false
	c.inBlit = false
	c.ops = c.ops[:0]
	return nil
}

func (c *cmdBuffer) execute() error {
	for _, o := range c.ops {
		if err := o(); err != nil {
			return err
		}
	}
	return nil
}
