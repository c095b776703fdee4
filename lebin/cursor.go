package lebin

// Cursor reads sequentially from a borrowed buffer. A failed read leaves the
// position unchanged.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor returns a Cursor positioned at off.
func NewCursor(buf []byte, off int) *Cursor {
	return &Cursor{buf: buf, pos: off}
}

// Pos returns the current offset into the buffer.
func (c *Cursor) Pos() int { return c.pos }

// Len returns the length of the underlying buffer.
func (c *Cursor) Len() int { return len(c.buf) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	if c.pos >= len(c.buf) {
		return 0
	}
	return len(c.buf) - c.pos
}

// Seek moves the cursor to an absolute offset.
func (c *Cursor) Seek(off int) error {
	if err := Check(c.buf, off, 0); err != nil {
		return err
	}
	c.pos = off
	return nil
}

// Skip advances the cursor by n bytes.
func (c *Cursor) Skip(n int) error {
	if err := Check(c.buf, c.pos, n); err != nil {
		return err
	}
	c.pos += n
	return nil
}

// U8 reads one byte.
func (c *Cursor) U8() (uint8, error) {
	v, err := Uint8(c.buf, c.pos)
	if err == nil {
		c.pos++
	}
	return v, err
}

// I8 reads one signed byte.
func (c *Cursor) I8() (int8, error) {
	v, err := c.U8()
	return int8(v), err
}

// U16 reads a little-endian uint16.
func (c *Cursor) U16() (uint16, error) {
	v, err := Uint16(c.buf, c.pos)
	if err == nil {
		c.pos += 2
	}
	return v, err
}

// I16 reads a little-endian int16.
func (c *Cursor) I16() (int16, error) {
	v, err := c.U16()
	return int16(v), err
}

// U32 reads a little-endian uint32.
func (c *Cursor) U32() (uint32, error) {
	v, err := Uint32(c.buf, c.pos)
	if err == nil {
		c.pos += 4
	}
	return v, err
}

// I32 reads a little-endian int32.
func (c *Cursor) I32() (int32, error) {
	v, err := c.U32()
	return int32(v), err
}

// U64 reads a little-endian uint64.
func (c *Cursor) U64() (uint64, error) {
	v, err := Uint64(c.buf, c.pos)
	if err == nil {
		c.pos += 8
	}
	return v, err
}

// I64 reads a little-endian int64.
func (c *Cursor) I64() (int64, error) {
	v, err := c.U64()
	return int64(v), err
}

// F64 reads a little-endian IEEE-754 double.
func (c *Cursor) F64() (float64, error) {
	v, err := Float64(c.buf, c.pos)
	if err == nil {
		c.pos += 8
	}
	return v, err
}

// Bytes returns the next n bytes without copying.
func (c *Cursor) Bytes(n int) ([]byte, error) {
	b, err := Slice(c.buf, c.pos, n)
	if err == nil {
		c.pos += n
	}
	return b, err
}
