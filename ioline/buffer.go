package ioline

// buffer is a bounded byte queue. The valid region is data[index:index+length],
// and len(data) never exceeds limit.
type buffer struct {
	data   []byte
	index  int
	length int
	limit  int
}

func newBuffer(limit int) buffer {
	return buffer{limit: limit}
}

// bytes returns the valid region, aliasing the underlying storage.
func (b *buffer) bytes() []byte {
	return b.data[b.index : b.index+b.length]
}

func (b *buffer) room() int {
	return len(b.data) - b.index - b.length
}

// ensureRoom makes at least min bytes available after the valid region,
// compacting if the storage is already large enough, otherwise reallocating to
// exactly length+min bytes. Growth is capped at the limit, so the returned
// room may be smaller than min.
func (b *buffer) ensureRoom(min int) []byte {
	if b.room() < min {
		n := b.length + min
		if n > b.limit {
			n = b.limit
		}
		if len(b.data) >= n {
			copy(b.data, b.bytes())
		} else {
			data := make([]byte, n)
			copy(data, b.bytes())
			b.data = data
		}
		b.index = 0
	}
	return b.data[b.index+b.length:]
}

// append queues as much of p as fits under the limit, returning the number of
// bytes taken.
func (b *buffer) append(p []byte) int {
	n := len(p)
	if free := b.limit - b.length; n > free {
		n = free
	}
	if n <= 0 {
		return 0
	}
	copy(b.ensureRoom(n), p[:n])
	b.length += n
	return n
}

// extend marks n bytes written directly into the room as valid.
func (b *buffer) extend(n int) {
	b.length += n
}

func (b *buffer) consume(n int) {
	b.index += n
	b.length -= n
	if b.length == 0 {
		b.index = 0
	}
}

func (b *buffer) reset() {
	b.index = 0
	b.length = 0
}
