package editor

// Canvas is the ordered list of blocks making up the document being edited.
// It is the single source of truth for document state; serialization reads
// it, the drag engine mutates it.
type Canvas struct {
	blocks []*Block
}

func NewCanvas() *Canvas {
	return &Canvas{}
}

func (c *Canvas) Len() int { return len(c.blocks) }

// Blocks returns the live block list in document order.
func (c *Canvas) Blocks() []*Block { return c.blocks }

func (c *Canvas) Append(b *Block) {
	c.blocks = append(c.blocks, b)
}

// IndexOf returns the position of the block with the given ID, or -1.
func (c *Canvas) IndexOf(id string) int {
	for i, b := range c.blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Remove deletes the block with the given ID. Removal needs no
// confirmation; only whole-document operations are confirm-gated.
func (c *Canvas) Remove(id string) bool {
	i := c.IndexOf(id)
	if i < 0 {
		return false
	}
	c.blocks = append(c.blocks[:i], c.blocks[i+1:]...)
	return true
}

// Move relocates the block at from so it ends up at index to.
func (c *Canvas) Move(from, to int) {
	if from < 0 || from >= len(c.blocks) || to < 0 || to >= len(c.blocks) || from == to {
		return
	}
	b := c.blocks[from]
	c.blocks = append(c.blocks[:from], c.blocks[from+1:]...)
	c.blocks = append(c.blocks, nil)
	copy(c.blocks[to+1:], c.blocks[to:])
	c.blocks[to] = b
}

// Clear drops every block. Confirmation is the session's job.
func (c *Canvas) Clear() {
	c.blocks = nil
}
