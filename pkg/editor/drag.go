package editor

import (
	"errors"
	"fmt"

	"github.com/canvasnote/canvasnote/pkg/models"
)

// DragState enumerates the drag engine's states. Exactly one drag can be in
// flight; the state says whether it originated from the palette or from a
// block already on the canvas.
type DragState int

const (
	DragIdle DragState = iota
	DragNewBlock
	DragExistingBlock
)

func (s DragState) String() string {
	switch s {
	case DragIdle:
		return "idle"
	case DragNewBlock:
		return "dragging-new"
	case DragExistingBlock:
		return "dragging-existing"
	default:
		return fmt.Sprintf("DragState(%d)", int(s))
	}
}

var ErrNoDrag = errors.New("no drag in progress")

// dragObserver is told when a drag mutates the canvas, so block creation
// and reordering flow through the same dirty and focus tracking as every
// other edit.
type dragObserver interface {
	blockInserted(b *Block)
	blocksMoved()
}

// DragEngine runs drag-and-drop against a canvas. It replaces the pattern
// of a shared nullable "dragged element" variable with an explicit state
// machine: palette drags carry a block type, canvas drags carry a block ID,
// and every drop or cancel path resets to idle.
type DragEngine struct {
	canvas   *Canvas
	observer dragObserver

	state     DragState
	newType   models.BlockType
	draggedID string
}

func NewDragEngine(c *Canvas) *DragEngine {
	return &DragEngine{canvas: c}
}

func (e *DragEngine) State() DragState { return e.state }

// StartNew begins a palette drag carrying a block type. Starting a drag
// while another is in flight abandons the first; drag end events can be
// lost, so a stale in-flight drag must never wedge the engine.
func (e *DragEngine) StartNew(t models.BlockType) {
	e.reset()
	e.state = DragNewBlock
	e.newType = t
}

// StartExisting begins a reorder drag of the block with the given ID.
// Blocks whose editable region holds focus refuse to start a drag.
func (e *DragEngine) StartExisting(id string) error {
	i := e.canvas.IndexOf(id)
	if i < 0 {
		return fmt.Errorf("no block %q on canvas", id)
	}
	if !e.canvas.Blocks()[i].Draggable() {
		return fmt.Errorf("block %q is being edited", id)
	}
	e.reset()
	e.state = DragExistingBlock
	e.draggedID = id
	return nil
}

// DropOn completes the drag over the block with the given ID. For a reorder
// drag the insert side depends on travel direction: a block dragged
// downward lands after the target, one dragged upward lands before it.
// A palette drag has copy semantics: wherever it is released, the new block
// is appended at the canvas end. The engine always returns to idle, even on
// error.
func (e *DragEngine) DropOn(targetID string) (*Block, error) {
	defer e.reset()

	ti := e.canvas.IndexOf(targetID)
	if ti < 0 {
		return nil, fmt.Errorf("no block %q on canvas", targetID)
	}

	switch e.state {
	case DragNewBlock:
		return e.appendNew(e.newType), nil
	case DragExistingBlock:
		di := e.canvas.IndexOf(e.draggedID)
		if di < 0 {
			return nil, fmt.Errorf("dragged block %q left the canvas", e.draggedID)
		}
		b := e.canvas.Blocks()[di]
		if di == ti {
			return b, nil
		}
		// Both directions land on index ti after the removal shift:
		// dragging down inserts after the target, dragging up before it.
		e.canvas.Move(di, ti)
		e.notifyMoved()
		return b, nil
	default:
		return nil, ErrNoDrag
	}
}

// DropAtEnd completes the drag over the empty area below the last block.
func (e *DragEngine) DropAtEnd() (*Block, error) {
	defer e.reset()

	switch e.state {
	case DragNewBlock:
		return e.appendNew(e.newType), nil
	case DragExistingBlock:
		di := e.canvas.IndexOf(e.draggedID)
		if di < 0 {
			return nil, fmt.Errorf("dragged block %q left the canvas", e.draggedID)
		}
		b := e.canvas.Blocks()[di]
		if di != e.canvas.Len()-1 {
			e.canvas.Move(di, e.canvas.Len()-1)
			e.notifyMoved()
		}
		return b, nil
	default:
		return nil, ErrNoDrag
	}
}

// Cancel abandons the drag without touching the canvas.
func (e *DragEngine) Cancel() {
	e.reset()
}

// TapInsert is the compact-layout path: no drag at all, a tap on a palette
// entry appends the new block at the end of the document.
func (e *DragEngine) TapInsert(t models.BlockType) *Block {
	return e.appendNew(t)
}

// appendNew materializes a palette block at the canvas end. Drops on a
// block, drops on empty space, and compact-layout taps all go through this
// one path, so focus and dirty tracking cannot diverge between them.
func (e *DragEngine) appendNew(t models.BlockType) *Block {
	b := NewBlock(t)
	e.canvas.Append(b)
	e.notifyInserted(b)
	return b
}

func (e *DragEngine) notifyInserted(b *Block) {
	if e.observer != nil {
		e.observer.blockInserted(b)
	}
}

func (e *DragEngine) notifyMoved() {
	if e.observer != nil {
		e.observer.blocksMoved()
	}
}

func (e *DragEngine) reset() {
	e.state = DragIdle
	e.newType = ""
	e.draggedID = ""
}
