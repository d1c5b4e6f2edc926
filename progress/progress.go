// Package progress renders nesting-aware progress for sequential batch
// downloads. Each nesting level is one Node in an explicit parent chain; a
// level whose display is toggled off still occupies a position slot so deeper
// levels lay out consistently. Rendering is cosmetic only and never affects
// control flow.
package progress

import (
	"os"

	"github.com/schollz/progressbar/v3"
)

// Node is one nesting level of a batch operation. A nil bar marks a
// display-disabled level that contributes only its position offset.
type Node struct {
	parent   *Node
	depth    int
	position int
	bar      *progressbar.ProgressBar
}

// position computes the slot a new child occupies: the parent's own offset
// when the parent is display-disabled, otherwise a negative offset two rows
// below the parent's slot, leaving one row of visual gap.
func childPosition(parent *Node, fallback int) int {
	if nil == parent {
		return fallback
	}
	if nil == parent.bar {
		return parent.position
	}
	return -(parent.position + 2)
}

func depth(parent *Node) int {
	if nil == parent {
		return 0
	}
	return parent.depth + 1
}

// NewCountNode starts a batch level counting whole items.
func NewCountNode(parent *Node, shown bool, total int, unit, description string) *Node {
	n := &Node{
		parent:   parent,
		depth:    depth(parent),
		position: childPosition(parent, 3),
	}
	if shown {
		n.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(description),
			progressbar.OptionSetItsString(unit),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	return n
}

// NewByteNode starts a leaf transfer level measured in bytes.
func NewByteNode(parent *Node, shown bool, total int64, description string) *Node {
	n := &Node{
		parent:   parent,
		depth:    depth(parent),
		position: childPosition(parent, 1),
	}
	if shown {
		n.bar = progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(description),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	return n
}

func (n *Node) Position() int {
	return n.position
}

// Step advances a count level by one item and refreshes every ancestor so
// nested bars stay visually synchronized.
func (n *Node) Step() {
	if nil != n.bar {
		_ = n.bar.Add(1)
	}
	n.refreshAncestors()
}

// Add advances a byte level by the written chunk size.
func (n *Node) Add(delta int) {
	if nil != n.bar {
		_ = n.bar.Add(delta)
	}
}

// Write advances a byte level by the written slice length, letting the node
// sit on the writer side of an io.MultiWriter.
func (n *Node) Write(p []byte) (int, error) {
	n.Add(len(p))
	return len(p), nil
}

// SetDescription relabels the level, typically after the item's title becomes
// known.
func (n *Node) SetDescription(description string) {
	if nil != n.bar {
		n.bar.Describe(description)
	}
}

func (n *Node) refreshAncestors() {
	for p := n.parent; nil != p; p = p.parent {
		if nil != p.bar {
			_ = p.bar.RenderBlank()
		}
	}
}

// Close finishes the level's rendering.
func (n *Node) Close() {
	if nil != n.bar {
		_ = n.bar.Close()
	}
}
