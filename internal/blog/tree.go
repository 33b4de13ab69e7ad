// Package blog holds the rules that decide how comments nest and how posts
// move between draft, published and archived.
package blog

import (
	"errors"

	"inkwell/internal/models"
)

// DefaultMaxDepth bounds reply nesting when building a comment tree.
const DefaultMaxDepth = 256

// ErrCommentTreeTooDeep means the stored parent chain is deeper than any
// thread the API can create, which only happens with corrupted rows.
var ErrCommentTreeTooDeep = errors.New("comment tree exceeds maximum depth")

// CommentNode is a comment with its direct replies.
type CommentNode struct {
	models.Comment
	Replies []*CommentNode `json:"replies"`
}

// BuildCommentTree nests comments of a single post by parent. Input must be
// ordered by creation time; roots and every replies list keep that order.
// Comments whose parent is not in the input are dropped.
func BuildCommentTree(comments []models.Comment) ([]*CommentNode, error) {
	return BuildCommentTreeWithLimit(comments, DefaultMaxDepth)
}

// BuildCommentTreeWithLimit is BuildCommentTree with an explicit depth bound.
// Roots are at depth 1.
func BuildCommentTreeWithLimit(comments []models.Comment, maxDepth int) ([]*CommentNode, error) {
	children := make(map[uint][]int, len(comments))
	roots := make([]int, 0, len(comments))
	for i := range comments {
		if comments[i].ParentID == nil {
			roots = append(roots, i)
			continue
		}
		parent := *comments[i].ParentID
		children[parent] = append(children[parent], i)
	}

	var build func(idx, depth int) (*CommentNode, error)
	build = func(idx, depth int) (*CommentNode, error) {
		if depth > maxDepth {
			return nil, ErrCommentTreeTooDeep
		}
		node := &CommentNode{Comment: comments[idx], Replies: []*CommentNode{}}
		for _, childIdx := range children[comments[idx].ID] {
			child, err := build(childIdx, depth+1)
			if err != nil {
				return nil, err
			}
			node.Replies = append(node.Replies, child)
		}
		return node, nil
	}

	forest := make([]*CommentNode, 0, len(roots))
	for _, idx := range roots {
		node, err := build(idx, 1)
		if err != nil {
			return nil, err
		}
		forest = append(forest, node)
	}
	return forest, nil
}

// Flatten returns comment ids of a forest in pre-order.
func Flatten(forest []*CommentNode) []uint {
	var ids []uint
	var walk func(nodes []*CommentNode)
	walk = func(nodes []*CommentNode) {
		for _, n := range nodes {
			ids = append(ids, n.ID)
			walk(n.Replies)
		}
	}
	walk(forest)
	return ids
}
