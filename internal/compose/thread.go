package compose

import (
	"fmt"
	"strings"
)

// ThreadNode is the minimal view of a post needed to resolve its thread:
// identity, optional parent reference and sibling index.
type ThreadNode struct {
	ID       int64
	ParentID *int64
	Index    int
}

// NodeLookup resolves a post id to its node. The second return is false
// when no such post exists, which a walk treats as a broken chain.
type NodeLookup func(id int64) (*ThreadNode, bool)

// ChildCounter returns how many posts reference the given id as parent.
type ChildCounter func(id int64) (int, error)

// ThreadPart is one unsaved member of a thread produced by SetupThread.
// The root carries index 0 and no parent; children get 1-based indices.
type ThreadPart struct {
	Content string
	Index   int
	IsRoot  bool
}

// SetupThread turns an ordered list of content strings into thread parts.
// Every part must be non-empty; an empty list is rejected outright.
func SetupThread(contents []string) ([]ThreadPart, error) {
	if len(contents) == 0 {
		return nil, NewValidationError("contents", "thread needs at least one part")
	}
	parts := make([]ThreadPart, 0, len(contents))
	for i, content := range contents {
		if strings.TrimSpace(content) == "" {
			return nil, NewValidationError("contents", fmt.Sprintf("part %d is empty", i+1))
		}
		parts = append(parts, ThreadPart{
			Content: content,
			Index:   i,
			IsRoot:  i == 0,
		})
	}
	return parts, nil
}

// ThreadRoot walks the parent chain up to the post with no parent. A parent
// reference to a missing post or a cycle yields ErrBrokenThread instead of
// recursing forever.
func ThreadRoot(node *ThreadNode, lookup NodeLookup) (*ThreadNode, error) {
	visited := map[int64]struct{}{node.ID: {}}
	current := node
	for current.ParentID != nil {
		parent, ok := lookup(*current.ParentID)
		if !ok {
			return nil, ErrBrokenThread
		}
		if _, seen := visited[parent.ID]; seen {
			return nil, ErrBrokenThread
		}
		visited[parent.ID] = struct{}{}
		current = parent
	}
	return current, nil
}

// InThread reports whether the post participates in a thread: it has a
// parent or at least one child.
func InThread(node *ThreadNode, children ChildCounter) (bool, error) {
	if node.ParentID != nil {
		return true, nil
	}
	n, err := children(node.ID)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ThreadSize counts all posts sharing the node's root, root included.
func ThreadSize(node *ThreadNode, lookup NodeLookup, children ChildCounter) (int, error) {
	root, err := ThreadRoot(node, lookup)
	if err != nil {
		return 0, err
	}
	n, err := children(root.ID)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

// ThreadPosition renders "index/size" for a thread member, with the root at
// index 0 and children at their 1-based sibling indices. A standalone post
// is not a thread and gets the empty string.
func ThreadPosition(node *ThreadNode, lookup NodeLookup, children ChildCounter) (string, error) {
	in, err := InThread(node, children)
	if err != nil {
		return "", err
	}
	if !in {
		return "", nil
	}
	size, err := ThreadSize(node, lookup, children)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d/%d", node.Index, size), nil
}
