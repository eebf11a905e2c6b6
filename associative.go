// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package cidrtrie

import (
	"reflect"
)

// AssociativeTrie is a binary prefix trie that maps each added address key
// to a value. The zero value is an empty trie ready to use.
type AssociativeTrie[E Key[E], V any] struct {
	trie[E, V]
}

// Get returns the value mapped to the key.
func (t *AssociativeTrie[E, V]) Get(key E) (V, bool) {
	node := t.GetAddedNode(key)
	return node.Value(), node != nil
}

// Put maps the value to the key, adding the key if needed. It returns the
// previous value and whether the key was already added.
func (t *AssociativeTrie[E, V]) Put(key E, value V) (V, bool) {
	result := t.put(key, value)
	return result.existingValue, result.exists
}

func (t *trie[E, V]) put(key E, value V) *opResult[E, V] {
	return t.mutate(key, insert, func(result *opResult[E, V]) {
		result.newValue = value
		result.overwriteValue = true
	})
}

// PutNew adds the key mapped to the value unless the key is already added,
// in which case its value is left alone. It returns whether the key was added.
func (t *AssociativeTrie[E, V]) PutNew(key E, value V) bool {
	result := t.mutate(key, insert, func(result *opResult[E, V]) {
		result.newValue = value
	})
	return !result.exists
}

// PutNode is like Put but returns the node of the key.
func (t *AssociativeTrie[E, V]) PutNode(key E, value V) *TrieNode[E, V] {
	result := t.put(key, value)
	if result.inserted != nil {
		return result.inserted
	}
	return result.existingNode
}

// PutTrie adds every added key of the sub-tree rooted at node along with its
// value, replacing existing values. It returns the node in this trie that
// matches node's key.
func (t *AssociativeTrie[E, V]) PutTrie(node *TrieNode[E, V]) *TrieNode[E, V] {
	return t.addTrie(node, true)
}

// Remap looks up the key and calls remapper with the mapped value, if any.
// When remapper returns true the key is mapped to the returned value, being
// added if needed; when it returns false the key is removed.
//
// It returns the node of the key, or nil if the key ends up absent. If
// remapper changes the trie and asks for a change itself, Remap panics with
// an error wrapping ErrConcurrentModification and the trie is left as
// remapper left it.
func (t *AssociativeTrie[E, V]) Remap(key E, remapper func(existing V, found bool) (mapped V, keep bool)) *TrieNode[E, V] {
	return t.remap(key, func(existing V, found bool) (V, remapAction) {
		mapped, keep := remapper(existing, found)
		if keep {
			return mapped, remapValue
		}
		var zero V
		return zero, removeNode
	})
}

// RemapIfAbsent adds the key mapped to the value from supplier unless the
// key is already added. It returns the node of the key.
func (t *AssociativeTrie[E, V]) RemapIfAbsent(key E, supplier func() V) *TrieNode[E, V] {
	return t.remap(key, func(_ V, found bool) (V, remapAction) {
		if found {
			var zero V
			return zero, doNothing
		}
		return supplier(), remapValue
	})
}

func (t *AssociativeTrie[E, V]) remap(key E, remapper func(V, bool) (V, remapAction)) *TrieNode[E, V] {
	result := t.mutate(key, remap, func(result *opResult[E, V]) {
		result.remapper = remapper
	})
	switch {
	case result.deleted != nil:
		return nil
	case result.inserted != nil:
		return result.inserted
	case result.existingNode.IsAdded():
		return result.existingNode
	}
	return nil
}

// Clone returns an independent copy of the trie. Values are copied as is.
func (t *AssociativeTrie[E, V]) Clone() *AssociativeTrie[E, V] {
	return &AssociativeTrie[E, V]{t.clone()}
}

// Equal reports whether both tries hold the same keys, ignoring values.
func (t *AssociativeTrie[E, V]) Equal(other *AssociativeTrie[E, V]) bool {
	if other == nil {
		return t.IsEmpty()
	}
	return t.root.Equal(other.root)
}

// DeepEqual reports whether both tries hold the same keys mapped to deeply
// equal values.
func (t *AssociativeTrie[E, V]) DeepEqual(other *AssociativeTrie[E, V]) bool {
	if other == nil {
		return t.IsEmpty()
	}
	return t.root.equal(other.root, func(a, b V) bool { return reflect.DeepEqual(a, b) })
}

// AddedNodesTreeString renders only the added nodes, each below the
// nearest added node containing it.
func (t *AssociativeTrie[E, V]) AddedNodesTreeString() string {
	return addedNodesTreeString(t.root)
}

// AsMap returns an ordered map view backed by the trie.
func (t *AssociativeTrie[E, V]) AsMap() *Map[E, V] {
	return newMap(&t.trie)
}
