package positioner

import (
	"fmt"
	"slices"
	"strings"
)

// List is an ordered collection of unique elements. Identity is given by the injected key
// function and the textual form by an optional formatter.
type List[K comparable, T any] struct {
	key    func(T) K
	format func(T) string
	items  []T
	index  map[K]int
}

// NewList returns an empty list keyed by key.
func NewList[K comparable, T any](key func(T) K) *List[K, T] {
	return &List[K, T]{key: key, index: map[K]int{}}
}

// WithFormatter sets the function used by String to print each element.
func (l *List[K, T]) WithFormatter(format func(T) string) *List[K, T] {
	l.format = format
	return l
}

// Add appends item. It returns false, leaving the list untouched, when the key already exists.
func (l *List[K, T]) Add(item T) bool {
	k := l.key(item)
	if _, ok := l.index[k]; ok {
		return false
	}
	l.index[k] = len(l.items)
	l.items = append(l.items, item)
	return true
}

// Get returns the element with key k.
func (l *List[K, T]) Get(k K) (T, bool) {
	i, ok := l.index[k]
	if !ok {
		var zero T
		return zero, false
	}
	return l.items[i], true
}

// Contains reports whether an element with key k exists.
func (l *List[K, T]) Contains(k K) bool {
	_, ok := l.index[k]
	return ok
}

// Remove deletes the element with key k, preserving the order of the rest.
func (l *List[K, T]) Remove(k K) bool {
	i, ok := l.index[k]
	if !ok {
		return false
	}
	l.items = slices.Delete(l.items, i, i+1)
	l.reindex()
	return true
}

// Len returns the number of elements.
func (l *List[K, T]) Len() int {
	return len(l.items)
}

// At returns the i-th element.
func (l *List[K, T]) At(i int) T {
	return l.items[i]
}

// Items returns a copy of the elements in order.
func (l *List[K, T]) Items() []T {
	return slices.Clone(l.items)
}

// Keys returns the keys in order.
func (l *List[K, T]) Keys() []K {
	keys := make([]K, 0, len(l.items))
	for _, item := range l.items {
		keys = append(keys, l.key(item))
	}
	return keys
}

// SortFunc stably sorts the elements with cmp.
func (l *List[K, T]) SortFunc(cmp func(a, b T) int) {
	slices.SortStableFunc(l.items, cmp)
	l.reindex()
}

func (l *List[K, T]) reindex() {
	clear(l.index)
	for i, item := range l.items {
		l.index[l.key(item)] = i
	}
}

func (l *List[K, T]) String() string {
	parts := make([]string, 0, len(l.items))
	for _, item := range l.items {
		if l.format != nil {
			parts = append(parts, l.format(item))
		} else {
			parts = append(parts, fmt.Sprint(l.key(item)))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
