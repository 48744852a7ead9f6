package cache

import (
	"container/list"
	"sync"
)

// LRU is a thread safe fixed size least recently used cache
type LRU[K comparable, V any] struct {
	Cap   uint64
	l     *list.List
	items map[K]*list.Element
	m     sync.Mutex
}

type item[K comparable, V any] struct {
	key   K
	value V
}
