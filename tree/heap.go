package tree

import "container/heap"

// HeapItem is a sample position ranked by a floating point priority.
type HeapItem struct {
	Value    int
	Priority float64
	Index    int
}

// MaxHeap pops the highest priority first. Equal priorities pop the lower
// sample position first.
type MaxHeap []*HeapItem

func (mh MaxHeap) Len() int {
	return len(mh)
}

func (mh MaxHeap) Less(i, j int) bool {
	if mh[i].Priority == mh[j].Priority {
		return mh[i].Value < mh[j].Value
	} else {
		return mh[i].Priority > mh[j].Priority
	}
}

func (mh MaxHeap) Swap(i, j int) {
	mh[i], mh[j] = mh[j], mh[i]
	mh[i].Index = i
	mh[j].Index = j
}

func (mh *MaxHeap) Push(x interface{}) {
	n := len(*mh)
	item := x.(*HeapItem)
	item.Index = n
	*mh = append(*mh, item)
}

func (mh *MaxHeap) Pop() interface{} {
	old := *mh
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	item.Index = -1
	*mh = old[0 : n-1]
	return item
}

func (mh *MaxHeap) Top() *HeapItem {
	return (*mh)[0]
}

func (mh *MaxHeap) Update(item *HeapItem, value int, priority float64) {
	item.Value = value
	item.Priority = priority
	heap.Fix(mh, item.Index)
}

func NewMaxHeap(initSize int) *MaxHeap {
	mh := make(MaxHeap, 0, initSize)
	heap.Init(&mh)
	return &mh
}

// RankByPriority returns the positions of values ordered from highest to
// lowest value.
func RankByPriority(positions []int, values []float64) []int {
	mh := NewMaxHeap(len(positions))
	for _, pos := range positions {
		heap.Push(mh, &HeapItem{Value: pos, Priority: values[pos]})
	}
	ranked := make([]int, 0, len(positions))
	for mh.Len() > 0 {
		ranked = append(ranked, heap.Pop(mh).(*HeapItem).Value)
	}
	return ranked
}
