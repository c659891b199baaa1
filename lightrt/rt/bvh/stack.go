package bvh

// Stack is the traversal stack shared by the invocations of one workgroup.
// Its capacity covers the deepest tree the Builder produces.
type Stack struct {
	items [MaxDepth + 1]int32
	n     int
}

func (s *Stack) Reset() {
	s.n = 0
}

func (s *Stack) Push(node int32) bool {
	if s.n == len(s.items) {
		return false
	}
	s.items[s.n] = node
	s.n++
	return true
}

func (s *Stack) Pop() (int32, bool) {
	if s.n == 0 {
		return 0, false
	}
	s.n--
	return s.items[s.n], true
}

func (s *Stack) Len() int {
	return s.n
}
