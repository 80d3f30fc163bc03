// Package container implements small singly-linked lists of byte and int
// payloads. The evaluator uses them for capture sequences and pawn square
// enumeration where a fixed-order, allocation-light traversal matters.
package container

// byteNode is a link in a byte list.
type byteNode struct {
	data byte
	next *byteNode
}

// intNode is a link in an int list.
type intNode struct {
	data int
	next *intNode
}

// ByteStack is a LIFO singly-linked list of bytes.
// Push and Pop operate on the head; Len and Tail walk the list.
type ByteStack struct {
	head *byteNode
	iter *byteNode
	done bool
}

// Push adds a value at the head.
func (s *ByteStack) Push(v byte) {
	s.head = &byteNode{data: v, next: s.head}
}

// Pop removes and returns the head value.
// The second return is false if the stack is empty.
func (s *ByteStack) Pop() (byte, bool) {
	if s.head == nil {
		return 0, false
	}
	v := s.head.data
	s.head = s.head.next
	return v, true
}

// Head returns the head value without removing it.
func (s *ByteStack) Head() (byte, bool) {
	if s.head == nil {
		return 0, false
	}
	return s.head.data, true
}

// Tail walks the list and returns the last value.
func (s *ByteStack) Tail() (byte, bool) {
	if s.head == nil {
		return 0, false
	}
	n := s.head
	for n.next != nil {
		n = n.next
	}
	return n.data, true
}

// Len walks the list and returns the number of elements.
func (s *ByteStack) Len() int {
	count := 0
	for n := s.head; n != nil; n = n.next {
		count++
	}
	return count
}

// Reset rewinds the internal iterator to the head.
func (s *ByteStack) Reset() {
	s.iter = s.head
	s.done = false
}

// HasNext reports whether the internal iterator has more elements.
// Once the iterator is exhausted it stays exhausted until Reset.
func (s *ByteStack) HasNext() bool {
	return !s.done && s.iter != nil
}

// Next returns the next element of the internal iterator.
func (s *ByteStack) Next() (byte, bool) {
	if s.done || s.iter == nil {
		s.done = true
		return 0, false
	}
	v := s.iter.data
	s.iter = s.iter.next
	if s.iter == nil {
		s.done = true
	}
	return v, true
}

// ForEach calls f for every element from head to tail.
func (s *ByteStack) ForEach(f func(byte)) {
	for n := s.head; n != nil; n = n.next {
		f(n.data)
	}
}

// ByteQueue is a FIFO singly-linked list of bytes with a tail pointer and
// a cached length, so Add, Pop, Tail and Len are all O(1).
type ByteQueue struct {
	head   *byteNode
	tail   *byteNode
	length int
	iter   *byteNode
	done   bool
}

// Add appends a value at the tail.
func (q *ByteQueue) Add(v byte) {
	n := &byteNode{data: v}
	if q.tail == nil {
		q.head = n
	} else {
		q.tail.next = n
	}
	q.tail = n
	q.length++
}

// Pop removes and returns the head value.
func (q *ByteQueue) Pop() (byte, bool) {
	if q.head == nil {
		return 0, false
	}
	v := q.head.data
	q.head = q.head.next
	if q.head == nil {
		q.tail = nil
	}
	q.length--
	return v, true
}

// Head returns the head value without removing it.
func (q *ByteQueue) Head() (byte, bool) {
	if q.head == nil {
		return 0, false
	}
	return q.head.data, true
}

// Tail returns the last value.
func (q *ByteQueue) Tail() (byte, bool) {
	if q.tail == nil {
		return 0, false
	}
	return q.tail.data, true
}

// Len returns the number of elements.
func (q *ByteQueue) Len() int {
	return q.length
}

// Reset rewinds the internal iterator to the head.
func (q *ByteQueue) Reset() {
	q.iter = q.head
	q.done = false
}

// HasNext reports whether the internal iterator has more elements.
func (q *ByteQueue) HasNext() bool {
	return !q.done && q.iter != nil
}

// Next returns the next element of the internal iterator.
func (q *ByteQueue) Next() (byte, bool) {
	if q.done || q.iter == nil {
		q.done = true
		return 0, false
	}
	v := q.iter.data
	q.iter = q.iter.next
	if q.iter == nil {
		q.done = true
	}
	return v, true
}

// ForEach calls f for every element from head to tail.
func (q *ByteQueue) ForEach(f func(byte)) {
	for n := q.head; n != nil; n = n.next {
		f(n.data)
	}
}

// IntStack is a LIFO singly-linked list of ints.
type IntStack struct {
	head *intNode
	iter *intNode
	done bool
}

// Push adds a value at the head.
func (s *IntStack) Push(v int) {
	s.head = &intNode{data: v, next: s.head}
}

// Pop removes and returns the head value.
func (s *IntStack) Pop() (int, bool) {
	if s.head == nil {
		return 0, false
	}
	v := s.head.data
	s.head = s.head.next
	return v, true
}

// Head returns the head value without removing it.
func (s *IntStack) Head() (int, bool) {
	if s.head == nil {
		return 0, false
	}
	return s.head.data, true
}

// Tail walks the list and returns the last value.
func (s *IntStack) Tail() (int, bool) {
	if s.head == nil {
		return 0, false
	}
	n := s.head
	for n.next != nil {
		n = n.next
	}
	return n.data, true
}

// Len walks the list and returns the number of elements.
func (s *IntStack) Len() int {
	count := 0
	for n := s.head; n != nil; n = n.next {
		count++
	}
	return count
}

// Reset rewinds the internal iterator to the head.
func (s *IntStack) Reset() {
	s.iter = s.head
	s.done = false
}

// HasNext reports whether the internal iterator has more elements.
func (s *IntStack) HasNext() bool {
	return !s.done && s.iter != nil
}

// Next returns the next element of the internal iterator.
func (s *IntStack) Next() (int, bool) {
	if s.done || s.iter == nil {
		s.done = true
		return 0, false
	}
	v := s.iter.data
	s.iter = s.iter.next
	if s.iter == nil {
		s.done = true
	}
	return v, true
}

// ForEach calls f for every element from head to tail.
func (s *IntStack) ForEach(f func(int)) {
	for n := s.head; n != nil; n = n.next {
		f(n.data)
	}
}

// IntQueue is a FIFO singly-linked list of ints with O(1) Add, Pop, Tail
// and Len.
type IntQueue struct {
	head   *intNode
	tail   *intNode
	length int
	iter   *intNode
	done   bool
}

// Add appends a value at the tail.
func (q *IntQueue) Add(v int) {
	n := &intNode{data: v}
	if q.tail == nil {
		q.head = n
	} else {
		q.tail.next = n
	}
	q.tail = n
	q.length++
}

// Pop removes and returns the head value.
func (q *IntQueue) Pop() (int, bool) {
	if q.head == nil {
		return 0, false
	}
	v := q.head.data
	q.head = q.head.next
	if q.head == nil {
		q.tail = nil
	}
	q.length--
	return v, true
}

// Head returns the head value without removing it.
func (q *IntQueue) Head() (int, bool) {
	if q.head == nil {
		return 0, false
	}
	return q.head.data, true
}

// Tail returns the last value.
func (q *IntQueue) Tail() (int, bool) {
	if q.tail == nil {
		return 0, false
	}
	return q.tail.data, true
}

// Len returns the number of elements.
func (q *IntQueue) Len() int {
	return q.length
}

// Reset rewinds the internal iterator to the head.
func (q *IntQueue) Reset() {
	q.iter = q.head
	q.done = false
}

// HasNext reports whether the internal iterator has more elements.
func (q *IntQueue) HasNext() bool {
	return !q.done && q.iter != nil
}

// Next returns the next element of the internal iterator.
func (q *IntQueue) Next() (int, bool) {
	if q.done || q.iter == nil {
		q.done = true
		return 0, false
	}
	v := q.iter.data
	q.iter = q.iter.next
	if q.iter == nil {
		q.done = true
	}
	return v, true
}

// ForEach calls f for every element from head to tail.
func (q *IntQueue) ForEach(f func(int)) {
	for n := q.head; n != nil; n = n.next {
		f(n.data)
	}
}
