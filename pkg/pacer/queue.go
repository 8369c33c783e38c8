package pacer

// opQueue keeps pending operations ordered by priority (higher first) with
// stable FIFO order inside a priority tier. Linear insert/remove is fine:
// queues here are bounded by MaxQueue and admission drains from the front.
type opQueue struct {
	ops []*operation
}

func (q *opQueue) len() int { return len(q.ops) }

// insert places o before the first member with strictly lower priority.
// Scanning from the back keeps equal priorities in submission order.
func (q *opQueue) insert(o *operation) {
	i := len(q.ops)
	for i > 0 && q.ops[i-1].priority < o.priority {
		i--
	}
	q.ops = append(q.ops, nil)
	copy(q.ops[i+1:], q.ops[i:])
	q.ops[i] = o
}

// popFront removes and returns the highest-priority, earliest-inserted
// operation. Callers check len() first.
func (q *opQueue) popFront() *operation {
	o := q.ops[0]
	q.ops[0] = nil
	q.ops = q.ops[1:]
	return o
}

// remove deletes an arbitrary member and reports whether it was present.
func (q *opQueue) remove(o *operation) bool {
	for i, cur := range q.ops {
		if cur == o {
			copy(q.ops[i:], q.ops[i+1:])
			last := len(q.ops) - 1
			q.ops[last] = nil
			q.ops = q.ops[:last]
			return true
		}
	}
	return false
}

// drain empties the queue and returns the removed operations in queue order.
func (q *opQueue) drain() []*operation {
	ops := q.ops
	q.ops = nil
	return ops
}
