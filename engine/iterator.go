package engine

// Iterator reads the beans of a find iterate query forward only, one buffer at
// a time. The secondary queries of a buffer run before its beans are returned.
//
//	it, err := e.FindIterate(r)
//	...
//	defer it.Close()
//	for it.Next() {
//		customer := it.Bean().(*Customer)
//	}
//	err = it.Err()
type Iterator struct {
	engine  *Engine
	request *Request
	cquery  *CQuery
	size    int

	buffer  []interface{}
	pos     int
	current interface{}
	err     error
	done    bool
	closed  bool
}

func newIterator(e *Engine, r *Request, cq *CQuery, size int) *Iterator {
	return &Iterator{engine: e, request: r, cquery: cq, size: size, buffer: make([]interface{}, 0, size)}
}

// BufferSize is the number of beans read ahead
func (it *Iterator) BufferSize() int {
	return it.size
}

func (it *Iterator) Next() bool {
	if it.closed || it.err != nil {
		return false
	}
	if it.pos >= len(it.buffer) {
		if it.done || !it.fill() {
			it.current = nil
			return false
		}
	}
	it.current = it.buffer[it.pos]
	it.pos++
	return true
}

func (it *Iterator) fill() bool {
	it.buffer = it.buffer[:0]
	it.pos = 0
	read := len(it.cquery.ids)
	for len(it.buffer) < it.size {
		l, err := it.cquery.readNext()
		if err != nil {
			it.err = it.engine.executionError(it.cquery, err)
			it.done = true
			return false
		}
		if l == nil {
			it.done = true
			break
		}
		it.buffer = append(it.buffer, l.bean)
	}
	if len(it.buffer) == 0 {
		return false
	}
	if err := it.engine.afterRead(it.request, it.cquery, it.buffer); err != nil {
		it.err = err
		return false
	}
	if it.request.AuditReads {
		it.engine.audit(it.cquery, it.cquery.ids[read:])
	}
	return true
}

// Bean returns the bean Next moved to
func (it *Iterator) Bean() interface{} {
	return it.current
}

func (it *Iterator) Err() error {
	return it.err
}

// Close releases the cursor and statement and ends the transaction of a future
// fetch. It is safe to call more than once.
func (it *Iterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.current = nil
	if it.done && it.err == nil {
		it.cquery.consumed()
	}
	err := it.cquery.Close()
	if it.request.Query.FutureFetch {
		it.engine.endFuture(it.request, "findIterate")
	}
	return err
}
