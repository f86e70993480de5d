package shape

import "reflect"

// Iterator is implemented by values that enumerate their own contents.
type Iterator interface {
	Iterate(yield func(key, value any) bool)
}

// IteratorAggregate is implemented by values that hand out a separate
// Iterator over their contents.
type IteratorAggregate interface {
	Iterator() Iterator
}

// Iteration describes how a traversable value exposes its contents.
type Iteration int

const (
	NotIterable Iteration = iota
	// PlainIterator values implement Iterator themselves.
	PlainIterator
	// Aggregate values implement IteratorAggregate.
	Aggregate
	// SeqMethod values expose All() returning an iter.Seq.
	SeqMethod
	// Seq2Method values expose All() returning an iter.Seq2.
	Seq2Method
)

// SeqMethodName is the conventional name of range-over-func accessors.
const SeqMethodName = "All"

var (
	iteratorType  = reflect.TypeFor[Iterator]()
	aggregateType = reflect.TypeFor[IteratorAggregate]()
)

// IterationOf inspects the method set of t, and of *t when t is not a
// pointer, for one of the supported iteration protocols.
func IterationOf(t reflect.Type) Iteration {
	if t == nil {
		return NotIterable
	}
	if it := iterationOf(t); it != NotIterable {
		return it
	}
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		return iterationOf(reflect.PointerTo(t))
	}
	return NotIterable
}

func iterationOf(t reflect.Type) Iteration {
	switch {
	case t.Implements(aggregateType):
		return Aggregate
	case t.Implements(iteratorType):
		return PlainIterator
	}
	m, ok := t.MethodByName(SeqMethodName)
	if !ok {
		return NotIterable
	}
	// Method types obtained from a reflect.Type carry the receiver first.
	mt := m.Type
	if mt.NumIn() != 1 || mt.NumOut() != 1 {
		return NotIterable
	}
	switch SeqArity(mt.Out(0)) {
	case 1:
		return SeqMethod
	case 2:
		return Seq2Method
	}
	return NotIterable
}

// SeqArity reports 1 for func(func(V) bool), 2 for func(func(K, V) bool)
// and 0 for anything else.
func SeqArity(t reflect.Type) int {
	if t.Kind() != reflect.Func || t.NumIn() != 1 || t.NumOut() != 0 {
		return 0
	}
	yield := t.In(0)
	if yield.Kind() != reflect.Func || yield.NumOut() != 1 || yield.Out(0).Kind() != reflect.Bool {
		return 0
	}
	switch yield.NumIn() {
	case 1:
		return 1
	case 2:
		return 2
	}
	return 0
}
