package model

// Pair is one materialised key/value of an iteration.
type Pair struct {
	Key   any
	Value any
}

// Pairs keeps materialised iteration results in their original order. The
// array analyzer walks it like a slice but labels entries with Key.
type Pairs []Pair

// Frame is one stack frame of a backtrace.
type Frame struct {
	Function string
	File     string
	Line     int
}
