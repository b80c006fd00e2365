package runtime

// Sentinel is a control-flow signal returned from evaluation in place of a
// value. The set of sentinels is closed: Terminate, ReturnValue, YieldValue
// and YieldDelegateValue.
type Sentinel interface {
	sentinel()
}

// TerminateKind distinguishes break from continue.
type TerminateKind int

const (
	Break TerminateKind = iota
	Continue
)

// Terminate is produced by break and continue statements.
type Terminate struct {
	Kind  TerminateKind
	Label string
}

// ReturnValue wraps the operand of a return statement until the enclosing
// function unwraps it.
type ReturnValue struct {
	Value any
}

// YieldValue is handed to a generator for `yield value`.
type YieldValue struct {
	Value any
}

// YieldDelegateValue is handed to a generator for `yield* iterable`.
type YieldDelegateValue struct {
	Value any
}

func (*Terminate) sentinel()          {}
func (*ReturnValue) sentinel()        {}
func (*YieldValue) sentinel()         {}
func (*YieldDelegateValue) sentinel() {}

func (t *Terminate) String() string {
	word := "break"
	if t.Kind == Continue {
		word = "continue"
	}
	if t.Label != "" {
		return word + " " + t.Label + ";"
	}

	return word + ";"
}

// Matches reports whether t targets a construct carrying the given labels.
// An unlabelled terminate matches any loop.
func (t *Terminate) Matches(labels []string) bool {
	if t.Label == "" {
		return true
	}
	for _, l := range labels {
		if l == t.Label {
			return true
		}
	}

	return false
}

// IsSentinel reports whether v is a control-flow sentinel.
func IsSentinel(v any) bool {
	_, ok := v.(Sentinel)
	return ok
}
