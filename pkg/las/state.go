package las

// streamState is the lifecycle of a Reader or Writer.
type streamState int

const (
	stateOpened streamState = iota
	stateStreaming
	stateEndOfStream
	stateDisposed
)

func (s streamState) String() string {
	switch s {
	case stateOpened:
		return "opened"
	case stateStreaming:
		return "streaming"
	case stateEndOfStream:
		return "end-of-stream"
	case stateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}
