//go:build !unix && !windows

package backends

func openEventSink(string) (eventSink, error) {
	return nil, ErrEventLogUnavailable
}
