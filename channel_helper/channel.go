package channel_helper

// WriteToChannelAndBufferLatest sends without blocking; when the buffer is
// full the oldest entry is dropped so the reader always sees the freshest
// market frame.
func WriteToChannelAndBufferLatest[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
		// Channel is full. Drop one stale entry and try again.
		select {
		case <-ch:
		default:
		}

		// Second attempt - should succeed now that a slot is free. If a
		// racing writer beat us to it, give up; the next frame supersedes
		// this one anyway.
		select {
		case ch <- v:
		default:
		}
	}
}
