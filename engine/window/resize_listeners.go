package window

// ListenerID identifies a registered resize listener.
type ListenerID uint64

// ResizeListeners is an ordered registry of resize callbacks. Embed it to implement
// the listener half of Canvas. Not safe for concurrent use; canvases are driven from
// the host loop only.
type ResizeListeners struct {
	next      ListenerID
	listeners []resizeListener
}

type resizeListener struct {
	id ListenerID
	fn func(width, height int)
}

// AddResizeListener registers fn and returns its handle.
func (r *ResizeListeners) AddResizeListener(fn func(width, height int)) ListenerID {
	r.next++
	r.listeners = append(r.listeners, resizeListener{id: r.next, fn: fn})
	return r.next
}

// RemoveResizeListener unregisters the listener with the given handle.
func (r *ResizeListeners) RemoveResizeListener(id ListenerID) bool {
	for i, l := range r.listeners {
		if l.id == id {
			r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
			return true
		}
	}
	return false
}

// ResizeListenerCount returns the number of registered listeners.
func (r *ResizeListeners) ResizeListenerCount() int {
	return len(r.listeners)
}

// Notify calls every listener registered at the time of the call, in registration order.
// Listeners removed by an earlier listener during the same notification are skipped.
//
// Parameters:
//   - width: the new width in pixels
//   - height: the new height in pixels
func (r *ResizeListeners) Notify(width, height int) {
	snapshot := make([]resizeListener, len(r.listeners))
	copy(snapshot, r.listeners)
	for _, l := range snapshot {
		if r.registered(l.id) {
			l.fn(width, height)
		}
	}
}

func (r *ResizeListeners) registered(id ListenerID) bool {
	for _, l := range r.listeners {
		if l.id == id {
			return true
		}
	}
	return false
}
