// Package notify carries state change notifications from the machine to
// whatever displays it. The machine never reads its own notifications.
package notify

// Kind of a notification.
type Kind int

//go:generate go tool stringer -linecomment -type=Kind
const (
	EVENT_VALUE_CHANGED = Kind(iota) // value-changed
	EVENT_RESET                      // reset
	EVENT_MODULE_ADDED               // module-added
	EVENT_MODULE_REMOVED             // module-removed
	EVENT_MEMORY_EDITED              // memory-edited
	EVENT_SIGNAL                     // signal
	EVENT_STEP                       // step
	EVENT_INSTRUCTION                // instruction
	EVENT_INTERRUPT                  // interrupt
	EVENT_UC_RESET                   // uc-reset
	EVENT_ALU_RESULT                 // alu-result
	EVENT_DEVICE_ADDED               // device-added
	EVENT_DEVICE_REMOVED             // device-removed
	EVENT_ERROR                      // error
)

// Event is an immutable notification value.
type Event struct {
	Kind    Kind
	Source  string // Name of the emitting register, bus, unit or device.
	Old     uint16
	New     uint16
	Address int    // Memory address or micro-program address, if relevant.
	Size    int    // Module size in KB, or device size in words.
	Text    string // Signal name, ALU operation, or message.
	A, B    uint16 // ALU operands.
}

type subscriber struct {
	id int
	fn func(Event)
}

// Hub fans events out to subscribers. A nil *Hub discards everything.
type Hub struct {
	next int
	subs []subscriber
}

// Subscribe adds fn to the hub. The returned cancel function removes it.
func (hub *Hub) Subscribe(fn func(Event)) (cancel func()) {
	hub.next++
	id := hub.next
	hub.subs = append(hub.subs, subscriber{id: id, fn: fn})

	cancel = func() {
		for n, sub := range hub.subs {
			if sub.id == id {
				hub.subs = append(hub.subs[:n:n], hub.subs[n+1:]...)
				return
			}
		}
	}

	return
}

// Publish sends ev to every subscriber, in subscription order.
func (hub *Hub) Publish(ev Event) {
	if hub == nil {
		return
	}

	for _, sub := range hub.subs {
		sub.fn(ev)
	}
}

// Recorder is a subscriber that keeps every event, for tests and tracing.
type Recorder struct {
	Events []Event
}

// Record appends ev.
func (rec *Recorder) Record(ev Event) {
	rec.Events = append(rec.Events, ev)
}

// Of returns the recorded events of one kind.
func (rec *Recorder) Of(kind Kind) (events []Event) {
	for _, ev := range rec.Events {
		if ev.Kind == kind {
			events = append(events, ev)
		}
	}
	return
}
