package runtime

// Event is implemented by every emitted protocol event named in spec
// section 6.2. Name identifies the event kind for the Emitter's logging
// fields; the concrete struct carries the event's own fields.
type Event interface {
	Name() string
}

// Emitter is the emission half of "emit!" in the original Anchor
// programs. Spec section 6.2 notes events are "consumed by out-of-scope
// indexers" — there is no pub/sub bus here, only the two implementations
// below.
type Emitter interface {
	Emit(event Event)
}

// LoggingEmitter logs every event through the shared zap-backed logger,
// the way the teacher logs every state transition it cares about.
type LoggingEmitter struct {
	log EventLogger
}

// EventLogger is the minimal logging surface LoggingEmitter needs,
// satisfied by *logger.Logger; declaring it here keeps this package from
// importing pkg/logger.
type EventLogger interface {
	Info(args ...interface{})
}

func NewLoggingEmitter(log EventLogger) *LoggingEmitter {
	return &LoggingEmitter{log: log}
}

func (e *LoggingEmitter) Emit(event Event) {
	e.log.Info("event emitted", "event", event.Name(), "payload", event)
}

// RecordingEmitter collects every emitted event in order, for assertions
// in tests.
type RecordingEmitter struct {
	Events []Event
}

func NewRecordingEmitter() *RecordingEmitter {
	return &RecordingEmitter{}
}

func (e *RecordingEmitter) Emit(event Event) {
	e.Events = append(e.Events, event)
}
