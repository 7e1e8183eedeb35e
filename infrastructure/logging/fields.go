package logging

import (
	"strconv"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/duelist/domain/combat"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// SessionID adds a session ID field.
func SessionID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("session_id", id)
	}
}

// Cycle adds a planning cycle number field.
func Cycle(n uint64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("cycle", int64(n))
	}
}

// Actor adds an actor field.
func Actor(id combat.ActorID) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("actor", string(id))
	}
}

// State adds a state field.
func State(s combat.State) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("state", string(s))
	}
}

// FromState adds a from_state field for transitions.
func FromState(s combat.State) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("from_state", string(s))
	}
}

// ToState adds a to_state field for transitions.
func ToState(s combat.State) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("to_state", string(s))
	}
}

// Source adds a plan source field.
func Source(src string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("source", src)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Reason adds a reason field.
func Reason(reason string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("reason", reason)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}

// Int adds an integer field with custom key.
func Int(key string, value int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int(key, value)
	}
}

// Bool adds a boolean field with custom key.
func Bool(key string, value bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool(key, value)
	}
}

// Float adds a float field rendered with up to two decimals.
func Float(key string, value float64) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, strconv.FormatFloat(value, 'f', 2, 64))
	}
}
