// File: message/handler.go
// License: Apache-2.0

package message

import "github.com/nextgenrt/netkernel/errs"

// Handler processes one Message. Implementations must not retain the
// Message beyond the call without Clone(), since queues may reuse or
// recycle the underlying buffer once Handle returns.
type Handler interface {
	Handle(msg Message) errs.Result[errs.Void]
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(msg Message) errs.Result[errs.Void]

func (f HandlerFunc) Handle(msg Message) errs.Result[errs.Void] { return f(msg) }

// Typed builds a Handler that only accepts messages of type T, reporting
// InvalidMessage for anything else. Grounded on the original
// MessageHandlerImpl<T, Handler> template adapter.
func Typed[T Message](fn func(T) errs.Result[errs.Void]) Handler {
	return HandlerFunc(func(msg Message) errs.Result[errs.Void] {
		typed, ok := msg.(T)
		if !ok {
			return errs.Fail[errs.Void](errs.InvalidMessage, "message is not of the expected type")
		}
		return fn(typed)
	})
}
