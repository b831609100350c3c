// Package notify delivers user-facing messages.
//
// A Dispatcher owns a single worker goroutine. Non-blocking notifications are
// queued and Notify returns at once; blocking ones wait for the presenter.
// Presenters are zenity popups, styled console lines, or plain log entries.
// Presenter failures are logged and never surface to callers.
package notify
