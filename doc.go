// Package overlay drives a small always-on-top window that animates a
// looping image next to the system tray.
//
// Three producers feed one ordered queue: the window host goroutine that
// pumps native messages, the timer engine that emits periodic events, and
// application code posting commands. A single EventLoop consumes the queue
// and hands every Event to the application Handler on one goroutine, so
// handler state needs no locking.
package overlay
