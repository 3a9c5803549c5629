// Package app wires the conversation engine to the channels: the view router
// that keeps one surface active at a time, and the worker that drives chat
// turns from the message bus.
package app

import "sync"

// View is one of the main screens.
type View int

const (
	ViewChat View = iota
	ViewGoals
	ViewStatistics
)

func (v View) String() string {
	switch v {
	case ViewGoals:
		return "goals"
	case ViewStatistics:
		return "statistics"
	default:
		return "chat"
	}
}

// Modal is an overlay on top of the active view. At most one is open.
type Modal int

const (
	ModalNone Modal = iota
	ModalFileUpload
	ModalStatementUpload
	ModalAnalytics
	ModalRealtimeVoice
)

func (m Modal) String() string {
	switch m {
	case ModalFileUpload:
		return "file-upload"
	case ModalStatementUpload:
		return "statement-upload"
	case ModalAnalytics:
		return "analytics"
	case ModalRealtimeVoice:
		return "realtime-voice"
	default:
		return "none"
	}
}

// ParseView maps a wire name to a View.
func ParseView(name string) (View, bool) {
	switch name {
	case "chat":
		return ViewChat, true
	case "goals":
		return ViewGoals, true
	case "statistics":
		return ViewStatistics, true
	}
	return ViewChat, false
}

// ParseModal maps a wire name to a Modal.
func ParseModal(name string) (Modal, bool) {
	switch name {
	case "none":
		return ModalNone, true
	case "file-upload":
		return ModalFileUpload, true
	case "statement-upload":
		return ModalStatementUpload, true
	case "analytics":
		return ModalAnalytics, true
	case "realtime-voice":
		return ModalRealtimeVoice, true
	}
	return ModalNone, false
}

// Router holds the exclusive view/modal state for one client instance.
// Opening any modal closes whichever was open before.
type Router struct {
	mu    sync.Mutex
	view  View
	modal Modal

	// OnChange, when set, observes every state transition.
	OnChange func(view View, modal Modal)
}

func NewRouter() *Router {
	return &Router{view: ViewChat, modal: ModalNone}
}

func (r *Router) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view
}

func (r *Router) Modal() Modal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.modal
}

// SetView switches the active screen and dismisses any open modal.
func (r *Router) SetView(v View) {
	r.mu.Lock()
	r.view = v
	r.modal = ModalNone
	r.notifyLocked()
	r.mu.Unlock()
}

// OpenModal shows one overlay, replacing the current one.
func (r *Router) OpenModal(m Modal) {
	r.mu.Lock()
	r.modal = m
	r.notifyLocked()
	r.mu.Unlock()
}

// CloseModal dismisses the open overlay, if any.
func (r *Router) CloseModal() {
	r.mu.Lock()
	r.modal = ModalNone
	r.notifyLocked()
	r.mu.Unlock()
}

// CloseAll resets to the chat view with nothing overlaid.
func (r *Router) CloseAll() {
	r.mu.Lock()
	r.view = ViewChat
	r.modal = ModalNone
	r.notifyLocked()
	r.mu.Unlock()
}

func (r *Router) notifyLocked() {
	if r.OnChange != nil {
		r.OnChange(r.view, r.modal)
	}
}
