package editor

import (
	"context"
	"fmt"
	"slices"

	"github.com/crestline/estatesite/internal/apierr"
)

var ErrUnknownTab = apierr.New(apierr.NotFound, "no editor open for building")

type Choice int

const (
	SaveThenProceed Choice = iota
	DiscardThenProceed
)

// Workspace holds one editor per building tab and guards navigation away from unsaved edits.
type Workspace struct {
	editors map[string]*Editor
	tabs    []string
	active  string
	closed  bool
	onClose func()
	pending *PendingNavigation
}

func NewWorkspace(editors ...*Editor) *Workspace {
	w := &Workspace{editors: map[string]*Editor{}}
	for _, e := range editors {
		w.Open(e)
	}
	return w
}

// Open adds a tab. The first tab opened becomes active.
func (w *Workspace) Open(e *Editor) {
	id := e.building.ID
	if _, ok := w.editors[id]; !ok {
		w.tabs = append(w.tabs, id)
	}
	w.editors[id] = e
	if w.active == "" {
		w.active = id
	}
}

func (w *Workspace) Tabs() []string {
	return slices.Clone(w.tabs)
}

func (w *Workspace) Active() *Editor {
	return w.editors[w.active]
}

func (w *Workspace) Editor(buildingID string) (*Editor, bool) {
	e, ok := w.editors[buildingID]
	return e, ok
}

// OnClose registers a callback run once Back completes.
func (w *Workspace) OnClose(fn func()) {
	w.onClose = fn
}

// Closed reports whether Back has completed.
func (w *Workspace) Closed() bool {
	return w.closed
}

func (w *Workspace) Pending() *PendingNavigation {
	return w.pending
}

// SwitchTab moves to another building. When the active editor has unsaved
// changes nothing moves yet and the returned navigation must be resolved.
func (w *Workspace) SwitchTab(buildingID string) (*PendingNavigation, error) {
	if _, ok := w.editors[buildingID]; !ok {
		return nil, ErrUnknownTab
	}
	if buildingID == w.active {
		return nil, nil
	}
	return w.navigate(fmt.Sprintf("switch to %s", buildingID), func() {
		w.active = buildingID
	}), nil
}

// Back leaves the editor. Guarded the same way as SwitchTab.
func (w *Workspace) Back() *PendingNavigation {
	return w.navigate("back", func() {
		w.closed = true
		if w.onClose != nil {
			w.onClose()
		}
	})
}

func (w *Workspace) navigate(target string, proceed func()) *PendingNavigation {
	// a newer navigation supersedes the held one, resolving the old one is a no-op
	if w.pending != nil {
		w.pending.done = true
	}

	active := w.Active()
	if active == nil || !active.HasUnsavedChanges() {
		w.pending = nil
		proceed()
		return nil
	}

	w.pending = &PendingNavigation{
		workspace: w,
		editor:    active,
		target:    target,
		proceed:   proceed,
	}
	return w.pending
}

// PendingNavigation is a navigation held back by unsaved changes.
type PendingNavigation struct {
	workspace *Workspace
	editor    *Editor
	target    string
	proceed   func()
	done      bool
}

func (p *PendingNavigation) Target() string {
	return p.target
}

func (p *PendingNavigation) Done() bool {
	return p.done
}

// Resolve saves or discards, then completes the navigation. A failed save leaves
// the user where they are with their edits intact.
func (p *PendingNavigation) Resolve(ctx context.Context, choice Choice) error {
	if p.done {
		return nil
	}

	switch choice {
	case SaveThenProceed:
		if err := p.editor.Save(ctx); err != nil {
			return err
		}
	case DiscardThenProceed:
		p.editor.Discard()
	default:
		return apierr.Newf(apierr.Validation, "unknown choice %d", choice)
	}

	p.done = true
	p.proceed()
	if p.workspace.pending == p {
		p.workspace.pending = nil
	}
	return nil
}

// Cancel abandons the navigation and keeps the current tab.
func (p *PendingNavigation) Cancel() {
	p.done = true
	if p.workspace.pending == p {
		p.workspace.pending = nil
	}
}
