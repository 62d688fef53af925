package ui

import "github.com/rivo/tview"

// Pages is a stack-based page manager wrapping tview.Pages. The bottom page
// is the root and is never popped.
type Pages struct {
	*tview.Pages
	stack    []string
	onChange func(current string)
}

// NewPages creates a new stack-based page manager.
func NewPages() *Pages {
	return &Pages{
		Pages: tview.NewPages(),
	}
}

// SetOnChange sets a callback that fires when the top page changes.
func (p *Pages) SetOnChange(fn func(current string)) {
	p.onChange = fn
}

// Register adds a hidden page.
func (p *Pages) Register(name string, item tview.Primitive) {
	p.AddPage(name, item, true, false)
}

// Push shows name on top of the stack. Pushing the current page is a no-op.
func (p *Pages) Push(name string) {
	if p.Current() == name {
		return
	}
	if len(p.stack) > 0 {
		p.HidePage(p.Current())
	}
	p.stack = append(p.stack, name)
	p.ShowPage(name)
	p.SendToFront(name)
	p.notify()
}

// Back pops the top page. It returns false when only the root is left.
func (p *Pages) Back() bool {
	if len(p.stack) <= 1 {
		return false
	}
	p.HidePage(p.Current())
	p.stack = p.stack[:len(p.stack)-1]
	p.ShowPage(p.Current())
	p.SendToFront(p.Current())
	p.notify()
	return true
}

// Current returns the name of the top page.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Depth returns the current stack depth.
func (p *Pages) Depth() int {
	return len(p.stack)
}

func (p *Pages) notify() {
	if p.onChange != nil {
		p.onChange(p.Current())
	}
}
