package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// PromptMode selects what a submitted prompt does.
type PromptMode int

const (
	PromptCommand PromptMode = iota
	PromptFilter
	PromptAdd
	PromptNewTab
	PromptRenameTab
	PromptExport
	PromptImport
)

var promptLabels = map[PromptMode]struct{ label, title string }{
	PromptCommand:   {":", " Command "},
	PromptFilter:    {"/", " Filter "},
	PromptAdd:       {"username: ", " Add streamer "},
	PromptNewTab:    {"name: ", " New tab "},
	PromptRenameTab: {"name: ", " Rename tab "},
	PromptExport:    {"file: ", " Export settings "},
	PromptImport:    {"file: ", " Import settings "},
}

// Prompt is a single-line input bar shared by every mode.
type Prompt struct {
	*tview.InputField
	mode     PromptMode
	onSubmit func(mode PromptMode, text string)
	onCancel func()
}

// NewPrompt creates a new prompt input bar.
func NewPrompt(theme *Theme) *Prompt {
	input := tview.NewInputField()
	input.SetBorder(true)
	input.SetBorderColor(theme.PromptBorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	p := &Prompt{InputField: input}

	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			p.Submit()
		case tcell.KeyEscape:
			p.SetText("")
			if p.onCancel != nil {
				p.onCancel()
			}
		}
	})

	return p
}

// SetOnSubmit sets the callback when the prompt is submitted.
func (p *Prompt) SetOnSubmit(fn func(mode PromptMode, text string)) {
	p.onSubmit = fn
}

// SetOnCancel sets the callback when the prompt is cancelled.
func (p *Prompt) SetOnCancel(fn func()) {
	p.onCancel = fn
}

// Submit hands the current text to the submit callback and clears it.
// Export and import accept an empty text and use the default file.
func (p *Prompt) Submit() {
	text := p.GetText()
	p.SetText("")
	if p.onSubmit == nil {
		return
	}
	if text == "" && p.mode != PromptExport && p.mode != PromptImport && p.mode != PromptFilter {
		if p.onCancel != nil {
			p.onCancel()
		}
		return
	}
	p.onSubmit(p.mode, text)
}

// Activate shows the prompt in mode with initial text.
func (p *Prompt) Activate(mode PromptMode, initial string) {
	p.mode = mode
	l := promptLabels[mode]
	p.SetLabel(l.label)
	p.SetTitle(l.title)
	p.SetText(initial)
}

// Mode returns the current prompt mode.
func (p *Prompt) Mode() PromptMode {
	return p.mode
}
