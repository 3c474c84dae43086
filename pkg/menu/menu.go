// Copyright 2020 the u-root Authors. All rights reserved
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package menu draws the interactive terminal screens: numbered menus,
// input boxes, paged messages and a progress box.
package menu

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/u-root/wifiseek/pkg/catalog"
)

const menuWidth = 70
const menuHeight = 12
const pageSize = menuHeight - 2
const resultHeight = 20
const resultWidth = 70

// Swapped out by tests so that nothing touches the terminal.
var (
	render      = ui.Render
	clearScreen = ui.Clear
)

type validCheck func(string) (string, string, bool)

// Entry is one row of a menu.
type Entry interface {
	// Label returns the string shown in the menu.
	Label() string
}

// Init sets up the terminal.
func Init() error {
	return ui.Init()
}

// Close restores the terminal.
func Close() {
	ui.Close()
}

// AlwaysValid is a special isValid function that check nothing
func AlwaysValid(input string) (string, string, bool) {
	return input, "", true
}

// newParagraph returns a widgets.Paragraph struct with given initial text.
func newParagraph(initText string, border bool, location int, wid int, ht int) *widgets.Paragraph {
	p := widgets.NewParagraph()
	p.Text = initText
	p.Border = border
	p.SetRect(0, location, wid, location+ht)
	p.TextStyle.Fg = ui.ColorWhite
	return p
}

// readKey reads a key from input stream.
func readKey(uiEvents <-chan ui.Event) string {
	for {
		e := <-uiEvents
		if e.Type == ui.KeyboardEvent || e.Type == ui.MouseEvent {
			return e.ID
		}
	}
}

// editInput applies a typing key to p. It reports false for keys that are
// not about typing.
func editInput(p *widgets.Paragraph, k string) bool {
	switch k {
	case "<Backspace>":
		if r := []rune(p.Text); len(r) > 0 {
			p.Text = string(r[:len(r)-1])
		}
	case "<Space>":
		p.Text += " "
	default:
		// termui names special keys "<F1>", "<Tab>" and so on.
		if strings.HasPrefix(k, "<") {
			return false
		}
		p.Text += k
	}
	render(p)
	return true
}

// processInput presents an input box to user and returns the user's input.
// processInput will check validation of input using isValid function.
func processInput(introwords string, location int, wid int, ht int, isValid validCheck, uiEvents <-chan ui.Event) (string, string, error) {
	intro := newParagraph(introwords, false, location, len(introwords)+4, 3)
	location += 2
	input := newParagraph("", true, location, wid, ht+2)
	location += ht + 2
	warning := newParagraph("", false, location, wid, 15)

	render(intro, input, warning)

	for {
		k := readKey(uiEvents)
		switch k {
		case "<C-d>":
			return input.Text, warning.Text, io.EOF
		case "<Escape>":
			return "<Esc>", "", nil
		case "<Enter>":
			inputString, warningString, ok := isValid(input.Text)
			if ok {
				return inputString, warning.Text, nil
			}
			input.Text = ""
			warning.Text = warningString
			render(input, warning)
		default:
			editInput(input, k)
		}
	}
}

// NewInputWindow opens a new input window with fixed width=80, height=1.
func NewInputWindow(introwords string, isValid validCheck, uiEvents <-chan ui.Event) (string, error) {
	return NewCustomInputWindow(introwords, 80, 1, isValid, uiEvents)
}

// NewCustomInputWindow creates a new ui window and displays an input box.
func NewCustomInputWindow(introwords string, wid int, ht int, isValid validCheck, uiEvents <-chan ui.Event) (string, error) {
	defer clearScreen()
	input, _, err := processInput(introwords, 0, wid, ht, isValid, uiEvents)
	return input, err
}

// DisplayResult opens a new window and displays a message.
// each item in the message array will be displayed on a single line.
func DisplayResult(message []string, uiEvents <-chan ui.Event) (string, error) {
	defer clearScreen()

	text := []string{}
	for _, m := range message {
		r := []rune(m)
		for len(r) > resultWidth {
			text = append(text, string(r[:resultWidth]))
			r = r[resultWidth:]
		}
		text = append(text, string(r))
	}

	p := widgets.NewParagraph()
	p.Border = true
	p.SetRect(0, 0, resultWidth+2, resultHeight+3)
	p.TextStyle.Fg = ui.ColorWhite

	hint := "(Press any key to continue, press <Esc> to exit.)"
	for line := 0; line < len(text); line += resultHeight {
		p.Title = fmt.Sprintf("Message---%v/%v", line, len(text))
		p.Text = strings.Join(text[line:min(len(text), line+resultHeight)], "\n") + "\n" + hint
		render(p)
		switch readKey(uiEvents) {
		case "<C-d>":
			return p.Text, io.EOF
		case "<Escape>":
			return p.Text, nil
		}
	}
	return p.Text, nil
}

// pager shows a window of at most pageSize labels of a list.
type pager struct {
	list   *widgets.List
	title  string
	labels []string
	first  int
}

func newPager(title string, labels []string, location int) *pager {
	l := widgets.NewList()
	l.SetRect(0, location, menuWidth, location+menuHeight)
	l.TextStyle.Fg = ui.ColorWhite
	return &pager{list: l, title: title, labels: labels}
}

// show scrolls so that the window starts at first.
func (p *pager) show(first int) {
	p.first = max(0, min(first, len(p.labels)-pageSize))
	last := min(p.first+pageSize, len(p.labels))
	p.list.Rows = p.labels[p.first:last]
	p.list.Title = fmt.Sprintf("%s---%v/%v", p.title, p.first, len(p.labels))
	render(p.list)
}

// scroll handles navigation keys and reports whether k was one.
func (p *pager) scroll(k string) bool {
	switch k {
	case "<Left>", "<PageUp>":
		p.show(p.first - pageSize)
	case "<Right>", "<PageDown>":
		if p.first+pageSize < len(p.labels) {
			p.show(p.first + pageSize)
		}
	case "<Up>", "<MouseWheelUp>":
		p.show(p.first - 1)
	case "<Down>", "<MouseWheelDown>":
		p.show(p.first + 1)
	case "<Home>":
		p.show(0)
	case "<End>":
		p.show(len(p.labels))
	default:
		return false
	}
	return true
}

// choose shows labels and feeds every line the user enters to pick until
// pick reports done. A non-empty warning from pick is displayed.
func choose(title, introwords string, labels []string, uiEvents <-chan ui.Event, pick func(string) (warning string, done bool)) error {
	if len(labels) == 0 {
		return fmt.Errorf("no entry in the menu")
	}

	location := 0
	pg := newPager(title, labels, location)
	location += menuHeight
	intro := newParagraph(introwords, false, location, len(introwords)+4, 3)
	location += 2
	input := newParagraph("", true, location, menuWidth, 3)
	location += 3
	warning := newParagraph("", false, location, menuWidth, 3)

	render(intro, input, warning)
	pg.show(0)

	for {
		k := readKey(uiEvents)
		switch {
		case k == "<C-d>":
			return io.EOF
		case k == "<Enter>":
			typed := input.Text
			input.Text = ""
			render(input)
			w, done := pick(typed)
			if done {
				return nil
			}
			warning.Text = w
			render(warning)
		case pg.scroll(k):
		default:
			editInput(input, k)
		}
	}
}

// DisplayMenu presents all entries into a menu numbered from 0.
// user inputs a number to choose from them.
// customWarning allow self-defined warnings in the menu, shown instead of
// choosing when the user hits that entry.
func DisplayMenu(menuTitle string, introwords string, entries []Entry, uiEvents <-chan ui.Event, customWarning ...string) (Entry, error) {
	defer clearScreen()

	labels := make([]string, 0, len(entries))
	for i, e := range entries {
		labels = append(labels, fmt.Sprintf("[%d] %s", i, e.Label()))
	}

	var chosen Entry
	err := choose(menuTitle, introwords, labels, uiEvents, func(typed string) (string, bool) {
		c, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil || c < 0 || c >= len(entries) {
			return "Please enter a valid entry number.", false
		}
		if c < len(customWarning) && customWarning[c] != "" {
			return customWarning[c], false
		}
		chosen = entries[c]
		return "", true
	})
	if err != nil {
		return nil, fmt.Errorf("fail to get the choice from menu: %w", err)
	}
	return chosen, nil
}

// NetworkLabels numbers the networks of c from 1, after a "[0] Rescan" row.
func NetworkLabels(c *catalog.Catalog) []string {
	labels := []string{"[0] Rescan"}
	for i, n := range c.Networks() {
		labels = append(labels, fmt.Sprintf("[%d] %-28s %3d%%  %s", i+1, n.SSID, n.Signal, n.Auth))
	}
	return labels
}

// SelectNetwork lists the networks of c strongest first and returns the
// SSID the user picked by number or typed by name. Entering 0 returns
// catalog.ErrRescan.
func SelectNetwork(c *catalog.Catalog, uiEvents <-chan ui.Event) (string, error) {
	defer clearScreen()

	var (
		ssid   string
		rescan bool
	)
	err := choose("Networks", "Enter a number, a network name, or 0 to rescan:", NetworkLabels(c), uiEvents, func(typed string) (string, bool) {
		s, err := c.Resolve(typed)
		switch {
		case errors.Is(err, catalog.ErrRescan):
			rescan = true
			return "", true
		case errors.Is(err, catalog.ErrBadIndex):
			return fmt.Sprintf("Please enter a number between 0 and %d.", c.Len()), false
		case err != nil:
			return "Please enter a network number or name.", false
		}
		ssid = s
		return "", true
	})
	if err != nil {
		return "", err
	}
	if rescan {
		return "", catalog.ErrRescan
	}
	return ssid, nil
}

// Progress is a box telling the user an operation is running.
type Progress struct {
	paragraph *widgets.Paragraph
	animated  bool
	sigTerm   chan bool
	ackTerm   chan bool
}

// NewProgress shows text in a progress box. An animated box appends a
// growing row of dots every second until Close.
func NewProgress(text string, animated bool) Progress {
	paragraph := widgets.NewParagraph()
	paragraph.Border = true
	paragraph.SetRect(0, 0, resultWidth, 10)
	paragraph.TextStyle.Fg = ui.ColorWhite
	paragraph.Title = "Operation Running"
	paragraph.Text = text
	render(paragraph)

	progress := Progress{paragraph, animated, make(chan bool), make(chan bool)}
	if animated {
		go progress.animate()
	}
	return progress
}

func (p *Progress) Update(text string) {
	p.paragraph.Text = text
	render(p.paragraph)
}

func (p *Progress) animate() {
	counter := 0
	for {
		select {
		case <-p.sigTerm:
			p.ackTerm <- true
			return
		case <-time.After(time.Second):
			pText := p.paragraph.Text
			p.Update(pText + strings.Repeat(".", counter%4))
			p.paragraph.Text = pText
			counter++
		}
	}
}

func (p *Progress) Close() {
	if p.animated {
		p.sigTerm <- true
		<-p.ackTerm
	}
	clearScreen()
}
