package cli

import (
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/strata/pkg/pipeline"
)

func pickerFor(t *testing.T, preselected ...string) rootPicker {
	t.Helper()
	doc, err := pipeline.ReadDocument(strings.NewReader(servicesJSON))
	if err != nil {
		t.Fatal(err)
	}
	return newRootPicker(doc.Graph, preselected)
}

func press(m rootPicker, keys ...tea.KeyMsg) (rootPicker, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		m = next.(rootPicker)
	}
	return m, cmd
}

var (
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keySpace = tea.KeyMsg{Type: tea.KeySpace}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func TestRootPickerOrdersByDegree(t *testing.T) {
	m := pickerFor(t)
	// gateway and billing have three links each, so they lead.
	if m.items[0].label != "gateway" || m.items[1].label != "billing" {
		t.Errorf("first items = %q, %q; want gateway, billing", m.items[0].label, m.items[1].label)
	}
	for i := 1; i < len(m.items); i++ {
		if m.items[i].degree > m.items[i-1].degree {
			t.Fatalf("items not sorted by degree: %+v", m.items)
		}
	}
}

func TestRootPickerPreselects(t *testing.T) {
	m := pickerFor(t, "auth", "missing")
	if got := m.selectedLabels(); !reflect.DeepEqual(got, []string{"auth"}) {
		t.Errorf("selectedLabels = %v, want [auth]", got)
	}
}

func TestRootPickerToggleAndConfirm(t *testing.T) {
	m, cmd := press(pickerFor(t), keySpace, keyDown, keySpace, keySpace, keyDown, keySpace, keyEnter)
	if !m.confirmed {
		t.Fatal("enter did not confirm")
	}
	if cmd == nil {
		t.Fatal("enter should quit the program")
	}
	if got := m.selectedLabels(); !reflect.DeepEqual(got, []string{"gateway", m.items[2].label}) {
		t.Errorf("selectedLabels = %v", got)
	}
}

func TestRootPickerAbort(t *testing.T) {
	m, cmd := press(pickerFor(t), keySpace, keyEsc)
	if m.confirmed {
		t.Error("esc confirmed the selection")
	}
	if cmd == nil {
		t.Error("esc should quit the program")
	}
}

func TestRootPickerCursorBounds(t *testing.T) {
	m := pickerFor(t)
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyUp})
	if m.cursor != 0 {
		t.Errorf("cursor = %d after moving up from the top", m.cursor)
	}
	for range 20 {
		m, _ = press(m, keyDown)
	}
	if m.cursor != len(m.items)-1 {
		t.Errorf("cursor = %d, want %d", m.cursor, len(m.items)-1)
	}
}

func TestRootPickerScrolls(t *testing.T) {
	m := pickerFor(t)
	next, _ := m.Update(tea.WindowSizeMsg{Height: 8})
	m = next.(rootPicker)
	if m.height != 5 {
		t.Fatalf("height = %d, want the minimum of 5", m.height)
	}
	m, _ = press(m, keyDown, keyDown, keyDown, keyDown, keyDown)
	if m.offset != 1 {
		t.Errorf("offset = %d, want 1", m.offset)
	}
	if strings.Contains(m.View(), m.items[0].label+" ") {
		t.Errorf("scrolled view still shows %q", m.items[0].label)
	}
}

func TestRootPickerView(t *testing.T) {
	m, _ := press(pickerFor(t), keySpace)
	view := m.View()
	for _, want := range []string{"Select Roots", "gateway", "3 links", "1 selected"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}
