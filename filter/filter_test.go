package filter

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"chanfilter"
	nt "chanfilter/entity"
	"chanfilter/message"
)

type nopLog struct{}

func (nopLog) Info(ctx context.Context, msg string, kv ...any)              {}
func (nopLog) Error(ctx context.Context, msg string, err error, kv ...any) {}

type fixedCount struct {
	count int
}

func (fc fixedCount) Count(ctx context.Context, cond nt.Condition) (int, error) {
	return fc.count, nil
}

func newPanel(t *testing.T, threshold int) FilterPanel {
	t.Helper()

	cfg := chanfilter.Defaults()
	cfg.RecordLimitWarning = threshold
	cat := cfg.Catalog(nt.ChannelInfo{SystemName: "CHANNEL_A", Label: "Channel A", DataType: nt.Scalar})

	sn, err := cfg.New(cat, fixedCount{count: 100}, nopLog{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return NewFilterPanel(context.Background(), sn, fixedCount{count: 100}, nopLog{})
}

func press(pnl FilterPanel, keys ...string) (FilterPanel, tea.Cmd) {
	var cmd tea.Cmd
	for _, key := range keys {
		var model tea.Model
		model, cmd = pnl.HandleKey(key)
		pnl = model.(FilterPanel)
	}
	return pnl, cmd
}

func typed(pnl FilterPanel, text string) FilterPanel {
	for _, r := range text {
		key := string(r)
		if r == ' ' {
			key = "space"
		}
		pnl, _ = press(pnl, key)
	}
	return pnl
}

func deliver(pnl FilterPanel, msg tea.Msg) (FilterPanel, tea.Cmd) {
	model, cmd := pnl.Update(msg)
	return model.(FilterPanel), cmd
}

func TestTokenEntry(t *testing.T) {

	pnl := newPanel(t, -1)

	pnl = typed(pnl, "sh")
	pnl, _ = press(pnl, "enter")
	pnl = typed(pnl, "is n")
	pnl, _ = press(pnl, "enter")

	want := nt.Expression{
		nt.Channel{SystemName: "shotnum", Label: "Shot Number"},
		nt.Op(nt.SymIsNotNull),
	}
	if got := pnl.draft(); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	pnl = typed(pnl, "an")
	pnl, _ = press(pnl, "tab")
	if pnl.input != "and" {
		t.Errorf("expected completion to and, got %q", pnl.input)
	}
	pnl, _ = press(pnl, "enter")
	pnl = typed(pnl, "channel a")
	pnl, _ = press(pnl, "enter")
	pnl = typed(pnl, ">=")
	pnl, _ = press(pnl, "enter")
	pnl = typed(pnl, "2.5")
	pnl, _ = press(pnl, "enter")

	want = append(want,
		nt.Op(nt.SymAnd),
		nt.Channel{SystemName: "CHANNEL_A", Label: "Channel A"},
		nt.Op(nt.SymGte),
		nt.Literal{Raw: "2.5", Type: nt.NumberLiteral},
	)
	if got := pnl.draft(); !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	pnl = typed(pnl, "xy")
	pnl, _ = press(pnl, "backspace")
	if pnl.input != "x" {
		t.Errorf("expected input x, got %q", pnl.input)
	}
	pnl, _ = press(pnl, "backspace", "backspace")
	if got := pnl.draft(); !got.Equal(want[:len(want)-1]) {
		t.Errorf("expected last token removed, got %v", got)
	}
}

func TestRows(t *testing.T) {

	pnl := newPanel(t, -1)

	pnl = typed(pnl, "shotnum")
	pnl, _ = press(pnl, "enter")
	pnl = typed(pnl, "is null")
	pnl, _ = press(pnl, "enter", "ctrl+n")
	if pnl.selected != 1 {
		t.Fatalf("expected new row selected, got %d", pnl.selected)
	}

	pnl = typed(pnl, "active area")
	pnl, _ = press(pnl, "enter")
	pnl = typed(pnl, "is null")
	pnl, _ = press(pnl, "enter", "up", "ctrl+d")

	drafts := pnl.session.Drafts()
	if len(drafts) != 1 || drafts[0][0].Text() != "Active Area" {
		t.Fatalf("expected only the active area row, got %v", drafts)
	}

	pnl, _ = press(pnl, "ctrl+d")
	if len(pnl.session.Drafts()) != 0 || pnl.selected != 0 {
		t.Fatalf("expected no rows, got %v", pnl.session.Drafts())
	}

	// typing into no rows starts one
	pnl = typed(pnl, "shotnum")
	pnl, _ = press(pnl, "enter")
	if len(pnl.session.Drafts()) != 1 {
		t.Errorf("expected a row, got %v", pnl.session.Drafts())
	}
}

func TestApply(t *testing.T) {

	pnl := newPanel(t, -1)

	pnl = typed(pnl, "shotnum")
	pnl, _ = press(pnl, "enter")
	pnl, cmd := press(pnl, "ctrl+s")
	if cmd != nil || !strings.Contains(pnl.notice, "needs an operator") {
		t.Fatalf("expected invalid draft notice, got %q", pnl.notice)
	}
	if !pnl.session.Applied().Equal(nt.FilterSet{{}}) {
		t.Errorf("expected nothing applied, got %v", pnl.session.Applied())
	}

	pnl = typed(pnl, "is null")
	pnl, _ = press(pnl, "enter")
	pnl, cmd = press(pnl, "ctrl+s")
	if cmd == nil || pnl.notice != "filters applied" {
		t.Fatalf("expected applied, got %q", pnl.notice)
	}
	if pnl.session.Compiled() == nil {
		t.Error("expected a compiled condition")
	}

	pnl, _ = deliver(pnl, message.CountMsg{Count: 1234})
	if pnl.count != "1,234 records" {
		t.Errorf("unexpected count %q", pnl.count)
	}
}

func TestApplyNeedsConfirmation(t *testing.T) {

	pnl := newPanel(t, 10)

	pnl = typed(pnl, "shotnum")
	pnl, _ = press(pnl, "enter")
	pnl = typed(pnl, "is not null")
	pnl, _ = press(pnl, "enter")

	pnl, cmd := press(pnl, "ctrl+s")
	if cmd == nil || pnl.pending == nil {
		t.Fatal("expected an estimate to be fetched")
	}

	pnl, _ = deliver(pnl, cmd())
	if !strings.Contains(pnl.notice, "over 10 results") {
		t.Fatalf("expected warning, got %q", pnl.notice)
	}
	if pnl.session.Compiled() != nil {
		t.Fatal("expected nothing applied yet")
	}

	pnl, cmd = press(pnl, "ctrl+s")
	if cmd == nil || pnl.notice != "filters applied" {
		t.Fatalf("expected applied on confirmation, got %q", pnl.notice)
	}
}

func TestStaleEstimate(t *testing.T) {

	pnl := newPanel(t, 10)

	pnl = typed(pnl, "shotnum")
	pnl, _ = press(pnl, "enter")
	pnl = typed(pnl, "is not null")
	pnl, _ = press(pnl, "enter")
	pnl, first := press(pnl, "ctrl+s")

	// edited while counting
	pnl, _ = press(pnl, "backspace")
	pnl = typed(pnl, "is null")
	pnl, _ = press(pnl, "enter")

	pnl, _ = deliver(pnl, first())
	if !strings.Contains(pnl.notice, "changed") {
		t.Fatalf("expected discard notice, got %q", pnl.notice)
	}

	// superseded by a newer apply
	pnl, first = press(pnl, "ctrl+s")
	pnl, _ = press(pnl, "backspace")
	pnl = typed(pnl, "is not null")
	pnl, _ = press(pnl, "enter")
	pnl, second := press(pnl, "ctrl+s")

	pnl, _ = deliver(pnl, first())
	if pnl.pending == nil || pnl.notice != "counting records.." {
		t.Fatalf("expected superseded estimate to be ignored, got %q", pnl.notice)
	}

	pnl, _ = deliver(pnl, second())
	if !strings.Contains(pnl.notice, "over 10 results") {
		t.Errorf("expected warning, got %q", pnl.notice)
	}
}

func TestView(t *testing.T) {

	pnl := newPanel(t, -1)
	pnl, _ = deliver(pnl, SizeMsg{Width: 120, Height: 40})

	pnl = typed(pnl, "shotnum")
	pnl, _ = press(pnl, "enter")
	pnl = typed(pnl, "an")

	_ = pnl.View()

	row := pnl.renderRow(0, pnl.draft())
	if !strings.Contains(row, "Shot Number") || !strings.Contains(row, "an") {
		t.Errorf("expected token and input in row, got %q", row)
	}
	if !strings.Contains(row, "needs an operator") {
		t.Errorf("expected problem in row, got %q", row)
	}
}
