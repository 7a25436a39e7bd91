package filter

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"chanfilter"
	nt "chanfilter/entity"
	"chanfilter/guard"
	"chanfilter/message"
	"chanfilter/style"
)

const (
	dialogWidth    = 72
	maxSuggestions = 5

	helpText = "enter: add token  tab: complete  ↑↓: row  ctrl+n: new  ctrl+d: delete  ctrl+s: apply  ctrl+r: clear  esc: quit"
)

// FilterPanel displays a dialog for composing filter expressions token by
// token, one row per draft expression.
type FilterPanel struct {
	session   *chanfilter.Session
	estimator guard.Estimator

	selected int    // Which draft is selected
	input    string // Text typed toward the next token

	pending  *chanfilter.Candidate // Apply awaiting its estimate
	notice   string
	count    string
	helpText string

	width  int
	height int

	ctx    context.Context
	logger nt.Logger
}

// NewFilterPanel creates a panel editing the session's drafts.
// est counts records after an apply and may be nil.
func NewFilterPanel(ctx context.Context, sn *chanfilter.Session, est guard.Estimator, lgr nt.Logger) FilterPanel {
	return FilterPanel{
		ctx:       ctx,
		logger:    lgr,
		session:   sn,
		estimator: est,
		helpText:  helpText,
	}
}

// Embedded sets the help shown when the panel is a dialog over another
// screen, where esc closes rather than quits.
func (pnl FilterPanel) Embedded() FilterPanel {
	pnl.helpText = strings.Replace(helpText, "esc: quit", "esc: close", 1)
	return pnl
}

func (pnl FilterPanel) Init() tea.Cmd {
	return pnl.countCmd()
}

func (pnl FilterPanel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case SizeMsg:
		pnl.width = msg.Width
		pnl.height = msg.Height

	case tea.WindowSizeMsg:
		pnl.width = msg.Width
		pnl.height = msg.Height

	case EstimateMsg:
		return pnl.commit(msg)

	case message.CountMsg:
		pnl.count = fmt.Sprintf("%s records", humanize.Comma(int64(msg.Count)))

	case message.ErrorMsg:
		pnl.logger.Error(pnl.ctx, "filter panel error", msg.Err)
		pnl.notice = msg.Err.Error()

	case tea.KeyPressMsg:
		return pnl.HandleKey(msg.String())
	}

	return pnl, nil
}

// HandleKey edits drafts and applies them.
func (pnl FilterPanel) HandleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", "esc":
		return pnl, tea.Quit

	case "ctrl+s":
		return pnl.apply()

	case "ctrl+n":
		pnl.selected = pnl.session.AddDraft()
		pnl.input = ""

	case "ctrl+d":
		pnl.removeSelected()

	case "ctrl+r":
		pnl.session.Reset()
		pnl.selected = 0
		pnl.input = ""
		pnl.notice = "filters cleared, apply to take effect"

	case "up":
		if pnl.selected > 0 {
			pnl.selected--
			pnl.input = ""
		}

	case "down":
		if pnl.selected < len(pnl.session.Drafts())-1 {
			pnl.selected++
			pnl.input = ""
		}

	case "tab":
		// complete to the first suggestion without committing it
		if sugg := pnl.suggestions(); len(sugg) > 0 {
			pnl.input = sugg[0].Text()
		}

	case "enter":
		pnl.push()

	case "backspace":
		pnl.pop()

	case "space":
		pnl.input += " "

	default:
		if len(key) == 1 {
			pnl.input += key
		}
	}

	return pnl, nil
}

// push resolves the input into a token appended to the selected draft.
func (pnl *FilterPanel) push() {

	if strings.TrimSpace(pnl.input) == "" {
		return
	}

	if len(pnl.session.Drafts()) == 0 {
		pnl.selected = pnl.session.AddDraft()
	}

	expr := pnl.draft()
	expr = append(expr, pnl.session.Lexer().Resolve(expr, pnl.input))
	pnl.update(expr)
	pnl.input = ""
}

// pop removes a character of input or else the last token.
func (pnl *FilterPanel) pop() {

	if pnl.input != "" {
		runes := []rune(pnl.input)
		pnl.input = string(runes[:len(runes)-1])
		return
	}

	expr := pnl.draft()
	if len(expr) == 0 {
		return
	}
	pnl.update(expr[:len(expr)-1])
}

func (pnl *FilterPanel) removeSelected() {

	err := pnl.session.RemoveDraft(pnl.selected)
	if err != nil {
		pnl.notice = err.Error()
		return
	}

	if pnl.selected >= len(pnl.session.Drafts()) {
		pnl.selected = max(len(pnl.session.Drafts())-1, 0)
	}
	pnl.input = ""
}

func (pnl FilterPanel) draft() nt.Expression {
	expr, err := pnl.session.Draft(pnl.selected)
	if err != nil {
		return nt.Expression{}
	}
	return expr
}

func (pnl *FilterPanel) update(expr nt.Expression) {
	err := pnl.session.UpdateDraft(pnl.selected, expr)
	if err != nil {
		pnl.notice = err.Error()
	}
}

func (pnl FilterPanel) suggestions() []nt.Token {
	return pnl.session.Lexer().Suggest(pnl.draft(), pnl.input)
}

// apply prepares the drafts and, when the guard wants one, fetches an
// estimate before committing.
func (pnl FilterPanel) apply() (tea.Model, tea.Cmd) {

	cand, err := pnl.session.Prepare()
	if err != nil {
		var de *chanfilter.DraftError
		if errors.As(err, &de) {
			pnl.selected = de.Index
		}
		pnl.notice = err.Error()
		return pnl, nil
	}

	if !pnl.session.NeedsEstimate(cand) {
		pnl.pending = nil
		return pnl.commit(EstimateMsg{Candidate: cand, Estimate: guard.Estimate{Key: cand.Key}})
	}

	pnl.pending = &cand
	pnl.notice = "counting records.."

	ctx, sn := pnl.ctx, pnl.session
	return pnl, func() tea.Msg {
		est, err := sn.Estimate(ctx, cand)
		return EstimateMsg{Candidate: cand, Estimate: est, Err: err}
	}
}

// commit hands an estimate to the session, ignoring any that belong to an
// apply since superseded.
func (pnl FilterPanel) commit(msg EstimateMsg) (tea.Model, tea.Cmd) {

	if pnl.pending != nil && pnl.pending.Key != msg.Candidate.Key {
		return pnl, nil
	}
	pnl.pending = nil

	if msg.Err != nil {
		pnl.logger.Error(pnl.ctx, "failed to estimate record count", msg.Err)
	}

	outcome, err := pnl.session.Commit(pnl.ctx, msg.Candidate, msg.Estimate)
	if err != nil {
		pnl.notice = err.Error()
		return pnl, nil
	}

	switch outcome {
	case chanfilter.NeedsConfirmation:
		pnl.notice = fmt.Sprintf("This search will return over %s results (about %s). Apply again to continue.",
			humanize.Comma(int64(pnl.session.Guard().Threshold())), humanize.Comma(int64(msg.Estimate.Count)))
		return pnl, nil

	case chanfilter.Discarded:
		pnl.notice = "filters changed while counting, apply again"
		return pnl, nil
	}

	pnl.notice = "filters applied"
	cond := pnl.session.Compiled()
	return pnl, tea.Batch(
		func() tea.Msg { return message.AppliedMsg{Condition: cond} },
		pnl.countCmd(),
	)
}

func (pnl FilterPanel) countCmd() tea.Cmd {
	if pnl.estimator == nil {
		return nil
	}
	return message.CountCmd(pnl.ctx, pnl.estimator, pnl.session.Compiled())
}

func (pnl FilterPanel) View() tea.View {

	dialog := pnl.Render()

	// Center the dialog
	if pnl.width > 0 && pnl.height > 0 {
		x, y := pnl.Position(dialog)
		return tea.NewView(lipgloss.NewLayer("filter", dialog).X(x).Y(y))
	}

	return tea.NewView(lipgloss.NewLayer("filter", dialog))
}

// Render renders the dialog.
func (pnl FilterPanel) Render() string {
	var content strings.Builder

	content.WriteString("Filters:\n")
	for i, expr := range pnl.session.Drafts() {
		content.WriteString(pnl.renderRow(i, expr) + "\n")
	}

	if sugg := pnl.suggestions(); len(sugg) > 0 {
		names := make([]string, 0, maxSuggestions)
		for _, tok := range sugg[:min(len(sugg), maxSuggestions)] {
			names = append(names, tok.Text())
		}
		content.WriteString(style.MutedStyle.Render("  "+strings.Join(names, " | ")) + "\n")
	}

	applied := make([]string, 0)
	for _, expr := range pnl.session.Applied() {
		if !expr.Empty() {
			applied = append(applied, "("+expr.String()+")")
		}
	}
	if len(applied) == 0 {
		applied = append(applied, "none")
	}
	content.WriteString("\nApplied: " + strings.Join(applied, " and "))
	if pnl.count != "" {
		content.WriteString("  " + style.MutedStyle.Render(pnl.count))
	}
	content.WriteString("\n")

	if pnl.notice != "" {
		content.WriteString(style.WarningStyle.Render(pnl.notice) + "\n")
	}

	content.WriteString("\n" + style.MutedStyle.Render(pnl.helpText))

	return style.DialogStyle.Width(dialogWidth).Render(content.String())
}

// Position returns where the dialog sits centered on the panel.
func (pnl FilterPanel) Position(dialog string) (x, y int) {

	dialogHeight := strings.Count(dialog, "\n") + 1

	x = max((pnl.width-lipgloss.Width(dialog))/2, 0)
	y = max((pnl.height-dialogHeight)/2, 0)
	return
}

// renderRow shows a draft with the offending token highlighted and, on the
// selected row, the pending input.
func (pnl FilterPanel) renderRow(idx int, expr nt.Expression) string {

	res, _ := pnl.session.Validate(idx)
	bad := -1
	if !res.Valid() {
		bad = res.Problem.Pos
	}

	parts := make([]string, 0, len(expr)+1)
	for i, tok := range expr {
		parts = append(parts, tokenStyle(tok, i == bad).Render(tok.Text()))
	}

	rowPrefix := "  "
	if idx == pnl.selected {
		rowPrefix = "> "
		parts = append(parts, style.HlTokenStyle.Render(pnl.input+"▏"))
	}

	mark := style.MutedStyle.Render("ok")
	if !res.Valid() {
		mark = style.InvalidStyle.Render(res.Problem.Reason)
	}
	if len(expr) == 0 {
		mark = style.MutedStyle.Render("no constraint")
	}

	return fmt.Sprintf("%s%s  %s", rowPrefix, strings.Join(parts, " "), mark)
}

func tokenStyle(tok nt.Token, bad bool) lipgloss.Style {

	if bad {
		return style.InvalidStyle
	}

	switch tok.(type) {
	case nt.Channel:
		return style.ChannelStyle
	case nt.Operator:
		return style.OperatorStyle
	}
	return style.LiteralStyle
}
