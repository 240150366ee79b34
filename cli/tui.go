package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fahmaliyi/pwdeck/vault"
	"github.com/spf13/cobra"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	msgStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	helpStyle  = lipgloss.NewStyle().Faint(true)
)

func (a *App) browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse entries interactively",
		Long: `Browse entries interactively.

Keys: / filter, c copy secret, d delete, s save, q quit. Deletions are kept in
memory until saved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := a.openVault(false)
			if err != nil {
				return err
			}
			defer closeVault(v)

			m := newBrowser(v, a.Clipboard, a.cfg.ClipboardTimeout)
			p := tea.NewProgram(m, tea.WithContext(cmd.Context()), tea.WithInput(a.In), tea.WithOutput(a.Out))
			final, err := p.Run()
			if fm, ok := final.(*browser); ok {
				fm.wipe()
				if fm.copied != "" {
					_ = clearClipboard(a.Clipboard, fm.copied)
				}
			}
			if err != nil {
				return fmt.Errorf("browse: %w", err)
			}
			if v.Dirty() {
				fmt.Fprintln(a.Err, "Unsaved changes were discarded.")
			}
			return nil
		},
	}
}

type clearClipboardMsg struct{ secret string }

// browser is the bubbletea model behind the browse command.
type browser struct {
	vault   *vault.Vault
	clip    Clipboard
	timeout time.Duration

	entries   []vault.Entry
	visible   []vault.Entry
	table     table.Model
	filter    textinput.Model
	filtering bool

	copied string
	msg    string
	err    error
}

func newBrowser(v *vault.Vault, clip Clipboard, timeout time.Duration) *browser {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "/ "

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Service", Width: 24},
			{Title: "Username", Width: 24},
			{Title: "ID", Width: 36},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	m := &browser{vault: v, clip: clip, timeout: timeout, table: t, filter: ti}
	m.reload()
	return m
}

// reload refreshes the entry list from the vault and reapplies the filter.
func (m *browser) reload() {
	m.wipe()
	m.entries = m.vault.List()
	m.applyFilter()
}

func (m *browser) applyFilter() {
	q := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	rows := make([]table.Row, 0, len(m.entries))
	for _, e := range m.entries {
		if q != "" && !strings.Contains(strings.ToLower(e.Service), q) &&
			!strings.Contains(strings.ToLower(e.Username), q) {
			continue
		}
		m.visible = append(m.visible, e)
		rows = append(rows, table.Row{e.Service, e.Username, e.ID})
	}
	m.table.SetRows(rows)
	if len(rows) > 0 && m.table.Cursor() >= len(rows) {
		m.table.SetCursor(len(rows) - 1)
	}
}

// wipe zeroes the secrets of the entries held by the model.
func (m *browser) wipe() {
	for _, e := range m.entries {
		vault.Zero(e.Secret)
	}
}

func (m *browser) selected() (vault.Entry, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.visible) {
		return vault.Entry{}, false
	}
	return m.visible[c], true
}

func (m *browser) Init() tea.Cmd {
	return nil
}

func (m *browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case clearClipboardMsg:
		if msg.secret == m.copied {
			_ = clearClipboard(m.clip, msg.secret)
			m.copied = ""
			m.msg = "Clipboard cleared."
		}
		return m, nil
	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		return m.updateTable(msg)
	}
	return m, nil
}

func (m *browser) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.filtering = false
		m.filter.Blur()
		m.table.Focus()
		return m, nil
	case "esc":
		m.filtering = false
		m.filter.Blur()
		m.filter.SetValue("")
		m.table.Focus()
		m.applyFilter()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *browser) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		m.filtering = true
		m.table.Blur()
		return m, m.filter.Focus()
	case "c":
		e, ok := m.selected()
		if !ok {
			return m, nil
		}
		secret := string(e.Secret)
		if err := m.clip.WriteAll(secret); err != nil {
			m.err = err
			return m, nil
		}
		m.copied = secret
		if m.timeout <= 0 {
			m.msg = "Secret copied."
			return m, nil
		}
		m.msg = fmt.Sprintf("Secret copied, clearing in %s.", m.timeout)
		return m, tea.Tick(m.timeout, func(time.Time) tea.Msg {
			return clearClipboardMsg{secret: secret}
		})
	case "d":
		e, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.vault.Remove(e.Service, e.Username); err != nil {
			m.err = err
			return m, nil
		}
		m.msg = fmt.Sprintf("Deleted %s / %s (press s to save).", e.Service, e.Username)
		m.reload()
		return m, nil
	case "s":
		if err := m.vault.Commit(); err != nil {
			m.err = err
			return m, nil
		}
		m.msg = "Saved."
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *browser) View() string {
	var b strings.Builder
	title := "pwdeck"
	if m.vault.Dirty() {
		title += " *"
	}
	b.WriteString(titleStyle.Render(title) + "\n\n")
	b.WriteString(m.table.View() + "\n")
	if m.filtering || m.filter.Value() != "" {
		b.WriteString(m.filter.View() + "\n")
	}
	switch {
	case m.err != nil:
		b.WriteString(errStyle.Render(describeError(m.err)) + "\n")
	case m.msg != "":
		b.WriteString(msgStyle.Render(m.msg) + "\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ move  / filter  c copy  d delete  s save  q quit"))
	return b.String()
}
