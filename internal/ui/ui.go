// Package ui renders the session state in the terminal. It is a pure
// observer of the session store: it reads snapshots and invokes the store's
// operations, and never mutates state itself.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	app_errors "gentle-ai/client/internal/errors"
	"gentle-ai/client/internal/model"
	"gentle-ai/client/internal/session"
)

// stateChangedMsg signals that the store published a new snapshot.
type stateChangedMsg struct{}

// sendDoneMsg reports the guard outcome of a send so the input box can keep
// the text when nothing was actually sent.
type sendDoneMsg struct {
	content string
	err     error
}

type opDoneMsg struct{}

// Model is the Bubble Tea model for the client.
type Model struct {
	store   *session.Store
	snap    session.Snapshot
	updates chan struct{}

	input    textinput.Model
	pane     viewport.Model
	spin     spinner.Model
	selected int // Sidebar cursor, index into snap.Chats.
	width    int
	height   int
	ready    bool
}

// New builds the UI around a store. The store's change notifications are
// coalesced through a one-slot channel: the UI always re-reads the latest
// snapshot, intermediate ones may be skipped.
func New(store *session.Store) Model {
	updates := make(chan struct{}, 1)
	store.Subscribe(func(session.Snapshot) {
		select {
		case updates <- struct{}{}:
		default:
		}
	})

	input := textinput.New()
	input.Placeholder = "اكتب رسالتك هنا..."
	input.CharLimit = 4000
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	return Model{
		store:   store,
		snap:    store.Snapshot(),
		updates: updates,
		input:   input,
		spin:    spin,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForChange(), m.spin.Tick, m.runOp(func(ctx context.Context) {
		m.store.LoadChats(ctx)
		m.store.LoadModels(ctx)
	}))
}

func (m Model) waitForChange() tea.Cmd {
	updates := m.updates
	return func() tea.Msg {
		<-updates
		return stateChangedMsg{}
	}
}

// runOp executes a blocking store operation off the UI goroutine.
func (m Model) runOp(op func(context.Context)) tea.Cmd {
	return func() tea.Msg {
		op(context.Background())
		return opDoneMsg{}
	}
}

func (m Model) sendCmd(content string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		err := store.Send(context.Background(), content)
		return sendDoneMsg{content: content, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		paneWidth := m.width - 32
		paneHeight := m.height - 5
		if !m.ready {
			m.pane = viewport.New(paneWidth, paneHeight)
			m.ready = true
		} else {
			m.pane.Width = paneWidth
			m.pane.Height = paneHeight
		}
		m.pane.SetContent(m.renderMessages())

	case stateChangedMsg:
		m.snap = m.store.Snapshot()
		if m.selected >= len(m.snap.Chats) {
			m.selected = len(m.snap.Chats) - 1
		}
		if m.selected < 0 {
			m.selected = 0
		}
		if m.ready {
			m.pane.SetContent(m.renderMessages())
			m.pane.GotoBottom()
		}
		cmds = append(cmds, m.waitForChange())

	case sendDoneMsg:
		// A guarded send never left the client; give the text back so the
		// user can re-issue it (e.g. after the implicit chat creation).
		if errors.Is(msg.err, app_errors.ErrNoActiveChat) || errors.Is(msg.err, app_errors.ErrBusy) {
			m.input.SetValue(msg.content)
		}

	case opDoneMsg:
		// State changes arrive via stateChangedMsg; nothing to do here.

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.snap.LastError != "" {
				cmds = append(cmds, m.runOp(func(context.Context) { m.store.DismissError() }))
			} else {
				cmds = append(cmds, m.runOp(func(context.Context) { m.store.GoHome() }))
			}
		case "ctrl+n":
			cmds = append(cmds, m.runOp(m.store.NewChat))
		case "ctrl+d":
			if len(m.snap.Chats) > 0 {
				id := m.snap.Chats[m.selected].ID
				cmds = append(cmds, m.runOp(func(ctx context.Context) { m.store.DeleteChat(ctx, id) }))
			}
		case "up":
			if m.selected > 0 {
				m.selected--
			}
		case "down":
			if m.selected < len(m.snap.Chats)-1 {
				m.selected++
			}
		case "ctrl+o":
			if len(m.snap.Chats) > 0 {
				id := m.snap.Chats[m.selected].ID
				cmds = append(cmds, m.runOp(func(ctx context.Context) { m.store.SelectChat(ctx, id) }))
			}
		case "enter":
			content := m.input.Value()
			m.input.Reset()
			cmds = append(cmds, m.sendCmd(content))
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.pane, cmd = m.pane.Update(msg)
			cmds = append(cmds, cmd)
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) renderSidebar() string {
	var b strings.Builder
	b.WriteString(sidebarTitleStyle.Render("Gentle AI"))
	b.WriteString("\n\n")
	if len(m.snap.Chats) == 0 {
		b.WriteString(helpStyle.Render("لا توجد محادثات"))
		b.WriteString("\n")
	}
	for i, chat := range m.snap.Chats {
		line := fmt.Sprintf("%s (%d)", chat.Title, chat.MessageCount)
		if chat.ID == m.snap.ActiveChatID {
			line = "* " + line
		}
		style := chatItemStyle
		if i == m.selected {
			style = selectedChatStyle
			line = "> " + line
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return sidebarStyle.Height(m.height - 2).Render(b.String())
}

func (m Model) renderMessages() string {
	if m.snap.ActiveChatID == "" {
		return helpStyle.Render("اختر محادثة أو ابدأ واحدة جديدة (ctrl+n)")
	}
	if m.snap.Loading {
		return statusStyle.Render("جارٍ تحميل الرسائل...")
	}
	var b strings.Builder
	for _, msg := range m.snap.ActiveMessages {
		switch msg.Role {
		case model.RoleUser:
			b.WriteString(userMsgStyle.Render("أنت: "))
			b.WriteString(msg.Content)
		case model.RoleAssistant:
			b.WriteString(assistantMsgStyle.Render(msg.Content))
			if msg.ModelUsed != nil {
				b.WriteString("\n")
				b.WriteString(modelLabelStyle.Render("— " + *msg.ModelUsed))
			}
		}
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m Model) renderStatus() string {
	if m.snap.LastError != "" {
		return errorStyle.Render(m.snap.LastError + "  (esc للإغلاق)")
	}
	if m.snap.Pending {
		return statusStyle.Render(m.spin.View() + " جارٍ المعالجة...")
	}
	if m.snap.Loading {
		return statusStyle.Render(m.spin.View() + " جارٍ التحميل...")
	}
	return helpStyle.Render("enter إرسال · ctrl+n جديدة · ctrl+o فتح · ctrl+d حذف · esc رئيسية · ctrl+c خروج")
}

func (m Model) View() string {
	if !m.ready {
		return "جارٍ التشغيل..."
	}
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.pane.View(),
		m.input.View(),
		m.renderStatus(),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), right)
}
