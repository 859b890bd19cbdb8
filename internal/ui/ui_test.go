package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"gentle-ai/client/internal/model"
	"gentle-ai/client/internal/session"
	"gentle-ai/client/internal/transport/mocks"
)

func testModel(t *testing.T) Model {
	gateway := mocks.NewMockGateway(t)
	store := session.NewStore(gateway, "محادثة جديدة", "")
	m := New(store)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model)
}

func TestRenderMessages(t *testing.T) {
	m := testModel(t)

	t.Run("No active chat shows the home hint", func(t *testing.T) {
		m.snap = session.Snapshot{}
		assert.Contains(t, m.renderMessages(), "ابدأ واحدة جديدة")
	})

	t.Run("Loading state", func(t *testing.T) {
		m.snap = session.Snapshot{ActiveChatID: "c1", Loading: true}
		assert.Contains(t, m.renderMessages(), "جارٍ تحميل الرسائل")
	})

	t.Run("Conversation with model label", func(t *testing.T) {
		used := "gentle-ai"
		m.snap = session.Snapshot{
			ActiveChatID: "c1",
			ActiveMessages: []model.Message{
				{Role: model.RoleUser, Content: "سؤال"},
				{Role: model.RoleAssistant, Content: "جواب", ModelUsed: &used},
			},
		}
		out := m.renderMessages()
		assert.Contains(t, out, "سؤال")
		assert.Contains(t, out, "جواب")
		assert.Contains(t, out, "gentle-ai")
	})
}

func TestRenderStatus(t *testing.T) {
	m := testModel(t)

	t.Run("Error wins over everything", func(t *testing.T) {
		m.snap = session.Snapshot{LastError: "فشل في إرسال الرسالة", Pending: true}
		assert.Contains(t, m.renderStatus(), "فشل في إرسال الرسالة")
	})

	t.Run("Pending shows the busy indicator", func(t *testing.T) {
		m.snap = session.Snapshot{Pending: true}
		assert.Contains(t, m.renderStatus(), "جارٍ المعالجة")
	})

	t.Run("Idle shows the key help", func(t *testing.T) {
		m.snap = session.Snapshot{}
		assert.Contains(t, m.renderStatus(), "ctrl+n")
	})
}

func TestSidebarMarksActiveAndSelected(t *testing.T) {
	m := testModel(t)
	m.snap = session.Snapshot{
		Chats: []model.Chat{
			{ID: "c1", Title: "الأولى", MessageCount: 2},
			{ID: "c2", Title: "الثانية", MessageCount: 0},
		},
		ActiveChatID: "c2",
	}
	m.selected = 1

	out := m.renderSidebar()
	assert.Contains(t, out, "الأولى (2)")
	assert.Contains(t, out, "> * الثانية (0)")
}

func TestQuitKey(t *testing.T) {
	m := testModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
