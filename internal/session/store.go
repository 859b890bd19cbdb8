// Package session owns the client-side view of the conversation state: which
// chats exist, which one is active, and what messages it holds. Every
// mutating operation calls the gateway, then reconciles the local state
// against the response. The presentation layer only ever observes snapshots;
// failures land in the snapshot's LastError, never in a panic or a returned
// error the UI must handle.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	app_errors "gentle-ai/client/internal/errors"
	"gentle-ai/client/internal/model"
	"gentle-ai/client/internal/transport"
)

// User-facing failure descriptions. The gateway's own error text is preferred
// where the protocol carries one (the send call); everything else gets one of
// these.
const (
	errLoadChats    = "فشل في تحميل المحادثات"
	errLoadMessages = "فشل في تحميل الرسائل"
	errCreateChat   = "فشل في إنشاء محادثة جديدة"
	errDeleteChat   = "فشل في حذف المحادثة"
	errSendMessage  = "فشل في إرسال الرسالة"
	errProcess      = "فشل في معالجة الرسالة"
)

// Snapshot is an immutable copy of the session state, safe to read after the
// store has moved on.
type Snapshot struct {
	Chats           []model.Chat
	ActiveChatID    string // Empty when no chat is active.
	ActiveMessages  []model.Message
	Loading         bool // A message-history fetch is in flight.
	Pending         bool // A send is in flight.
	LastError       string
	AvailableModels []model.ModelInfo
}

// Listener receives a snapshot after every state change.
type Listener func(Snapshot)

// Store is the session state store. All operations are safe for concurrent
// use; gateway calls happen outside the lock so the in-flight condition
// (Loading, Pending) is observable while a call runs.
type Store struct {
	gateway      transport.Gateway
	defaultTitle string
	modelID      string

	mu        sync.Mutex
	chats     []model.Chat
	activeID  string
	messages  []model.Message
	loading   bool
	pending   bool
	lastError string
	models    []model.ModelInfo

	// selectSeq is the token of the most recent selection change. A fetch
	// started under an older token is stale and its result is discarded,
	// so a slow response can never overwrite a newer selection.
	selectSeq uint64

	listeners []Listener
}

// NewStore returns a store in the no-active-chat state. defaultTitle is the
// title sent on chat creation; modelID is the model preference attached to
// every send (empty lets the gateway route).
func NewStore(gateway transport.Gateway, defaultTitle, modelID string) *Store {
	return &Store{
		gateway:      gateway,
		defaultTitle: defaultTitle,
		modelID:      modelID,
	}
}

// Subscribe registers a listener invoked after every state change. Listeners
// are called outside the store's lock and may invoke store operations.
func (s *Store) Subscribe(fn Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{
		ActiveChatID: s.activeID,
		Loading:      s.loading,
		Pending:      s.pending,
		LastError:    s.lastError,
	}
	snap.Chats = append([]model.Chat(nil), s.chats...)
	snap.ActiveMessages = append([]model.Message(nil), s.messages...)
	snap.AvailableModels = append([]model.ModelInfo(nil), s.models...)
	return snap
}

func (s *Store) notify() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(snap)
	}
}

// LoadChats synchronizes the chat list from the gateway. It runs once at
// startup and again after every fully successful send.
func (s *Store) LoadChats(ctx context.Context) {
	chats, err := s.gateway.ListChats(ctx)

	s.mu.Lock()
	if err != nil {
		slog.Warn("chat list sync failed", "error", err)
		s.lastError = errLoadChats
	} else {
		s.chats = chats
	}
	s.mu.Unlock()
	s.notify()
}

// LoadModels fetches the gateway's model catalog. A failure is not surfaced:
// the catalog is advisory and the client works without it.
func (s *Store) LoadModels(ctx context.Context) {
	models, err := s.gateway.ListModels(ctx)
	if err != nil {
		slog.Debug("model catalog fetch failed", "error", err)
		return
	}
	s.mu.Lock()
	s.models = models
	s.mu.Unlock()
	s.notify()
}

// SelectChat makes chatID the active chat and fetches its history. The
// previous chat's messages are cleared before the fetch starts, so a slow
// response for another chat can never be shown against this one. Selecting
// the chat that is already active is a no-op and issues no fetch.
func (s *Store) SelectChat(ctx context.Context, chatID string) {
	s.mu.Lock()
	if chatID == s.activeID && !s.loading {
		s.mu.Unlock()
		return
	}
	s.selectSeq++
	token := s.selectSeq
	s.activeID = chatID
	s.messages = nil
	s.loading = true
	s.mu.Unlock()
	s.notify()

	messages, err := s.gateway.FetchChat(ctx, chatID)

	s.mu.Lock()
	if token != s.selectSeq {
		// A newer selection superseded this fetch while it was in flight.
		s.mu.Unlock()
		return
	}
	s.loading = false
	if err != nil {
		slog.Warn("message fetch failed", "chat_id", chatID, "error", err)
		s.messages = []model.Message{}
		s.lastError = errLoadMessages
	} else {
		s.messages = messages
	}
	s.mu.Unlock()
	s.notify()
}

// GoHome leaves the active chat and returns to the no-active-chat state. No
// gateway call is made.
func (s *Store) GoHome() {
	s.mu.Lock()
	s.selectSeq++
	s.activeID = ""
	s.messages = []model.Message{}
	s.loading = false
	s.mu.Unlock()
	s.notify()
}

// NewChat creates a chat on the gateway and makes it active. A freshly
// created chat has no history, so no fetch follows.
func (s *Store) NewChat(ctx context.Context) {
	chat, err := s.gateway.CreateChat(ctx, s.defaultTitle)

	s.mu.Lock()
	if err != nil {
		slog.Warn("chat creation failed", "error", err)
		s.lastError = errCreateChat
	} else {
		s.chats = append([]model.Chat{*chat}, s.chats...)
		s.selectSeq++
		s.activeID = chat.ID
		s.messages = []model.Message{}
		s.loading = false
	}
	s.mu.Unlock()
	s.notify()
}

// DeleteChat removes a chat on the gateway and from the local list. Deleting
// the active chat also performs the GoHome transition.
func (s *Store) DeleteChat(ctx context.Context, chatID string) {
	err := s.gateway.DeleteChat(ctx, chatID)

	s.mu.Lock()
	if err != nil {
		slog.Warn("chat deletion failed", "chat_id", chatID, "error", err)
		s.lastError = errDeleteChat
	} else {
		kept := make([]model.Chat, 0, len(s.chats))
		for _, c := range s.chats {
			if c.ID != chatID {
				kept = append(kept, c)
			}
		}
		s.chats = kept
		if s.activeID == chatID {
			s.selectSeq++
			s.activeID = ""
			s.messages = []model.Message{}
			s.loading = false
		}
	}
	s.mu.Unlock()
	s.notify()
}

// Send posts one user turn to the active chat and waits for the assistant's
// reply. Guards, all silent no-ops for the UI:
//
//   - empty content returns ErrEmptyMessage, nothing is sent;
//   - a send while another is in flight returns ErrBusy, nothing is sent;
//   - with no active chat the store creates a chat instead and returns
//     ErrNoActiveChat so the caller knows its message was not sent.
//
// On a full reply both turns are appended, then the chat list is re-read to
// pick up the gateway's counts and ordering. If the gateway stored the user
// turn but could not answer, only the user turn is appended and the gateway's
// explanation becomes LastError.
func (s *Store) Send(ctx context.Context, content string) error {
	if strings.TrimSpace(content) == "" {
		return app_errors.ErrEmptyMessage
	}

	s.mu.Lock()
	if s.activeID == "" {
		s.mu.Unlock()
		s.NewChat(ctx)
		return app_errors.ErrNoActiveChat
	}
	if s.pending {
		s.mu.Unlock()
		return app_errors.ErrBusy
	}
	chatID := s.activeID
	s.pending = true
	s.lastError = ""
	s.mu.Unlock()
	s.notify()

	result, err := s.gateway.SendMessage(ctx, chatID, content, s.modelID)

	s.mu.Lock()
	fullSuccess := false
	switch {
	case err != nil:
		slog.Warn("send failed", "chat_id", chatID, "error", err)
		s.lastError = errSendMessage
	case result.OK:
		fullSuccess = true
		if s.activeID == chatID {
			if result.UserMessage != nil {
				s.messages = append(s.messages, *result.UserMessage)
			}
			if result.AssistantMessage != nil {
				s.messages = append(s.messages, *result.AssistantMessage)
			}
		}
	default:
		// The gateway stored the user turn but the assistant did not
		// answer. The assistant turn is dropped, not retried.
		if s.activeID == chatID && result.UserMessage != nil {
			s.messages = append(s.messages, *result.UserMessage)
		}
		if result.Err != "" {
			s.lastError = result.Err
		} else {
			s.lastError = errProcess
		}
	}
	s.mu.Unlock()
	s.notify()

	if fullSuccess {
		// Reconcile counts and ordering before going idle.
		chats, listErr := s.gateway.ListChats(ctx)
		s.mu.Lock()
		if listErr != nil {
			slog.Warn("chat list sync after send failed", "error", listErr)
			s.lastError = errLoadChats
		} else {
			s.chats = chats
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.pending = false
	s.mu.Unlock()
	s.notify()
	return nil
}

// DismissError clears the last error without touching anything else.
func (s *Store) DismissError() {
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
	s.notify()
}
