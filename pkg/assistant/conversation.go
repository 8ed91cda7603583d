package assistant

import (
	"strconv"
	"strings"
	"sync"
	"time"
)

// Role of a chat message author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const WelcomeMessage = "こんにちは！OasysPark AIコンシェルジュです。おすすめのゲーム探しや、Oasysチェーンについて知りたいことはありますか？"

// Message is one entry of the chat history.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the chat history of one window. One question can be
// pending at a time.
type Conversation struct {
	mu       sync.Mutex
	messages []Message
	waiting  bool
	seq      int
	now      func() time.Time
}

func NewConversation() *Conversation {
	c := &Conversation{now: time.Now}
	c.messages = []Message{{ID: "welcome", Role: RoleAssistant, Content: WelcomeMessage, Timestamp: c.now()}}
	return c
}

func (c *Conversation) append(role Role, content string) Message {
	c.seq++
	m := Message{ID: strconv.Itoa(c.seq), Role: role, Content: content, Timestamp: c.now()}
	c.messages = append(c.messages, m)
	return m
}

// Ask records input as a user message and marks the conversation as
// waiting. Blank input, or input while a reply is pending, is ignored.
func (c *Conversation) Ask(input string) (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if strings.TrimSpace(input) == "" || c.waiting {
		return Message{}, false
	}
	c.waiting = true
	return c.append(RoleUser, input), true
}

// Answer records the assistant reply and clears the waiting flag.
func (c *Conversation) Answer(reply string) Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waiting = false
	return c.append(RoleAssistant, reply)
}

func (c *Conversation) Waiting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiting
}

// Messages returns a copy of the history.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.messages...)
}
