package service

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/folioapp/folio/internal/model"
)

// ErrEmptyMessage is returned when the visitor sends nothing to answer.
var ErrEmptyMessage = errors.New("message required")

// IntentDefault names the reply pool used when no keyword matches.
const IntentDefault = "default"

// Intent maps keywords to a pool of canned replies.
type Intent struct {
	Name     string
	Keywords []string
	Replies  []string
}

// Chatbot answers visitor questions from canned replies. Intents are
// checked in order by substring match on the lower-cased message and the
// first match wins.
type Chatbot struct {
	intents  []Intent
	fallback []string
	now      func() time.Time
	pick     func(n int) int
}

// DefaultIntents returns the built-in intents with replies about owner.
func DefaultIntents(owner string) []Intent {
	return []Intent{
		{
			Name:     "greetings",
			Keywords: []string{"hi", "hello", "hey"},
			Replies: []string{
				fmt.Sprintf("Hello! I'm %s's assistant. How can I help you today?", owner),
				fmt.Sprintf("Hi there! I'm here to help you learn more about %s's work.", owner),
			},
		},
		{
			Name:     "about",
			Keywords: []string{"about"},
			Replies:  []string{fmt.Sprintf("%s is a full-stack developer focused on scalable apps.", owner)},
		},
		{
			Name:     "skills",
			Keywords: []string{"skill"},
			Replies:  []string{"React, Node.js, Go, PostgreSQL, Tailwind, Git and REST APIs."},
		},
		{
			Name:     "projects",
			Keywords: []string{"project"},
			Replies:  []string{fmt.Sprintf("%s has built e-commerce, portfolio and full-stack web applications. Have a look at the projects section.", owner)},
		},
		{
			Name:     "contact",
			Keywords: []string{"contact"},
			Replies:  []string{fmt.Sprintf("Use the contact form to reach %s.", owner)},
		},
	}
}

// DefaultFallback returns the replies used when no intent matches.
func DefaultFallback(owner string) []string {
	return []string{fmt.Sprintf("Ask me about %s's skills, projects, or contact details.", owner)}
}

// ChatbotOption customizes a Chatbot.
type ChatbotOption func(*Chatbot)

// WithChatClock replaces the time source for reply timestamps.
func WithChatClock(now func() time.Time) ChatbotOption {
	return func(c *Chatbot) { c.now = now }
}

// WithPicker replaces the random reply selector. pick must return a value
// in [0, n).
func WithPicker(pick func(n int) int) ChatbotOption {
	return func(c *Chatbot) { c.pick = pick }
}

// NewChatbot builds a chatbot. Intents without replies are skipped.
func NewChatbot(intents []Intent, fallback []string, opts ...ChatbotOption) *Chatbot {
	c := &Chatbot{
		fallback: fallback,
		now:      time.Now,
		pick:     rand.IntN,
	}
	for _, in := range intents {
		if len(in.Replies) == 0 {
			continue
		}
		kw := make([]string, 0, len(in.Keywords))
		for _, k := range in.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kw = append(kw, k)
			}
		}
		c.intents = append(c.intents, Intent{Name: in.Name, Keywords: kw, Replies: in.Replies})
	}
	if len(c.fallback) == 0 {
		c.fallback = []string{"Sorry, I don't have an answer for that yet."}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reply picks a canned answer for message.
func (c *Chatbot) Reply(message string) (*model.ChatReply, error) {
	text := strings.ToLower(strings.TrimSpace(message))
	if text == "" {
		return nil, ErrEmptyMessage
	}

	name, pool := c.match(text)
	return &model.ChatReply{
		Response:  pool[c.pick(len(pool))],
		Intent:    name,
		Timestamp: c.now().UTC().Format(time.RFC3339Nano),
	}, nil
}

func (c *Chatbot) match(text string) (string, []string) {
	for _, in := range c.intents {
		for _, k := range in.Keywords {
			if strings.Contains(text, k) {
				return in.Name, in.Replies
			}
		}
	}
	return IntentDefault, c.fallback
}
