// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package chat answers research-assistant chat requests. A request's
// message is optionally augmented with retrieved context, combined with
// the mode's system prompt, attached files, and prior turns, and sent to
// a text-completion service. The reply is scanned for video references.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/research-assistant/internal/media"
	"github.com/pdiddy/research-assistant/internal/rag"
)

var (
	// ErrEmptyMessage is returned for a blank chat message.
	ErrEmptyMessage = errors.New("message is required")

	// ErrCompletion wraps every failure of the completion service.
	ErrCompletion = errors.New("completion failed")
)

// NoResponse is returned to the caller when the completion service
// answers without content.
const NoResponse = "No response generated."

// maxFileChars caps the content of each attached file.
const maxFileChars = 5000

// Message is one conversation turn in the completion API's format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// File is an attached document whose text was extracted by the client.
type File struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
}

// Request is an incoming chat request.
type Request struct {
	Message             string    `json:"message"`
	Mode                Mode      `json:"mode"`
	Files               []File    `json:"files"`
	ConversationHistory []Message `json:"conversationHistory"`

	// EnableRAG defaults to true when absent.
	EnableRAG *bool `json:"enableRAG"`
}

// RAGRequested reports whether the caller left augmentation enabled.
func (r Request) RAGRequested() bool {
	return r.EnableRAG == nil || *r.EnableRAG
}

// Response is the reply to a chat request.
type Response struct {
	Response     string       `json:"response"`
	RAGEnabled   bool         `json:"ragEnabled"`
	RAGSources   []string     `json:"ragSources,omitempty"`
	RAGFactCount int          `json:"ragFactCount,omitempty"`
	Media        *media.Media `json:"media,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
}

// ContextBuilder produces the augmentation block for a message.
type ContextBuilder interface {
	Build(ctx context.Context, message string) rag.Context
}

// Service answers chat requests.
type Service struct {
	Completer Completer

	// Context is optional; without it requests are never augmented.
	Context ContextBuilder

	// MinMessageLength is the augmentation threshold; zero uses the default.
	MinMessageLength int

	Logger *zap.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Respond validates req, augments it when eligible, and calls the
// completion service. A completion failure is returned wrapped in
// ErrCompletion; augmentation failures only reduce the context.
func (s *Service) Respond(ctx context.Context, req Request) (Response, error) {
	if strings.TrimSpace(req.Message) == "" {
		return Response{}, ErrEmptyMessage
	}
	log := s.logger()

	var rc rag.Context
	if s.Context != nil && rag.ShouldAugment(req.Message, req.RAGRequested(), s.MinMessageLength) {
		rc = s.Context.Build(ctx, req.Message)
	}

	messages := BuildMessages(req, rc.Text)
	reply, err := s.Completer.Complete(ctx, messages)
	if err != nil {
		log.Error("completion failed", zap.String("mode", string(req.Mode)), zap.Error(err))
		return Response{}, fmt.Errorf("%w: %w", ErrCompletion, err)
	}
	if reply == "" {
		reply = NoResponse
	}

	resp := Response{
		Response:   reply,
		RAGEnabled: req.RAGRequested() && !rc.Empty(),
		Timestamp:  s.now().UTC(),
	}
	if len(rc.Sources) > 0 {
		resp.RAGSources = rc.Sources
	}
	resp.RAGFactCount = rc.FactCount
	if m := media.Extract(reply); !m.Empty() {
		resp.Media = &m
	}

	log.Info("chat answered",
		zap.String("mode", string(req.Mode)),
		zap.Bool("rag", resp.RAGEnabled),
		zap.Int("facts", resp.RAGFactCount),
		zap.Int("history", len(req.ConversationHistory)),
		zap.Int("files", len(req.Files)))
	return resp, nil
}

// BuildMessages assembles the completion conversation: the mode's system
// prompt, the prior turns in order, and the user message followed by the
// attached files block and the retrieved context.
func BuildMessages(req Request, ragText string) []Message {
	messages := make([]Message, 0, len(req.ConversationHistory)+2)
	messages = append(messages, Message{Role: "system", Content: SystemPrompt(req.Mode)})
	for _, m := range req.ConversationHistory {
		messages = append(messages, Message{Role: m.Role, Content: m.Content})
	}

	user := req.Message + FilesContext(req.Files) + ragText
	return append(messages, Message{Role: "user", Content: user})
}

// FilesContext renders attached files as a markdown block, or "" when
// there are none. Each file's content is capped at 5000 characters.
func FilesContext(files []File) string {
	if len(files) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n\n### Attached Files:\n")
	for i, f := range files {
		fmt.Fprintf(&sb, "\n**File %d: %s** (%s)\n", i+1, f.Name, f.Type)
		if f.Content != "" {
			fmt.Fprintf(&sb, "```\n%s\n```\n", capRunes(f.Content, maxFileChars))
		}
	}
	return sb.String()
}

func capRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func (s *Service) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

var _ ContextBuilder = (*rag.Assembler)(nil)
