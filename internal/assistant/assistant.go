package assistant

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Роль автора сообщения в чате.
type MessageType string

const (
	MessageTypeUser      MessageType = "user"
	MessageTypeAssistant MessageType = "assistant"
)

// Source — пометка, откуда взят ответ. Для заглушки всегда одна и та же.
type Source struct {
	Title string `json:"title"`
}

// Message — одно сообщение чата ассистента.
type Message struct {
	ID        uuid.UUID   `json:"id"`
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
	Sources   []Source    `json:"sources,omitempty"`
}

// Responder — заглушка симптом-ассистента: подбор статичного ответа
// по ключевым словам. Никакого вывода модели здесь нет и не будет.
type Responder struct {
	now func() time.Time
}

func NewResponder(now func() time.Time) *Responder {
	if now == nil {
		now = time.Now
	}
	return &Responder{now: now}
}

// Reply выбирает ответ по ключевым словам запроса.
// Никогда не ошибается: на незнакомый вопрос есть общий ответ.
func (r *Responder) Reply(query string) string {
	q := strings.ToLower(query)

	switch {
	case strings.Contains(q, "flu") || strings.Contains(q, "cold"):
		return "Flu symptoms can include fever, cough, body aches, and fatigue. For a common cold, runny nose and mild cough are typical. Rest, hydrate, and monitor symptoms. If you feel worse or have high fever, consult a doctor."
	case strings.Contains(q, "headache") || strings.Contains(q, "pain"):
		return "Headaches can be caused by stress, dehydration, or lack of sleep. Try water, rest, and a calm environment. If headaches are severe or persistent, seek medical advice."
	case strings.Contains(q, "doctor") || strings.Contains(q, "see"):
		return "See a doctor if symptoms are severe, do not improve, or include chest pain, breathing difficulty, or high fever. It is always safe to get professional advice."
	default:
		return "I can help with general health questions. Share symptoms or concerns, and I will provide guidance. For personal medical advice, please consult a healthcare professional."
	}
}

// Respond упаковывает ответ в сообщение чата с источником.
func (r *Responder) Respond(query string) Message {
	return Message{
		ID:        uuid.New(),
		Type:      MessageTypeAssistant,
		Content:   r.Reply(query),
		Timestamp: r.now(),
		Sources:   []Source{{Title: "General health guidance"}},
	}
}
