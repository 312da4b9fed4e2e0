package vectorize

import (
	"strings"
	"time"

	"github.com/alphamail/chatbot/internal/core"
	"github.com/alphamail/chatbot/pkg/conv"
)

// maxEmailBodyRunes keeps one long thread from dominating its embedding.
const maxEmailBodyRunes = 4000

// EmailAdapter indexes mail privately for the mailbox owner. HTML-only
// bodies are flattened to text.
type EmailAdapter struct {
	Email core.Email
	Zone  *time.Location
}

func (a EmailAdapter) InZone(loc *time.Location) core.VectorizableEntity {
	a.Zone = loc
	return a
}

func (a EmailAdapter) ID() string {
	return formatID(a.Email.ID)
}

func (a EmailAdapter) DocumentType() core.DocumentType {
	return core.DocumentTypeEmail
}

func (a EmailAdapter) VectorText() string {
	var l labeledLines
	l.add("제목", a.Email.Subject)
	l.add("보낸 사람", a.Email.Sender)
	l.add("받는 사람", strings.Join(a.Email.Recipients, ", "))
	l.add("수신일", formatTime(a.Email.ReceivedAt, a.Zone))
	l.add("본문", a.body())
	return l.String()
}

func (a EmailAdapter) body() string {
	body := strings.TrimSpace(a.Email.BodyText)
	if body == "" && a.Email.BodyHTML != "" {
		text, err := conv.HTMLToText(a.Email.BodyHTML)
		if err == nil {
			body = text
		}
	}
	body = strings.Join(strings.Fields(body), " ")
	if r := []rune(body); len(r) > maxEmailBodyRunes {
		body = string(r[:maxEmailBodyRunes])
	}
	return body
}

func (a EmailAdapter) Metadata() core.DocumentMetadata {
	return core.DocumentMetadata{
		OwnerID:      a.Email.UserID,
		OwnerType:    core.OwnerTypeUser,
		UserID:       a.Email.UserID,
		DocumentType: core.DocumentTypeEmail,
		DomainID:     a.Email.ID,
	}
}
