package core

import (
	"context"
	"errors"
)

// ChatService is what transports talk to.
type ChatService interface {
	Handle(ctx context.Context, userID int64, req ChatRequest) (ChatResponse, error)
	Search(ctx context.Context, userID int64, docType DocumentType, query, timezone string) (ChatResponse, error)
}

// UserMessage is the reply shown to an end user when a request failed.
// Internal details stay in the logs.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrExtractionIncomplete):
		return "일정 정보가 부족해요. 일정 이름과 시작 시간을 함께 알려주세요."
	case errors.Is(err, ErrRetrievalUnavailable), errors.Is(err, ErrDirectoryUnavailable):
		return "지금은 검색을 할 수 없어요. 잠시 후 다시 시도해주세요."
	case errors.Is(err, ErrGenerationFailure):
		return "답변을 만드는 중 문제가 생겼어요. 잠시 후 다시 시도해주세요."
	case errors.Is(err, ErrNotFound):
		return "사용자 정보를 찾을 수 없어요."
	default:
		return "요청을 처리하지 못했어요."
	}
}
