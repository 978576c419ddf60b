package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/letter5700/backend/internal/platform/gemini"
	"github.com/letter5700/backend/internal/platform/logger"
)

// EmotionLabels is the closed vocabulary the classifier may answer with.
var EmotionLabels = []string{
	"기쁨", "슬픔", "불안", "분노", "평온", "우울", "기대", "후회", "벅참", "피로",
}

// DefaultEmotion is returned whenever classification fails upstream.
const DefaultEmotion = "평온"

const classifyPromptTemplate = `다음 일기를 읽고, 작성자의 감정을 가장 잘 나타내는 단어를 아래 목록 중에서 딱 하나만 골라 답변해줘.
설명이나 다른 말은 절대 하지 말고, 오직 단어 하나만 출력해.

[감정 목록]
%s

[일기 내용]
%s
`

// adviceFallbackTemplate is what gets persisted when generation fails; the
// pipeline treats it like any other letter.
const adviceFallbackTemplate = "아직 마음을 정리하는 중입니다. 잠시 후 다시 시도해주세요. (Error: %s)"

// Advisor owns the two prompt-level operations on top of the Gemini
// client. Both swallow upstream failures and substitute documented
// sentinel values; neither ever returns an error. The pipeline depends on
// that contract.
type Advisor struct {
	log    *logger.Logger
	client gemini.Client
}

func NewAdvisor(baseLog *logger.Logger, client gemini.Client) *Advisor {
	return &Advisor{
		log:    baseLog.With("service", "Advisor"),
		client: client,
	}
}

// ClassifyEmotion returns one label from EmotionLabels for the given text,
// or DefaultEmotion when the remote call fails.
func (a *Advisor) ClassifyEmotion(ctx context.Context, text string) string {
	prompt := fmt.Sprintf(classifyPromptTemplate, strings.Join(EmotionLabels, ", "), text)

	answer, err := a.client.GenerateText(ctx, prompt)
	if err != nil {
		a.log.Warn("Emotion classification failed; using default label",
			"default", DefaultEmotion,
			"error", err,
		)
		return DefaultEmotion
	}
	return strings.TrimSpace(answer)
}

// GenerateAdvice sends a fully assembled prompt and returns the letter
// text, or the fallback copy embedding the failure reason.
func (a *Advisor) GenerateAdvice(ctx context.Context, prompt string) string {
	text, err := a.client.GenerateText(ctx, prompt)
	if err != nil {
		a.log.Warn("Advice generation failed; substituting fallback letter", "error", err)
		return fmt.Sprintf(adviceFallbackTemplate, err.Error())
	}
	return text
}
