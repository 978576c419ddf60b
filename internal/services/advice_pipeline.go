package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/letter5700/backend/internal/jobs"
	"github.com/letter5700/backend/internal/platform/fcm"
	"github.com/letter5700/backend/internal/platform/gemini"
	"github.com/letter5700/backend/internal/platform/logger"
	"github.com/letter5700/backend/internal/platform/qdrant"
	"github.com/letter5700/backend/internal/repos"
	"github.com/letter5700/backend/internal/types"
)

const (
	// retrievalTopK is how many knowledge snippets ground each letter.
	retrievalTopK = 3

	notificationTitle = "5700 Letter 도착"
	notificationBody  = "당신에게 필요한 말, 준비됐어요."

	shortCallTimeout = 30 * time.Second
	generateTimeout  = 180 * time.Second
)

const letterPromptTemplate = `당신은 심리 상담 전문가입니다.
아래 '참고 지식'을 바탕으로, 사용자의 일기에 대해 5700자 내외의 깊이 있는 편지를 써주세요.

[참고 지식]
%s

[사용자 일기]
%s
`

// AdvicePipeline runs the asynchronous classify → embed → retrieve →
// generate → persist → notify sequence for one journal entry, detached
// from the request that created the entry.
type AdvicePipeline interface {
	// Enqueue hands one run to the worker pool and returns immediately.
	// The run's failures are contained; the caller never observes them.
	Enqueue(recordID uuid.UUID, content, fcmToken string)
}

type advicePipeline struct {
	log      *logger.Logger
	records  repos.DailyRecordRepo
	advices  repos.AdviceRepo
	advisor  *Advisor
	embedder gemini.Client
	store    qdrant.Store
	notifier fcm.Client
	pool     *jobs.Pool
}

func NewAdvicePipeline(
	baseLog *logger.Logger,
	records repos.DailyRecordRepo,
	advices repos.AdviceRepo,
	advisor *Advisor,
	embedder gemini.Client,
	store qdrant.Store,
	notifier fcm.Client,
	pool *jobs.Pool,
) AdvicePipeline {
	return &advicePipeline{
		log:      baseLog.With("service", "AdvicePipeline"),
		records:  records,
		advices:  advices,
		advisor:  advisor,
		embedder: embedder,
		store:    store,
		notifier: notifier,
		pool:     pool,
	}
}

func (p *advicePipeline) Enqueue(recordID uuid.UUID, content, fcmToken string) {
	p.pool.Submit("advice_generation", func(ctx context.Context) {
		p.run(ctx, recordID, content, fcmToken)
	})
}

func (p *advicePipeline) run(ctx context.Context, recordID uuid.UUID, content, fcmToken string) {
	log := p.log.With("record_id", recordID.String())
	log.Info("Advice generation started")

	// (1) Emotion classification. The advisor contract guarantees a label.
	classifyCtx, cancel := context.WithTimeout(ctx, shortCallTimeout)
	emotion := p.advisor.ClassifyEmotion(classifyCtx, content)
	cancel()

	// (2) Embed the entry. A failure aborts before any DB mutation.
	embedCtx, cancel := context.WithTimeout(ctx, shortCallTimeout)
	vector, err := p.embedder.Embed(embedCtx, content)
	cancel()
	if err != nil {
		log.Error("Advice generation aborted; embedding failed", "error", err)
		return
	}

	// (3) Retrieve grounding snippets.
	searchCtx, cancel := context.WithTimeout(ctx, shortCallTimeout)
	points, err := p.store.Search(searchCtx, vector, retrievalTopK)
	cancel()
	if err != nil {
		log.Error("Advice generation aborted; knowledge search failed", "error", err)
		return
	}

	// (4) Compose the grounded letter prompt.
	prompt := composeLetterPrompt(points, content)

	// (5) Generate. The advisor contract substitutes fallback copy on
	// failure, so the run always has text to persist.
	generateCtx, cancel := context.WithTimeout(ctx, generateTimeout)
	adviceText := p.advisor.GenerateAdvice(generateCtx, prompt)
	cancel()

	// (6) Persist. The entry is re-loaded because the run is detached
	// from the request that created it; it may have been deleted since.
	record, err := p.records.GetByID(ctx, nil, recordID)
	if err != nil {
		log.Error("Advice generation aborted; record reload failed", "error", err)
		return
	}
	if record == nil {
		log.Warn("Advice generation aborted; record deleted concurrently")
		return
	}

	record.Emotion = emotion
	if err := p.records.Save(ctx, nil, record); err != nil {
		log.Error("Advice generation aborted; emotion update failed", "error", err)
		return
	}
	if _, err := p.advices.Create(ctx, nil, &types.Advice{
		DailyRecordID: record.ID,
		Content:       adviceText,
	}); err != nil {
		log.Error("Advice generation aborted; advice insert failed", "error", err)
		return
	}

	// (7) Notify, best-effort. Failures never undo the persisted result.
	if strings.TrimSpace(fcmToken) != "" {
		notifyCtx, cancel := context.WithTimeout(ctx, shortCallTimeout)
		err := p.notifier.Send(notifyCtx, fcmToken, notificationTitle, notificationBody)
		cancel()
		if err != nil {
			log.Warn("Push notification failed", "error", err)
		}
	}

	log.Info("Advice generation finished", "emotion", emotion)
}

// composeLetterPrompt joins the retrieved snippets' content payloads and
// interpolates them with the entry text into the letter template.
func composeLetterPrompt(points []qdrant.ScoredPoint, content string) string {
	snippets := make([]string, 0, len(points))
	for _, point := range points {
		if text, ok := point.Payload["content"].(string); ok && text != "" {
			snippets = append(snippets, text)
		}
	}
	knowledgeContext := strings.Join(snippets, "\n- ")
	return fmt.Sprintf(letterPromptTemplate, knowledgeContext, content)
}
