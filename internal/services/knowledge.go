package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/letter5700/backend/internal/platform/gemini"
	"github.com/letter5700/backend/internal/platform/logger"
	"github.com/letter5700/backend/internal/platform/qdrant"
)

// knowledgeSnippets is the hand-authored counseling knowledge the letters
// draw on. Seeded once per process start; re-seeding adds new points with
// fresh ids rather than deduplicating by content.
var knowledgeSnippets = []string{
	"불안은 미래를 통제하려는 마음에서 자라난다. 통제할 수 없는 것을 구분하는 연습이 불안을 줄이는 첫걸음이다.",
	"감정은 파도와 같아서 억누를수록 더 크게 돌아온다. 감정을 있는 그대로 이름 붙여 바라보는 것만으로도 강도가 줄어든다.",
	"슬픔은 잃어버린 것의 소중함을 증명하는 감정이다. 슬픔을 서둘러 지우려 하기보다 충분히 머무르게 두는 것이 회복의 과정이다.",
	"분노의 밑바닥에는 대개 상처받은 기대가 있다. 무엇을 기대했는지 들여다보면 분노는 대화의 재료가 된다.",
	"자기비난은 성장이 아니라 소진을 부른다. 잘못을 복기하되, 같은 상황의 친구에게 건넬 말로 자신에게 말해보라.",
	"우울할 때는 큰 결심보다 아주 작은 행동이 힘이 된다. 이불을 개는 일, 창문을 여는 일이 하루의 방향을 바꾼다.",
	"피로는 게으름의 증거가 아니라 몸이 보내는 정직한 신호다. 쉼은 보상이 아니라 유지에 필요한 조건이다.",
	"후회는 과거의 나에게 지금의 기준을 들이대는 일이다. 그때의 나는 그때의 최선을 살았다는 사실을 인정하는 데서 화해가 시작된다.",
	"기쁨은 나눌 때 선명해진다. 좋은 일을 기록하고 말로 꺼내는 습관이 긍정 정서를 오래 붙잡아 둔다.",
	"타인의 평가는 그 사람의 사정과 기분을 통과한 의견일 뿐이다. 모든 평가를 사실로 받아들일 의무는 없다.",
}

// KnowledgeSeeder loads the snippet list into the vector store at startup.
type KnowledgeSeeder struct {
	log      *logger.Logger
	embedder gemini.Client
	store    qdrant.Store
	snippets []string
}

func NewKnowledgeSeeder(baseLog *logger.Logger, embedder gemini.Client, store qdrant.Store) *KnowledgeSeeder {
	return &KnowledgeSeeder{
		log:      baseLog.With("service", "KnowledgeSeeder"),
		embedder: embedder,
		store:    store,
		snippets: knowledgeSnippets,
	}
}

// Seed embeds and upserts every snippet. A failing snippet is logged and
// skipped so one bad item cannot abort the rest. Returns the number of
// points written.
func (ks *KnowledgeSeeder) Seed(ctx context.Context) int {
	seeded := 0
	for i, snippet := range ks.snippets {
		vector, err := ks.embedder.Embed(ctx, snippet)
		if err != nil {
			ks.log.Warn("Skipping knowledge snippet; embedding failed", "index", i, "error", err)
			continue
		}

		id := uuid.New()
		payload := map[string]any{"content": snippet}
		if err := ks.store.Upsert(ctx, id, vector, payload); err != nil {
			ks.log.Warn("Skipping knowledge snippet; upsert failed", "index", i, "error", err)
			continue
		}
		seeded++
	}
	ks.log.Info("Knowledge base seeded", "seeded", seeded, "total", len(ks.snippets))
	return seeded
}
