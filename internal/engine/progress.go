package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/Aramushaa/LingoDojo/pkg/models"
)

// ProgressSource answers aggregate review-state questions
type ProgressSource interface {
	StatusCounts(ctx context.Context, userID int64) (*models.StatusCounts, error)
}

// Progress builds the stats overview: review-state counts, due backlog,
// practice streak and per-pack introduction progress.
func (e *Engine) Progress(ctx context.Context, userID int64, source ProgressSource) (*Reply, error) {
	counts, err := source.StatusCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	due, err := e.reviews.DueCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := e.stats.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	packs, err := e.content.PackProgress(ctx, userID)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("📊 *Your progress*\n\n")
	fmt.Fprintf(&b, "🆕 New: %d   📖 Learning: %d   🌳 Mature: %d\n", counts.New, counts.Learning, counts.Mature)
	fmt.Fprintf(&b, "⏰ Due today: %d\n", due)
	if stats.Streak > 0 {
		fmt.Fprintf(&b, "🔥 Streak: %d day(s)\n", stats.Streak)
	}
	total := stats.CorrectTotal + stats.WrongTotal
	if total > 0 {
		fmt.Fprintf(&b, "🎯 Accuracy: %d/%d\n", stats.CorrectTotal, total)
	}
	if len(packs) > 0 {
		b.WriteString("\n*Packs*\n")
		for _, p := range packs {
			fmt.Fprintf(&b, "· %s — %d/%d introduced\n", p.Title, p.Introduced, p.Total)
		}
	}
	return &Reply{Text: b.String()}, nil
}

// ReplayScenario forgets a completion so the matcher can offer the
// scenario again
func (e *Engine) ReplayScenario(ctx context.Context, userID int64, scenarioID string) (*Reply, error) {
	s := e.catalog.Find(scenarioID)
	if s == nil {
		return textReply("I don't know that scenario."), nil
	}
	if err := e.stats.ClearScenarioCompletion(ctx, userID, scenarioID); err != nil {
		return nil, err
	}
	return textReply("🔄 *%s* is back in rotation — it can come up as a mission again.", s.Title), nil
}
