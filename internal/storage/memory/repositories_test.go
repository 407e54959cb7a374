package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/visitmakkah/visitmakkah/internal/store"
)

func TestTopicLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewRepositories()
	t0 := time.Unix(1000, 0).UTC()

	_, err := repo.CreateTopic(ctx, store.Topic{ID: "a", VisitorID: "v1", Title: "Ihram", CreatedAt: t0, UpdatedAt: t0})
	require.NoError(t, err)
	_, err = repo.CreateTopic(ctx, store.Topic{ID: "b", VisitorID: "v1", Title: "Zamzam", CreatedAt: t0, UpdatedAt: t0.Add(time.Minute)})
	require.NoError(t, err)
	_, err = repo.CreateTopic(ctx, store.Topic{ID: "c", VisitorID: "v2", Title: "Other", CreatedAt: t0, UpdatedAt: t0})
	require.NoError(t, err)

	topics, err := repo.ListTopics(ctx, "v1", 10)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	require.Equal(t, "b", topics[0].ID)

	_, err = repo.AppendMessage(ctx, store.Message{
		ID: "m1", TopicID: "a", Role: store.RoleUser, Content: "hello", CreatedAt: t0.Add(time.Hour),
	})
	require.NoError(t, err)

	topics, err = repo.ListTopics(ctx, "v1", 1)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	require.Equal(t, "a", topics[0].ID, "appending a message bumps updated_at")

	_, err = repo.GetTopic(ctx, "v2", "a")
	require.ErrorIs(t, err, store.ErrNotFound)

	renamed, err := repo.RenameTopic(ctx, "v1", "a", "Ihram rules", t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, "Ihram rules", renamed.Title)

	require.ErrorIs(t, repo.DeleteTopic(ctx, "v2", "a"), store.ErrNotFound)
	require.NoError(t, repo.DeleteTopic(ctx, "v1", "a"))
	msgs, err := repo.ListMessages(ctx, "a", 0)
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestAppendMessageRejectsInvalidAndUnknownTopic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewRepositories()

	_, err := repo.AppendMessage(ctx, store.Message{TopicID: "x", Role: store.RoleUser, Content: " "})
	require.ErrorIs(t, err, store.ErrInvalid)

	_, err = repo.AppendMessage(ctx, store.Message{TopicID: "x", Role: store.RoleUser, Content: "hi"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestListMessagesKeepsNewestWithinLimit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewRepositories()
	_, err := repo.CreateTopic(ctx, store.Topic{ID: "t", VisitorID: "v"})
	require.NoError(t, err)
	for i, content := range []string{"one", "two", "three"} {
		_, err := repo.AppendMessage(ctx, store.Message{
			ID: content, TopicID: "t", Role: store.RoleUser, Content: content,
			CreatedAt: time.Unix(int64(i), 0),
		})
		require.NoError(t, err)
	}

	msgs, err := repo.ListMessages(ctx, "t", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "two", msgs[0].Content)
	require.Equal(t, "three", msgs[1].Content)
}

func TestSaveWidgetUpsertsByKindAndKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewRepositories()
	created := time.Unix(10, 0).UTC()

	first, err := repo.SaveWidget(ctx, store.Widget{
		ID: "w1", VisitorID: "v", Kind: "prayer_times", Key: "makkah", Position: 2, CreatedAt: created,
	})
	require.NoError(t, err)

	second, err := repo.SaveWidget(ctx, store.Widget{
		ID: "w2", VisitorID: "v", Kind: "prayer_times", Key: "makkah", Position: 0,
		Config: map[string]any{"method": "umm_al_qura"}, CreatedAt: created.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, created, second.CreatedAt)

	_, err = repo.SaveWidget(ctx, store.Widget{ID: "w3", VisitorID: "v", Kind: "weather", Key: "madinah", Position: 1})
	require.NoError(t, err)

	widgets, err := repo.ListWidgets(ctx, "v")
	require.NoError(t, err)
	require.Len(t, widgets, 2)
	require.Equal(t, "w1", widgets[0].ID)
	require.Equal(t, "umm_al_qura", widgets[0].Config["method"])

	require.ErrorIs(t, repo.DeleteWidget(ctx, "other", "w1"), store.ErrNotFound)
	require.NoError(t, repo.DeleteWidget(ctx, "v", "w1"))
}

func TestTouchVisitor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewRepositories()
	t0 := time.Unix(100, 0).UTC()

	v, err := repo.TouchVisitor(ctx, store.Visitor{ID: "v", LastSeen: t0, LastPath: "/", Country: "PK"})
	require.NoError(t, err)
	require.Equal(t, int64(1), v.VisitCount)
	require.Equal(t, t0, v.FirstSeen)

	v, err = repo.TouchVisitor(ctx, store.Visitor{ID: "v", LastSeen: t0.Add(time.Hour), LastPath: "/blog"})
	require.NoError(t, err)
	require.Equal(t, int64(2), v.VisitCount)
	require.Equal(t, t0, v.FirstSeen)
	require.Equal(t, "/blog", v.LastPath)
	require.Equal(t, "PK", v.Country)

	got, err := repo.GetVisitor(ctx, "v")
	require.NoError(t, err)
	require.Equal(t, v, got)

	_, err = repo.GetVisitor(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
}
