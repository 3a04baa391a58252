package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnmate_backend/internal/model"
	"learnmate_backend/internal/util"
)

func newChatFixture(tutor TutorClient) (*ChatService, *memUserStore, *memChatStore) {
	messages := newMemChatStore()
	users := newMemUserStore(nil)
	return NewChatService(messages, users, tutor), users, messages
}

func TestChatSend(t *testing.T) {
	ctx := context.Background()

	t.Run("empty content", func(t *testing.T) {
		svc, users, _ := newChatFixture(nil)
		user := &model.User{Name: "demo"}
		require.NoError(t, users.Create(user))

		_, err := svc.Send(ctx, user.ID, "   ")
		assert.ErrorIs(t, err, util.ErrInvalidInput)
	})

	t.Run("unknown user", func(t *testing.T) {
		svc, _, _ := newChatFixture(nil)
		_, err := svc.Send(ctx, 404, "你好")
		assert.ErrorIs(t, err, util.ErrUserNotFound)
	})

	t.Run("nil tutor uses fallback reply", func(t *testing.T) {
		svc, users, messages := newChatFixture(nil)
		user := &model.User{Name: "demo"}
		require.NoError(t, users.Create(user))

		exchange, err := svc.Send(ctx, user.ID, "什么是导数？")
		require.NoError(t, err)

		assert.Equal(t, model.ChatRoleUser, exchange.UserMessage.Role)
		assert.Equal(t, "什么是导数？", exchange.UserMessage.Content)
		assert.Equal(t, model.ChatRoleAssistant, exchange.AssistantMessage.Role)
		assert.Equal(t, chatFallbackReply, exchange.AssistantMessage.Content)

		saved, err := messages.FindByUserID(user.ID)
		require.NoError(t, err)
		require.Len(t, saved, 2, "用户消息和回复都要落库")
	})

	t.Run("tutor error falls back without surfacing", func(t *testing.T) {
		svc, users, _ := newChatFixture(&fakeTutor{}) // chatFn 为空即总是失败
		user := &model.User{Name: "demo"}
		require.NoError(t, users.Create(user))

		exchange, err := svc.Send(ctx, user.ID, "你好")
		require.NoError(t, err)
		assert.Equal(t, chatFallbackReply, exchange.AssistantMessage.Content)
	})

	t.Run("history window excludes current prompt", func(t *testing.T) {
		var gotHistory []AIChatMessage
		var gotPrompt string
		tutor := &fakeTutor{
			chatFn: func(ctx context.Context, history []AIChatMessage, prompt string) (string, error) {
				gotHistory = history
				gotPrompt = prompt
				return "回复", nil
			},
		}
		svc, users, messages := newChatFixture(tutor)
		user := &model.User{Name: "demo"}
		require.NoError(t, users.Create(user))

		for i := 0; i < 12; i++ {
			require.NoError(t, messages.Create(&model.ChatMessage{
				UserID:  user.ID,
				Role:    model.ChatRoleUser,
				Content: fmt.Sprintf("历史消息-%d", i),
			}))
		}

		exchange, err := svc.Send(ctx, user.ID, "当前问题")
		require.NoError(t, err)

		assert.Equal(t, "当前问题", gotPrompt)
		require.Len(t, gotHistory, chatHistoryWindow)
		for _, m := range gotHistory {
			assert.NotEqual(t, "当前问题", m.Content, "当前问题不应重复出现在历史里")
		}
		// 窗口取的是最近的10条
		assert.Equal(t, "历史消息-2", gotHistory[0].Content)
		assert.Equal(t, "历史消息-11", gotHistory[len(gotHistory)-1].Content)
		assert.Equal(t, "回复", exchange.AssistantMessage.Content)
	})
}

func TestChatHistory(t *testing.T) {
	svc, users, messages := newChatFixture(nil)
	user := &model.User{Name: "demo"}
	require.NoError(t, users.Create(user))

	require.NoError(t, messages.Create(&model.ChatMessage{UserID: user.ID, Role: model.ChatRoleUser, Content: "第一条"}))
	require.NoError(t, messages.Create(&model.ChatMessage{UserID: user.ID, Role: model.ChatRoleAssistant, Content: "第二条"}))
	require.NoError(t, messages.Create(&model.ChatMessage{UserID: 99, Role: model.ChatRoleUser, Content: "别人的"}))

	history, err := svc.History(user.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "第一条", history[0].Content)
	assert.Equal(t, "第二条", history[1].Content)
}
