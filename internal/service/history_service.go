package service

import (
	"context"
	"log"

	"chatbot-sehat-server/internal/model"
	"chatbot-sehat-server/internal/repository"
	"chatbot-sehat-server/internal/session"
)

// HistoryService 历史存储适配器
// 持久化失败永远不能阻塞对话流程：所有错误只记录日志
// repo 为 nil 时（未配置 MySQL 凭据）整个适配器退化为空操作
type HistoryService struct {
	repo *repository.HistoryRepository
}

// NewHistoryService 创建 HistoryService 实例
// 参数:
//   - repo: 历史数据访问层，未配置数据库时传 nil
func NewHistoryService(repo *repository.HistoryRepository) *HistoryService {
	if repo == nil {
		log.Printf("[WARN] mysql credentials missing, chat history persistence disabled")
	}
	return &HistoryService{repo: repo}
}

// Append 持久化一条回合
// 每次调用独立执行一次插入；失败只记录日志，不向调用方返回错误
// 参数:
//   - ctx: 上下文
//   - userID: 匿名用户标识
//   - role: 角色 user / assistant
//   - content: 展示文本
func (s *HistoryService) Append(ctx context.Context, userID, role, content string) {
	if s.repo == nil {
		return
	}

	turn := &model.ChatTurn{
		UserID:  userID,
		AppID:   model.AppID,
		Role:    role,
		Content: content,
	}
	if err := s.repo.Append(ctx, turn); err != nil {
		log.Printf("[ERROR] failed to save chat history for %s: %v", userID, err)
	}
}

// Load 把数据库中的历史回放到会话内存
// 有已回放标记保护：本会话内第一次调用之后都是空操作，
// 避免重复渲染时把历史重复追加
// 任何错误都只记录日志并保持会话为空，不向调用方抛出
//
// 调用方必须持有会话锁
func (s *HistoryService) Load(ctx context.Context, sess *session.Session) {
	if sess.HistoryLoaded() {
		return
	}

	if s.repo == nil {
		sess.MarkHistoryLoaded()
		return
	}

	turns, err := s.repo.ListByUser(ctx, sess.UserID, model.AppID)
	if err != nil {
		log.Printf("[ERROR] failed to load chat history for %s: %v", sess.UserID, err)
		return
	}

	for _, turn := range turns {
		sess.AppendTurn(turn.Role, turn.Content)
		// 持久化的是展示文本，回放进模型历史时只有文本片段
		sess.AppendMessage(turn.Role, []session.Part{{Text: turn.Content}})
	}

	sess.MarkHistoryLoaded()
}
