package service

import (
	"context"
	"errors"
	"strings"

	"chatbot-sehat-server/internal/model"
	"chatbot-sehat-server/internal/session"
)

// 对话服务相关错误
var (
	ErrEmptyMessage = errors.New("message content is empty")
)

// ModelClient 模型客户端接口
// 生产环境是 GeminiService，测试中用桩替换
type ModelClient interface {
	Invoke(ctx context.Context, history []session.Message) (string, error)
}

// SendResult 一个回合的结果
type SendResult struct {
	// Messages 回合结束后的完整展示记录
	Messages []session.Turn `json:"messages"`
	// Reply 模型的回复文本，调用失败时为空
	Reply string `json:"reply,omitempty"`
	// AttachmentWarning 附件降级为纯文本时的提示，正常为空
	AttachmentWarning string `json:"attachment_warning,omitempty"`
}

// ChatService 对话控制器
// 每个回合严格串行地执行：组装 -> 调用模型 -> 持久化 -> 返回渲染数据
type ChatService struct {
	history *HistoryService
	model   ModelClient
}

// NewChatService 创建 ChatService 实例
func NewChatService(history *HistoryService, model ModelClient) *ChatService {
	return &ChatService{
		history: history,
		model:   model,
	}
}

// Transcript 返回会话的展示记录
// 第一次调用时先从数据库回放历史（之后回放是空操作）
func (s *ChatService) Transcript(ctx context.Context, sess *session.Session) []session.Turn {
	sess.Lock()
	defer sess.Unlock()

	s.history.Load(ctx, sess)
	return sess.Conversation()
}

// SendMessage 执行一个完整的对话回合
// 流程（回合期间持有会话锁，同一会话不会有重叠的回合）:
//  1. 回放历史（只会生效一次）
//  2. 组装展示文本和多模态片段；附件不可用时降级为纯文本
//  3. 用户回合写入内存并持久化（持久化失败不阻塞）
//  4. 携带系统指令和完整模型历史调用模型
//  5. 成功: 回复写入内存并持久化，清除暂存附件
//     失败: 错误标记的条目只进展示记录（不进模型历史），清除暂存附件，不重试
//
// 返回:
//   - *SendResult: 回合结果（失败分支也包含已更新的展示记录）
//   - error: 文本为空时为 ErrEmptyMessage；模型失败时为 *ModelInvocationError
func (s *ChatService) SendMessage(ctx context.Context, sess *session.Session, text string) (*SendResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	sess.Lock()
	defer sess.Unlock()

	s.history.Load(ctx, sess)

	result := &SendResult{}

	// 组装。附件失败时 parts 退回纯文本，标注也不追加，
	// 用户的文本部分不丢失
	att := sess.StagedAttachment()
	parts, attErr := BuildParts(text, att)
	if attErr != nil {
		att = nil
		result.AttachmentWarning = attErr.Error()
	}
	display := DisplayContent(text, att)

	// 用户回合：展示记录和模型历史各追加一条
	// 模型历史保留多模态片段，展示记录只存标注后的文本
	sess.AppendTurn(model.RoleUser, display)
	sess.AppendMessage(model.RoleUser, parts)
	s.history.Append(ctx, sess.UserID, model.RoleUser, display)

	// 调用模型，阻塞到返回
	reply, err := s.model.Invoke(ctx, sess.ModelHistory())
	if err != nil {
		// 失败的交换不回灌给模型：错误条目只进展示记录
		sess.AppendTurn(model.RoleAssistant, "Error: "+err.Error())
		sess.ClearAttachment()
		result.Messages = sess.Conversation()
		return result, err
	}

	sess.AppendTurn(model.RoleAssistant, reply)
	sess.AppendMessage(model.RoleAssistant, []session.Part{{Text: reply}})
	s.history.Append(ctx, sess.UserID, model.RoleAssistant, reply)
	sess.ClearAttachment()

	result.Reply = reply
	result.Messages = sess.Conversation()
	return result, nil
}

// Clear 清空会话的内存状态
// 只是界面层面的重置：展示记录、模型历史和暂存附件清空，
// 数据库中已持久化的行不受影响（不存在删除路径）
func (s *ChatService) Clear(sess *session.Session) {
	sess.Lock()
	defer sess.Unlock()
	sess.Reset()
}

// StageAttachment 校验并暂存一个附件，替换之前暂存的
// 返回:
//   - error: 校验不通过时为 *AttachmentError
func (s *ChatService) StageAttachment(sess *session.Session, att *session.Attachment) error {
	if err := ValidateAttachment(att.MimeType, int64(len(att.Data))); err != nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()
	sess.StageAttachment(att)
	return nil
}

// DropAttachment 丢弃暂存的附件
func (s *ChatService) DropAttachment(sess *session.Session) {
	sess.Lock()
	defer sess.Unlock()
	sess.ClearAttachment()
}
