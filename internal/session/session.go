// Package session 管理每个浏览器会话的内存状态
// 包括匿名标识、展示用对话记录、发送给模型的多模态历史和暂存的附件
package session

import (
	"sync"
	"time"
)

// Turn 展示用的对话条目
// 只包含人类可读的文本（用户回合可能带附件标注后缀）
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// InlineData 内联媒体负载
// data 为 base64 编码的附件字节，mimeType 为声明的媒体类型
type InlineData struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// Part 消息片段
// 文本片段和内联媒体片段二选一
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// Message 发送给模型的一条消息
// 用户消息可能由多个片段组成（文本 + 内联媒体），
// 与只用于渲染的 Turn 不同，这里必须保留多模态结构
type Message struct {
	Role  string `json:"role"`
	Parts []Part `json:"parts"`
}

// Attachment 暂存的上传附件
// 每个会话最多保留一个，直到被下一条消息消费或被显式清除
type Attachment struct {
	Name     string // 原始文件名
	MimeType string // 声明的媒体类型
	Data     []byte // 完整文件字节
}

// Session 一个浏览器会话的全部内存状态
// 由 Manager 创建和回收；同一会话内的操作通过 mu 严格串行
type Session struct {
	mu sync.Mutex

	// UserID 匿名标识，形如 anon-1234，会话创建时生成一次
	UserID string

	conversation  []Turn      // 展示用对话记录
	modelHistory  []Message   // 模型上下文（保留多模态片段）
	attachment    *Attachment // 暂存附件，至多一个
	historyLoaded bool        // 历史是否已从数据库回放

	// lastSeen 由独立的 seenMu 保护
	// 回合期间 mu 可能被长时间持有（等待模型响应），
	// 空闲回收和 Touch 不能在 mu 上排队
	seenMu   sync.Mutex
	lastSeen time.Time
}

// Lock 获取会话锁
// 控制器在整个回合期间持有该锁，保证同一会话的回合严格串行
func (s *Session) Lock() { s.mu.Lock() }

// Unlock 释放会话锁
func (s *Session) Unlock() { s.mu.Unlock() }

// Touch 刷新最近访问时间
func (s *Session) Touch() {
	s.seenMu.Lock()
	s.lastSeen = time.Now()
	s.seenMu.Unlock()
}

// lastSeenAt 返回最近一次访问时间
func (s *Session) lastSeenAt() time.Time {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	return s.lastSeen
}

// 以下方法都要求调用者已持有会话锁

// HistoryLoaded 返回历史是否已回放
func (s *Session) HistoryLoaded() bool { return s.historyLoaded }

// MarkHistoryLoaded 设置已回放标记
// 设置后 Load 在本会话内变成空操作，避免重复回放
func (s *Session) MarkHistoryLoaded() { s.historyLoaded = true }

// AppendTurn 追加一条展示条目
func (s *Session) AppendTurn(role, content string) {
	s.conversation = append(s.conversation, Turn{Role: role, Content: content})
}

// AppendMessage 追加一条模型消息
func (s *Session) AppendMessage(role string, parts []Part) {
	s.modelHistory = append(s.modelHistory, Message{Role: role, Parts: parts})
}

// Conversation 返回展示记录的副本
func (s *Session) Conversation() []Turn {
	out := make([]Turn, len(s.conversation))
	copy(out, s.conversation)
	return out
}

// ModelHistory 返回模型历史的副本
func (s *Session) ModelHistory() []Message {
	out := make([]Message, len(s.modelHistory))
	copy(out, s.modelHistory)
	return out
}

// StageAttachment 暂存一个附件，替换之前暂存的附件
func (s *Session) StageAttachment(att *Attachment) {
	s.attachment = att
}

// StagedAttachment 返回当前暂存的附件，没有则为 nil
func (s *Session) StagedAttachment() *Attachment {
	return s.attachment
}

// ClearAttachment 丢弃暂存的附件
func (s *Session) ClearAttachment() {
	s.attachment = nil
}

// Reset 清空对话记录、模型历史和暂存附件
// 只作用于内存状态，数据库中已持久化的行保持不变
func (s *Session) Reset() {
	s.conversation = nil
	s.modelHistory = nil
	s.attachment = nil
}
