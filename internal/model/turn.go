// Package model 定义了与数据库表对应的数据结构
package model

import (
	"time"
)

// AppID 应用标签
// 每条历史记录都带上该常量，和其他部署在同一张表中的数据隔离
const AppID = "chatbot_sehat"

// 角色常量
const (
	RoleUser      = "user"      // 用户消息
	RoleAssistant = "assistant" // AI 助手响应
)

// ChatTurn 聊天回合模型
// 对应数据库表 chat_history
// 表是只追加的：没有任何更新或删除路径
type ChatTurn struct {
	// ID 自增主键
	ID int64 `gorm:"primaryKey" json:"-"`

	// UserID 匿名用户标识，形如 anon-1234
	// 不保证全局唯一，只用于按会话回放历史
	UserID string `gorm:"column:user_id;size:64;index:idx_user_app;not null" json:"-"`

	// AppID 应用标签，固定为 chatbot_sehat
	AppID string `gorm:"column:app_id;size:64;index:idx_user_app;not null" json:"-"`

	// Role 消息角色
	// user: 用户发送的消息
	// assistant: AI 助手的响应（含错误标记的回合）
	Role string `gorm:"size:20;not null" json:"role"`

	// Content 消息内容
	// 用户回合存储展示文本（可能带附件标注），不存储附件字节
	Content string `gorm:"type:text;not null" json:"content"`

	// Timestamp 服务端写入时间，仅用于 ORDER BY
	Timestamp time.Time `gorm:"column:timestamp;autoCreateTime;index" json:"-"`
}

// TableName 指定表名
func (ChatTurn) TableName() string {
	return "chat_history"
}
