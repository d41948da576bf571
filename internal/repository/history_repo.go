// Package repository 提供数据访问层的实现
package repository

import (
	"context"

	"gorm.io/gorm"

	"chatbot-sehat-server/internal/model"
)

// HistoryRepository 聊天历史数据访问层
// 只暴露追加和按时间序读取两种操作，chat_history 表是只追加的
type HistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository 创建 HistoryRepository 实例
func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append 追加一条回合记录
// 参数:
//   - ctx: 上下文
//   - turn: 回合对象，ID 和 Timestamp 会被自动填充
//
// 返回:
//   - error: 数据库错误
func (r *HistoryRepository) Append(ctx context.Context, turn *model.ChatTurn) error {
	return r.db.WithContext(ctx).Create(turn).Error
}

// ListByUser 读取某个 (user_id, app_id) 的全部回合
// 按写入时间正序排列（最早的在前），主键作为同一时刻的次序
// 参数:
//   - ctx: 上下文
//   - userID: 匿名用户标识
//   - appID: 应用标签
//
// 返回:
//   - []model.ChatTurn: 回合列表
//   - error: 数据库错误
func (r *HistoryRepository) ListByUser(ctx context.Context, userID, appID string) ([]model.ChatTurn, error) {
	var turns []model.ChatTurn
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND app_id = ?", userID, appID).
		Order("timestamp ASC, id ASC").
		Find(&turns).Error
	return turns, err
}

// CountByUser 统计某个 (user_id, app_id) 的回合数量
// 参数:
//   - ctx: 上下文
//   - userID: 匿名用户标识
//   - appID: 应用标签
//
// 返回:
//   - int64: 回合数量
//   - error: 数据库错误
func (r *HistoryRepository) CountByUser(ctx context.Context, userID, appID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.ChatTurn{}).
		Where("user_id = ? AND app_id = ?", userID, appID).
		Count(&count).Error
	return count, err
}
