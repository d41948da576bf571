// Package util 提供通用工具函数
package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateAnonID 生成匿名用户标识
// 格式: anon-<四位随机数>，范围 anon-1000 到 anon-9999
// 标识不保证全局唯一，只用于给历史记录打标签
// 返回:
//   - string: 匿名标识
func GenerateAnonID() string {
	// [0, 9000) 偏移 1000，保证恰好四位数字
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		// crypto/rand 理论上不会失败，兜底用固定值
		return "anon-1000"
	}
	return fmt.Sprintf("anon-%d", n.Int64()+1000)
}

// TruncateString 截断字符串到指定长度
// 如果字符串超过指定长度，截断并添加 "..."
// 参数:
//   - s: 原字符串
//   - maxLen: 最大长度
//
// 返回:
//   - string: 截断后的字符串
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
