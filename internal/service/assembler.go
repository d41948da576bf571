// Package service 提供业务逻辑层的实现
package service

import (
	"encoding/base64"
	"fmt"

	"chatbot-sehat-server/internal/session"
)

// MaxAttachmentSize 附件大小上限（20MB）
const MaxAttachmentSize = 20 << 20

// allowedMimeTypes 允许上传的媒体类型
// 与页面上的上传控件保持一致
var allowedMimeTypes = map[string]bool{
	"image/png":       true,
	"image/jpeg":      true,
	"application/pdf": true,
	"video/mp4":       true,
	"audio/mpeg":      true,
	"audio/mp3":       true,
}

// AttachmentError 附件不可用
// 附件失败只降级附件本身，用户的文本继续走正常流程
type AttachmentError struct {
	Reason string
}

func (e *AttachmentError) Error() string {
	return "attachment rejected: " + e.Reason
}

// ValidateAttachment 校验上传附件的类型和大小
// 参数:
//   - mimeType: 声明的媒体类型
//   - size: 文件字节数
//
// 返回:
//   - error: 不通过时为 *AttachmentError
func ValidateAttachment(mimeType string, size int64) error {
	if !allowedMimeTypes[mimeType] {
		return &AttachmentError{Reason: fmt.Sprintf("unsupported media type %q", mimeType)}
	}
	if size > MaxAttachmentSize {
		return &AttachmentError{Reason: fmt.Sprintf("file exceeds %d bytes", int64(MaxAttachmentSize))}
	}
	if size == 0 {
		return &AttachmentError{Reason: "file is empty"}
	}
	return nil
}

// BuildParts 把用户文本和可选附件组装成模型消息片段
// 文本片段永远在最前；附件以 base64 内联媒体片段追加在后
// 参数:
//   - text: 用户输入的原始文本
//   - att: 暂存附件，可以为 nil
//
// 返回:
//   - []session.Part: 消息片段
//   - error: 附件不可用时为 *AttachmentError（此时调用方降级为纯文本）
func BuildParts(text string, att *session.Attachment) ([]session.Part, error) {
	parts := []session.Part{{Text: text}}
	if att == nil {
		return parts, nil
	}

	if len(att.Data) == 0 {
		return parts, &AttachmentError{Reason: "file could not be read"}
	}
	if !allowedMimeTypes[att.MimeType] {
		return parts, &AttachmentError{Reason: fmt.Sprintf("unsupported media type %q", att.MimeType)}
	}

	parts = append(parts, session.Part{
		InlineData: &session.InlineData{
			Data:     base64.StdEncoding.EncodeToString(att.Data),
			MimeType: att.MimeType,
		},
	})
	return parts, nil
}

// DisplayContent 生成展示用文本
// 用户原文在前，带附件时追加文件标注后缀
// 该字符串只用于渲染和持久化，永远不会发给模型
func DisplayContent(text string, att *session.Attachment) string {
	if att == nil {
		return text
	}
	return fmt.Sprintf("%s\n\n[Attached file: %s (%s)]", text, att.Name, att.MimeType)
}
