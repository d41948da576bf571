package handler

import (
	"errors"
	"io"
	"log"

	"github.com/gin-gonic/gin"

	"chatbot-sehat-server/internal/middleware"
	"chatbot-sehat-server/internal/service"
	"chatbot-sehat-server/internal/session"
	"chatbot-sehat-server/pkg/response"
	"chatbot-sehat-server/pkg/util"
)

// AttachmentHandler 附件上传处理器
type AttachmentHandler struct {
	chatService *service.ChatService
}

// NewAttachmentHandler 创建 AttachmentHandler 实例
func NewAttachmentHandler(chatService *service.ChatService) *AttachmentHandler {
	return &AttachmentHandler{chatService: chatService}
}

// Upload 暂存一个附件
// 每个会话最多一个，重复上传会替换之前的；
// 附件在下一条消息中被消费，或被 Remove 显式清除
func (h *AttachmentHandler) Upload(c *gin.Context) {
	sess := middleware.GetSession(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "Missing form field 'file'")
		return
	}

	if fileHeader.Size > service.MaxAttachmentSize {
		response.AttachmentInvalid(c, "File is too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.AttachmentInvalid(c, "Failed to read file: "+err.Error())
		return
	}
	defer file.Close()

	// 附件字节一次性读完，发送时整体编码进内联媒体片段
	data, err := io.ReadAll(file)
	if err != nil {
		response.AttachmentInvalid(c, "Failed to read file: "+err.Error())
		return
	}

	att := &session.Attachment{
		Name:     fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Data:     data,
	}

	if err := h.chatService.StageAttachment(sess, att); err != nil {
		var attErr *service.AttachmentError
		if errors.As(err, &attErr) {
			response.AttachmentInvalid(c, attErr.Error())
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	// 文件名来自客户端，日志里截断，避免恶意超长名字刷屏
	log.Printf("[INFO] attachment staged for %s: %s (%s, %d bytes)",
		sess.UserID, util.TruncateString(att.Name, 64), att.MimeType, len(att.Data))

	response.Success(c, gin.H{
		"name":      att.Name,
		"mime_type": att.MimeType,
		"size":      len(att.Data),
	})
}

// Remove 丢弃暂存的附件
func (h *AttachmentHandler) Remove(c *gin.Context) {
	sess := middleware.GetSession(c)

	h.chatService.DropAttachment(sess)

	response.NoContent(c)
}
