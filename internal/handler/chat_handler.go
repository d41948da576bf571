// Package handler 提供 HTTP 请求处理器
package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"chatbot-sehat-server/internal/middleware"
	"chatbot-sehat-server/internal/service"
	"chatbot-sehat-server/pkg/response"
)

// ChatHandler 对话请求处理器
type ChatHandler struct {
	chatService   *service.ChatService
	geminiService *service.GeminiService
}

// NewChatHandler 创建 ChatHandler 实例
func NewChatHandler(chatService *service.ChatService, geminiService *service.GeminiService) *ChatHandler {
	return &ChatHandler{
		chatService:   chatService,
		geminiService: geminiService,
	}
}

// SendMessageRequest 发送消息请求
type SendMessageRequest struct {
	Content string `json:"content"`
}

// GetMessages 获取当前会话的展示记录
// 第一次调用会先从数据库回放历史
func (h *ChatHandler) GetMessages(c *gin.Context) {
	sess := middleware.GetSession(c)

	messages := h.chatService.Transcript(c.Request.Context(), sess)

	response.Success(c, gin.H{
		"user_id":  sess.UserID,
		"messages": messages,
	})
}

// SendMessage 执行一个对话回合
// 模型调用失败时，错误信息原样转给用户，
// 响应里同时带上已追加错误条目的展示记录
func (h *ChatHandler) SendMessage(c *gin.Context) {
	sess := middleware.GetSession(c)

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.chatService.SendMessage(c.Request.Context(), sess, req.Content)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			response.BadRequest(c, "Message content cannot be empty")
			return
		}

		var modelErr *service.ModelInvocationError
		if errors.As(err, &modelErr) {
			response.ModelError(c, modelErr.Message, gin.H{
				"messages": result.Messages,
			})
			return
		}

		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, result)
}

// ClearMessages 清空当前会话
// 只重置内存状态，数据库中已持久化的历史不删除
func (h *ChatHandler) ClearMessages(c *gin.Context) {
	sess := middleware.GetSession(c)

	h.chatService.Clear(sess)

	response.NoContent(c)
}

// GetConfig 返回只读的模型配置
// 解码参数是启动期常量，运行时不可调整
func (h *ChatHandler) GetConfig(c *gin.Context) {
	response.Success(c, h.geminiService.Params())
}
