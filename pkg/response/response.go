// Package response 提供统一的 HTTP 响应格式
// 所有 API 都使用相同的响应结构，便于前端处理
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
// code: 业务状态码（0 表示成功）
// message: 提示信息
// data: 响应数据
type Response struct {
	Code    int         `json:"code"`           // 业务状态码
	Message string      `json:"message"`        // 提示信息
	Data    interface{} `json:"data,omitempty"` // 响应数据，可选
}

// 业务状态码定义
const (
	CodeSuccess           = 0    // 成功
	CodeBadRequest        = 1000 // 请求参数错误
	CodeUnauthorized      = 1001 // 未授权
	CodeNotFound          = 1003 // 资源不存在
	CodeInternalError     = 1004 // 服务器内部错误
	CodeAttachmentInvalid = 1201 // 附件不可用（类型不支持或过大）
	CodeModelError        = 1301 // 模型调用失败
	CodeRateLimited       = 1401 // 发送过于频繁
)

// Success 返回成功响应
// 参数:
//   - c: Gin 上下文
//   - data: 响应数据，可以是任意类型
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Fail 返回失败响应（通用）
// 参数:
//   - c: Gin 上下文
//   - httpCode: HTTP 状态码
//   - message: 错误信息
func Fail(c *gin.Context, httpCode int, message string) {
	c.JSON(httpCode, Response{
		Code:    httpCode,
		Message: message,
	})
}

// BadRequest 返回 400 错误（请求参数错误）
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    CodeBadRequest,
		Message: message,
	})
}

// Unauthorized 返回 401 错误（未授权）
func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Response{
		Code:    CodeUnauthorized,
		Message: message,
	})
}

// NotFound 返回 404 错误（资源不存在）
func NotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, Response{
		Code:    CodeNotFound,
		Message: message,
	})
}

// InternalError 返回 500 错误（服务器内部错误）
func InternalError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, Response{
		Code:    CodeInternalError,
		Message: message,
	})
}

// AttachmentInvalid 返回附件不可用错误
// 附件失败只影响附件本身，文本流程继续
func AttachmentInvalid(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:    CodeAttachmentInvalid,
		Message: message,
	})
}

// ModelError 返回模型调用失败响应
// 模型侧的错误信息原样转给用户
// 参数:
//   - c: Gin 上下文
//   - message: 供应商返回的错误信息
//   - data: 附带数据（通常是已追加错误条目的对话记录）
func ModelError(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusBadGateway, Response{
		Code:    CodeModelError,
		Message: message,
		Data:    data,
	})
}

// RateLimited 返回 429 发送过于频繁
func RateLimited(c *gin.Context, message string) {
	c.JSON(http.StatusTooManyRequests, Response{
		Code:    CodeRateLimited,
		Message: message,
	})
}

// NoContent 返回 204 无内容响应（用于清除操作）
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
