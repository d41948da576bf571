package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"chatbot-sehat-server/internal/middleware"
	"chatbot-sehat-server/internal/service"
	"chatbot-sehat-server/internal/session"
	"chatbot-sehat-server/pkg/jwt"
)

type stubModel struct {
	reply    string
	err      error
	lastSent []session.Message
}

func (s *stubModel) Invoke(_ context.Context, history []session.Message) (string, error) {
	s.lastSent = history
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

// newChatRouter 按 main 的路由布局搭一个测试用服务
// 持久化用空操作模式，模型用桩
func newChatRouter(t *testing.T, stub *stubModel) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService := jwt.NewJWTService("test-secret-at-least-32-characters!!", 24*time.Hour)
	manager := session.NewManager()

	historyService := service.NewHistoryService(nil)
	geminiService := service.NewGeminiService("test-key", "")
	chatService := service.NewChatService(historyService, stub)

	chatHandler := NewChatHandler(chatService, geminiService)
	attachmentHandler := NewAttachmentHandler(chatService)

	router := gin.New()
	v1 := router.Group("/api/v1")
	v1.Use(middleware.SessionMiddleware(jwtService, manager))

	chat := v1.Group("/chat")
	{
		chat.GET("/messages", chatHandler.GetMessages)
		chat.POST("/messages", chatHandler.SendMessage)
		chat.DELETE("/messages", chatHandler.ClearMessages)
		chat.POST("/attachment", attachmentHandler.Upload)
		chat.DELETE("/attachment", attachmentHandler.Remove)
		chat.GET("/config", chatHandler.GetConfig)
	}

	return router
}

func doJSON(router *gin.Engine, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSendMessageEndpoint(t *testing.T) {
	stub := &stubModel{reply: "Dehydration is a lack of fluids."}
	router := newChatRouter(t, stub)

	w := doJSON(router, http.MethodPost, "/api/v1/chat/messages", `{"content":"What is dehydration?"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Code int                `json:"code"`
		Data service.SendResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 0, resp.Code)
	require.Equal(t, stub.reply, resp.Data.Reply)
	require.Len(t, resp.Data.Messages, 2)
	require.Equal(t, "What is dehydration?", resp.Data.Messages[0].Content)
}

func TestSendMessageEndpointRejectsEmpty(t *testing.T) {
	router := newChatRouter(t, &stubModel{reply: "x"})

	w := doJSON(router, http.MethodPost, "/api/v1/chat/messages", `{"content":"  "}`, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendMessageEndpointModelFailure(t *testing.T) {
	stub := &stubModel{err: &service.ModelInvocationError{Message: "model error: quota exceeded"}}
	router := newChatRouter(t, stub)

	w := doJSON(router, http.MethodPost, "/api/v1/chat/messages", `{"content":"hi"}`, nil)
	require.Equal(t, http.StatusBadGateway, w.Code)

	var resp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			Messages []session.Turn `json:"messages"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	// 供应商错误原样透出，同时展示记录带上错误条目
	require.Contains(t, resp.Message, "quota exceeded")
	require.Len(t, resp.Data.Messages, 2)
	require.True(t, strings.HasPrefix(resp.Data.Messages[1].Content, "Error: "))
}

func TestClearMessagesEndpoint(t *testing.T) {
	stub := &stubModel{reply: "hello"}
	router := newChatRouter(t, stub)

	w := doJSON(router, http.MethodPost, "/api/v1/chat/messages", `{"content":"hi"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()

	w = doJSON(router, http.MethodDelete, "/api/v1/chat/messages", "", cookies)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodGet, "/api/v1/chat/messages", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"messages":[]`)
}

func TestAttachmentUploadAndConsume(t *testing.T) {
	stub := &stubModel{reply: "I can see the image."}
	router := newChatRouter(t, stub)

	// 组装带 Content-Type 的 multipart 文件字段
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="xray.png"`)
	header.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	part.Write([]byte{0x89, 0x50, 0x4e, 0x47})
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/attachment", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()

	// 下一条消息消费暂存的附件
	w2 := doJSON(router, http.MethodPost, "/api/v1/chat/messages", `{"content":"What does this show?"}`, cookies)
	require.Equal(t, http.StatusOK, w2.Code)
	require.Contains(t, w2.Body.String(), "[Attached file: xray.png (image/png)]")

	require.Len(t, stub.lastSent, 1)
	require.Len(t, stub.lastSent[0].Parts, 2)
	require.Equal(t, "What does this show?", stub.lastSent[0].Parts[0].Text)
	require.NotNil(t, stub.lastSent[0].Parts[1].InlineData)
}

func TestAttachmentUploadRejectsUnsupportedType(t *testing.T) {
	router := newChatRouter(t, &stubModel{reply: "x"})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="malware.exe"`)
	header.Set("Content-Type", "application/x-msdownload")
	part, _ := mw.CreatePart(header)
	part.Write([]byte{1, 2, 3})
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/attachment", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "unsupported media type")
}

func TestGetConfigEndpoint(t *testing.T) {
	router := newChatRouter(t, &stubModel{reply: "x"})

	w := doJSON(router, http.MethodGet, "/api/v1/chat/config", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data service.GenerationParams `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, service.GeminiModel, resp.Data.Model)
	require.Equal(t, 0.4, resp.Data.Temperature)
	require.Equal(t, 1000, resp.Data.MaxOutputTokens)
	require.Equal(t, 0.80, resp.Data.TopP)
	require.Equal(t, 35, resp.Data.TopK)
}
