package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatbot-sehat-server/internal/session"
)

const (
	// Gemini API Endpoint
	GeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	// Model Name
	GeminiModel = "gemini-2.0-flash"
)

// 解码参数，启动期常量，运行时不可调
// 页面侧边栏以只读方式展示这四个值
const (
	GenTemperature     = 0.4
	GenMaxOutputTokens = 1000
	GenTopP            = 0.80
	GenTopK            = 35
)

// systemInstruction 固定的系统指令
// 定义助手角色、强制的多步推理协议、外部验证步骤，
// 以及必须声明自己不是医疗专业人员的免责要求
const systemInstruction = "You are a highly ethical Public Health Education Specialist and " +
	"multimodal analyst who reasons in depth. Your role is to make sure every step below " +
	"is followed strictly. Your primary focus is analyzing the input (text or file) and " +
	"providing health explanations.\n" +
	"\n" +
	"COMPREHENSIVE REASONING PROTOCOL — for every request, follow these steps in order:\n" +
	"1. KNOWLEDGE GATHERING & PRIORITIZATION: focus the analysis only on the health, " +
	"medical, or supporting-data aspects that are relevant; collect and summarize every " +
	"internal and external fact required.\n" +
	"2. MULTI-PATH ANALYSIS & PLAN: reason step by step and develop at least 2-3 possible " +
	"solution paths to ensure the best result, especially for ambiguous questions.\n" +
	"3. VERIFICATION & TOOL USE: use the Google Search tool to validate every claim you " +
	"are about to make and to find the latest health trends; compare results from several " +
	"sources and consolidate them into one consistent set of facts before continuing.\n" +
	"4. SYNTHESIS, REVIEW & ETHICAL CORRECTION: merge the verified data into the best " +
	"solution path, then review the draft answer — make sure there is no direct medical " +
	"advice and that the tone stays empathetic.\n" +
	"\n" +
	"FINAL RESPONSE FORMAT:\n" +
	"a. Explain the uploaded content or answer the question comprehensively.\n" +
	"b. Provide supporting data (from search) as separate Markdown bullet points.\n" +
	"c. State clearly that you are NOT A DOCTOR OR MEDICAL PROFESSIONAL and that your " +
	"advice is educational only.\n" +
	"d. Answer in a warm, empathetic tone that a layperson can understand."

// ModelInvocationError 模型调用失败
// 供应商侧的错误信息原样携带，由调用方转给用户
type ModelInvocationError struct {
	Message string
}

func (e *ModelInvocationError) Error() string {
	return e.Message
}

// GeminiService 封装 Gemini 文本生成接口
type GeminiService struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGeminiService 创建 GeminiService 实例
// baseURL 传空串时使用官方 Endpoint（测试时指向 httptest 服务器）
func NewGeminiService(apiKey, baseURL string) *GeminiService {
	if baseURL == "" {
		baseURL = GeminiEndpoint
	}
	return &GeminiService{
		apiKey:  apiKey,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second, // 模型调用较慢，超时放宽
		},
	}
}

// geminiContent generateContent 的消息结构
type geminiContent struct {
	Role  string         `json:"role,omitempty"`
	Parts []session.Part `json:"parts"`
}

// geminiRequest generateContent 请求结构
type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
		TopP            float64 `json:"topP"`
		TopK            int     `json:"topK"`
	} `json:"generationConfig"`
}

// geminiResponse generateContent 响应结构
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Invoke 发送系统指令和完整的多模态历史，返回回复文本
// 同步阻塞直到供应商返回；任何失败都包装为 *ModelInvocationError
// 参数:
//   - ctx: 上下文
//   - history: 完整的模型历史（已含本回合的用户消息）
//
// 返回:
//   - string: 回复文本
//   - error: 调用失败时为 *ModelInvocationError
func (s *GeminiService) Invoke(ctx context.Context, history []session.Message) (string, error) {
	// 1. 构造请求 Body
	// 角色映射：内存历史用 user/assistant，Gemini 侧是 user/model
	req := geminiRequest{
		SystemInstruction: &geminiContent{
			Parts: []session.Part{{Text: systemInstruction}},
		},
	}
	for _, msg := range history {
		role := msg.Role
		if role == "assistant" {
			role = "model"
		}
		req.Contents = append(req.Contents, geminiContent{Role: role, Parts: msg.Parts})
	}
	req.GenerationConfig.Temperature = GenTemperature
	req.GenerationConfig.MaxOutputTokens = GenMaxOutputTokens
	req.GenerationConfig.TopP = GenTopP
	req.GenerationConfig.TopK = GenTopK

	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", &ModelInvocationError{Message: fmt.Sprintf("failed to encode request: %v", err)}
	}

	// 2. 发送 HTTP 请求
	url := fmt.Sprintf("%s/%s:generateContent", s.baseURL, GeminiModel)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", &ModelInvocationError{Message: fmt.Sprintf("failed to build request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", s.apiKey)

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", &ModelInvocationError{Message: fmt.Sprintf("failed to call model: %v", err)}
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	// 3. 解析响应
	// 供应商的错误信息（鉴权、配额、参数）尽量原样透出
	var geminiResp geminiResponse
	if err := json.Unmarshal(bodyBytes, &geminiResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", &ModelInvocationError{Message: fmt.Sprintf("model returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))}
		}
		return "", &ModelInvocationError{Message: fmt.Sprintf("failed to parse model response: %v", err)}
	}

	if geminiResp.Error.Message != "" {
		return "", &ModelInvocationError{Message: fmt.Sprintf("model error %s: %s", geminiResp.Error.Status, geminiResp.Error.Message)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &ModelInvocationError{Message: fmt.Sprintf("model returned status %d", resp.StatusCode)}
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", &ModelInvocationError{Message: "model returned no content"}
	}

	// 候选可能被拆成多个文本片段，拼接后返回
	var sb strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	reply := strings.TrimSpace(sb.String())
	if reply == "" {
		return "", &ModelInvocationError{Message: "model returned no content"}
	}

	return reply, nil
}

// GenerationParams 只读的模型配置
// 侧边栏的配置面板展示这些值
type GenerationParams struct {
	Model           string  `json:"model"`
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"max_output_tokens"`
	TopP            float64 `json:"top_p"`
	TopK            int     `json:"top_k"`
}

// Params 返回固定的解码参数
func (s *GeminiService) Params() GenerationParams {
	return GenerationParams{
		Model:           GeminiModel,
		Temperature:     GenTemperature,
		MaxOutputTokens: GenMaxOutputTokens,
		TopP:            GenTopP,
		TopK:            GenTopK,
	}
}
