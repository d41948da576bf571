package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// LoggerMiddleware 创建请求日志中间件
// 记录每个请求的方法、路径、状态码和耗时
// 返回:
//   - gin.HandlerFunc: Gin 中间件函数
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 记录请求开始时间
		start := time.Now()

		// 获取请求路径
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery
		if raw != "" {
			path = path + "?" + raw
		}

		// 处理请求
		c.Next()

		// 计算请求耗时
		latency := time.Since(start)
		statusCode := c.Writer.Status()
		clientIP := c.ClientIP()
		method := c.Request.Method

		// 获取错误信息（如果有）
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		logLine := formatLogLine(statusCode, latency, clientIP, method, path, errorMessage)

		// 根据状态码选择日志级别
		if statusCode >= 500 {
			log.Printf("[ERROR] %s", logLine)
		} else if statusCode >= 400 {
			log.Printf("[WARN] %s", logLine)
		} else {
			log.Printf("[INFO] %s", logLine)
		}
	}
}

// formatLogLine 格式化日志行
func formatLogLine(statusCode int, latency time.Duration, clientIP, method, path, errorMessage string) string {
	// 格式化耗时
	// 小于 1s 截断到微秒，否则截断到毫秒
	var latencyStr string
	if latency < time.Millisecond {
		latencyStr = latency.String()
	} else if latency < time.Second {
		latencyStr = latency.Truncate(time.Microsecond).String()
	} else {
		latencyStr = latency.Truncate(time.Millisecond).String()
	}

	logLine := statusCodeLabel(statusCode) + " | " +
		padRight(latencyStr, 12) + " | " +
		padRight(clientIP, 15) + " | " +
		padRight(method, 7) + " | " +
		path

	// 如果有错误信息，追加到日志
	if errorMessage != "" {
		logLine += " | " + errorMessage
	}

	return logLine
}

// statusCodeLabel 根据状态码返回带标记的状态码
func statusCodeLabel(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "[" + itoa(code) + " OK]"
	case code >= 300 && code < 400:
		return "[" + itoa(code) + " REDIRECT]"
	case code >= 400 && code < 500:
		return "[" + itoa(code) + " CLIENT_ERR]"
	default:
		return "[" + itoa(code) + " SERVER_ERR]"
	}
}

// itoa 三位状态码转字符串
func itoa(code int) string {
	buf := [3]byte{
		byte('0' + code/100),
		byte('0' + code/10%10),
		byte('0' + code%10),
	}
	return string(buf[:])
}

// padRight 右填充字符串到指定长度
func padRight(s string, length int) string {
	for len(s) < length {
		s += " "
	}
	return s
}
