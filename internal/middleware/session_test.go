package middleware

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"chatbot-sehat-server/internal/session"
	"chatbot-sehat-server/pkg/jwt"
)

func newSessionRouter(t *testing.T) (*gin.Engine, *session.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService := jwt.NewJWTService("test-secret-at-least-32-characters!!", 24*time.Hour)
	manager := session.NewManager()

	router := gin.New()
	router.Use(SessionMiddleware(jwtService, manager))
	router.GET("/probe", func(c *gin.Context) {
		sess := GetSession(c)
		c.JSON(http.StatusOK, gin.H{"user_id": sess.UserID})
	})

	return router, manager
}

func TestSessionMiddlewareMintsCookieOnFirstContact(t *testing.T) {
	router, manager := newSessionRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, manager.Count())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, SessionCookieName, cookies[0].Name)
	require.True(t, cookies[0].HttpOnly)
	// MaxAge 未设置：Cookie 随浏览器会话结束而失效
	require.Equal(t, 0, cookies[0].MaxAge)

	require.Regexp(t, regexp.MustCompile(`"user_id":"anon-\d{4}"`), w.Body.String())
}

func TestSessionMiddlewareReusesExistingCookie(t *testing.T) {
	router, manager := newSessionRouter(t)

	w1 := httptest.NewRecorder()
	req1 := httptest.NewRequest(http.MethodGet, "/probe", nil)
	router.ServeHTTP(w1, req1)
	cookie := w1.Result().Cookies()[0]
	firstBody := w1.Body.String()

	// 带着同一个 Cookie 再次访问：映射回同一个会话，不重新发 Cookie
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req2.AddCookie(cookie)
	router.ServeHTTP(w2, req2)

	require.Equal(t, firstBody, w2.Body.String())
	require.Empty(t, w2.Result().Cookies())
	require.Equal(t, 1, manager.Count())
}

func TestSessionMiddlewareReplacesInvalidCookie(t *testing.T) {
	router, manager := newSessionRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "tampered"})
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	// 失效 Cookie 被替换成新会话
	require.Len(t, w.Result().Cookies(), 1)
	require.Equal(t, 1, manager.Count())
}
