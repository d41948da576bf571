package session

import (
	"log"
	"sync"
	"time"
)

// idleTimeout 空闲会话的回收阈值
// 会话 Cookie 随浏览器关闭失效，服务端按空闲时间对齐回收
const idleTimeout = 2 * time.Hour

// Manager 是所有活跃会话的中心管理器
// 负责：
// 1. 按会话令牌 ID 维护 Session 对象
// 2. 定期回收空闲会话
type Manager struct {
	// 会话映射：令牌 ID -> *Session
	// 同一浏览器的多个标签页共享同一个 Cookie，也就共享同一个会话
	sessions map[string]*Session

	// 互斥锁，保护并发访问
	mu sync.RWMutex

	// 停止回收循环的通道
	done chan struct{}
}

// NewManager 创建 Manager 实例
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		done:     make(chan struct{}),
	}
}

// GetOrCreate 返回令牌对应的会话，不存在时创建
// 参数:
//   - tokenID: 会话 Cookie 中的令牌 ID
//   - userID: Cookie 中携带的匿名标识
//
// 返回:
//   - *Session: 会话对象
func (m *Manager) GetOrCreate(tokenID, userID string) *Session {
	m.mu.RLock()
	sess, ok := m.sessions[tokenID]
	m.mu.RUnlock()
	if ok {
		sess.Touch()
		return sess
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// 双重检查，避免并发创建
	if sess, ok := m.sessions[tokenID]; ok {
		return sess
	}
	sess = &Session{
		UserID:   userID,
		lastSeen: time.Now(),
	}
	m.sessions[tokenID] = sess
	log.Printf("[INFO] session created: %s (%s)", tokenID, userID)
	return sess
}

// Count 返回当前活跃会话数
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Run 启动空闲会话回收循环
// 在单独的 goroutine 中运行，Stop 之后退出
func (m *Manager) Run() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.evictIdle()
		case <-m.done:
			return
		}
	}
}

// Stop 终止回收循环
func (m *Manager) Stop() {
	close(m.done)
}

// evictIdle 回收超过空闲阈值的会话
// 两趟扫描：先在读锁下收集候选，再在写锁下复查并删除
// 全程不触碰会话级的 mu，正在等待模型响应的回合不会拖住其他会话
func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-idleTimeout)

	m.mu.RLock()
	var idle []string
	for id, sess := range m.sessions {
		if sess.lastSeenAt().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()
	if len(idle) == 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range idle {
		sess, ok := m.sessions[id]
		// 两趟之间会话可能又被访问过，复查后再删
		if !ok || !sess.lastSeenAt().Before(cutoff) {
			continue
		}
		delete(m.sessions, id)
		log.Printf("[INFO] session evicted: %s (%s)", id, sess.UserID)
	}
}
