package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"supportdesk/config"
	"supportdesk/internal/core"
	"supportdesk/internal/database/client"
	fluentdRepo "supportdesk/internal/database/fluentd/repository"
	"supportdesk/internal/database/mongodb/model"
	redisRepo "supportdesk/internal/database/redis/repository"
	"supportdesk/internal/middleware"
	cErr "supportdesk/internal/pkg/error"
	"supportdesk/internal/pkg/response"
	"supportdesk/internal/service"
	"supportdesk/internal/telemetry"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEngine() *gin.Engine {
	conf := &config.Configuration{}
	logRepository := fluentdRepo.NewLogRepository(conf, &client.NoopClient{})
	recovery := middleware.NewRecovery(zap.NewNop(), &telemetry.Trace{}, &telemetry.Metric{}, conf, logRepository)
	engine := gin.New()
	engine.Use(recovery.ErrorHandler())
	return engine
}

func asViewer(viewer core.Viewer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextViewerKey, viewer)
		c.Next()
	}
}

func envelopeCode(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func TestConversationTarget_RejectsBadRequests(t *testing.T) {
	h := NewConversationHandler(&telemetry.Trace{}, nil)
	viewer := core.Viewer{ID: primitive.NewObjectID(), Role: core.RoleUser}

	engine := newTestEngine()
	engine.GET("/with-viewer/:conversationID", asViewer(viewer), h.Get)
	engine.GET("/anonymous/:conversationID", h.Get)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/with-viewer/not-an-id", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, cErr.BAD_REQUEST_PARAMS, envelopeCode(t, w))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/anonymous/"+primitive.NewObjectID().Hex(), nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookHandler_ValidatesPayload(t *testing.T) {
	h := NewWebhookHandler(&telemetry.Trace{}, nil)
	engine := newTestEngine()
	engine.POST("/webhooks/identity", h.Identity)

	for _, body := range []string{
		`{"type":"user.renamed","data":{"id":"ext-1"}}`,
		`{"type":"user.created","data":{}}`,
		`{"type":"user.created","data":{"id":"ext-1","email":"nope"}}`,
		`not json`,
	} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/webhooks/identity", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestHealthHandler(t *testing.T) {
	health := service.NewHealthService()
	h := NewHealthHandler(health)
	engine := gin.New()
	engine.GET("/readiness", h.Readiness)
	engine.GET("/liveness", h.Liveness)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readiness", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	health.SetReady(true)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readiness", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/liveness", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMessageHandler_ReadSendRequest(t *testing.T) {
	h := NewMessageHandler(&telemetry.Trace{}, &config.Configuration{}, nil)
	assert.Equal(t, config.DefaultAttachmentMaxSizeBytes*int64(config.DefaultAttachmentMaxFiles+1)+(1<<20), h.maxBodyBytes)

	t.Run("multipart", func(t *testing.T) {
		var buf bytes.Buffer
		form := multipart.NewWriter(&buf)
		require.NoError(t, form.WriteField("content", "see attached"))
		addFile(t, form, "files", "a.txt", "text/plain", "alpha")
		addFile(t, form, "files[]", "b.png", "image/png", "\x89PNG")
		require.NoError(t, form.Close())

		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "/", &buf)
		c.Request.Header.Set("Content-Type", form.FormDataContentType())

		content, files, err := h.readSendRequest(c)
		require.NoError(t, err)
		assert.Equal(t, "see attached", content)
		require.Len(t, files, 2)
		assert.Equal(t, "a.txt", files[0].Name)
		assert.Equal(t, "text/plain", files[0].MimeType)
		assert.Equal(t, int64(5), files[0].Size)
		assert.Equal(t, "b.png", files[1].Name)

		// Open 每次都從頭讀
		for i := 0; i < 2; i++ {
			rc, err := files[0].Open()
			require.NoError(t, err)
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			require.NoError(t, rc.Close())
			assert.Equal(t, "alpha", string(data))
		}
	})

	t.Run("json", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":"hello"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		content, files, err := h.readSendRequest(c)
		require.NoError(t, err)
		assert.Equal(t, "hello", content)
		assert.Empty(t, files)
	})

	t.Run("json too long", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":"`+strings.Repeat("x", 10001)+`"}`))
		c.Request.Header.Set("Content-Type", "application/json")

		_, _, err := h.readSendRequest(c)
		assert.Error(t, err)
	})
}

func addFile(t *testing.T, form *multipart.Writer, field, name, mime, content string) {
	t.Helper()
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+name+`"`)
	header.Set("Content-Type", mime)
	part, err := form.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
}

func TestIsRevoked(t *testing.T) {
	assert.True(t, isRevoked(cErr.ConversationNotFound("gone")))
	assert.True(t, isRevoked(cErr.Forbidden("no access")))
	assert.False(t, isRevoked(cErr.MessageNotFound("gone")))
	assert.False(t, isRevoked(cErr.StoreUnavailable("down")))
	assert.False(t, isRevoked(nil))
}

// ---- SSE ----

type memConversations struct {
	service.ConversationStore

	mu   sync.Mutex
	byID map[primitive.ObjectID]model.Conversation
}

func (m *memConversations) GetByID(_ context.Context, id primitive.ObjectID) (*model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversation, ok := m.byID[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return &conversation, nil
}

func (m *memConversations) Touch(context.Context, primitive.ObjectID) error { return nil }

func (m *memConversations) reassign(id, staffID primitive.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversation := m.byID[id]
	conversation.AssignedStaffID = &staffID
	m.byID[id] = conversation
}

type memMessages struct {
	service.MessageStore

	mu       sync.Mutex
	messages []model.Message
}

func (m *memMessages) Create(_ context.Context, message *model.Message) (*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()
	m.messages = append(m.messages, *message)
	return message, nil
}

func (m *memMessages) GetWithSender(_ context.Context, conversationID, messageID primitive.ObjectID) (*model.MessageView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, message := range m.messages {
		if message.ID == messageID && message.ConversationID == conversationID {
			return &model.MessageView{Message: message}, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (m *memMessages) ListWithSender(_ context.Context, conversationID primitive.ObjectID) ([]*model.MessageView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var views []*model.MessageView
	for _, message := range m.messages {
		if message.ConversationID == conversationID {
			views = append(views, &model.MessageView{Message: message})
		}
	}
	return views, nil
}

func (m *memMessages) MarkRead(_ context.Context, conversationID, viewerID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var modified int64
	for i := range m.messages {
		message := &m.messages[i]
		if message.ConversationID == conversationID && message.SenderID != viewerID && !message.IsRead {
			message.IsRead = true
			modified++
		}
	}
	return modified, nil
}

func (m *memMessages) unread(viewerID primitive.ObjectID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, message := range m.messages {
		if message.SenderID != viewerID && !message.IsRead {
			count++
		}
	}
	return count
}

type sseEvent struct {
	name string
	data string
}

type streamHarness struct {
	redis    *miniredis.Miniredis
	convs    *memConversations
	msgs     *memMessages
	messages *service.MessageService
	realtime *service.RealtimeService
	handler  *StreamHandler
}

func newStreamHarness(t *testing.T) *streamHarness {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	trace := &telemetry.Trace{}
	metric := &telemetry.Metric{}
	conf := &config.Configuration{}
	convs := &memConversations{byID: map[primitive.ObjectID]model.Conversation{}}
	msgs := &memMessages{}

	channel := redisRepo.NewMessageChannelRepository(client.NewRedisClientFrom(zap.NewNop(), rdb))
	conversations := service.NewConversationService(trace, zap.NewNop(), service.NewAccessService(), nil, convs, msgs)
	realtime := service.NewRealtimeService(trace, metric, zap.NewNop(), channel, conversations)
	t.Cleanup(realtime.Close)
	attachments := service.NewAttachmentService(conf, trace, metric, zap.NewNop(), nil)
	audit := fluentdRepo.NewLogRepository(conf, &client.NoopClient{})
	messages := service.NewMessageService(trace, metric, zap.NewNop(), conversations, convs, msgs, attachments, realtime, audit)

	stream := NewStreamHandler(trace, zap.NewNop(), realtime, messages, conversations)
	stream.pingInterval = time.Hour
	return &streamHarness{redis: mr, convs: convs, msgs: msgs, messages: messages, realtime: realtime, handler: stream}
}

// connect 開一條 SSE 連線，事件依序送進 channel，連線結束時關閉 channel
func (h *streamHarness) connect(t *testing.T, viewer core.Viewer, conversationID primitive.ObjectID) (<-chan sseEvent, *http.Response) {
	t.Helper()
	engine := newTestEngine()
	engine.GET("/conversations/:conversationID/stream", asViewer(viewer), h.handler.Stream)
	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/conversations/"+conversationID.Hex()+"/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	events := make(chan sseEvent, 16)
	go func() {
		defer close(events)
		reader := bufio.NewReader(resp.Body)
		var current sseEvent
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			line = strings.TrimRight(line, "\n")
			switch {
			case line == "":
				if current.name != "" {
					events <- current
				}
				current = sseEvent{}
			case strings.HasPrefix(line, "event:"):
				current.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				current.data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			}
		}
	}()
	return events, resp
}

func next(t *testing.T, events <-chan sseEvent) sseEvent {
	t.Helper()
	select {
	case event, ok := <-events:
		require.True(t, ok, "stream closed")
		return event
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for sse event")
		return sseEvent{}
	}
}

func TestStream_SnapshotMessagesAndRevoke(t *testing.T) {
	h := newStreamHarness(t)
	ctx := context.Background()
	owner := core.Viewer{ID: primitive.NewObjectID(), Role: core.RoleUser}
	staff := core.Viewer{ID: primitive.NewObjectID(), Role: core.RoleStaff}
	conversationID := primitive.NewObjectID()
	h.convs.byID[conversationID] = model.Conversation{
		ID:              conversationID,
		Subject:         "printer",
		Status:          core.ConversationOpen,
		UserID:          owner.ID,
		AssignedStaffID: &staff.ID,
	}
	_, err := h.messages.Append(ctx, conversationID, owner, "first", nil)
	require.NoError(t, err)

	events, resp := h.connect(t, staff, conversationID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	snapshot := next(t, events)
	require.Equal(t, EventSnapshot, snapshot.name)
	var thread []map[string]any
	require.NoError(t, json.Unmarshal([]byte(snapshot.data), &thread))
	require.Len(t, thread, 1)
	assert.Equal(t, "first", thread[0]["content"])
	assert.Equal(t, true, thread[0]["isRead"])

	_, err = h.messages.Append(ctx, conversationID, owner, "second", nil)
	require.NoError(t, err)
	event := next(t, events)
	require.Equal(t, EventMessage, event.name)
	assert.Contains(t, event.data, `"content":"second"`)
	// 串流中收到他人訊息即視為已讀
	assert.Eventually(t, func() bool { return h.msgs.unread(staff.ID) == 0 }, 2*time.Second, 10*time.Millisecond)

	_, err = h.messages.Append(ctx, conversationID, staff, "mine", nil)
	require.NoError(t, err)
	event = next(t, events)
	require.Equal(t, EventMessage, event.name)
	assert.Contains(t, event.data, `"content":"mine"`)

	// 改派後下一則訊息觸發 revoked，串流結束
	h.convs.reassign(conversationID, primitive.NewObjectID())
	_, err = h.messages.Append(ctx, conversationID, owner, "after reassignment", nil)
	require.NoError(t, err)
	event = next(t, events)
	assert.Equal(t, EventRevoked, event.name)
	assert.Contains(t, event.data, conversationID.Hex())

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(3 * time.Second):
		t.Fatal("stream did not close after revoke")
	}
	assert.Eventually(t, func() bool { return h.realtime.Active() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestStream_InvisibleConversationIsNotFound(t *testing.T) {
	h := newStreamHarness(t)
	conversationID := primitive.NewObjectID()
	h.convs.byID[conversationID] = model.Conversation{ID: conversationID, UserID: primitive.NewObjectID(), Status: core.ConversationOpen}

	engine := newTestEngine()
	stranger := core.Viewer{ID: primitive.NewObjectID(), Role: core.RoleUser}
	engine.GET("/conversations/:conversationID/stream", asViewer(stranger), h.handler.Stream)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conversations/"+conversationID.Hex()+"/stream", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, cErr.CONVERSATION_NOT_FOUND, envelopeCode(t, w))
	assert.Equal(t, 0, h.realtime.Active())
}

func TestStream_ResyncsAfterRedisReconnect(t *testing.T) {
	h := newStreamHarness(t)
	ctx := context.Background()
	owner := core.Viewer{ID: primitive.NewObjectID(), Role: core.RoleUser}
	conversationID := primitive.NewObjectID()
	h.convs.byID[conversationID] = model.Conversation{ID: conversationID, UserID: owner.ID, Status: core.ConversationOpen}

	events, _ := h.connect(t, owner, conversationID)
	require.Equal(t, EventSnapshot, next(t, events).name)

	h.redis.Close()
	// 斷線期間寫入的訊息推送不到，只能靠重抓補回
	_, err := h.messages.Append(ctx, conversationID, owner, "while offline", nil)
	require.NoError(t, err)
	require.NoError(t, h.redis.Restart())

	event := next(t, events)
	require.Equal(t, EventResync, event.name)
	assert.Contains(t, event.data, conversationID.Hex())

	snapshot := next(t, events)
	require.Equal(t, EventSnapshot, snapshot.name)
	assert.Contains(t, snapshot.data, `"content":"while offline"`)
}
