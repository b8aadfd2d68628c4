package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"supportdesk/config"
	"supportdesk/internal/core"
	fluentdModel "supportdesk/internal/database/fluentd/model"
	"supportdesk/internal/database/mongodb/model"
	"supportdesk/internal/database/mongodb/repository"
	cErr "supportdesk/internal/pkg/error"
	"supportdesk/internal/telemetry"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// fakeClock 每次呼叫前進 1ms，排序結果固定
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Millisecond)
	return c.now
}

// ─── users ─────────────────────────────────────────────────────────────────────

type fakeUserStore struct {
	mu           sync.Mutex
	clock        *fakeClock
	users        map[primitive.ObjectID]*model.User
	beforeCreate func()
	createErr    error
	findErr      error
}

func newFakeUserStore(clock *fakeClock) *fakeUserStore {
	return &fakeUserStore{clock: clock, users: map[primitive.ObjectID]*model.User{}}
}

func cloneUser(u *model.User) *model.User {
	c := *u
	return &c
}

// insertRaw 直接寫入，繞過唯一檢查以外的邏輯
func (f *fakeUserStore) insertRaw(u *model.User) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Role == "" {
		u.Role = core.RoleUser
	}
	if u.Status == "" {
		u.Status = core.StatusActive
	}
	u.Email = model.NormalizeEmail(u.Email)
	now := f.clock.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	f.users[u.ID] = cloneUser(u)
	return cloneUser(u)
}

func (f *fakeUserStore) conflicts(id primitive.ObjectID, externalID, email string) bool {
	for _, u := range f.users {
		if u.ID == id {
			continue
		}
		if externalID != "" && u.ExternalID == externalID {
			return true
		}
		if email != "" && u.Email == email {
			return true
		}
	}
	return false
}

func (f *fakeUserStore) Create(ctx context.Context, user *model.User) (*model.User, error) {
	f.mu.Lock()
	hook := f.beforeCreate
	f.beforeCreate = nil
	createErr := f.createErr
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if createErr != nil {
		return nil, createErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	user.Email = model.NormalizeEmail(user.Email)
	if f.conflicts(primitive.NilObjectID, user.ExternalID, user.Email) {
		return nil, repository.ErrDuplicateKey
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := f.clock.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	f.users[user.ID] = cloneUser(user)
	return cloneUser(user), nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, id primitive.ObjectID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserStore) FindByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	var newest *model.User
	for _, u := range f.users {
		if u.ExternalID == externalID && (newest == nil || u.CreatedAt.After(newest.CreatedAt)) {
			newest = u
		}
	}
	if newest == nil {
		return nil, mongo.ErrNoDocuments
	}
	return cloneUser(newest), nil
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email = model.NormalizeEmail(email)
	for _, u := range f.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeUserStore) update(id primitive.ObjectID, apply func(u *model.User) error) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	next := cloneUser(u)
	if err := apply(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = f.clock.Now()
	f.users[id] = next
	return cloneUser(next), nil
}

func (f *fakeUserStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, profile model.UserProfile) (*model.User, error) {
	return f.update(id, func(u *model.User) error {
		if profile.Email != "" {
			if f.conflicts(id, "", profile.Email) {
				return repository.ErrDuplicateKey
			}
			u.Email = profile.Email
		}
		u.FirstName, u.LastName, u.AvatarURL = profile.FirstName, profile.LastName, profile.AvatarURL
		return nil
	})
}

func (f *fakeUserStore) LinkExternalID(ctx context.Context, id primitive.ObjectID, externalID string, profile model.UserProfile) (*model.User, error) {
	return f.update(id, func(u *model.User) error {
		if f.conflicts(id, externalID, "") {
			return repository.ErrDuplicateKey
		}
		u.ExternalID = externalID
		u.FirstName, u.LastName, u.AvatarURL = profile.FirstName, profile.LastName, profile.AvatarURL
		return nil
	})
}

func (f *fakeUserStore) UpdateRole(ctx context.Context, id primitive.ObjectID, role core.Role) (*model.User, error) {
	return f.update(id, func(u *model.User) error { u.Role = role; return nil })
}

func (f *fakeUserStore) UpdateStatus(ctx context.Context, id primitive.ObjectID, status core.Status) (*model.User, error) {
	return f.update(id, func(u *model.User) error { u.Status = status; return nil })
}

func (f *fakeUserStore) UpdateNotifications(ctx context.Context, id primitive.ObjectID, preferences model.NotificationPreferences) (*model.User, error) {
	return f.update(id, func(u *model.User) error { u.Notifications = preferences; return nil })
}

func (f *fakeUserStore) UpdateLastSeen(ctx context.Context, id primitive.ObjectID, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return 0, nil
	}
	at = at.UTC()
	u.LastSeen = &at
	return 1, nil
}

func (f *fakeUserStore) List(ctx context.Context, query core.UserQuery) ([]*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.User{}
	for _, u := range f.users {
		if query.Role != nil && u.Role != *query.Role {
			continue
		}
		if query.Status != nil && u.Status != *query.Status {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeUserStore) ListIDs(ctx context.Context, roles []core.Role, status core.Status) ([]primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []primitive.ObjectID
	for _, u := range f.users {
		if u.Status != status {
			continue
		}
		for _, r := range roles {
			if u.Role == r {
				out = append(out, u.ID)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeUserStore) countByExternalID(externalID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, u := range f.users {
		if u.ExternalID == externalID {
			n++
		}
	}
	return n
}

// ─── conversations ─────────────────────────────────────────────────────────────

type fakeConversationStore struct {
	mu            sync.Mutex
	clock         *fakeClock
	conversations map[primitive.ObjectID]*model.Conversation
	touches       int
	touchFailures int // 接下來幾次 Touch 要失敗
	reads         int
}

func newFakeConversationStore(clock *fakeClock) *fakeConversationStore {
	return &fakeConversationStore{clock: clock, conversations: map[primitive.ObjectID]*model.Conversation{}}
}

func cloneConversation(c *model.Conversation) *model.Conversation {
	out := *c
	if c.AssignedStaffID != nil {
		id := *c.AssignedStaffID
		out.AssignedStaffID = &id
	}
	return &out
}

func (f *fakeConversationStore) Create(ctx context.Context, conversation *model.Conversation) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if conversation.ID.IsZero() {
		conversation.ID = primitive.NewObjectID()
	}
	now := f.clock.Now()
	conversation.CreatedAt, conversation.UpdatedAt = now, now
	f.conversations[conversation.ID] = cloneConversation(conversation)
	return cloneConversation(conversation), nil
}

func (f *fakeConversationStore) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if c, ok := f.conversations[id]; ok {
		return cloneConversation(c), nil
	}
	return nil, mongo.ErrNoDocuments
}

func (f *fakeConversationStore) List(ctx context.Context, scope core.ConversationScope, status *core.ConversationStatus) ([]*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.Conversation{}
	for _, c := range f.conversations {
		if !scope.Matches(c.UserID, c.AssignedStaffID) {
			continue
		}
		if status != nil && c.Status != *status {
			continue
		}
		out = append(out, cloneConversation(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeConversationStore) SetStatus(ctx context.Context, id primitive.ObjectID, status core.ConversationStatus) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	c.Status = status
	return cloneConversation(c), nil
}

func (f *fakeConversationStore) Assign(ctx context.Context, id primitive.ObjectID, staffID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok || (c.AssignedStaffID != nil && *c.AssignedStaffID == staffID) {
		return false, nil
	}
	c.AssignedStaffID = &staffID
	return true, nil
}

func (f *fakeConversationStore) Unassign(ctx context.Context, id primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok || c.AssignedStaffID == nil {
		return false, nil
	}
	c.AssignedStaffID = nil
	return true, nil
}

func (f *fakeConversationStore) UnassignStaff(ctx context.Context, staffID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, c := range f.conversations {
		if c.AssignedStaffID != nil && *c.AssignedStaffID == staffID {
			c.AssignedStaffID = nil
			n++
		}
	}
	return n, nil
}

func (f *fakeConversationStore) AssigneeIDs(ctx context.Context) ([]primitive.ObjectID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[primitive.ObjectID]struct{}{}
	var ids []primitive.ObjectID
	for _, c := range f.conversations {
		if c.AssignedStaffID == nil {
			continue
		}
		if _, ok := seen[*c.AssignedStaffID]; !ok {
			seen[*c.AssignedStaffID] = struct{}{}
			ids = append(ids, *c.AssignedStaffID)
		}
	}
	return ids, nil
}

func (f *fakeConversationStore) Touch(ctx context.Context, id primitive.ObjectID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touches++
	if f.touchFailures > 0 {
		f.touchFailures--
		return context.DeadlineExceeded
	}
	if c, ok := f.conversations[id]; ok {
		c.UpdatedAt = f.clock.Now()
	}
	return nil
}

func (f *fakeConversationStore) DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.conversations[id]; !ok {
		return 0, nil
	}
	delete(f.conversations, id)
	return 1, nil
}

// ─── messages ──────────────────────────────────────────────────────────────────

type fakeMessageStore struct {
	mu       sync.Mutex
	clock    *fakeClock
	users    *fakeUserStore
	messages map[primitive.ObjectID]*model.Message
}

func newFakeMessageStore(clock *fakeClock, users *fakeUserStore) *fakeMessageStore {
	return &fakeMessageStore{clock: clock, users: users, messages: map[primitive.ObjectID]*model.Message{}}
}

func (f *fakeMessageStore) Create(ctx context.Context, message *model.Message) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if message.ID.IsZero() {
		message.ID = primitive.NewObjectID()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = f.clock.Now()
	}
	if len(message.Attachments) == 0 {
		message.Attachments = nil
	}
	message.IsRead = false
	stored := *message
	f.messages[message.ID] = &stored
	out := stored
	return &out, nil
}

func (f *fakeMessageStore) view(m *model.Message) *model.MessageView {
	v := &model.MessageView{Message: *m}
	if sender, err := f.users.GetByID(context.Background(), m.SenderID); err == nil {
		v.Sender = model.SenderProfileOf(sender)
	}
	return v
}

func (f *fakeMessageStore) GetWithSender(ctx context.Context, conversationID, messageID primitive.ObjectID) (*model.MessageView, error) {
	f.mu.Lock()
	m, ok := f.messages[messageID]
	var copied model.Message
	if ok {
		copied = *m
	}
	f.mu.Unlock()
	if !ok || copied.ConversationID != conversationID {
		return nil, mongo.ErrNoDocuments
	}
	return f.view(&copied), nil
}

func (f *fakeMessageStore) ListWithSender(ctx context.Context, conversationID primitive.ObjectID) ([]*model.MessageView, error) {
	f.mu.Lock()
	var rows []model.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID {
			rows = append(rows, *m)
		}
	}
	f.mu.Unlock()
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return bytes.Compare(rows[i].ID[:], rows[j].ID[:]) < 0
	})
	out := make([]*model.MessageView, len(rows))
	for i := range rows {
		out[i] = f.view(&rows[i])
	}
	return out, nil
}

func (f *fakeMessageStore) MarkRead(ctx context.Context, conversationID, viewerID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.messages {
		if m.ConversationID == conversationID && m.SenderID != viewerID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageStore) CountUnread(ctx context.Context, conversationIDs []primitive.ObjectID, viewerID primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wanted := map[primitive.ObjectID]bool{}
	for _, id := range conversationIDs {
		wanted[id] = true
	}
	out := map[primitive.ObjectID]int64{}
	for _, m := range f.messages {
		if wanted[m.ConversationID] && m.SenderID != viewerID && !m.IsRead {
			out[m.ConversationID]++
		}
	}
	return out, nil
}

func (f *fakeMessageStore) DeleteByConversationID(ctx context.Context, conversationID primitive.ObjectID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, m := range f.messages {
		if m.ConversationID == conversationID {
			delete(f.messages, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

// ─── publisher / audit / storage ───────────────────────────────────────────────

type fakePublisher struct {
	mu     sync.Mutex
	events []core.MessageEvent
	err    error
}

func (f *fakePublisher) Publish(ctx context.Context, event core.MessageEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) published() []core.MessageEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.MessageEvent(nil), f.events...)
}

type fakeAudit struct {
	mu     sync.Mutex
	events []fluentdModel.MessageEventLog
}

func (f *fakeAudit) LogMessageEvent(ctx context.Context, event fluentdModel.MessageEventLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	failFor func(key string) bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (f *fakeStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.failFor != nil && f.failFor(key) {
		return errors.New("storage unavailable")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStorage) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (f *fakeStorage) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.objects))
	for k := range f.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ─── harness ───────────────────────────────────────────────────────────────────

type harness struct {
	clock         *fakeClock
	users         *fakeUserStore
	convs         *fakeConversationStore
	msgs          *fakeMessageStore
	publisher     *fakePublisher
	audit         *fakeAudit
	storage       *fakeStorage
	access        *AccessService
	identity      *IdentityService
	conversations *ConversationService
	attachments   *AttachmentService
	messages      *MessageService
	userService   *UserService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithConfig(t, &config.Configuration{})
}

func newHarnessWithConfig(t *testing.T, conf *config.Configuration) *harness {
	t.Helper()
	trace := &telemetry.Trace{}
	metric := &telemetry.Metric{}
	logger := zap.NewNop()

	h := &harness{clock: newFakeClock(), publisher: &fakePublisher{}, audit: &fakeAudit{}, storage: newFakeStorage()}
	h.users = newFakeUserStore(h.clock)
	h.convs = newFakeConversationStore(h.clock)
	h.msgs = newFakeMessageStore(h.clock, h.users)
	h.access = NewAccessService()
	h.identity = NewIdentityService(trace, metric, logger, h.users, h.convs)
	h.identity.resolveBackoff = time.Millisecond
	h.conversations = NewConversationService(trace, logger, h.access, h.users, h.convs, h.msgs)
	h.attachments = NewAttachmentService(conf, trace, metric, logger, h.storage)
	h.attachments.now = h.clock.Now
	h.messages = NewMessageService(trace, metric, logger, h.conversations, h.convs, h.msgs, h.attachments, h.publisher, h.audit)
	h.userService = NewUserService(trace, logger, h.users, h.conversations)
	return h
}

func (h *harness) user(t *testing.T, role core.Role) core.Viewer {
	t.Helper()
	u := h.users.insertRaw(&model.User{
		ExternalID: "ext-" + primitive.NewObjectID().Hex(),
		Role:       role,
		Status:     core.StatusActive,
	})
	return core.Viewer{ID: u.ID, Role: u.Role}
}

func textFile(name, mimeType, content string) AttachmentFile {
	return AttachmentFile{
		Name:     name,
		MimeType: mimeType,
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func requireCode(t *testing.T, err error, code int) {
	t.Helper()
	var appErr *cErr.Error
	require.Error(t, err)
	require.True(t, errors.As(err, &appErr), "expected *cErr.Error, got %T: %v", err, err)
	require.Equal(t, code, appErr.ErrorCode(), appErr.ErrorDesc())
}
