package service

import (
	"context"
	"testing"

	"supportdesk/internal/core"
	"supportdesk/internal/database/mongodb/model"
	cErr "supportdesk/internal/pkg/error"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestConversationVisibilityFollowsAssignment(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, core.RoleUser)
	staffA := h.user(t, core.RoleStaff)
	staffB := h.user(t, core.RoleStaff)
	admin := h.user(t, core.RoleAdmin)

	conv, err := h.conversations.Create(ctx, owner, "  cannot log in  ")
	require.NoError(t, err)
	assert.Equal(t, "cannot log in", conv.Subject)
	assert.Equal(t, core.ConversationOpen, conv.Status)
	assert.Equal(t, owner.ID, conv.UserID)

	_, err = h.messages.Append(ctx, conv.ID, owner, "hello?", nil)
	require.NoError(t, err)

	listed, err := h.conversations.List(ctx, staffA, nil)
	require.NoError(t, err)
	assert.Empty(t, listed)
	_, err = h.conversations.Get(ctx, staffA, conv.ID)
	requireCode(t, err, cErr.CONVERSATION_NOT_FOUND)

	assigned, err := h.conversations.Assign(ctx, admin, conv.ID, staffB.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedStaffID)
	assert.Equal(t, staffB.ID, *assigned.AssignedStaffID)

	listed, err = h.conversations.List(ctx, staffB, nil)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, conv.ID, listed[0].ID)

	history, err := h.messages.List(ctx, staffB, conv.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hello?", history[0].Content)

	listed, err = h.conversations.List(ctx, staffA, nil)
	require.NoError(t, err)
	assert.Empty(t, listed)

	all, err := h.conversations.List(ctx, admin, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestConversationListOrderAndStatusFilter(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, core.RoleUser)

	first, err := h.conversations.Create(ctx, owner, "first")
	require.NoError(t, err)
	second, err := h.conversations.Create(ctx, owner, "second")
	require.NoError(t, err)

	listed, err := h.conversations.List(ctx, owner, nil)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, second.ID, listed[0].ID)

	// 新訊息把舊對話推到最前面
	_, err = h.messages.Append(ctx, first.ID, owner, "bump", nil)
	require.NoError(t, err)
	listed, err = h.conversations.List(ctx, owner, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, listed[0].ID)

	archived, err := h.conversations.SetStatus(ctx, owner, second.ID, core.ConversationArchived)
	require.NoError(t, err)
	assert.Equal(t, core.ConversationArchived, archived.Status)

	status := core.ConversationOpen
	open, err := h.conversations.List(ctx, owner, &status)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, first.ID, open[0].ID)

	bad := core.ConversationStatus("closed")
	_, err = h.conversations.List(ctx, owner, &bad)
	requireCode(t, err, cErr.VALIDATION_FAILED)
}

func TestConversationCreateValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, core.RoleUser)

	_, err := h.conversations.Create(ctx, owner, "   ")
	requireCode(t, err, cErr.VALIDATION_FAILED)

	long := make([]rune, maxSubjectLength+1)
	for i := range long {
		long[i] = '字'
	}
	_, err = h.conversations.Create(ctx, owner, string(long))
	requireCode(t, err, cErr.VALIDATION_FAILED)

	_, err = h.conversations.Create(ctx, core.Viewer{}, "anonymous")
	requireCode(t, err, cErr.UNAUTHORIZED)
}

func TestAssignRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, core.RoleUser)
	admin := h.user(t, core.RoleAdmin)
	staff := h.user(t, core.RoleStaff)
	dev := h.user(t, core.RoleDev)
	inactive := h.users.insertRaw(&model.User{Role: core.RoleStaff, Status: core.StatusDisabled})

	conv, err := h.conversations.Create(ctx, owner, "billing")
	require.NoError(t, err)

	_, err = h.conversations.Assign(ctx, staff, conv.ID, staff.ID)
	requireCode(t, err, cErr.FORBIDDEN)
	_, err = h.conversations.Assign(ctx, admin, conv.ID, owner.ID)
	requireCode(t, err, cErr.VALIDATION_FAILED)
	_, err = h.conversations.Assign(ctx, admin, conv.ID, inactive.ID)
	requireCode(t, err, cErr.VALIDATION_FAILED)
	_, err = h.conversations.Assign(ctx, admin, conv.ID, primitive.NewObjectID())
	requireCode(t, err, cErr.USER_NOT_FOUND)
	_, err = h.conversations.Assign(ctx, admin, primitive.NewObjectID(), staff.ID)
	requireCode(t, err, cErr.CONVERSATION_NOT_FOUND)

	assigned, err := h.conversations.Assign(ctx, admin, conv.ID, dev.ID)
	require.NoError(t, err)
	assert.Equal(t, dev.ID, *assigned.AssignedStaffID)

	again, err := h.conversations.Assign(ctx, admin, conv.ID, dev.ID)
	require.NoError(t, err)
	assert.Equal(t, dev.ID, *again.AssignedStaffID)

	unassigned, err := h.conversations.Unassign(ctx, admin, conv.ID)
	require.NoError(t, err)
	assert.Nil(t, unassigned.AssignedStaffID)
}

func TestDeleteConversationRemovesMessages(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, core.RoleUser)
	admin := h.user(t, core.RoleAdmin)

	conv, err := h.conversations.Create(ctx, owner, "old ticket")
	require.NoError(t, err)
	other, err := h.conversations.Create(ctx, owner, "keep me")
	require.NoError(t, err)
	for _, text := range []string{"one", "two", "three"} {
		_, err = h.messages.Append(ctx, conv.ID, owner, text, nil)
		require.NoError(t, err)
	}
	_, err = h.messages.Append(ctx, other.ID, owner, "stay", nil)
	require.NoError(t, err)

	requireCode(t, h.conversations.Delete(ctx, owner, conv.ID), cErr.FORBIDDEN)
	require.NoError(t, h.conversations.Delete(ctx, admin, conv.ID))

	assert.Equal(t, 1, h.msgs.count())
	_, err = h.conversations.Get(ctx, admin, conv.ID)
	requireCode(t, err, cErr.CONVERSATION_NOT_FOUND)
	requireCode(t, h.conversations.Delete(ctx, admin, conv.ID), cErr.CONVERSATION_NOT_FOUND)
}

func TestUnreadCountsExcludeOwnMessages(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, core.RoleUser)
	admin := h.user(t, core.RoleAdmin)
	staff := h.user(t, core.RoleStaff)

	conv, err := h.conversations.Create(ctx, owner, "refund")
	require.NoError(t, err)
	_, err = h.conversations.Assign(ctx, admin, conv.ID, staff.ID)
	require.NoError(t, err)

	_, err = h.messages.Append(ctx, conv.ID, owner, "where is my refund", nil)
	require.NoError(t, err)
	summary, err := h.conversations.Get(ctx, owner, conv.ID)
	require.NoError(t, err)
	assert.Zero(t, summary.UnreadCount)

	_, err = h.messages.Append(ctx, conv.ID, staff, "checking", nil)
	require.NoError(t, err)
	_, err = h.messages.Append(ctx, conv.ID, staff, "sent today", nil)
	require.NoError(t, err)

	listed, err := h.conversations.List(ctx, owner, nil)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.EqualValues(t, 2, listed[0].UnreadCount)

	listed, err = h.conversations.List(ctx, staff, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, listed[0].UnreadCount)
}

func TestReleaseInactiveStaffAssignments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, core.RoleUser)
	admin := h.user(t, core.RoleAdmin)
	staff := h.user(t, core.RoleStaff)
	keeper := h.user(t, core.RoleStaff)

	gone, err := h.conversations.Create(ctx, owner, "a")
	require.NoError(t, err)
	kept, err := h.conversations.Create(ctx, owner, "b")
	require.NoError(t, err)
	_, err = h.conversations.Assign(ctx, admin, gone.ID, staff.ID)
	require.NoError(t, err)
	_, err = h.conversations.Assign(ctx, admin, kept.ID, keeper.ID)
	require.NoError(t, err)

	// 直接改狀態，模擬漏掉的釋放
	_, err = h.users.UpdateStatus(ctx, staff.ID, core.StatusDisabled)
	require.NoError(t, err)

	released, err := h.conversations.ReleaseInactiveStaffAssignments(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, released)

	stored, err := h.convs.GetByID(ctx, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, keeper.ID, *stored.AssignedStaffID)

	released, err = h.conversations.ReleaseInactiveStaffAssignments(ctx)
	require.NoError(t, err)
	assert.Zero(t, released)
}

func TestReleaseSweepCoversDemotedAndDeletedAssignees(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, core.RoleUser)
	admin := h.user(t, core.RoleAdmin)
	demoted := h.user(t, core.RoleStaff)
	promoted := h.user(t, core.RoleDev)
	keeper := h.user(t, core.RoleStaff)

	assign := func(subject string, staffID primitive.ObjectID) primitive.ObjectID {
		conversation, err := h.conversations.Create(ctx, owner, subject)
		require.NoError(t, err)
		_, err = h.conversations.Assign(ctx, admin, conversation.ID, staffID)
		require.NoError(t, err)
		return conversation.ID
	}
	toUser := assign("demoted", demoted.ID)
	toAdmin := assign("promoted", promoted.ID)
	kept := assign("kept", keeper.ID)

	// 直接改角色，模擬 UpdateRole 當下釋放失敗
	_, err := h.users.UpdateRole(ctx, demoted.ID, core.RoleUser)
	require.NoError(t, err)
	_, err = h.users.UpdateRole(ctx, promoted.ID, core.RoleAdmin)
	require.NoError(t, err)
	// 使用者資料已不存在的指派
	orphan := assign("orphan", keeper.ID)
	ghost := primitive.NewObjectID()
	h.convs.mu.Lock()
	h.convs.conversations[orphan].AssignedStaffID = &ghost
	h.convs.mu.Unlock()

	released, err := h.conversations.ReleaseInactiveStaffAssignments(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, released)

	for _, id := range []primitive.ObjectID{toUser, toAdmin, orphan} {
		stored, err := h.convs.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, stored.AssignedStaffID)
	}
	stored, err := h.convs.GetByID(ctx, kept)
	require.NoError(t, err)
	require.NotNil(t, stored.AssignedStaffID)
	assert.Equal(t, keeper.ID, *stored.AssignedStaffID)
}

func TestUserServiceStatusAndRoleReleaseAssignments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.user(t, core.RoleUser)
	admin := h.user(t, core.RoleAdmin)
	staff := h.user(t, core.RoleStaff)
	dev := h.user(t, core.RoleDev)

	first, err := h.conversations.Create(ctx, owner, "a")
	require.NoError(t, err)
	second, err := h.conversations.Create(ctx, owner, "b")
	require.NoError(t, err)
	_, err = h.conversations.Assign(ctx, admin, first.ID, staff.ID)
	require.NoError(t, err)
	_, err = h.conversations.Assign(ctx, admin, second.ID, dev.ID)
	require.NoError(t, err)

	disabled, err := h.userService.UpdateStatus(ctx, staff.ID, core.StatusDisabled)
	require.NoError(t, err)
	assert.Equal(t, core.StatusDisabled, disabled.Status)
	stored, err := h.convs.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AssignedStaffID)

	demoted, err := h.userService.UpdateRole(ctx, dev.ID, core.RoleUser)
	require.NoError(t, err)
	assert.Equal(t, core.RoleUser, demoted.Role)
	stored, err = h.convs.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AssignedStaffID)

	assert.True(t, h.userService.UpdateLastSeen(ctx, owner.ID, h.clock.Now()))
	seen, err := h.userService.Get(ctx, owner.ID)
	require.NoError(t, err)
	assert.NotNil(t, seen.LastSeen)
}
