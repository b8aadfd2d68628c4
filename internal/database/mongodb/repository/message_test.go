package repository

import (
	"testing"

	"supportdesk/internal/core"
	"supportdesk/internal/database/mongodb/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNormalizeSender(t *testing.T) {
	first := "Ada"
	senderID := primitive.NewObjectID()
	row := messageWithSenderRow{
		Message: model.Message{ID: primitive.NewObjectID(), SenderID: senderID, Content: "hi"},
		Sender:  []model.SenderProfile{{ID: senderID, FirstName: &first, Role: core.RoleStaff}},
	}

	view := normalizeSender(row)
	require.NotNil(t, view.Sender)
	assert.Equal(t, "Ada", view.Sender.DisplayName())
	assert.Equal(t, "hi", view.Content)

	orphan := normalizeSender(messageWithSenderRow{Message: model.Message{ID: primitive.NewObjectID()}})
	assert.Nil(t, orphan.Sender)
}

func TestIDInNeverNil(t *testing.T) {
	assert.Equal(t, []primitive.ObjectID{}, idIn(nil)["$in"])
}
