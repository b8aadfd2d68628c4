package service

import (
	"bytes"
	"sort"

	"supportdesk/internal/database/mongodb/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ThreadView 單一對話在訂閱端的畫面狀態：依 createdAt 排序且同一則訊息只出現一次。
// 非並行安全，由持有的連線自行序列化
type ThreadView struct {
	messages []*model.MessageView
	seen     map[primitive.ObjectID]struct{}
}

func NewThreadView() *ThreadView {
	return &ThreadView{seen: make(map[primitive.ObjectID]struct{})}
}

// Reset 以完整列表重建，重新連線或緩衝溢出後使用
func (v *ThreadView) Reset(messages []*model.MessageView) {
	v.messages = v.messages[:0]
	v.seen = make(map[primitive.ObjectID]struct{}, len(messages))
	for _, m := range messages {
		v.Add(m)
	}
}

// Add 已經看過的訊息回傳 false
func (v *ThreadView) Add(message *model.MessageView) bool {
	if message == nil {
		return false
	}
	if _, ok := v.seen[message.ID]; ok {
		return false
	}
	v.seen[message.ID] = struct{}{}

	i := sort.Search(len(v.messages), func(i int) bool {
		return after(v.messages[i], message)
	})
	v.messages = append(v.messages, nil)
	copy(v.messages[i+1:], v.messages[i:])
	v.messages[i] = message
	return true
}

func (v *ThreadView) Has(id primitive.ObjectID) bool {
	_, ok := v.seen[id]
	return ok
}

func (v *ThreadView) Messages() []*model.MessageView {
	out := make([]*model.MessageView, len(v.messages))
	copy(out, v.messages)
	return out
}

func (v *ThreadView) Len() int {
	return len(v.messages)
}

// after a 是否排在 b 後面
func after(a, b *model.MessageView) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) > 0
}
