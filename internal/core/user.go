package core

import "go.mongodb.org/mongo-driver/bson/primitive"

type Role string

const (
	RoleAdmin Role = "admin" // 管理員：看得到所有對話，可指派客服
	RoleStaff Role = "staff" // 客服：只看得到指派給自己的對話
	RoleDev   Role = "dev"   // 開發人員：權限同客服
	RoleUser  Role = "user"  // 一般客戶：只看得到自己開的對話
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleDev, RoleUser:
		return true
	}
	return false
}

// IsStaff staff 與 dev 可以被指派對話
func (r Role) IsStaff() bool {
	return r == RoleStaff || r == RoleDev
}

type Status string

const (
	StatusActive   Status = "active"   // 正常可用
	StatusDisabled Status = "disabled" // 停用（不可登入，也不可被指派）
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusDisabled
}

// Identity 身分提供者給的外部身分
type Identity struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
	AvatarURL  string
}

// Viewer 發出請求的本地使用者
type Viewer struct {
	ID   primitive.ObjectID
	Role Role
}

type UserQuery struct {
	Role   *Role
	Status *Status
	Page   int64
	Size   int64
}
