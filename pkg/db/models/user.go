package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/qanzmarket/qanz-backend/pkg/enums"
)

// User is the minimal identity row the domain references. Credential
// handling lives in the external identity layer; the core only consumes
// a resolved (user id, role) pair.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	Phone     string         `gorm:"column:phone;not null"`
	Role      enums.UserRole `gorm:"column:role;type:user_role_enum;not null"`
	Active    bool           `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
