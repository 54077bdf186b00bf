package overrides

import "time"

// TableName is the table overrides are stored in.
const TableName = "rc_overrides"

// MaxKeyLength is the width of the name column.
const MaxKeyLength = 128

// Override is one rc.conf variable set by the administrator.
type Override struct {
	Name      string    `gorm:"primaryKey;column:name;type:varchar(128)" json:"key"`
	Value     string    `gorm:"column:value;type:text;not null" json:"value"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Override) TableName() string {
	return TableName
}
