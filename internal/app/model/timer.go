package model

import (
	"time"

	"gorm.io/datatypes"
)

// Timer describes a promotional countdown bound to one store and one product.
// StartTime and EndTime are absolute UTC instants; Active is a merchant
// kill switch that is independent of the time window.
type Timer struct {
	ID             string            `json:"id" gorm:"primaryKey;size:36"`
	StoreDomain    string            `json:"storeDomain" gorm:"size:255;not null;index:idx_timers_store_product,priority:1"`
	ProductID      string            `json:"productId" gorm:"size:64;not null;index:idx_timers_store_product,priority:2"`
	StartTime      time.Time         `json:"startTime" gorm:"not null"`
	EndTime        time.Time         `json:"endTime" gorm:"not null;index"`
	Message        string            `json:"message" gorm:"type:text;not null;default:''"`
	Styles         datatypes.JSONMap `json:"styles" gorm:"type:jsonb"`
	UrgencyMinutes int               `json:"urgencyMinutes" gorm:"not null;default:5"`
	Active         bool              `json:"active" gorm:"not null;default:true;index"`
	Metadata       datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`
	CreatedAt      time.Time         `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt      time.Time         `json:"updatedAt" gorm:"autoUpdateTime"`
}

// DefaultUrgencyMinutes is applied when a create payload omits urgencyMinutes.
const DefaultUrgencyMinutes = 5
