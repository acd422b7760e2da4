package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category groups campaigns by cause.
type Category string

const (
	CategoryEducation   Category = "education"
	CategoryHealth      Category = "health"
	CategoryDisaster    Category = "disaster"
	CategoryPoverty     Category = "poverty"
	CategoryEnvironment Category = "environment"
	CategoryOther       Category = "other"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryEducation, CategoryHealth, CategoryDisaster, CategoryPoverty, CategoryEnvironment, CategoryOther:
		return true
	}
	return false
}

// CampaignStatus represents the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusCompleted CampaignStatus = "completed"
	CampaignStatusCancelled CampaignStatus = "cancelled"
)

// Valid reports whether s is a known campaign status.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignStatusActive, CampaignStatusCompleted, CampaignStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a campaign in status s may move to next.
// Only active campaigns change status; completed and cancelled are final.
func (s CampaignStatus) CanTransitionTo(next CampaignStatus) bool {
	if s == next {
		return true
	}
	return s == CampaignStatusActive && next.Valid()
}

// Campaign is a fundraising campaign, either created through the API or
// restored from the on-chain contract.
type Campaign struct {
	ID               uint            `json:"id" gorm:"primaryKey"`
	Title            string          `json:"title" gorm:"size:255;not null"`
	Description      string          `json:"description" gorm:"type:text;not null"`
	Image            string          `json:"image" gorm:"type:text"`
	GoalAmount       decimal.Decimal `json:"goalAmount" gorm:"type:decimal(15,2);not null"`
	CurrentAmount    decimal.Decimal `json:"currentAmount" gorm:"type:decimal(15,2);not null;default:0"`
	CreatorID        uint            `json:"creatorId" gorm:"not null;index"`
	Category         Category        `json:"category" gorm:"type:varchar(20);not null;default:'other';index"`
	Status           CampaignStatus  `json:"status" gorm:"type:varchar(20);not null;default:'active';index"`
	StartDate        time.Time       `json:"startDate"`
	EndDate          time.Time       `json:"endDate" gorm:"not null"`
	BlockchainTxHash string          `json:"blockchainTxHash" gorm:"size:128;default:''"`
	ContractAddress  string          `json:"contractAddress" gorm:"size:64;default:''"`
	OnChainID        *uint64         `json:"onChainId" gorm:"uniqueIndex"`
	CreatedAt        time.Time       `json:"createdAt" gorm:"index"`
	UpdatedAt        time.Time       `json:"updatedAt"`

	// Relations
	Creator   *User      `json:"creator,omitempty" gorm:"foreignKey:CreatorID;constraint:OnDelete:CASCADE"`
	Donations []Donation `json:"donations,omitempty" gorm:"foreignKey:CampaignID"`
}

// GoalReached reports whether the raised amount covers the goal.
func (c *Campaign) GoalReached() bool {
	return c.CurrentAmount.GreaterThanOrEqual(c.GoalAmount)
}
