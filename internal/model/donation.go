package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DonationStatus represents the status of a recorded donation.
type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusConfirmed DonationStatus = "confirmed"
	DonationStatusFailed    DonationStatus = "failed"
)

// Donation records a contribution made through an on-chain transaction.
// TxHash is unique so the same transaction is never recorded twice.
type Donation struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	CampaignID  uint            `json:"campaignId" gorm:"not null;index"`
	DonorID     uint            `json:"donorId" gorm:"not null;index"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(15,2);not null"`
	Message     string          `json:"message" gorm:"type:text"`
	TxHash      string          `json:"txHash" gorm:"size:128;not null;uniqueIndex"`
	BlockNumber *uint64         `json:"blockNumber"`
	Status      DonationStatus  `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	CreatedAt   time.Time       `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time       `json:"updatedAt"`

	// Relations
	Campaign *Campaign `json:"campaign,omitempty" gorm:"foreignKey:CampaignID;constraint:OnDelete:CASCADE"`
	Donor    *User     `json:"donor,omitempty" gorm:"foreignKey:DonorID;constraint:OnDelete:CASCADE"`
}
