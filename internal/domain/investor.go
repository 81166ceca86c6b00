package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StageNames is the fixed pipeline ladder. Investor.CurrentStep indexes it.
var StageNames = [...]string{
	"Initial Contact",
	"Qualification",
	"Meeting",
	"Due Diligence",
	"Term Sheet",
	"Final Review",
	"Closing",
}

const (
	FirstStage = 0
	FinalStage = len(StageNames) - 1
)

// Investor status values
const (
	StatusActive = "active"
	StatusPaused = "paused"
	StatusClosed = "closed"
)

// Investor importance values
const (
	ImportanceLow    = "low"
	ImportanceMedium = "medium"
	ImportanceHigh   = "high"
)

// StageName returns the display name for a step index, or "" when out of range.
func StageName(step int) string {
	if step < FirstStage || step > FinalStage {
		return ""
	}
	return StageNames[step]
}

// ValidStatus reports whether s is one of the investor status values.
func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusPaused || s == StatusClosed
}

// ValidImportance reports whether s is one of the importance values.
func ValidImportance(s string) bool {
	return s == ImportanceLow || s == ImportanceMedium || s == ImportanceHigh
}

// Comment is a timeline note attached to one investor record.
type Comment struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentList is the ordered comment array, stored as a JSON text column.
type CommentList []Comment

// Value implements driver.Valuer
func (l CommentList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *CommentList) Scan(value interface{}) error {
	if value == nil {
		*l = CommentList{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into CommentList", value)
	}
	if len(b) == 0 {
		*l = CommentList{}
		return nil
	}
	return json.Unmarshal(b, l)
}

// NextID returns the id for a comment added at nowMillis (unix milliseconds),
// bumped past any existing id so two adds in the same millisecond cannot
// collide.
func (l CommentList) NextID(nowMillis int64) int64 {
	id := nowMillis
	for _, c := range l {
		if c.ID >= id {
			id = c.ID + 1
		}
	}
	return id
}

// StringList is a string array stored as a JSON text column.
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}
	if len(b) == 0 {
		*l = StringList{}
		return nil
	}
	return json.Unmarshal(b, l)
}

// Investor represents an investor relationship owned by a single user
type Investor struct {
	ID               string           `gorm:"primaryKey;size:36" json:"id"`
	UserID           uint             `gorm:"index;not null" json:"-"`
	Name             string           `gorm:"not null" json:"name"`
	Company          *string          `json:"company"`
	Email            *string          `json:"email"`
	Phone            *string          `json:"phone"`
	Website          *string          `json:"website"`
	CurrentStep      int              `gorm:"default:0" json:"current_step"`
	Status           string           `gorm:"default:'active'" json:"status"`     // active, paused, closed
	Importance       string           `gorm:"default:'medium'" json:"importance"` // low, medium, high
	InvestmentAmount *decimal.Decimal `gorm:"type:decimal(15,2)" json:"investment_amount"`
	FundSize         *decimal.Decimal `gorm:"type:decimal(15,2)" json:"fund_size"`
	Notes            *string          `gorm:"type:text" json:"notes"`
	Comments         CommentList      `gorm:"type:text" json:"comments"`
	AISummary        *string          `gorm:"type:text" json:"ai_summary"`
	FitScore         *int             `json:"fit_score"`
	Insight          *string          `gorm:"type:text" json:"insight"`
	PortfolioFocus   StringList       `gorm:"type:text" json:"portfolio_focus"`
	Likelihood       *int             `json:"likelihood"`
	SuggestedActions StringList       `gorm:"type:text" json:"suggested_actions"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// TableName specifies the table name for Investor
func (Investor) TableName() string {
	return "investors"
}

// BeforeCreate hook
func (i *Investor) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	now := time.Now()
	i.CreatedAt = now
	i.UpdatedAt = now
	if i.Status == "" {
		i.Status = StatusActive
	}
	if i.Importance == "" {
		i.Importance = ImportanceMedium
	}
	if i.Comments == nil {
		i.Comments = CommentList{}
	}
	return nil
}

// BeforeUpdate hook
func (i *Investor) BeforeUpdate(tx *gorm.DB) error {
	i.UpdatedAt = time.Now()
	return nil
}

// AtFinalStage reports whether the record has reached the last pipeline stage.
func (i *Investor) AtFinalStage() bool {
	return i.CurrentStep == FinalStage
}

// AmountOrZero returns the investment amount, treating unset as zero. Sorting
// and reporting compare amounts this way.
func (i *Investor) AmountOrZero() decimal.Decimal {
	if i.InvestmentAmount == nil {
		return decimal.Zero
	}
	return *i.InvestmentAmount
}
