package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

const (
	InsightAlert      InsightType = "alert"
	InsightPositive   InsightType = "positive"
	InsightSuggestion InsightType = "suggestion"
)

type (
	TransactionType string

	Period string

	InsightType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          string          `json:"id"`
		UserID      string          `json:"userId"`
		Type        TransactionType `json:"type"`
		Amount      Money           `json:"amount"`
		Category    string          `json:"category"`
		Description string          `json:"description,omitempty"`
		Date        Date            `json:"date"`
		CreatedAt   time.Time       `json:"createdAt"`
	}

	Budget struct {
		ID       string `json:"id"`
		UserID   string `json:"userId"`
		Category string `json:"category"`
		Amount   Money  `json:"amount"`
		Period   Period `json:"period"`
	}

	Goal struct {
		ID            string    `json:"id"`
		UserID        string    `json:"userId"`
		Name          string    `json:"name"`
		TargetAmount  Money     `json:"targetAmount"`
		CurrentAmount Money     `json:"currentAmount"`
		TargetDate    Date      `json:"targetDate"`
		Description   string    `json:"description,omitempty"`
		CreatedAt     time.Time `json:"createdAt"`
	}

	// InsightItem is a single observation shown on the dashboard. Icon is a
	// plain tag resolved to a component by the presentation layer.
	InsightItem struct {
		Type    InsightType `json:"type"`
		Message string      `json:"message"`
		Icon    string      `json:"icon"`
	}

	InsightRecord struct {
		ID        string        `json:"id"`
		UserID    string        `json:"userId"`
		Items     []InsightItem `json:"insights"`
		CreatedAt time.Time     `json:"createdAt"`
	}

	// Preferences holds the named notification toggles from the settings page.
	Preferences struct {
		EmailNotifications bool `json:"emailNotifications"`
		BudgetAlerts       bool `json:"budgetAlerts"`
		SavingsReminders   bool `json:"savingsReminders"`
		WeeklyReports      bool `json:"weeklyReports"`
		SecurityAlerts     bool `json:"securityAlerts"`
	}

	User struct {
		ID          string      `json:"id"`
		Name        string      `json:"name"`
		Email       string      `json:"email"`
		Preferences Preferences `json:"preferences"`
		CreatedAt   time.Time   `json:"createdAt"`
	}

	// Notification is a recorded alert, e.g. a budget limit being crossed.
	Notification struct {
		ID        string    `json:"id"`
		UserID    string    `json:"userId"`
		Category  string    `json:"category"`
		Message   string    `json:"message"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidPeriod   = errors.New("invalid budget period")
	ErrEmptyCategory   = errors.New("empty category")
	ErrEmptyName       = errors.New("empty name")
	ErrInvalidDate     = errors.New("invalid date")
	ErrNegativeAmount  = errors.New("negative amount")
	ErrDescriptionSize = errors.New("description too long (max 200 characters)")
)

// DefaultPreferences are assigned at registration time.
func DefaultPreferences() Preferences {
	return Preferences{
		EmailNotifications: false,
		BudgetAlerts:       true,
		SavingsReminders:   true,
		WeeklyReports:      false,
		SecurityAlerts:     true,
	}
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (p Period) Valid() bool {
	return p == Weekly || p == Monthly || p == Yearly
}

func (it InsightType) Valid() bool {
	return it == InsightAlert || it == InsightPositive || it == InsightSuggestion
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a calendar date in 2006-01-02 form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (t Transaction) Validate() error {
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if len(t.Description) > 200 {
		return ErrDescriptionSize
	}
	return t.Date.Validate()
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.TargetAmount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if g.CurrentAmount.Cents < 0 {
		return ErrNegativeAmount
	}
	if len(g.Description) > 200 {
		return ErrDescriptionSize
	}
	return g.TargetDate.Validate()
}
