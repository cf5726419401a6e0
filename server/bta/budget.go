package bta

import (
	"context"
	"time"
)

// BudgetLine is a single classified line of the active budget: one
// (file, category, subcategory, month) cell with its amount and the
// status classification assigned on the dashboard.
//
// AllocatedAmount is the amount committed when the line was classified,
// nil for lines that were never classified.
type BudgetLine struct {
	ID              uint      `json:"id" db:"id"`
	FileName        string    `json:"file_name" db:"file_name"`
	Category        string    `json:"category" db:"category"`
	Subcategory     string    `json:"subcategory" db:"subcategory"`
	Month           string    `json:"month" db:"month"`
	Amount          float64   `json:"amount" db:"amount"`
	AllocatedAmount *float64  `json:"allocated_amount" db:"allocated_amount"`
	StatusCategory  *string   `json:"status_category" db:"status_category"`
	UpdatedBy       string    `json:"updated_by" db:"updated_by"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// UploadedFile is the metadata record for a budget spreadsheet uploaded to
// the shared drive.
type UploadedFile struct {
	ID            uint      `json:"id" db:"id"`
	FileName      string    `json:"file_name" db:"file_name"`
	FileType      string    `json:"file_type" db:"file_type"`
	UploaderEmail string    `json:"uploader_email" db:"uploader_email"`
	UploadDate    time.Time `json:"upload_date" db:"upload_date"`
	FileURL       string    `json:"file_url" db:"file_url"`
}

// StatusCategory is one of the builtin classification buckets shown on the
// budget health summary.
type StatusCategory struct {
	ID        uint   `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	SortOrder int    `json:"sort_order" db:"sort_order"`
}

// LoginActivity records a login related event for the audit log.
type LoginActivity struct {
	ID           uint      `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	ActivityType string    `json:"activity_type" db:"activity_type"`
	IPAddress    string    `json:"ip_address" db:"ip_address"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// BudgetStore manages budget lines, uploaded files and the active budget
// selection.
type BudgetStore interface {
	// ListBudgetLines returns the saved classification state for a budget file.
	ListBudgetLines(ctx context.Context, fileName string) ([]*BudgetLine, error)
	// ApplyBudgetLines upserts the given lines (insert new cells, update
	// amount/status of existing ones).
	ApplyBudgetLines(ctx context.Context, lines []*BudgetLine, updatedBy string) error
	ListStatusCategories(ctx context.Context) ([]*StatusCategory, error)

	NewUploadedFile(ctx context.Context, file *UploadedFile) (*UploadedFile, error)
	DeleteUploadedFile(ctx context.Context, fileName string) error
	ListUploadedFiles(ctx context.Context, opt ListOptions) ([]*UploadedFile, error)

	// SetActiveBudget marks fileName as the budget the dashboards read from.
	// The active_budget table holds at most one row; extra rows are cleared.
	SetActiveBudget(ctx context.Context, fileName string) error
	ClearActiveBudget(ctx context.Context) error
	// ActiveBudget returns the active budget file name, or "" if none is set.
	ActiveBudget(ctx context.Context) (string, error)
	// ActiveBudgetMetadata returns the uploadedfiles record for the active
	// budget.
	ActiveBudgetMetadata(ctx context.Context) (*UploadedFile, error)
}
