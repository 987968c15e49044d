package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// SubmitTicketRequest payload.
type SubmitTicketRequest struct {
	Query         string                `json:"query"`
	Priority      domain.TicketPriority `json:"priority"`
	HasFollowUp   bool                  `json:"has_follow_up"`
	FollowUpQuery string                `json:"follow_up_query"`
	Attachments   []AttachmentRequest   `json:"attachments"`
}

// AttachmentRequest describes attachment input. The file itself is uploaded
// to external storage beforehand; ContentRef points at it.
type AttachmentRequest struct {
	FileName   string `json:"file_name"`
	FileType   string `json:"file_type"`
	ContentRef string `json:"content_ref"`
}

// AddAttachmentsRequest payload.
type AddAttachmentsRequest struct {
	Attachments []AttachmentRequest `json:"attachments"`
}

// FollowUpRequest payload.
type FollowUpRequest struct {
	Text string `json:"text"`
}

// ResponseRequest is a staff reply. Either field may be empty, not both.
type ResponseRequest struct {
	Text   string              `json:"text"`
	Status domain.TicketStatus `json:"status"`
}

// EscalateRequest payload. An empty target lets the service resolve it.
type EscalateRequest struct {
	TargetPSN domain.PSN `json:"target_psn"`
	Note      string     `json:"note"`
}

// SuggestionRequest carries a draft query.
type SuggestionRequest struct {
	Query string `json:"query"`
}

// SuggestionResponse lists proposed steps.
type SuggestionResponse struct {
	Steps []string `json:"steps"`
}

// TicketSummary response.
type TicketSummary struct {
	ID                   string                `json:"id"`
	EmployeePSN          domain.PSN            `json:"employee_psn"`
	EmployeeName         string                `json:"employee_name"`
	QueryPreview         string                `json:"query_preview"`
	Priority             domain.TicketPriority `json:"priority"`
	Status               domain.TicketStatus   `json:"status"`
	ProjectID            string                `json:"project_id"`
	CurrentAssigneePSN   domain.PSN            `json:"current_assignee_psn"`
	EscalatedToPSN       domain.PSN            `json:"escalated_to_psn,omitempty"`
	HasFollowUp          bool                  `json:"has_follow_up"`
	DateOfQuery          time.Time             `json:"date_of_query"`
	LastStatusUpdateDate time.Time             `json:"last_status_update_date"`
}

// TicketDetailResponse provides full ticket info.
type TicketDetailResponse struct {
	TicketSummary
	Query           string                  `json:"query"`
	FollowUpQuery   string                  `json:"follow_up_query,omitempty"`
	ActionPerformed []ActionEntryResponse   `json:"action_performed"`
	DateOfResponse  *time.Time              `json:"date_of_response"`
	Attachments     []AttachmentResponse    `json:"attachments"`
	History         []TicketHistoryResponse `json:"history,omitempty"`
}

// ActionEntryResponse is one action log line.
type ActionEntryResponse struct {
	Seq       int         `json:"seq"`
	At        time.Time   `json:"at"`
	ActorPSN  domain.PSN  `json:"actor_psn"`
	ActorRole domain.Role `json:"actor_role"`
	Text      string      `json:"text"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	FileType   string    `json:"file_type"`
	ContentRef string    `json:"content_ref"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// TicketHistoryResponse is an audit entry.
type TicketHistoryResponse struct {
	ID            string                  `json:"id"`
	ChangeType    domain.TicketChangeType `json:"change_type"`
	ChangedByPSN  domain.PSN              `json:"changed_by_psn"`
	ChangedByRole domain.Role             `json:"changed_by_role"`
	OldValue      map[string]any          `json:"old_value,omitempty"`
	NewValue      map[string]any          `json:"new_value,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

// TicketPageResponse is a page of a staff queue.
type TicketPageResponse struct {
	Items    []TicketSummary `json:"items"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Total    int             `json:"total"`
}

// DashboardResponse summarizes a staff member's scope.
type DashboardResponse struct {
	PSN         domain.PSN                  `json:"psn"`
	Name        string                      `json:"name"`
	Role        domain.Role                 `json:"role"`
	ActingRoles []domain.Role               `json:"acting_roles"`
	Total       int                         `json:"total"`
	Pending     int                         `json:"pending"`
	Resolved    int                         `json:"resolved"`
	ByStatus    map[domain.TicketStatus]int `json:"by_status"`
}
