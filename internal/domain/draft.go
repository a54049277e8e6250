package domain

import "time"

// DraftStatus is the local submission state machine:
// draft -> submitting -> submitted | submit_failed, plus abandoned.
type DraftStatus string

const (
	DraftStatusDraft        DraftStatus = "draft"
	DraftStatusSubmitting   DraftStatus = "submitting"
	DraftStatusSubmitted    DraftStatus = "submitted"
	DraftStatusSubmitFailed DraftStatus = "submit_failed"
	DraftStatusAbandoned    DraftStatus = "abandoned"
)

// Terminal reports whether no further submission transitions are allowed.
func (s DraftStatus) Terminal() bool {
	return s == DraftStatusSubmitted || s == DraftStatusAbandoned
}

// AdDraft is a locally staged ad prior to submission to an ad platform.
// RemoteDraftID and RemoteAdID are only set when the corresponding remote
// calls actually succeeded.
type AdDraft struct {
	ID            string            `json:"id"`
	ShopID        string            `json:"shop_id"`
	Provider      Provider          `json:"provider"`
	ProductID     string            `json:"product_id,omitempty"`
	Title         string            `json:"title"`
	PrimaryText   string            `json:"primary_text,omitempty"`
	Description   string            `json:"description,omitempty"`
	ImageURLs     []string          `json:"image_urls,omitempty"`
	AdAccountID   string            `json:"ad_account_id"`
	CampaignID    string            `json:"campaign_id,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Status        DraftStatus       `json:"status"`
	RemoteDraftID string            `json:"remote_draft_id,omitempty"`
	RemoteAdID    string            `json:"remote_ad_id,omitempty"`
	SubmitError   string            `json:"submit_error,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// SavedAd is library content: generated ad copy kept independently of any
// platform submission. Its status is editorial, not a submission state.
type SavedAd struct {
	ID        string    `json:"id"`
	ShopID    string    `json:"shop_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	Status    string    `json:"status"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	SavedAdStatusActive   = "active"
	SavedAdStatusArchived = "archived"
)

// BestPractice is an uploaded resource (guide, template). The file itself
// lives in object storage; only its URL and metadata are kept here.
type BestPractice struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category,omitempty"`
	Content   string    `json:"content,omitempty"`
	FileURL   string    `json:"file_url,omitempty"`
	FileName  string    `json:"file_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OperationOutcome records the result of one secondary write (metafield,
// variant, image) so partial failures are reported instead of swallowed.
type OperationOutcome struct {
	Operation string `json:"operation"`
	Target    string `json:"target,omitempty"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}
