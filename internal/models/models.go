package models

import "time"

// ReadingStatus tracks where a reader is with a book in their library
type ReadingStatus string

const (
	StatusUnread  ReadingStatus = "unread"
	StatusReading ReadingStatus = "reading"
	StatusRead    ReadingStatus = "read"
)

// Valid reports whether s is one of the known statuses
func (s ReadingStatus) Valid() bool {
	switch s {
	case StatusUnread, StatusReading, StatusRead:
		return true
	}
	return false
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Book is a single title, either stored in a user's library or returned by an analysis
type Book struct {
	ID                   int64         `json:"id,omitempty" yaml:"id,omitempty"`
	Title                string        `json:"title" yaml:"title" validate:"required,max=500"`
	Author               string        `json:"author" yaml:"author" validate:"max=300"`
	Description          string        `json:"description,omitempty" yaml:"description,omitempty"`
	Genre                string        `json:"genre,omitempty" yaml:"genre,omitempty"`
	RecommendationReason string        `json:"recommendationReason,omitempty" yaml:"recommendation_reason,omitempty"`
	Rating               int           `json:"rating" yaml:"rating" validate:"min=0,max=5"`
	Status               ReadingStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Thumbnail            string        `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	PublicationYear      string        `json:"publicationYear,omitempty" yaml:"publication_year,omitempty"`
	CreatedAt            time.Time     `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
}

// BookPatch holds the fields a client may change on a stored book.
// Nil fields are left untouched.
type BookPatch struct {
	Rating      *int           `json:"rating,omitempty" validate:"omitempty,min=0,max=5"`
	Status      *ReadingStatus `json:"status,omitempty"`
	Description *string        `json:"description,omitempty"`
}

// Empty reports whether the patch changes nothing
func (p BookPatch) Empty() bool {
	return p.Rating == nil && p.Status == nil && p.Description == nil
}

// User is an account holder
type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	PhotoURL     string     `json:"photoUrl,omitempty"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastSeenAt   *time.Time `json:"lastSeenAt,omitempty"`
}

// IsAdmin reports whether the user holds the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// RecommendationResponse is the outcome of a bookshelf analysis
type RecommendationResponse struct {
	IdentifiedBooks    []Book `json:"identifiedBooks"`
	Recommendations    []Book `json:"recommendations"`
	UserProfileSummary string `json:"userProfileSummary"`
	NoMatchesFound     bool   `json:"noMatchesFound"`
	Error              string `json:"error,omitempty"`
	RawContent         string `json:"raw_content,omitempty"`
}

// Failed reports whether the response carries a provider or parse error
func (r *RecommendationResponse) Failed() bool {
	return r.Error != ""
}

// AnalyzeRequest is a bookshelf photo plus the genre filter
type AnalyzeRequest struct {
	Image        string   `json:"image" validate:"required"`
	Genres       []string `json:"genres" validate:"required,min=1,dive,required"`
	FeelingLucky bool     `json:"feelingLucky"`
}

// CompareRequest asks for the thematic connection between two books
type CompareRequest struct {
	BookA Book `json:"bookA" validate:"required"`
	BookB Book `json:"bookB" validate:"required"`
}

// GroupCount is one row of an aggregate statistic
type GroupCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// GeneralStats summarizes the user base
type GeneralStats struct {
	TotalUsers  int `json:"total_users"`
	TotalAdmins int `json:"total_admins"`
	ActiveNow   int `json:"active_now"`
}

// BookStats summarizes what readers keep in their libraries
type BookStats struct {
	TopGenres   []GroupCount `json:"topGenres"`
	TopAuthors  []GroupCount `json:"topAuthors"`
	BooksByYear []GroupCount `json:"booksByYear"`
	TopBooks    []GroupCount `json:"topBooks"`
}

// RegisterRequest creates an account. Role cannot be chosen here.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email,max=320"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest exchanges credentials for a session token
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is returned after a successful register or login
type Session struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ProfileUpdate changes how a user presents themselves
type ProfileUpdate struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	PhotoURL *string `json:"photoUrl,omitempty" validate:"omitempty,max=2048"`
}
