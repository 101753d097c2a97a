package db

import (
	"time"

	"github.com/google/uuid"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"

	// DefaultRating is the rating every profile starts with.
	DefaultRating = 1000.0
)

// Message statuses.
const (
	StatusSent      = "SENT"
	StatusDelivered = "DELIVERED"
	StatusRead      = "READ"
	StatusDeleted   = "DELETED"
)

// NewID returns a fresh random identifier.
func NewID() string { return uuid.NewString() }

// User is the auth collaborator's account row. Only seeded here.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:128;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Active       bool      `gorm:"not null" json:"active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// Profile is the questionnaire shown to other users.
//
// Indexes:
//   - idx_profile_pool(city, gender, visible) narrows the candidate pool.
//   - idx_profile_rating(rating) backs the above/below partitions.
//
// Rating and DailyQuota are the only columns this service writes after creation.
type Profile struct {
	UserID     string    `gorm:"primaryKey;size:36" json:"userId"`
	FirstName  string    `gorm:"size:64;not null" json:"firstName"`
	City       string    `gorm:"size:64;not null;index:idx_profile_pool,priority:1" json:"city"`
	Gender     string    `gorm:"size:16;not null;index:idx_profile_pool,priority:2" json:"gender"`
	Visible    bool      `gorm:"not null;index:idx_profile_pool,priority:3" json:"visible"`
	Rating     float64   `gorm:"not null;default:1000;index:idx_profile_rating" json:"rating"`
	DailyQuota int       `gorm:"not null;default:0" json:"-"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"-"`
}

// Preference records a like (Liked=true) or skip of TargetID by LikerID.
//
// Composite PK: (LikerID, TargetID)
//   - A repeated action overwrites the row.
//
// Indexes:
//   - idx_target_liked_updated(target_id, liked, updated_at DESC) serves "who liked me".
//   - idx_liked_updated(liked, updated_at) serves the stale skip purge.
type Preference struct {
	LikerID   string    `gorm:"primaryKey;size:36" json:"likerId"`
	TargetID  string    `gorm:"primaryKey;size:36;index:idx_target_liked_updated,priority:1" json:"targetId"`
	Liked     bool      `gorm:"not null;index:idx_target_liked_updated,priority:2;index:idx_liked_updated,priority:1" json:"liked"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index:idx_target_liked_updated,priority:3,sort:desc;index:idx_liked_updated,priority:2" json:"updatedAt"`
}

// Match is a mutual like between UserA and UserB, stored with UserA < UserB.
// PairKey is unique, so (A,B) and (B,A) can only ever produce one row.
type Match struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserA     string    `gorm:"size:36;not null;index" json:"userA"`
	UserB     string    `gorm:"size:36;not null;index" json:"userB"`
	PairKey   string    `gorm:"size:80;not null;uniqueIndex" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
}

// NewMatch builds an unsaved match for the pair in canonical order.
func NewMatch(a, b string) *Match {
	lo, hi := SortPair(a, b)
	return &Match{ID: NewID(), UserA: lo, UserB: hi, PairKey: PairKey(a, b)}
}

// SortPair orders two ids so the smaller one comes first.
func SortPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// PairKey is the order-independent key of a pair.
func PairKey(a, b string) string {
	lo, hi := SortPair(a, b)
	return lo + ":" + hi
}

// Involves reports whether userID is one of the two parties.
func (m *Match) Involves(userID string) bool {
	return m.UserA == userID || m.UserB == userID
}

// Counterpart returns the other party. Callers must check Involves first.
func (m *Match) Counterpart(userID string) string {
	if m.UserA == userID {
		return m.UserB
	}
	return m.UserA
}

// Message is a chat message between the two parties of a match. The same
// struct is stored in the relational table and in the Mongo collection.
type Message struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	MatchID   string    `gorm:"size:36;not null;index" bson:"matchId" json:"matchId"`
	FromID    string    `gorm:"size:36;not null" bson:"fromId" json:"fromId"`
	ToID      string    `gorm:"size:36;not null" bson:"toId" json:"toId"`
	Text      string    `gorm:"size:4096" bson:"text" json:"text"`
	Status    string    `gorm:"size:16;not null" bson:"status" json:"status"`
	ReplyTo   *string   `gorm:"size:36" bson:"replyTo,omitempty" json:"replyTo,omitempty"`
	GroupID   *string   `gorm:"size:36" bson:"groupId,omitempty" json:"groupId,omitempty"`
	Media     *string   `gorm:"size:512" bson:"media,omitempty" json:"media,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime:false" bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" bson:"updatedAt" json:"updatedAt"`
}

// Block hides two users from each other. Composite PK: (BlockerID, BlockedID).
type Block struct {
	BlockerID string    `gorm:"primaryKey;size:36" json:"blockerId"`
	BlockedID string    `gorm:"primaryKey;size:36;index" json:"blockedId"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}
