package models

import "time"

// MeetupStatus is the status stored on a meetup row.
type MeetupStatus string

const (
	StatusUpcoming  MeetupStatus = "upcoming"
	StatusOngoing   MeetupStatus = "ongoing"
	StatusCompleted MeetupStatus = "completed"

	// StatusCancelled is terminal. It is the only status written after creation.
	StatusCancelled MeetupStatus = "cancelled"
)

// SkillLevel is the level a meetup is aimed at.
type SkillLevel string

const (
	SkillBeginner     SkillLevel = "beginner"
	SkillIntermediate SkillLevel = "intermediate"
	SkillAdvanced     SkillLevel = "advanced"
	SkillAll          SkillLevel = "all"
)

// Valid reports whether l is one of the known skill levels.
func (l SkillLevel) Valid() bool {
	switch l {
	case SkillBeginner, SkillIntermediate, SkillAdvanced, SkillAll:
		return true
	}
	return false
}

// Meetup is a scheduled, capacity-limited group activity.
type Meetup struct {
	ID          string `gorm:"primaryKey;size:36"`
	Title       string `gorm:"size:255;not null"`
	Description string

	SportName  string `gorm:"size:100;not null;index"`
	SportIcon  string `gorm:"size:64"`
	SportColor string `gorm:"size:32"`

	HostID uint `gorm:"not null;index"`

	Location string `gorm:"size:255;not null"`
	City     string `gorm:"size:100"`
	State    string `gorm:"size:100"`

	Date            string    `gorm:"size:10;not null"` // YYYY-MM-DD
	Time            string    `gorm:"size:5;not null"`  // HH:MM
	StartsAt        time.Time `gorm:"not null;index"`
	DurationMinutes int       `gorm:"not null;default:0"` // 0 means the configured nominal duration

	MaxParticipants     int          `gorm:"not null"`
	CurrentParticipants int          `gorm:"not null;default:0"`
	SkillLevel          SkillLevel   `gorm:"size:20;not null;default:'all'"`
	Status              MeetupStatus `gorm:"size:20;not null;default:'upcoming'"`

	Participants []Participant `gorm:"foreignKey:MeetupID;constraint:OnDelete:CASCADE;"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasParticipant reports whether userID is on the roster.
func (m *Meetup) HasParticipant(userID uint) bool {
	for _, p := range m.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// Participant is a roster entry. The composite primary key keeps membership unique.
type Participant struct {
	MeetupID    string `gorm:"primaryKey;size:36"`
	UserID      uint   `gorm:"primaryKey"`
	DisplayName string `gorm:"size:255"`
	JoinedAt    time.Time
}

// TableName pins the roster table name.
func (Participant) TableName() string {
	return "meetup_participants"
}
