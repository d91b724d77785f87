package domain

import (
	"regexp"
	"strings"
	"time"
)

// CampusRole is the role a member holds on campus.
type CampusRole string

const (
	RoleStudent CampusRole = "Student"
	RoleFaculty CampusRole = "Faculty"
	RoleAlumni  CampusRole = "Alumni"
	RoleAdmin   CampusRole = "Admin"
)

const (
	MinPasswordLength = 8
	// MaxPasswordLength is the bcrypt input limit in bytes.
	MaxPasswordLength = 72
	MaxBioLength      = 150
	DefaultProfilePic = "https://res.cloudinary.com/demo/image/upload/v1312461204/sample.jpg"
)

var campusEmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@mietjammu\.in$`)

// IsCampusEmail reports whether email belongs to the institutional domain.
func IsCampusEmail(email string) bool {
	return campusEmailPattern.MatchString(email)
}

// Valid reports whether r is one of the known campus roles.
func (r CampusRole) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAlumni, RoleAdmin:
		return true
	}
	return false
}

// NormalizeHandle lowercases and trims a username or email.
func NormalizeHandle(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// User is a registered campus identity together with its social-graph edges.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	FullName     string     `json:"fullName"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	ProfilePic   string     `json:"profilePic"`
	Bio          string     `json:"bio,omitempty"`
	Role         CampusRole `json:"role"`
	Followers    []string   `json:"followers"`
	Following    []string   `json:"following"`
	IsPrivate    bool       `json:"isPrivate"`
	IsVerified   bool       `json:"isVerified"`
	StreakCount  int        `json:"streakCount"`
	Banned       bool       `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// IsFollowing reports whether u follows the identity with the given id.
func (u *User) IsFollowing(id string) bool {
	for _, f := range u.Following {
		if f == id {
			return true
		}
	}
	return false
}

// ProfileUpdate carries optional profile edits. Nil fields are left untouched.
type ProfileUpdate struct {
	FullName   *string
	Bio        *string
	ProfilePic *string
	IsPrivate  *bool
}
