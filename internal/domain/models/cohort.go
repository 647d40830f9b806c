// internal/domain/models/cohort.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cohort is one recurring offering of a course, opened for a single intake
// month. Students join by appending to StudentIDs; the capacity ceiling is
// enforced by the store's conditional update, not by a schema constraint.
//
// NOTE:
//   - Name is derived from the intake window (SBA-<year><month>-<seq>) and is
//     NOT unique: a full cohort causes a second, same-named cohort to open.
//   - CourseID and StudentIDs are opaque references owned by other systems.
type Cohort struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	CourseID string             `bson:"course_id" json:"course_id"`
	Name     string             `bson:"name" json:"name"`

	StartDate            time.Time `bson:"start_date" json:"start_date"`
	EndDate              time.Time `bson:"end_date" json:"end_date"`
	RegistrationDeadline time.Time `bson:"registration_deadline" json:"registration_deadline"`

	TrackFocus string   `bson:"track_focus" json:"track_focus"`
	StudentIDs []string `bson:"student_ids" json:"student_ids"`

	Status string `bson:"status" json:"status"` // "active" | "closed"

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasStudent reports whether studentID is already a member.
func (c Cohort) HasStudent(studentID string) bool {
	for _, id := range c.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}
