package status

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatusUpdate records a status relayed to the provider on behalf of
// an account.
type StatusUpdate struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AccountID primitive.ObjectID `bson:"account_id" json:"accountId"`
	StatusID  string             `bson:"status_id" json:"statusId"`
	Text      string             `bson:"text" json:"text"`
	Verified  bool               `bson:"verified" json:"verified"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
