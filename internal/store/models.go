package store

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoleAdmin is the only role value that grants access to admin-gated
// operations; any other value (or no role at all) is a regular user.
const RoleAdmin = "admin"

// Tool is a product listed on the marketplace.
type Tool struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name        string             `bson:"name,omitempty" json:"name,omitempty"`
	Image       string             `bson:"img,omitempty" json:"img,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	MinOrder    int                `bson:"minOrder,omitempty" json:"minOrder,omitempty"`
	Available   int                `bson:"available,omitempty" json:"available,omitempty"`
	Price       float64            `bson:"price" json:"price"`
}

// Review is customer feedback; it is tied to no tool or purchase.
type Review struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Name   string             `bson:"name,omitempty" json:"name,omitempty"`
	Image  string             `bson:"img,omitempty" json:"img,omitempty"`
	Rating float64            `bson:"rating,omitempty" json:"rating,omitempty"`
	Review string             `bson:"review,omitempty" json:"review,omitempty"`
}

// User is keyed logically by email. Uniqueness is a business rule only;
// the store enforces no constraint.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Email     string             `bson:"email,omitempty" json:"email,omitempty"`
	Role      string             `bson:"role,omitempty" json:"role,omitempty"`
	Name      string             `bson:"name,omitempty" json:"name,omitempty"`
	Education string             `bson:"education,omitempty" json:"education,omitempty"`
	Location  string             `bson:"location,omitempty" json:"location,omitempty"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	LinkedIn  string             `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
}

// UserProfile holds the user fields clients may set through the profile
// routes. Pointer fields distinguish "not provided" from "set to zero";
// role is deliberately absent so profile writes cannot escalate privileges.
type UserProfile struct {
	Name      *string `bson:"name,omitempty" json:"name,omitempty"`
	Education *string `bson:"education,omitempty" json:"education,omitempty"`
	Location  *string `bson:"location,omitempty" json:"location,omitempty"`
	Phone     *string `bson:"phone,omitempty" json:"phone,omitempty"`
	LinkedIn  *string `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
}

// Purchase records an order for a tool. Purchase.email is not checked
// against the users collection; the record sets are independent.
type Purchase struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"_id,omitempty"`
	Email         string             `bson:"email,omitempty" json:"email,omitempty"`
	ToolID        string             `bson:"toolId,omitempty" json:"toolId,omitempty"`
	ToolName      string             `bson:"toolName,omitempty" json:"toolName,omitempty"`
	Price         float64            `bson:"price,omitempty" json:"price,omitempty"`
	Quantity      int                `bson:"quantity,omitempty" json:"quantity,omitempty"`
	Address       string             `bson:"address,omitempty" json:"address,omitempty"`
	Phone         string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Status        string             `bson:"status,omitempty" json:"status,omitempty"`
	TransactionID string             `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
}

// PurchasePatch holds the purchase fields clients may change after creation.
type PurchasePatch struct {
	Quantity      *int    `bson:"quantity,omitempty" json:"quantity,omitempty"`
	Address       *string `bson:"address,omitempty" json:"address,omitempty"`
	Phone         *string `bson:"phone,omitempty" json:"phone,omitempty"`
	Status        *string `bson:"status,omitempty" json:"status,omitempty"`
	TransactionID *string `bson:"transactionId,omitempty" json:"transactionId,omitempty"`
}
