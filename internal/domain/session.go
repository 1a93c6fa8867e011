package domain

import "time"

// Session is a durable login owned by exactly one user. A user may hold many.
// ExpirationDate is stored as unix seconds so DynamoDB can use it as the TTL attribute.
type Session struct {
	SessionID      string    `json:"id" dynamodbav:"session_id"`
	UserID         string    `json:"user_id" dynamodbav:"user_id"`
	ExpirationDate time.Time `json:"expiration_date" dynamodbav:"expiration_date,unixtime"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at"`
}
