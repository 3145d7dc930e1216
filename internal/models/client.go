package models

import "time"

// Client is the root tenant. Every other entity references one by ID.
type Client struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	Logo         string       `json:"logo,omitempty"`
	Industry     string       `json:"industry"`
	APIKeys      APIKeys      `json:"apiKeys"`
	Subscription Subscription `json:"subscription"`
	Settings     Settings     `json:"settings"`
	CreatedAt    time.Time    `json:"createdAt"`
}

type APIKeys struct {
	LeadShark string `json:"leadshark,omitempty"`
	SendGrid  string `json:"sendgrid,omitempty"`
}

type Subscription struct {
	Plan      string `json:"plan"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// Settings are the per-client outreach and notification preferences.
type Settings struct {
	EmailSettings EmailSettings        `json:"emailSettings"`
	Notifications NotificationSettings `json:"notifications"`
}

type EmailSettings struct {
	FromName  string `json:"fromName"`
	FromEmail string `json:"fromEmail"`
	ReplyTo   string `json:"replyTo"`
}

type NotificationSettings struct {
	EmailReports     bool `json:"emailReports"`
	NewProspects     bool `json:"newProspects"`
	SequenceComplete bool `json:"sequenceComplete"`
}

func (c *Client) RecordID() int      { return c.ID }
func (c *Client) AssignID(id int)    { c.ID = id }
func (c *Client) TenantID() int      { return c.ID }
func (c *Client) Created() time.Time { return c.CreatedAt }

func (c *Client) StampCreated(t time.Time) {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = t
	}
}
