package schema

import "time"

// CallType is the direction or outcome of a call.
type CallType string

const (
	CallTypeIncoming CallType = "incoming"
	CallTypeOutgoing CallType = "outgoing"
	CallTypeMissed   CallType = "missed"
)

// CallTypes lists every accepted call type in display order.
var CallTypes = []CallType{CallTypeIncoming, CallTypeOutgoing, CallTypeMissed}

// Valid reports whether c is one of CallTypes.
func (c CallType) Valid() bool {
	for _, t := range CallTypes {
		if c == t {
			return true
		}
	}
	return false
}

// User is a registered account. Password is never serialized.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// NewUser is a validated registration request.
type NewUser struct {
	Username string
	Password string
}

// CallLog records a single phone call.
type CallLog struct {
	ID          string    `json:"id"`
	ContactName string    `json:"contactName"`
	PhoneNumber string    `json:"phoneNumber"`
	CallType    CallType  `json:"callType"`
	Duration    int       `json:"duration"`
	IsFavorite  bool      `json:"isFavorite"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewCallLog is a validated creation request with defaults applied.
type NewCallLog struct {
	ContactName string
	PhoneNumber string
	CallType    CallType
	Duration    int
	IsFavorite  bool
	Timestamp   time.Time
}

// CallLogPatch carries a partial update. A nil field is left untouched.
type CallLogPatch struct {
	ContactName *string
	PhoneNumber *string
	CallType    *CallType
	Duration    *int
	IsFavorite  *bool
	Timestamp   *time.Time
}

// IsEmpty reports whether the patch changes nothing.
func (p CallLogPatch) IsEmpty() bool {
	return p.ContactName == nil && p.PhoneNumber == nil && p.CallType == nil &&
		p.Duration == nil && p.IsFavorite == nil && p.Timestamp == nil
}

// Apply returns a copy of c with every set field of p merged in. The ID is
// never changed and the timestamp is only replaced when p carries one.
func (c CallLog) Apply(p CallLogPatch) CallLog {
	if p.ContactName != nil {
		c.ContactName = *p.ContactName
	}
	if p.PhoneNumber != nil {
		c.PhoneNumber = *p.PhoneNumber
	}
	if p.CallType != nil {
		c.CallType = *p.CallType
	}
	if p.Duration != nil {
		c.Duration = *p.Duration
	}
	if p.IsFavorite != nil {
		c.IsFavorite = *p.IsFavorite
	}
	if p.Timestamp != nil {
		c.Timestamp = *p.Timestamp
	}
	return c
}

// MessageTemplate is a reusable message body. {name} and {number} are
// substituted only when a message is composed.
type MessageTemplate struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// NewMessageTemplate is a validated template creation request.
type NewMessageTemplate struct {
	Name    string
	Message string
}

// WhatsAppMessage is a validated request for a WhatsApp deep link.
type WhatsAppMessage struct {
	PhoneNumber string
	Message     string
}
