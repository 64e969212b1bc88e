package enum

import (
	"database/sql/driver"
	"encoding/json"
)

// SessionStatus is the lifecycle state of a cash register session
type SessionStatus int

const (
	SessionStatusOpen   SessionStatus = 0
	SessionStatusClosed SessionStatus = 1
)

var sessionStatusNames = []string{"OPEN", "CLOSED"}

func (s SessionStatus) String() string {
	if int(s) < 0 || int(s) >= len(sessionStatusNames) {
		return "OPEN"
	}
	return sessionStatusNames[s]
}

func (s SessionStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SessionStatus) UnmarshalJSON(data []byte) error {
	i, err := unmarshalName(data, sessionStatusNames, "session status")
	if err != nil {
		return err
	}
	*s = SessionStatus(i)
	return nil
}

func (s SessionStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *SessionStatus) Scan(value interface{}) error {
	*s = SessionStatus(scanInt(value))
	return nil
}
