package essent

import (
	"context"
	"encoding/xml"
	"fmt"
)

// cdata is marshaled inside a CDATA section. encoding/xml splits any "]]>"
// in the value across sections so the document stays well-formed.
type cdata struct {
	Value string `xml:",cdata"`
}

type authenticateUserRequest struct {
	XMLName      xml.Name `xml:"AuthenticateUser"`
	Username     cdata    `xml:"request>username"`
	Password     cdata    `xml:"request>password"`
	GetContracts bool     `xml:"request>ControlParameters>GetContracts"`
}

// AuthenticateUser logs the session in. On success the server sets the
// session cookies that every other endpoint requires.
func (s *Session) AuthenticateUser(ctx context.Context, username, password string, getContracts bool) error {
	req, err := s.newXMLRequest(ctx, "POST", "selfservice/user/authenticateUser", authenticateUserRequest{
		Username:     cdata{Value: username},
		Password:     cdata{Value: password},
		GetContracts: getContracts,
	})
	if err != nil {
		return err
	}

	if _, err := s.doRequest(req); err != nil {
		return fmt.Errorf("authenticateUser failed: %w", err)
	}
	return nil
}
