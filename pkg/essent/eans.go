package essent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raterudder/essent/pkg/log"
)

type customerDetailsResponse struct {
	BusinessAgreements []businessAgreement `xml:"response>Partner>BusinessAgreements>BusinessAgreement"`
}

type businessPartnerDetailsResponse struct {
	BusinessAgreements []businessAgreement `xml:"response>Partner>BusinessAgreements>BusinessAgreement"`
}

type businessAgreement struct {
	AgreementID string       `xml:"AgreementID"`
	Connections []connection `xml:"Connections>Connection"`
}

type connection struct {
	Contracts *contractList `xml:"Contracts"`
}

type contractList struct {
	Contract []contract `xml:"Contract"`
}

type contract struct {
	ConnectEAN string `xml:"ConnectEAN"`
}

// ParseAgreementID returns the ID of the first business agreement in a
// customer details document.
func ParseAgreementID(body []byte) (string, error) {
	var res customerDetailsResponse
	if err := decodeXML(body, &res); err != nil {
		return "", err
	}
	if len(res.BusinessAgreements) == 0 {
		return "", missing("BusinessAgreement")
	}
	return res.BusinessAgreements[0].AgreementID, nil
}

// ParseEANs returns the EAN of every contract of the first connection of the
// first business agreement, in document order.
func ParseEANs(body []byte) ([]string, error) {
	var res businessPartnerDetailsResponse
	if err := decodeXML(body, &res); err != nil {
		return nil, err
	}
	if len(res.BusinessAgreements) == 0 {
		return nil, missing("BusinessAgreement")
	}
	ba := res.BusinessAgreements[0]
	if len(ba.Connections) == 0 {
		return nil, missing("Connection")
	}
	conn := ba.Connections[0]
	if conn.Contracts == nil {
		return nil, missing("Contracts")
	}

	eans := make([]string, 0, len(conn.Contracts.Contract))
	for _, c := range conn.Contracts.Contract {
		eans = append(eans, c.ConnectEAN)
	}
	return eans, nil
}

// EANs returns the metering points of the account. Only the first business
// agreement and its first connection are considered.
func (c *Client) EANs(ctx context.Context) ([]string, error) {
	body, err := c.session.GetCustomerDetails(ctx, true)
	if err != nil {
		return nil, err
	}
	agreementID, err := ParseAgreementID(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse customer details: %w", err)
	}

	body, err = c.session.GetBusinessPartnerDetails(ctx, agreementID, true)
	if err != nil {
		return nil, err
	}
	eans, err := ParseEANs(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse business partner details: %w", err)
	}

	log.Ctx(ctx).DebugContext(ctx, "found essent eans", slog.String("agreementID", agreementID), slog.Any("eans", eans))
	return eans, nil
}
