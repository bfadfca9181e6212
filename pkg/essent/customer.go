package essent

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/raterudder/essent/pkg/log"
)

// DefaultStartDate is the start of the period requested by
// GetMeterReadingHistory when no start date is given.
const DefaultStartDate = "2000-01-01T00:00:00+02:00"

// GetCustomerDetails returns the raw customer details document.
func (s *Session) GetCustomerDetails(ctx context.Context, getContracts bool) ([]byte, error) {
	params := url.Values{}
	params.Set("GetContracts", strconv.FormatBool(getContracts))

	req, err := s.newGetRequest(ctx, "selfservice/customer/getCustomerDetails", params)
	if err != nil {
		return nil, err
	}

	body, err := s.doRequest(req)
	if err != nil {
		return nil, fmt.Errorf("getCustomerDetails failed: %w", err)
	}
	return body, nil
}

type businessPartnerDetailsRequest struct {
	XMLName             xml.Name `xml:"GetBusinessPartnerDetails"`
	AgreementID         string   `xml:"request>AgreementID"`
	OnlyActiveContracts bool     `xml:"request>OnlyActiveContracts"`
}

// GetBusinessPartnerDetails returns the raw business partner document for an
// agreement, including its connections and contracts.
func (s *Session) GetBusinessPartnerDetails(ctx context.Context, agreementID string, onlyActiveContracts bool) ([]byte, error) {
	// yes, this is a GET with a body
	req, err := s.newXMLRequest(ctx, "GET", "selfservice/customer/getBusinessPartnerDetails", businessPartnerDetailsRequest{
		AgreementID:         agreementID,
		OnlyActiveContracts: onlyActiveContracts,
	})
	if err != nil {
		return nil, err
	}

	body, err := s.doRequest(req)
	if err != nil {
		return nil, fmt.Errorf("getBusinessPartnerDetails failed: %w", err)
	}
	return body, nil
}

// ReadingOptions filters a meter reading history request. Dates are in the
// API's timestamp format; empty dates fall back to DefaultStartDate and the
// server's current time.
type ReadingOptions struct {
	OnlyLastMeterReading bool
	StartDate            string
	EndDate              string
}

type meterReadingHistoryRequest struct {
	XMLName              xml.Name `xml:"GetMeterReadingHistory"`
	ConnectEAN           string   `xml:"request>Installations>Installation>ConnectEAN"`
	OnlyLastMeterReading bool     `xml:"request>OnlyLastMeterReading"`
	StartDate            string   `xml:"request>Period>StartDate"`
	EndDate              string   `xml:"request>Period>EndDate"`
}

// GetMeterReadingHistory returns the raw meter reading history document for
// the given EAN.
func (s *Session) GetMeterReadingHistory(ctx context.Context, ean string, opts ReadingOptions) ([]byte, error) {
	if opts.StartDate == "" {
		opts.StartDate = DefaultStartDate
	}
	if opts.EndDate == "" {
		end, err := s.GetDateTime(ctx)
		if err != nil {
			return nil, err
		}
		opts.EndDate = end
	}

	log.Ctx(ctx).DebugContext(
		ctx,
		"getting essent meter reading history",
		slog.String("ean", ean),
		slog.Bool("onlyLast", opts.OnlyLastMeterReading),
		slog.String("start", opts.StartDate),
		slog.String("end", opts.EndDate),
	)

	req, err := s.newXMLRequest(ctx, "POST", "selfservice/customer/getMeterReadingHistory", meterReadingHistoryRequest{
		ConnectEAN:           ean,
		OnlyLastMeterReading: opts.OnlyLastMeterReading,
		StartDate:            opts.StartDate,
		EndDate:              opts.EndDate,
	})
	if err != nil {
		return nil, err
	}

	body, err := s.doRequest(req)
	if err != nil {
		return nil, fmt.Errorf("getMeterReadingHistory failed: %w", err)
	}
	return body, nil
}
