package essent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raterudder/essent/pkg/log"
	"github.com/raterudder/essent/pkg/types"
)

type meterReadingHistoryResponse struct {
	Installations []installation `xml:"response>Installations>Installation"`
}

type installation struct {
	EnergyType *energyType `xml:"EnergyType"`
	Meters     []meter     `xml:"Meters>Meter"`
}

// energyType carries a code as character data and its description in the
// text attribute.
type energyType struct {
	Text string `xml:"text,attr"`
	Code string `xml:",chardata"`
}

type meter struct {
	Registers *registerList `xml:"Registers"`
}

type registerList struct {
	Register []register `xml:"Register"`
}

type register struct {
	MeteringDirection string       `xml:"MeteringDirection"`
	TariffType        string       `xml:"TariffType"`
	MeasureUnit       string       `xml:"MeasureUnit"`
	MeterReadings     *readingList `xml:"MeterReadings"`
}

type readingList struct {
	MeterReading []meterReading `xml:"MeterReading"`
}

type meterReading struct {
	ReadingDateTime    string `xml:"ReadingDateTime"`
	ReadingResultValue string `xml:"ReadingResultValue"`
}

// ParseMeterReadingHistory reshapes a meter reading history document into
// readings grouped by metering direction and tariff. Only the first
// installation and its first meter are read. Parsing is pure; the same body
// always yields the same MeterInfo.
func ParseMeterReadingHistory(body []byte) (types.MeterInfo, error) {
	var res meterReadingHistoryResponse
	if err := decodeXML(body, &res); err != nil {
		return types.MeterInfo{}, err
	}
	if len(res.Installations) == 0 {
		return types.MeterInfo{}, missing("Installation")
	}
	inst := res.Installations[0]
	if inst.EnergyType == nil {
		return types.MeterInfo{}, missing("EnergyType")
	}
	if len(inst.Meters) == 0 {
		return types.MeterInfo{}, missing("Meter")
	}
	if inst.Meters[0].Registers == nil {
		return types.MeterInfo{}, missing("Registers")
	}

	energy := inst.EnergyType.Text
	if energy == "" {
		energy = inst.EnergyType.Code
	}
	info := types.NewMeterInfo(energy)

	for _, r := range inst.Meters[0].Registers.Register {
		if r.MeterReadings == nil {
			return types.MeterInfo{}, missing("MeterReadings")
		}
		group := info.Group(r.MeteringDirection, r.TariffType, r.MeasureUnit)
		for _, mr := range r.MeterReadings.MeterReading {
			group.Add(mr.ReadingDateTime, mr.ReadingResultValue)
		}
	}
	return info, nil
}

// ReadMeter returns the reading history of an EAN.
func (c *Client) ReadMeter(ctx context.Context, ean string, opts ReadingOptions) (types.MeterInfo, error) {
	ctx = log.WithAttrs(ctx, slog.String("ean", ean))

	body, err := c.session.GetMeterReadingHistory(ctx, ean, opts)
	if err != nil {
		return types.MeterInfo{}, err
	}

	info, err := ParseMeterReadingHistory(body)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "failed to parse essent meter reading history", slog.Any("error", err))
		return types.MeterInfo{}, fmt.Errorf("failed to parse meter reading history: %w", err)
	}

	log.Ctx(ctx).DebugContext(ctx, "essent meter readings", slog.String("type", info.Type), slog.Int("directions", info.Directions()))
	return info, nil
}
