package types

// MeterInfo is the reading history of a single metering point (EAN).
type MeterInfo struct {
	// Type is the energy type of the installation, e.g. "Elektriciteit" or
	// "Gas".
	Type string `json:"type"`

	// Values groups the readings by metering direction and then by tariff.
	Values map[string]map[string]*TariffReadings `json:"values"`
}

// NewMeterInfo returns a MeterInfo with an initialized Values map.
func NewMeterInfo(energyType string) MeterInfo {
	return MeterInfo{
		Type:   energyType,
		Values: make(map[string]map[string]*TariffReadings),
	}
}

// Group returns the readings for the given direction and tariff, creating the
// group with the given unit if it doesn't exist yet. The unit of an existing
// group is never changed.
func (m MeterInfo) Group(direction, tariff, unit string) *TariffReadings {
	tariffs, ok := m.Values[direction]
	if !ok {
		tariffs = make(map[string]*TariffReadings)
		m.Values[direction] = tariffs
	}
	tr, ok := tariffs[tariff]
	if !ok {
		tr = &TariffReadings{Unit: unit}
		tariffs[tariff] = tr
	}
	return tr
}

// Directions returns the number of metering directions.
func (m MeterInfo) Directions() int {
	return len(m.Values)
}

// TariffReadings are the readings of one register group sharing a unit.
type TariffReadings struct {
	Unit    string   `json:"unit"`
	Records []Record `json:"records"`

	// index maps a timestamp to its position in Records
	index map[string]int
}

// Record is a single meter reading. Values are kept as the opaque strings the
// API returns.
type Record struct {
	Timestamp string `json:"timestamp"`
	Value     string `json:"value"`
}

// Add records a reading. A timestamp that was already recorded has its value
// replaced in place so the original order is kept.
func (t *TariffReadings) Add(timestamp, value string) {
	i, ok := t.index[timestamp]
	if t.index == nil || len(t.index) != len(t.Records) || ok && (i >= len(t.Records) || t.Records[i].Timestamp != timestamp) {
		// Records was set or changed without going through Add
		t.reindex()
		i, ok = t.index[timestamp]
	}
	if ok {
		t.Records[i].Value = value
		return
	}
	t.index[timestamp] = len(t.Records)
	t.Records = append(t.Records, Record{Timestamp: timestamp, Value: value})
}

func (t *TariffReadings) reindex() {
	t.index = make(map[string]int, len(t.Records))
	for i, r := range t.Records {
		if _, ok := t.index[r.Timestamp]; !ok {
			t.index[r.Timestamp] = i
		}
	}
}

// Map returns the records keyed by timestamp.
func (t *TariffReadings) Map() map[string]string {
	m := make(map[string]string, len(t.Records))
	for _, r := range t.Records {
		m[r.Timestamp] = r.Value
	}
	return m
}

// Latest returns the last record in document order and false if there are no
// records.
func (t *TariffReadings) Latest() (Record, bool) {
	if len(t.Records) == 0 {
		return Record{}, false
	}
	return t.Records[len(t.Records)-1], true
}
