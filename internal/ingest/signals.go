package ingest

import (
	"io"
	"strings"

	"trade-reconciler/internal/domain"
)

type signalCSV struct {
	Timestamp string `csv:"Timestamp"`
	Symbol    string `csv:"Symbol"`
	Signal    string `csv:"Signal"`
	Price     string `csv:"Price"`

	Passed       string `csv:"Passed"`
	RejectReason string `csv:"RejectReason"`
}

var signalColumns = []string{"Timestamp", "Symbol", "Signal"}

// LoadSignals decodes the signal log. Every row is kept, passed or rejected.
func LoadSignals(r io.Reader) ([]domain.SignalRow, error) {
	data, err := readCSV(r, signalColumns...)
	if err != nil || data == nil {
		return nil, err
	}
	var raw []*signalCSV
	if err := decode(data, &raw); err != nil {
		return nil, err
	}
	metrics, err := decodeMetrics(data, len(raw))
	if err != nil {
		return nil, err
	}

	rows := make([]domain.SignalRow, 0, len(raw))
	for i, s := range raw {
		rows = append(rows, domain.SignalRow{
			Symbol:       strings.TrimSpace(s.Symbol),
			Time:         strings.TrimSpace(s.Timestamp),
			Type:         strings.ToUpper(strings.TrimSpace(s.Signal)),
			Price:        toFloat(s.Price),
			Metrics:      metrics[i],
			Passed:       toBool(s.Passed),
			RejectReason: strings.TrimSpace(s.RejectReason),
		})
	}
	return rows, nil
}
