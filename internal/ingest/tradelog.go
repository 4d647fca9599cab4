package ingest

import (
	"fmt"
	"io"
	"strings"

	"trade-reconciler/internal/domain"
)

// metricsCSV holds the physics metric columns shared by trade and signal
// logs. It is decoded in its own pass over the file, one value per row.
type metricsCSV struct {
	Quality           string `csv:"Quality"`
	Confluence        string `csv:"Confluence"`
	Momentum          string `csv:"Momentum"`
	Speed             string `csv:"Speed"`
	Acceleration      string `csv:"Acceleration"`
	Jerk              string `csv:"Jerk"`
	Entropy           string `csv:"Entropy"`
	PhysicsScore      string `csv:"PhysicsScore"`
	SpeedSlope        string `csv:"SpeedSlope"`
	AccelerationSlope string `csv:"AccelerationSlope"`
	MomentumSlope     string `csv:"MomentumSlope"`
	ConfluenceSlope   string `csv:"ConfluenceSlope"`
	JerkSlope         string `csv:"JerkSlope"`
	Zone              string `csv:"Zone"`
	Regime            string `csv:"Regime"`
	Spread            string `csv:"Spread"`
}

// decodeMetrics reads the metric columns of data. want is the row count of
// the main decode pass.
func decodeMetrics(data []byte, want int) ([]domain.PhysicsMetrics, error) {
	var raw []*metricsCSV
	if err := decode(data, &raw); err != nil {
		return nil, err
	}
	if len(raw) != want {
		return nil, fmt.Errorf("decode metrics: %d rows, expected %d", len(raw), want)
	}

	metrics := make([]domain.PhysicsMetrics, len(raw))
	for i, m := range raw {
		metrics[i] = m.toDomain()
	}
	return metrics, nil
}

func (m metricsCSV) toDomain() domain.PhysicsMetrics {
	return domain.PhysicsMetrics{
		Quality:           toFloat(m.Quality),
		Confluence:        toFloat(m.Confluence),
		Momentum:          toFloat(m.Momentum),
		Speed:             toFloat(m.Speed),
		Acceleration:      toFloat(m.Acceleration),
		Jerk:              toFloat(m.Jerk),
		Entropy:           toFloat(m.Entropy),
		PhysicsScore:      toFloat(m.PhysicsScore),
		SpeedSlope:        toFloat(m.SpeedSlope),
		AccelerationSlope: toFloat(m.AccelerationSlope),
		MomentumSlope:     toFloat(m.MomentumSlope),
		ConfluenceSlope:   toFloat(m.ConfluenceSlope),
		JerkSlope:         toFloat(m.JerkSlope),
		Zone:              strings.TrimSpace(m.Zone),
		Regime:            strings.TrimSpace(m.Regime),
		Spread:            toFloat(m.Spread),
	}
}

type tradeLogCSV struct {
	Ticket     string `csv:"Ticket"`
	RowType    string `csv:"RowType"`
	Symbol     string `csv:"Symbol"`
	Type       string `csv:"Type"`
	OpenTime   string `csv:"OpenTime"`
	CloseTime  string `csv:"CloseTime"`
	OpenPrice  string `csv:"OpenPrice"`
	ClosePrice string `csv:"ClosePrice"`
	Lots       string `csv:"Lots"`

	Profit           string `csv:"Profit"`
	Pips             string `csv:"Pips"`
	HoldMinutes      string `csv:"HoldMinutes"`
	MFE              string `csv:"MFE"`
	MAE              string `csv:"MAE"`
	MFEPips          string `csv:"MFEPips"`
	MAEPips          string `csv:"MAEPips"`
	MFEPercent       string `csv:"MFEPercent"`
	MAEPercent       string `csv:"MAEPercent"`
	RunUpPrice       string `csv:"RunUpPrice"`
	RunUpPips        string `csv:"RunUpPips"`
	RunDownPrice     string `csv:"RunDownPrice"`
	RunDownPips      string `csv:"RunDownPips"`
	ExitReason       string `csv:"ExitReason"`
	ExitQualityClass string `csv:"ExitQualityClass"`
}

var tradeLogColumns = []string{"Ticket", "RowType", "Symbol", "Type"}

// LoadTradeLog decodes the dual-row strategy trade log. Rows are returned
// unindexed and in file order.
func LoadTradeLog(r io.Reader) ([]domain.TradeLogRow, error) {
	data, err := readCSV(r, tradeLogColumns...)
	if err != nil || data == nil {
		return nil, err
	}
	var raw []*tradeLogCSV
	if err := decode(data, &raw); err != nil {
		return nil, err
	}
	metrics, err := decodeMetrics(data, len(raw))
	if err != nil {
		return nil, err
	}

	rows := make([]domain.TradeLogRow, 0, len(raw))
	for i, t := range raw {
		rows = append(rows, domain.TradeLogRow{
			Ticket:           strings.TrimSpace(t.Ticket),
			RowType:          t.RowType,
			Symbol:           strings.TrimSpace(t.Symbol),
			Type:             t.Type,
			OpenTime:         strings.TrimSpace(t.OpenTime),
			CloseTime:        strings.TrimSpace(t.CloseTime),
			OpenPrice:        toFloat(t.OpenPrice),
			ClosePrice:       toFloat(t.ClosePrice),
			Lots:             toFloat(t.Lots),
			Metrics:          metrics[i],
			Profit:           toFloatPtr(t.Profit),
			Pips:             toFloat(t.Pips),
			HoldMinutes:      toFloat(t.HoldMinutes),
			MFE:              toFloat(t.MFE),
			MAE:              toFloat(t.MAE),
			MFEPips:          toFloat(t.MFEPips),
			MAEPips:          toFloat(t.MAEPips),
			MFEPercent:       toFloat(t.MFEPercent),
			MAEPercent:       toFloat(t.MAEPercent),
			RunUpPrice:       toFloat(t.RunUpPrice),
			RunUpPips:        toFloat(t.RunUpPips),
			RunDownPrice:     toFloat(t.RunDownPrice),
			RunDownPips:      toFloat(t.RunDownPips),
			ExitReason:       strings.TrimSpace(t.ExitReason),
			ExitQualityClass: strings.TrimSpace(t.ExitQualityClass),
		})
	}
	return rows, nil
}
