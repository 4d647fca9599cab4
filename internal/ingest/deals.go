package ingest

import (
	"io"
	"strings"

	"trade-reconciler/internal/domain"
)

// dealCSV is one broker ledger row as exported by the terminal.
type dealCSV struct {
	Deal       string `csv:"Deal"`
	Order      string `csv:"Order"`
	Position   string `csv:"Position"`
	Time       string `csv:"Time"`
	Symbol     string `csv:"Symbol"`
	Type       string `csv:"Type"`
	Direction  string `csv:"Direction"`
	Volume     string `csv:"Volume"`
	Price      string `csv:"Price"`
	Commission string `csv:"Commission"`
	Swap       string `csv:"Swap"`
	Profit     string `csv:"Profit"`
	Balance    string `csv:"Balance"`
	Comment    string `csv:"Comment"`
}

var dealColumns = []string{"Deal", "Order", "Time", "Symbol", "Type", "Direction", "Price", "Profit"}

// LoadDeals decodes the broker deal ledger. Rows whose type is not buy or
// sell (balance, credit, ...) are skipped.
func LoadDeals(r io.Reader) ([]domain.DealRow, error) {
	data, err := readCSV(r, dealColumns...)
	if err != nil || data == nil {
		return nil, err
	}
	var raw []*dealCSV
	if err := decode(data, &raw); err != nil {
		return nil, err
	}

	deals := make([]domain.DealRow, 0, len(raw))
	for _, d := range raw {
		typ := strings.ToLower(strings.TrimSpace(d.Type))
		if typ != domain.DealTypeBuy && typ != domain.DealTypeSell {
			continue
		}
		deals = append(deals, domain.DealRow{
			DealID:     toInt64(d.Deal),
			OrderID:    toInt64(d.Order),
			PositionID: toInt64(d.Position),
			Symbol:     strings.TrimSpace(d.Symbol),
			Side:       strings.ToLower(strings.TrimSpace(d.Direction)),
			Type:       typ,
			Time:       strings.TrimSpace(d.Time),
			Price:      toFloat(d.Price),
			Volume:     toFloat(d.Volume),
			Profit:     d.Profit,
			Commission: d.Commission,
			Swap:       d.Swap,
			Balance:    d.Balance,
			Comment:    d.Comment,
		})
	}
	return deals, nil
}
