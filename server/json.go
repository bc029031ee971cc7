package server

import (
	"github.com/shopspring/decimal"

	"github.com/etnz/folio"
)

type holdingJSON struct {
	Symbol        string          `json:"symbol"`
	Currency      string          `json:"currency"`
	Quantity      decimal.Decimal `json:"quantity"`
	AverageCost   decimal.Decimal `json:"averageCost"`
	Price         decimal.Decimal `json:"price"`
	Value         decimal.Decimal `json:"value"`
	CostBasis     decimal.Decimal `json:"costBasis"`
	Unrealized    decimal.Decimal `json:"unrealized"`
	ProfitPercent float64         `json:"profitPercent"`
	Realized      decimal.Decimal `json:"realized"`
}

func newHoldingJSON(h folio.Holding) holdingJSON {
	return holdingJSON{
		Symbol:        h.Symbol,
		Currency:      h.Currency(),
		Quantity:      h.Quantity.Decimal(),
		AverageCost:   h.AverageCost.Decimal(),
		Price:         h.Price.Decimal(),
		Value:         h.Value().Decimal(),
		CostBasis:     h.CostBasis().Decimal(),
		Unrealized:    h.Unrealized().Decimal(),
		ProfitPercent: float64(h.ProfitPercent()),
		Realized:      h.Realized.Decimal(),
	}
}

type portfolioJSON struct {
	Currency      string          `json:"currency"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	TotalCost     decimal.Decimal `json:"totalCost"`
	TotalProfit   decimal.Decimal `json:"totalProfit"`
	ProfitPercent float64         `json:"profitPercent"`
	Realized      decimal.Decimal `json:"realized"`
	Holdings      []holdingJSON   `json:"holdings"`
}

func newPortfolioJSON(p *folio.Portfolio) portfolioJSON {
	out := portfolioJSON{
		Currency:      p.Currency,
		TotalValue:    p.TotalValue.Decimal(),
		TotalCost:     p.TotalCost.Decimal(),
		TotalProfit:   p.TotalProfit.Decimal(),
		ProfitPercent: float64(p.ProfitPercent),
		Realized:      p.Realized.Decimal(),
		Holdings:      []holdingJSON{},
	}
	for _, h := range p.Holdings {
		out.Holdings = append(out.Holdings, newHoldingJSON(h))
	}
	return out
}

type recommendationJSON struct {
	Symbol     string          `json:"symbol"`
	Current    float64         `json:"currentWeight"`
	Target     float64         `json:"targetWeight"`
	Value      decimal.Decimal `json:"value"`
	Difference decimal.Decimal `json:"difference"`
	Action     string          `json:"action"`
}
