package folio

// TransactionStats counts a set of transactions.
type TransactionStats struct {
	Count     int
	BySide    map[Side]int
	Fees      Money // fee transactions only
	Dividends Money
	Bought    Money // gross, fees excluded
	Sold      Money
}

// Stats computes statistics over txs, all in currency.
func Stats(currency string, txs []Transaction) TransactionStats {
	s := TransactionStats{
		Count:     len(txs),
		BySide:    make(map[Side]int),
		Fees:      M(0, currency),
		Dividends: M(0, currency),
		Bought:    M(0, currency),
		Sold:      M(0, currency),
	}
	for _, tx := range txs {
		s.BySide[tx.Side]++
		if !sameCurrency(currency, tx.Currency()) {
			continue
		}
		switch tx.Side {
		case Buy:
			s.Bought = s.Bought.Add(tx.Amount())
		case Sell:
			s.Sold = s.Sold.Add(tx.Amount())
		case Dividend:
			s.Dividends = s.Dividends.Add(tx.Amount())
		case Fee:
			s.Fees = s.Fees.Add(tx.Fee)
		}
	}
	return s
}
