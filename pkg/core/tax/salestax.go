package tax

// SalesTaxResult splits the consumption tax on one taxable amount.
type SalesTaxResult struct {
	Province     Province       `json:"province"`
	Regime       SalesTaxRegime `json:"regime"`
	Amount       float64        `json:"amount"`
	GST          float64        `json:"gst"`
	HST          float64        `json:"hst"`
	PST          float64        `json:"pst"`
	QST          float64        `json:"qst"`
	TotalTax     float64        `json:"total_tax"`
	TotalWithTax float64        `json:"total_with_tax"`
	Rate         float64        `json:"rate"`
}

// CalculateSalesTax applies the province's regime to amount. Each component
// is levied on the pre-tax amount; QST has not compounded on GST since 2013.
func CalculateSalesTax(amount float64, p Province) (SalesTaxResult, error) {
	r, err := ProvincialSalesTax(p)
	if err != nil {
		return SalesTaxResult{}, err
	}
	gst, hst, pst, qst := amount*r.GST, amount*r.HST, amount*r.PST, amount*r.QST
	total := gst + hst + pst + qst
	return SalesTaxResult{
		Province:     p,
		Regime:       r.Regime,
		Amount:       Round2(amount),
		GST:          Round2(gst),
		HST:          Round2(hst),
		PST:          Round2(pst),
		QST:          Round2(qst),
		TotalTax:     Round2(total),
		TotalWithTax: Round2(amount + total),
		Rate:         roundRate(r.Total()),
	}, nil
}
