package cart

// Reconcile merges raw records into aggregated line items.
//
// Records sharing (productId, name, price) collapse into a single
// entry whose quantity is the sum of the inputs and whose RecordIDs
// lists every subsumed row. Output order is first-occurrence order.
// Entries whose price is not a positive number are dropped; they are
// never displayed and never mutated.
//
// Carts are small, so a linear scan-and-match is enough.
func Reconcile(records []Record) []LineItem {
	var items []LineItem

	for _, rec := range records {
		merged := false
		for i := range items {
			if items[i].ProductID == rec.ProductID &&
				items[i].Name == rec.Name &&
				items[i].Price == rec.Price {
				items[i].Quantity += rec.Quantity
				if rec.ID != "" {
					items[i].RecordIDs = append(items[i].RecordIDs, rec.ID)
				}
				merged = true
				break
			}
		}
		if merged {
			continue
		}

		it := LineItem{
			ProductID: rec.ProductID,
			Name:      rec.Name,
			Price:     rec.Price,
			Currency:  rec.Currency,
			Image:     rec.Image,
			Quantity:  rec.Quantity,
		}
		if rec.ID != "" {
			it.RecordIDs = []string{rec.ID}
		}
		items = append(items, it)
	}

	// Drop invalid entries after merging so a valid and an invalid row
	// with the same key never produce two visible entries.
	valid := items[:0]
	for _, it := range items {
		if it.Price > 0 {
			valid = append(valid, it)
		}
	}
	return valid
}
