package analytics

// PointsSummary totals a loyalty ledger.
type PointsSummary struct {
	Balance  int `json:"balance"`
	Earned   int `json:"earned"`
	Redeemed int `json:"redeemed"`
}

// SummarizePoints sums earned and redeemed points. Redeemed is reported as a positive number.
func SummarizePoints(txs []PointsTransaction) PointsSummary {
	var s PointsSummary
	for _, tx := range txs {
		if tx.Points >= 0 {
			s.Earned += tx.Points
		} else {
			s.Redeemed -= tx.Points
		}
	}
	s.Balance = s.Earned - s.Redeemed
	return s
}

// BucketPoints is the net points change in a bucket.
type BucketPoints struct {
	Bucket Bucket `json:"bucket"`
	Net    int    `json:"net"`
}

// PointsByBucket nets the ledger per bucket.
func PointsByBucket(txs []PointsTransaction, buckets []Bucket) []BucketPoints {
	out := make([]BucketPoints, len(buckets))
	for i, b := range buckets {
		out[i].Bucket = b
	}
	for _, tx := range txs {
		if i := bucketIndex(buckets, tx.Date); i >= 0 {
			out[i].Net += tx.Points
		}
	}
	return out
}
