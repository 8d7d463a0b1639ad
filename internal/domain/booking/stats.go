package booking

// MonthlyStatsLimit は月別売上の最大件数
const MonthlyStatsLimit = 12

// Stats は予約台帳の集計結果
type Stats struct {
	TotalBookings  int
	ConfirmedCount int
	CancelledCount int
	TotalRevenue   int
	MonthlyRevenue []MonthlyRevenue
}

// MonthlyRevenue は月別の売上（支払い完了分のみ）
type MonthlyRevenue struct {
	Year    int
	Month   int
	Revenue int
	Count   int
}
